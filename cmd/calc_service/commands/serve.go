package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bread-calculator/internal/auth"
	"bread-calculator/internal/metrics"
	"bread-calculator/internal/server"
	"bread-calculator/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Run the calculations API server",
	Args:    cobra.NoArgs,
	PreRunE: bindFlags,
	RunE:    runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String("listen-addr", ":8000", "Address to listen on")
	f.String("database-dsn", "calculator.db", "SQLite file path or postgres:// URL")
	f.String("jwt-secret", "", "HMAC secret for access tokens (random per process when empty)")
	f.Duration("token-ttl", auth.DefaultTokenTTL, "Access token lifetime")
	f.Duration("shutdown-timeout", 10*time.Second, "Grace period for in-flight requests on shutdown")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	key, generated, err := auth.SigningKey(cfg.JWTSecret)
	if err != nil {
		return err
	}
	if generated {
		log.Warn("no jwt secret configured, using a random key; tokens will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend := "sqlite"
	if storage.IsPostgresDSN(cfg.DatabaseDSN) {
		backend = "postgres"
	}
	st, err := storage.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", backend, err)
	}
	defer st.Close()
	log.Info("storage ready", zap.String("backend", backend))

	srv := server.New(cfg, st, key, log, metrics.New())
	return srv.Run(ctx)
}
