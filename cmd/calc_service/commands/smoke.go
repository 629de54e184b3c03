package commands

import (
	"context"
	"fmt"
	"time"

	"bread-calculator/internal/client"
	"bread-calculator/internal/config"
	"bread-calculator/internal/smoke"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type credentialFlags struct {
	username string
	email    string
	password string
	unique   bool
}

func (c *credentialFlags) register(f *pflag.FlagSet) {
	def := smoke.DefaultCredentials()
	f.StringVar(&c.username, "username", def.Username, "Username to register and log in with")
	f.StringVar(&c.email, "email", def.Email, "Email to register with")
	f.StringVar(&c.password, "password", def.Password, "Password to register and log in with")
	f.BoolVar(&c.unique, "unique", false, "Suffix username and email so reruns do not collide")
}

func (c *credentialFlags) credentials() smoke.Credentials {
	creds := smoke.Credentials{Username: c.username, Email: c.email, Password: c.password}
	if c.unique {
		return creds.Unique()
	}
	return creds
}

func registerClientFlags(f *pflag.FlagSet) {
	f.String("base-url", "http://localhost:8000", "Base URL of the server under test")
	f.Duration("wait-timeout", 0, "Wait up to this long for /health before starting (0 disables)")
	f.Duration("request-timeout", client.DefaultTimeout, "Per-request timeout")
}

var smokeCreds credentialFlags

var smokeCmd = &cobra.Command{
	Use:     "smoke",
	Short:   "Run the full register, login and BREAD sequence against a server",
	Args:    cobra.NoArgs,
	PreRunE: bindFlags,
	RunE:    runSmoke,
}

func init() {
	registerClientFlags(smokeCmd.Flags())
	smokeCreds.register(smokeCmd.Flags())
}

func runSmoke(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Testing API at %s\n", cfg.BaseURL)

	c, err := connect(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	report, err := smoke.NewRunner(c, out, smokeCreds.credentials()).Run(cmd.Context())
	if err != nil {
		return err
	}
	log.Debug("smoke run finished", zap.Int("steps", len(report.Results)))
	return nil
}

func connect(ctx context.Context, cfg config.Config, log *zap.Logger) (*client.Client, error) {
	c := client.New(cfg.BaseURL, client.WithTimeout(cfg.RequestTimeout))
	if cfg.WaitTimeout <= 0 {
		return c, nil
	}

	log.Info("waiting for server", zap.String("base_url", cfg.BaseURL), zap.Duration("timeout", cfg.WaitTimeout))
	waitCtx, cancel := context.WithTimeout(ctx, cfg.WaitTimeout)
	defer cancel()

	start := time.Now()
	if err := c.WaitReady(waitCtx); err != nil {
		return nil, fmt.Errorf("server at %s not ready: %w", cfg.BaseURL, err)
	}
	log.Info("server ready", zap.Duration("waited", time.Since(start)))
	return c, nil
}
