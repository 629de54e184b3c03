package commands

import (
	"fmt"
	"strings"

	"bread-calculator/internal/config"
	"bread-calculator/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	settings = config.New()
	envFile  string
)

var rootCmd = &cobra.Command{
	Use:   "calc_service",
	Short: "Calculations API with JWT authentication",
	Long: `calc_service serves a per-user calculations API (register, login and
BREAD over calculations) and ships the smoke checks that exercise it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv(envFile)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (yaml, json or toml)")
	pf.String("log-level", "info", "Log level: debug, info, warn or error")
	pf.StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before reading CALC_* variables")

	_ = settings.BindPFlag(config.KeyConfigFile, pf.Lookup("config"))
	_ = settings.BindPFlag(config.KeyLogLevel, pf.Lookup("log-level"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(smokeCmd)
	rootCmd.AddCommand(authcheckCmd)
}

// bindFlags binds the command's own flags to their config keys at run time,
// so commands that share a key do not steal each other's binding.
func bindFlags(cmd *cobra.Command, _ []string) error {
	var err error
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if bindErr := settings.BindPFlag(key, f); bindErr != nil {
			err = fmt.Errorf("bind flag %s: %w", f.Name, bindErr)
		}
	})
	return err
}

func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(settings)
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
