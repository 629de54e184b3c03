package commands

import (
	"errors"
	"fmt"

	"bread-calculator/internal/smoke"

	"github.com/spf13/cobra"
)

var authcheckCreds credentialFlags

var authcheckCmd = &cobra.Command{
	Use:     "authcheck",
	Short:   "Check register, login and a protected endpoint against a server",
	Args:    cobra.NoArgs,
	PreRunE: bindFlags,
	RunE:    runAuthcheck,
}

func init() {
	registerClientFlags(authcheckCmd.Flags())
	authcheckCreds.register(authcheckCmd.Flags())
}

func runAuthcheck(cmd *cobra.Command, _ []string) error {
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
	results, err := smoke.NewAuthChecker(c, out, authcheckCreds.credentials()).Run(cmd.Context())
	if err != nil {
		return err
	}
	if !smoke.AllPassed(results) {
		return errors.New("authentication checks failed")
	}
	return nil
}
