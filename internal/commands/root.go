package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tellerline/teller/internal/buildinfo"
	"github.com/tellerline/teller/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "teller",
		Short:   "Multi-customer bank ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.FileName, "path to teller.yaml")

	rootCmd.AddCommand(
		newInitCommand(),
		newCustomersCommand(&configPath),
		newOnboardCommand(&configPath),
		newBalanceCommand(&configPath),
		newDepositCommand(&configPath),
		newWithdrawCommand(&configPath),
		newTransferCommand(&configPath),
		newTransferExternalCommand(&configPath),
		newServeCommand(&configPath),
	)

	return rootCmd
}
