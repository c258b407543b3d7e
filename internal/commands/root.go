package commands

import (
	"github.com/spf13/cobra"

	"github.com/cashcheck-dev/cashcheck/internal/buildinfo"
	"github.com/cashcheck-dev/cashcheck/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "cashcheck",
		Short:   "Personal finance CSV ingestion for Chase and Venmo",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.FileName, "path to cashcheck.yaml")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newDetectCommand())
	rootCmd.AddCommand(newImportCommand(&configPath))
	rootCmd.AddCommand(newTransfersCommand(&configPath))
	rootCmd.AddCommand(newReapplyCommand(&configPath))
	rootCmd.AddCommand(newServeCommand(&configPath))

	return rootCmd
}
