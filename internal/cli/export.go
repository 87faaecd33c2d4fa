package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write a JSONL snapshot of accounts, bindings and proposals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				stats, err := a.backend.Export(cmd.Context(), args[0])
				if err != nil {
					return systemErr("export: %w", err)
				}
				if flags.jsonMode {
					return printJSON(cmd, stats)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d accounts, %d configurations, %d bindings, %d proposals to %s\n",
					stats.Accounts, stats.Configurations, stats.Bindings, stats.Proposals, args[0])
				return nil
			})
		},
	}
}
