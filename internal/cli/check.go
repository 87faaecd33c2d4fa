package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/treasury/internal/accessibility"
	"github.com/mesh-intelligence/treasury/pkg/types"
)

type checkResult struct {
	Account       *types.Account              `json:"account"`
	Accessibility accessibility.Accessibility `json:"accessibility"`
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [group]",
		Short: "Check that treasuries are reachable on-chain",
		Long:  "Check queries the Safe Transaction Service for one group's treasury, or for\nevery stored account when no group is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				var results []checkResult
				if len(args) == 1 {
					account, acc, err := a.service.CheckGroup(cmd.Context(), args[0])
					if err != nil {
						return serviceErr(err)
					}
					results = append(results, checkResult{account, acc})
				} else {
					accounts, accs, err := a.service.CheckAll(cmd.Context())
					if err != nil {
						return serviceErr(err)
					}
					for i := range accounts {
						results = append(results, checkResult{accounts[i], accs[i]})
					}
				}

				if flags.jsonMode {
					return printJSON(cmd, results)
				}
				w := cmd.OutOrStdout()
				if len(results) == 0 {
					fmt.Fprintln(w, "No accounts")
				}
				for i, r := range results {
					if i > 0 {
						fmt.Fprintln(w)
					}
					printAccount(w, r.Account)
					printAccessibility(w, r.Accessibility)
				}
				return nil
			})
		},
	}
}
