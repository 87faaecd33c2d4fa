package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/treasury/internal/calldata"
	"github.com/mesh-intelligence/treasury/internal/treasury"
)

func newProposeCmd() *cobra.Command {
	var req treasury.ProposeRequest
	cmd := &cobra.Command{
		Use:   "propose <group>",
		Short: "Queue a transaction for the group's signers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.GroupID = args[0]
			return withApp(func(a *app) error {
				p, err := a.service.Propose(cmd.Context(), req)
				if err != nil {
					return serviceErr(err)
				}
				if flags.jsonMode {
					return printJSON(cmd, p)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Proposed nonce %d: %s wei to %s\n", p.Nonce, p.Value, p.To)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.To, "to", "", "target address")
	cmd.Flags().StringVar(&req.Value, "value", "0", "amount in ether")
	cmd.Flags().StringVar(&req.Data, "data", "", "0x-prefixed call data")
	cmd.Flags().IntVar(&req.Operation, "operation", 0, "0 for call, 1 for delegate call")
	cmd.Flags().StringVar(&req.Description, "description", "", "description shown to signers")
	cmd.Flags().StringVar(&req.CreatedBy, "created-by", "", "member proposing the transaction")
	return cmd
}

func newProposalsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "proposals <group>",
		Short: "List the group's proposals, highest nonce first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				proposals, err := a.service.RecentProposals(cmd.Context(), args[0], limit)
				if err != nil {
					return serviceErr(err)
				}
				if flags.jsonMode {
					return printJSON(cmd, proposals)
				}
				printProposals(cmd.OutOrStdout(), proposals)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", treasury.RecentLimit, "maximum proposals to list (0 for all)")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <calldata>",
		Short: "Decode an owner-management payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := treasury.ParseData(args[0])
			if err != nil {
				return err
			}
			call, err := calldata.Decode(data)
			if err != nil {
				return err
			}
			if flags.jsonMode {
				return printJSON(cmd, call)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Method:     %s\n", call.Method)
			if call.PrevOwner != "" {
				fmt.Fprintf(w, "Prev owner: %s\n", call.PrevOwner)
			}
			fmt.Fprintf(w, "Owner:      %s\nThreshold:  %d\n", call.Owner, call.Threshold)
			return nil
		},
	}
}
