package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/treasury/internal/signersync"
	"github.com/mesh-intelligence/treasury/pkg/types"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <group> <member-id> <role_granted|role_revoked|member_removed> [address]",
		Short: "Apply a membership change to the group's signer set",
		Long: "Sync feeds one membership change to the signer sync engine. When the change\n" +
			"adds or removes a signer, an owner-management proposal is queued under the\n" +
			"account's next nonce.",
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev := types.MembershipEvent{GroupID: args[0], MemberID: args[1], Kind: args[2]}
			if len(args) == 4 {
				ev.Address = args[3]
			}
			return withApp(func(a *app) error {
				out, err := a.service.HandleMembershipEvent(cmd.Context(), ev)
				if err != nil {
					return serviceErr(err)
				}
				if flags.jsonMode {
					return printJSON(cmd, out)
				}
				w := cmd.OutOrStdout()
				if out.Action == signersync.ActionNoOp || out.Proposal == nil {
					fmt.Fprintf(w, "No change: %s\n", out.Reason)
					return nil
				}
				fmt.Fprintf(w, "Proposed %s at nonce %d\n%s\n", callName(out.Proposal.Data), out.Proposal.Nonce, out.Proposal.Description)
				return nil
			})
		},
	}
}
