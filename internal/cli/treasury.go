package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/treasury/internal/treasury"
	"github.com/mesh-intelligence/treasury/pkg/types"
)

func newCreateCmd() *cobra.Command {
	var (
		req  treasury.CreateRequest
		salt int64
	)
	cmd := &cobra.Command{
		Use:   "create <group>",
		Short: "Record a new pending treasury for a group",
		Long: "Create stores a pending Safe account with its signer configuration and binds\n" +
			"it to the group. Deploy the Safe, then record its address with 'activate'.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.GroupID = args[0]
			if cmd.Flags().Changed("salt") {
				req.SaltNonce = &salt
			}
			return withApp(func(a *app) error {
				tr, err := a.service.Create(cmd.Context(), req)
				if err != nil {
					return serviceErr(err)
				}
				if flags.jsonMode {
					return printJSON(cmd, tr)
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Created treasury for group %s\n", req.GroupID)
				printAccount(w, tr.Account)
				printConfiguration(w, tr.Configuration)
				fmt.Fprintf(w, "Salt:      %d\n", tr.Configuration.SaltNonce)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Network, "network", types.NetworkSepolia, "network to deploy on (mainnet, sepolia, hardhat)")
	cmd.Flags().IntVar(&req.Threshold, "threshold", 1, "signatures required to execute")
	cmd.Flags().StringSliceVar(&req.AdminSigners, "admin", nil, "administrator signer address (repeatable)")
	cmd.Flags().StringSliceVar(&req.AdditionalSigners, "signer", nil, "additional signer address (repeatable)")
	cmd.Flags().Int64Var(&salt, "salt", 0, "deployment salt nonce (default: current unix time)")
	cmd.Flags().StringVar(&req.CreatedBy, "created-by", "", "member creating the treasury")
	return cmd
}

func newActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate <account-id> <address>",
		Short: "Record the deployed address of a pending treasury",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				account, err := a.service.Activate(cmd.Context(), args[0], args[1])
				if err != nil {
					return serviceErr(err)
				}
				if flags.jsonMode {
					return printJSON(cmd, account)
				}
				printAccount(cmd.OutOrStdout(), account)
				return nil
			})
		},
	}
}

func newReconnectCmd() *cobra.Command {
	var req treasury.ReconnectRequest
	cmd := &cobra.Command{
		Use:   "reconnect <group> <address>",
		Short: "Bind a group to an existing deployed Safe",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.GroupID, req.Address = args[0], args[1]
			return withApp(func(a *app) error {
				tr, err := a.service.Reconnect(cmd.Context(), req)
				if err != nil {
					return serviceErr(err)
				}
				if flags.jsonMode {
					return printJSON(cmd, tr)
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Reconnected group %s\n", req.GroupID)
				printAccount(w, tr.Account)
				printConfiguration(w, tr.Configuration)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Network, "network", types.NetworkSepolia, "network the Safe is deployed on")
	cmd.Flags().StringVar(&req.CreatedBy, "created-by", "", "member performing the reconnect")
	return cmd
}

func newUnbindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unbind <group>",
		Short: "Remove a group's treasury binding; the account is kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				if err := a.service.Remove(cmd.Context(), args[0]); err != nil {
					return serviceErr(err)
				}
				if flags.jsonMode {
					return printJSON(cmd, map[string]string{"group_id": args[0], "status": "unbound"})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Group %s has no treasury\n", args[0])
				return nil
			})
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <group>",
		Short: "Show a group's treasury, its signers and recent proposals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				view, err := a.service.View(cmd.Context(), args[0])
				if err != nil {
					return serviceErr(err)
				}
				if flags.jsonMode {
					return printJSON(cmd, view)
				}
				return renderView(cmd, view)
			})
		},
	}
}

func renderView(cmd *cobra.Command, v *treasury.View) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Group:     %s\nState:     %s\n", v.GroupID, v.State)
	if v.Account == nil {
		return nil
	}
	printAccount(w, v.Account)
	printConfiguration(w, v.Configuration)
	if v.Accessibility != nil {
		printAccessibility(w, *v.Accessibility)
	}
	if v.State == treasury.StateActive {
		fmt.Fprintf(w, "Next nonce: %d\n", v.NextNonce)
		printProposals(w, v.Proposals)
	}
	return nil
}
