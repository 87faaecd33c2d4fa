package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/treasury/internal/accessibility"
	"github.com/mesh-intelligence/treasury/internal/calldata"
	"github.com/mesh-intelligence/treasury/pkg/types"
)

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printAccount(w io.Writer, a *types.Account) {
	fmt.Fprintf(w, "Account:   %s\n", a.AccountID)
	fmt.Fprintf(w, "Network:   %s\n", a.Network)
	fmt.Fprintf(w, "Status:    %s\n", a.Status)
	if a.Address != "" {
		fmt.Fprintf(w, "Address:   %s\n", a.Address)
	}
}

func printConfiguration(w io.Writer, c *types.SignerConfiguration) {
	if c == nil {
		return
	}
	fmt.Fprintf(w, "Threshold: %d of %d\n", c.Threshold, len(c.Signers))
	for _, s := range c.Signers {
		fmt.Fprintf(w, "  signer   %s\n", s)
	}
}

func printAccessibility(w io.Writer, acc accessibility.Accessibility) {
	if acc.Accessible {
		balance := acc.Balance + " wei"
		if acc.BalanceError != "" {
			balance = "unknown: " + acc.BalanceError
		}
		fmt.Fprintf(w, "Accessible: yes (balance %s, threshold %d, %d owners)\n", balance, acc.Threshold, len(acc.Owners))
		return
	}
	fmt.Fprintf(w, "Accessible: no (%s", acc.Class)
	if acc.ErrorCode != 0 {
		fmt.Fprintf(w, " %d", acc.ErrorCode)
	}
	fmt.Fprintf(w, ": %s)\n", acc.Error)
	if len(acc.RecoveryOptions) > 0 {
		fmt.Fprintf(w, "Recovery:   %s\n", strings.Join(acc.RecoveryOptions, ", "))
	}
}

func printProposals(w io.Writer, proposals []*types.Proposal) {
	if len(proposals) == 0 {
		fmt.Fprintln(w, "No proposals")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NONCE\tTO\tVALUE (wei)\tCALL\tSTATUS\tDESCRIPTION")
	for _, p := range proposals {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", p.Nonce, p.To, p.Value, callName(p.Data), p.Status, p.Description)
	}
	tw.Flush()
}

// callName labels a payload for listings.
func callName(data []byte) string {
	switch {
	case len(data) == 0:
		return "transfer"
	case calldata.IsAddOwner(data):
		return calldata.MethodAddOwner
	case calldata.IsRemoveOwner(data):
		return calldata.MethodRemoveOwner
	default:
		return fmt.Sprintf("0x%x", data[:min(4, len(data))])
	}
}
