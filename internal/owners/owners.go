// Package owners resolves positions in a Safe owner list.
//
// On chain the owners form a singly linked list headed by a sentinel.
// Removing an owner requires naming the owner that points to it. The list is
// kept here as an ordered slice in link order, so the predecessor of an owner
// is simply the element before it.
package owners

import (
	"fmt"

	"github.com/mesh-intelligence/treasury/pkg/types"
)

// SentinelOwners is the head marker of the on-chain owner list. It is the
// predecessor of the first owner.
const SentinelOwners = "0x0000000000000000000000000000000000000001"

// FindPredecessor returns the owner preceding target in signers, or
// SentinelOwners if target is first. Returns ErrNotFound if target is absent,
// which indicates a stale signer configuration.
func FindPredecessor(signers []string, target string) (string, error) {
	for i, s := range signers {
		if !types.SameAddress(s, target) {
			continue
		}
		if i == 0 {
			return SentinelOwners, nil
		}
		return types.CanonicalAddress(signers[i-1])
	}
	return "", fmt.Errorf("%w: owner %s is not in the signer list", types.ErrNotFound, target)
}

// Without returns a copy of signers with target removed, preserving order.
func Without(signers []string, target string) []string {
	out := make([]string, 0, len(signers))
	for _, s := range signers {
		if !types.SameAddress(s, target) {
			out = append(out, s)
		}
	}
	return out
}
