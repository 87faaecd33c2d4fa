package types

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// CanonicalAddress validates a 20-byte hex address and returns it in the
// canonical form used for storage and comparison: lowercase with a 0x prefix.
func CanonicalAddress(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return "", fmt.Errorf("%w: malformed address %q", ErrInvalidInput, s)
	}
	return strings.ToLower(common.HexToAddress(s).Hex()), nil
}

// CanonicalAddresses canonicalizes every element, preserving order.
func CanonicalAddresses(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, s := range in {
		a, err := CanonicalAddress(s)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// SameAddress reports whether a and b name the same account, ignoring case.
func SameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
