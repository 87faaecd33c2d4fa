package types

import (
	"fmt"
	"time"
)

// DefaultSafeVersion is the contract version recorded for new treasuries.
const DefaultSafeVersion = "1.4.1"

// SignerConfiguration is the intended owner set and threshold of an account.
// Signers preserve on-chain linked-list order, not creation order.
type SignerConfiguration struct {
	AccountID string    `json:"account_id"`
	Signers   []string  `json:"signers"`
	Threshold int       `json:"threshold"`
	Version   string    `json:"version"`
	SaltNonce int64     `json:"salt_nonce"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate canonicalizes the signers in place and checks the threshold range
// and signer uniqueness.
func (c *SignerConfiguration) Validate() error {
	if len(c.Signers) == 0 {
		return fmt.Errorf("%w: at least one signer is required", ErrInvalidInput)
	}
	signers, err := CanonicalAddresses(c.Signers)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(signers))
	for _, s := range signers {
		if seen[s] {
			return fmt.Errorf("%w: duplicate signer %s", ErrInvalidInput, s)
		}
		seen[s] = true
	}
	if c.Threshold < 1 || c.Threshold > len(signers) {
		return fmt.Errorf("%w: threshold %d out of range 1..%d", ErrInvalidInput, c.Threshold, len(signers))
	}
	if c.SaltNonce < 0 {
		return fmt.Errorf("%w: salt nonce must be non-negative", ErrInvalidInput)
	}
	c.Signers = signers
	return nil
}

// IsSigner reports whether address is in the signer set, ignoring case.
func (c *SignerConfiguration) IsSigner(address string) bool {
	for _, s := range c.Signers {
		if SameAddress(s, address) {
			return true
		}
	}
	return false
}
