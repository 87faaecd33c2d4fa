package types

import (
	"fmt"
	"time"
)

// Account states. An account is created pending and becomes active once its
// contract is deployed (or reconnected) at a known address.
const (
	AccountStatusPending = "pending"
	AccountStatusActive  = "active"
)

// Networks a treasury can be deployed to.
const (
	NetworkSepolia = "sepolia"
	NetworkHardhat = "hardhat"
	NetworkMainnet = "mainnet"
)

var validNetworks = map[string]bool{
	NetworkSepolia: true,
	NetworkHardhat: true,
	NetworkMainnet: true,
}

// ValidNetwork reports whether n is a supported network name.
func ValidNetwork(n string) bool {
	return validNetworks[n]
}

// Account is a custodial multi-signature account (a Safe).
type Account struct {
	AccountID string    `json:"account_id"` // UUID v7, generated on creation.
	Network   string    `json:"network"`    // Network name (one of the Network constants).
	Address   string    `json:"address"`    // Canonical on-chain address; empty while pending.
	Status    string    `json:"status"`     // One of the AccountStatus constants.
	CreatedBy string    `json:"created_by"` // Member that created the treasury.
	CreatedAt time.Time `json:"created_at"` // Timestamp of creation.
	UpdatedAt time.Time `json:"updated_at"` // Timestamp of last modification.
}

// IsActive reports whether the account is deployed and usable.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// Activate records the deployed address and moves the account from pending
// to active. Returns ErrInvalidTransition if the account is already active.
func (a *Account) Activate(address string) error {
	if a.Status != AccountStatusPending {
		return ErrInvalidTransition
	}
	addr, err := CanonicalAddress(address)
	if err != nil {
		return err
	}
	a.Address = addr
	a.Status = AccountStatusActive
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Validate checks the fields a backend requires before persisting.
func (a *Account) Validate() error {
	if !ValidNetwork(a.Network) {
		return fmt.Errorf("%w: unknown network %q", ErrInvalidInput, a.Network)
	}
	switch a.Status {
	case AccountStatusPending:
	case AccountStatusActive:
		if _, err := CanonicalAddress(a.Address); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown account status %q", ErrInvalidInput, a.Status)
	}
	return nil
}
