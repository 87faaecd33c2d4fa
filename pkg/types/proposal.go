package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"time"
)

// Proposal states. The core creates proposals pending; signing and execution
// collaborators drive the rest.
const (
	ProposalStatusPending  = "pending"
	ProposalStatusSigned   = "signed"
	ProposalStatusExecuted = "executed"
	ProposalStatusFailed   = "failed"
)

// Operation kinds, numbered as the Safe contract numbers them.
const (
	OperationCall         = 0
	OperationDelegateCall = 1
)

// SystemCreator is recorded as CreatedBy for proposals raised by signer sync.
const SystemCreator = "system"

// Proposal is a pending request to execute a call through an account.
type Proposal struct {
	ProposalID  string    `json:"proposal_id"` // UUID v7, generated on creation.
	AccountID   string    `json:"account_id"`  // Account the call executes through.
	Nonce       int64     `json:"nonce"`       // Per-account sequence number, starting at 0.
	To          string    `json:"to"`          // Canonical target address.
	Value       string    `json:"value"`       // Amount in wei as a base-10 integer string.
	Data        []byte    `json:"-"`           // Encoded call payload; empty for plain transfers.
	Operation   int       `json:"operation"`   // OperationCall or OperationDelegateCall.
	Status      string    `json:"status"`      // One of the ProposalStatus constants.
	CreatedBy   string    `json:"created_by"`  // Member ID or SystemCreator.
	Description string    `json:"description"` // Human-readable description for signers.
	CreatedAt   time.Time `json:"created_at"`  // Timestamp of creation.
}

// MarshalJSON renders Data as 0x-prefixed hex.
func (p Proposal) MarshalJSON() ([]byte, error) {
	type plain Proposal
	return json.Marshal(struct {
		plain
		Data string `json:"data"`
	}{plain: plain(p), Data: "0x" + hex.EncodeToString(p.Data)})
}

// Validate checks the fields a backend requires before inserting.
func (p *Proposal) Validate() error {
	if p.AccountID == "" {
		return fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}
	if p.Nonce < 0 {
		return fmt.Errorf("%w: negative nonce", ErrInvalidInput)
	}
	to, err := CanonicalAddress(p.To)
	if err != nil {
		return err
	}
	p.To = to
	if p.Value == "" {
		p.Value = "0"
	}
	v, ok := new(big.Int).SetString(p.Value, 10)
	if !ok || v.Sign() < 0 {
		return fmt.Errorf("%w: value %q is not a non-negative integer", ErrInvalidInput, p.Value)
	}
	if p.Operation != OperationCall && p.Operation != OperationDelegateCall {
		return fmt.Errorf("%w: unknown operation %d", ErrInvalidInput, p.Operation)
	}
	if p.Status == "" {
		p.Status = ProposalStatusPending
	}
	return nil
}
