package types

import "time"

// Binding links one organizational group to one custodial account.
type Binding struct {
	BindingID string    `json:"binding_id"` // UUID v7, generated on creation.
	GroupID   string    `json:"group_id"`   // Group identifier owned by the membership system.
	AccountID string    `json:"account_id"` // Account.AccountID of the bound treasury.
	CreatedAt time.Time `json:"created_at"` // Timestamp of creation.
}
