package types

import (
	"errors"
	"fmt"
)

// Backend lifecycle errors.
var (
	ErrBackendDetached = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)

// Domain errors. Callers match them with errors.Is; producers wrap them with
// context using fmt.Errorf and %w.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrAlreadyBound       = errors.New("group already has a treasury")
	ErrNotFound           = errors.New("entity not found")
	ErrAllocationConflict = errors.New("nonce allocation conflict")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrAccountNotActive   = errors.New("treasury account is not active")
)

// ProviderError is returned by chain-state providers. Code is the provider's
// numeric status (an HTTP status for the Safe API, 0 for transport failures).
type ProviderError struct {
	Message string
	Code    int
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}
