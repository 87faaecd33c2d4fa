package signersync

import (
	"fmt"

	"github.com/mesh-intelligence/treasury/pkg/types"
)

// Threshold policy names, as used in configuration.
const (
	AddKeep         = "keep"
	AddIncrement    = "increment"
	RemoveClamp     = "clamp"
	RemoveDecrement = "decrement"
)

// Policy decides the threshold that accompanies an owner change.
//
// The defaults (keep on add, clamp on remove) reproduce the behaviour groups
// already rely on. Both are awaiting product sign-off.
type Policy struct {
	OnAdd    string
	OnRemove string
}

func DefaultPolicy() Policy {
	return Policy{OnAdd: AddKeep, OnRemove: RemoveClamp}
}

func (p Policy) Validate() error {
	switch p.OnAdd {
	case AddKeep, AddIncrement:
	default:
		return fmt.Errorf("%w: unknown add threshold policy %q", types.ErrInvalidInput, p.OnAdd)
	}
	switch p.OnRemove {
	case RemoveClamp, RemoveDecrement:
	default:
		return fmt.Errorf("%w: unknown remove threshold policy %q", types.ErrInvalidInput, p.OnRemove)
	}
	return nil
}

// AddThreshold returns the threshold after adding one signer, given the
// current threshold and the signer count after the add.
func (p Policy) AddThreshold(current, newCount int) int {
	t := current
	if p.OnAdd == AddIncrement {
		t = current + 1
	}
	return clamp(t, newCount)
}

// RemoveThreshold returns the threshold after removing one signer, given the
// current threshold and the signer count after the removal.
func (p Policy) RemoveThreshold(current, newCount int) int {
	t := current
	if p.OnRemove == RemoveDecrement {
		t = current - 1
	}
	return clamp(t, newCount)
}

// clamp bounds t to 1..max.
func clamp(t, max int) int {
	if t > max {
		t = max
	}
	if t < 1 {
		t = 1
	}
	return t
}
