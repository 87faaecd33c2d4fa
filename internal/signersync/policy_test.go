package signersync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/treasury/pkg/types"
)

func TestPolicy_AddThreshold(t *testing.T) {
	tests := []struct {
		name     string
		policy   string
		current  int
		newCount int
		want     int
	}{
		{"keep leaves threshold", AddKeep, 1, 2, 1},
		{"keep at two", AddKeep, 2, 4, 2},
		{"increment raises", AddIncrement, 1, 2, 2},
		{"increment bounded by signers", AddIncrement, 3, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Policy{OnAdd: tt.policy, OnRemove: RemoveClamp}
			assert.Equal(t, tt.want, p.AddThreshold(tt.current, tt.newCount))
		})
	}
}

func TestPolicy_RemoveThreshold(t *testing.T) {
	tests := []struct {
		name     string
		policy   string
		current  int
		newCount int
		want     int
	}{
		{"clamp down to signer count", RemoveClamp, 2, 1, 1},
		{"clamp keeps when room", RemoveClamp, 2, 3, 2},
		{"clamp never below one", RemoveClamp, 1, 0, 1},
		{"decrement lowers", RemoveDecrement, 3, 4, 2},
		{"decrement never below one", RemoveDecrement, 1, 2, 1},
		{"decrement bounded by signers", RemoveDecrement, 4, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Policy{OnAdd: AddKeep, OnRemove: tt.policy}
			assert.Equal(t, tt.want, p.RemoveThreshold(tt.current, tt.newCount))
		})
	}
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())
	assert.NoError(t, Policy{OnAdd: AddIncrement, OnRemove: RemoveDecrement}.Validate())
	assert.ErrorIs(t, Policy{OnAdd: "double", OnRemove: RemoveClamp}.Validate(), types.ErrInvalidInput)
	assert.ErrorIs(t, Policy{OnAdd: AddKeep, OnRemove: ""}.Validate(), types.ErrInvalidInput)
}
