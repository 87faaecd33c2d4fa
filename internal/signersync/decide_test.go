package signersync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/treasury/pkg/types"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		kind     string
		isSigner bool
		want     Action
	}{
		{types.ChangeRoleGranted, false, ActionAdd},
		{types.ChangeRoleGranted, true, ActionNoOp},
		{types.ChangeRoleRevoked, true, ActionRemove},
		{types.ChangeRoleRevoked, false, ActionNoOp},
		{types.ChangeMemberRemoved, true, ActionRemove},
		{types.ChangeMemberRemoved, false, ActionNoOp},
		{"role_renamed", true, ActionNoOp},
		{"", false, ActionNoOp},
	}
	for _, tt := range tests {
		name := tt.kind
		if tt.isSigner {
			name += "/signer"
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.kind, tt.isSigner))
		})
	}
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "add", ActionAdd.String())
	assert.Equal(t, "remove", ActionRemove.String())
	assert.Equal(t, "noop", ActionNoOp.String())
}
