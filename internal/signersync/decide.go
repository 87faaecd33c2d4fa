// Package signersync turns group membership changes into owner-management
// proposals against the group's treasury account.
package signersync

import "github.com/mesh-intelligence/treasury/pkg/types"

// Action is what a membership change requires of the signer set.
type Action int

const (
	ActionNoOp Action = iota
	ActionAdd
	ActionRemove
)

func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	default:
		return "noop"
	}
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

type decisionKey struct {
	kind     string
	isSigner bool
}

// decisions lists the combinations that change the signer set. Everything
// else is a no-op.
var decisions = map[decisionKey]Action{
	{types.ChangeRoleGranted, false}:  ActionAdd,
	{types.ChangeRoleRevoked, true}:   ActionRemove,
	{types.ChangeMemberRemoved, true}: ActionRemove,
}

// Decide maps a change kind and the member's current signer status to an
// action.
func Decide(kind string, isSigner bool) Action {
	return decisions[decisionKey{kind, isSigner}]
}
