package types

// Membership change kinds raised by the group-membership system.
const (
	ChangeRoleGranted   = "role_granted"
	ChangeRoleRevoked   = "role_revoked"
	ChangeMemberRemoved = "member_removed"
)

var validChangeKinds = map[string]bool{
	ChangeRoleGranted:   true,
	ChangeRoleRevoked:   true,
	ChangeMemberRemoved: true,
}

// ValidChangeKind reports whether k is a recognized change kind.
func ValidChangeKind(k string) bool {
	return validChangeKinds[k]
}

// MembershipEvent notifies that a member's administrative role or group
// membership changed. Address is empty when the member has no on-chain
// address.
type MembershipEvent struct {
	GroupID  string `json:"group_id"`
	MemberID string `json:"member_id"`
	Kind     string `json:"kind"`
	Address  string `json:"address,omitempty"`
}
