package treasury

import (
	"context"

	"github.com/mesh-intelligence/treasury/internal/accessibility"
	"github.com/mesh-intelligence/treasury/internal/binding"
	"github.com/mesh-intelligence/treasury/pkg/types"
)

// State summarizes a group's treasury for display.
type State string

const (
	StateNone         State = "none"
	StatePending      State = "pending"
	StateInaccessible State = "inaccessible"
	StateActive       State = "active"
)

// View is everything needed to render a group's treasury page. CacheTags
// name the invalidation scopes the view depends on.
type View struct {
	GroupID       string                       `json:"group_id"`
	State         State                        `json:"state"`
	Account       *types.Account               `json:"account,omitempty"`
	Configuration *types.SignerConfiguration   `json:"configuration,omitempty"`
	Accessibility *accessibility.Accessibility `json:"accessibility,omitempty"`
	Proposals     []*types.Proposal            `json:"proposals,omitempty"`
	NextNonce     int64                        `json:"next_nonce"`
	CacheTags     []string                     `json:"cache_tags"`
}

// View builds the treasury view of groupID. Only active accounts are checked
// against the chain.
func (s *Service) View(ctx context.Context, groupID string) (*View, error) {
	v := &View{GroupID: groupID, State: StateNone, CacheTags: []string{binding.GroupTag(groupID)}}

	accountID, ok, err := s.Bindings.GetAccount(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return v, nil
	}
	account, err := s.Accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	v.Account = account
	v.CacheTags = append(v.CacheTags, binding.AccountTag(accountID))

	cfg, err := s.Configurations.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	v.Configuration = cfg

	if !account.IsActive() {
		v.State = StatePending
		return v, nil
	}

	acc := s.Checker.CheckAccessibility(ctx, account)
	v.Accessibility = &acc
	if !acc.Accessible {
		v.State = StateInaccessible
		return v, nil
	}

	v.State = StateActive
	if v.Proposals, err = s.Proposals.Recent(ctx, accountID, RecentLimit); err != nil {
		return nil, err
	}
	if v.NextNonce, err = s.Allocator.NextNonce(ctx, accountID); err != nil {
		return nil, err
	}
	return v, nil
}

// CheckGroup checks whether the group's treasury can be reached on-chain.
func (s *Service) CheckGroup(ctx context.Context, groupID string) (*types.Account, accessibility.Accessibility, error) {
	account, err := s.boundAccount(ctx, groupID)
	if err != nil {
		return nil, accessibility.Accessibility{}, err
	}
	return account, s.Checker.CheckAccessibility(ctx, account), nil
}
