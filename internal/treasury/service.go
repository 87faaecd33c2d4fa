// Package treasury is the application service behind the CLI and HTTP API.
// It composes bindings, signer configurations, accessibility checks and
// proposals into the operations a group administrator performs.
package treasury

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/treasury/internal/accessibility"
	"github.com/mesh-intelligence/treasury/internal/binding"
	"github.com/mesh-intelligence/treasury/internal/signersync"
	"github.com/mesh-intelligence/treasury/pkg/types"
)

// RecentLimit is how many proposals View returns.
const RecentLimit = 20

type AccountStore interface {
	Get(ctx context.Context, id string) (*types.Account, error)
	FindByAddress(ctx context.Context, network, address string) (*types.Account, error)
	List(ctx context.Context) ([]*types.Account, error)
	Save(ctx context.Context, a *types.Account) (string, error)
	Delete(ctx context.Context, id string) error
}

type ConfigurationStore interface {
	Get(ctx context.Context, accountID string) (*types.SignerConfiguration, error)
	Put(ctx context.Context, c *types.SignerConfiguration) error
}

type ProposalStore interface {
	Recent(ctx context.Context, accountID string, limit int) ([]*types.Proposal, error)
}

// Allocator persists a proposal under the next nonce of an account.
type Allocator interface {
	NextNonce(ctx context.Context, accountID string) (int64, error)
	Allocate(ctx context.Context, accountID string, build func(nonce int64) *types.Proposal) (*types.Proposal, error)
}

// Checker is the accessibility surface the service uses.
type Checker interface {
	CheckAccessibility(ctx context.Context, account *types.Account) accessibility.Accessibility
	VerifySafeAddress(ctx context.Context, address, network string) accessibility.Verification
	CheckAll(ctx context.Context, accounts []*types.Account) []accessibility.Accessibility
}

// Deps groups the collaborators of a Service.
type Deps struct {
	Accounts       AccountStore
	Configurations ConfigurationStore
	Proposals      ProposalStore
	Bindings       *binding.Service
	Allocator      Allocator
	Checker        Checker
	Engine         *signersync.Engine
}

type Service struct {
	Deps
	invalidators []binding.Invalidator
	logger       *zap.Logger
	now          func() time.Time
}

type Option func(*Service)

func WithLogger(lg *zap.Logger) Option {
	return func(s *Service) { s.logger = lg }
}

// WithInvalidator adds a listener notified when an account's state changes
// outside a binding write (activation, new proposals).
func WithInvalidator(inv binding.Invalidator) Option {
	return func(s *Service) { s.invalidators = append(s.invalidators, inv) }
}

func New(deps Deps, opts ...Option) *Service {
	s := &Service{Deps: deps, logger: zap.NewNop(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Treasury is an account together with its configuration and binding.
type Treasury struct {
	Account       *types.Account             `json:"account"`
	Configuration *types.SignerConfiguration `json:"configuration"`
	Binding       *types.Binding             `json:"binding,omitempty"`
}

// boundAccount resolves the account bound to groupID. Returns ErrNotFound
// when the group has no treasury.
func (s *Service) boundAccount(ctx context.Context, groupID string) (*types.Account, error) {
	accountID, ok, err := s.Bindings.GetAccount(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: group %s has no treasury", types.ErrNotFound, groupID)
	}
	return s.Accounts.Get(ctx, accountID)
}

func (s *Service) invalidateAccount(ctx context.Context, accountID string) {
	for _, inv := range s.invalidators {
		inv.Invalidate(ctx, binding.AccountTag(accountID))
	}
}

// Remove unbinds the group's treasury. The account itself is kept.
func (s *Service) Remove(ctx context.Context, groupID string) error {
	return s.Bindings.Unbind(ctx, groupID)
}

// HandleMembershipEvent feeds ev to the signer sync engine.
func (s *Service) HandleMembershipEvent(ctx context.Context, ev types.MembershipEvent) (signersync.Outcome, error) {
	out, err := s.Engine.OnMembershipChanged(ctx, ev)
	if err == nil && out.Proposal != nil {
		s.invalidateAccount(ctx, out.Proposal.AccountID)
	}
	return out, err
}

// CheckAll checks the accessibility of every stored account.
func (s *Service) CheckAll(ctx context.Context) ([]*types.Account, []accessibility.Accessibility, error) {
	accounts, err := s.Accounts.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return accounts, s.Checker.CheckAll(ctx, accounts), nil
}
