// Package binding maintains the link between a group and its treasury
// account. A group has at most one binding; an account may back any number
// of groups.
package binding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/treasury/internal/cache"
	"github.com/mesh-intelligence/treasury/pkg/types"
)

// DefaultCacheSize is the number of group lookups kept in memory.
const DefaultCacheSize = 1024

// DefaultCacheTTL bounds how long a cached lookup may hide a write made by
// another process sharing the store.
const DefaultCacheTTL = 30 * time.Second

// Store persists bindings. ListBy* return empty slices, not nil, when
// nothing matches.
type Store interface {
	ListByGroup(ctx context.Context, groupID string) ([]*types.Binding, error)
	ListByAccount(ctx context.Context, accountID string) ([]*types.Binding, error)
	Insert(ctx context.Context, b *types.Binding) (string, error)
	Replace(ctx context.Context, b *types.Binding) (string, error)
	DeleteByGroup(ctx context.Context, groupID string) (int64, error)
}

// Invalidator receives cache tags whose cached views are stale.
type Invalidator interface {
	Invalidate(ctx context.Context, tags ...string)
}

// InvalidatorFunc adapts a function to Invalidator.
type InvalidatorFunc func(ctx context.Context, tags ...string)

func (f InvalidatorFunc) Invalidate(ctx context.Context, tags ...string) { f(ctx, tags...) }

// GroupTag and AccountTag name the cache scopes touched by binding writes.
func GroupTag(groupID string) string     { return "group:" + groupID }
func AccountTag(accountID string) string { return "account:" + accountID }

// Service answers binding queries through an LRU and enforces the
// one-binding-per-group rule on writes.
type Service struct {
	store        Store
	cache        *cache.Cache[string, string]
	ttl          time.Duration
	invalidators []Invalidator
	logger       *zap.Logger

	// mu serializes writes so the existence check and insert in Bind
	// cannot interleave. Cache fills hold it for reading so a fill never
	// lands after a write's invalidation.
	mu sync.RWMutex
}

type Option func(*Service)

func WithCacheSize(n int) Option {
	return func(s *Service) { s.cache = cache.NewLRUCache[string, string](n, "binding_group_account") }
}

// WithCacheTTL sets how long a lookup stays cached. Zero keeps entries until
// a local write or eviction removes them.
func WithCacheTTL(d time.Duration) Option {
	return func(s *Service) { s.ttl = d }
}

// WithInvalidator adds a listener notified after every write.
func WithInvalidator(inv Invalidator) Option {
	return func(s *Service) { s.invalidators = append(s.invalidators, inv) }
}

func WithLogger(lg *zap.Logger) Option {
	return func(s *Service) { s.logger = lg }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		cache:  cache.NewLRUCache[string, string](DefaultCacheSize, "binding_group_account"),
		ttl:    DefaultCacheTTL,
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// HasBinding reports whether groupID has a treasury.
func (s *Service) HasBinding(ctx context.Context, groupID string) (bool, error) {
	_, ok, err := s.GetAccount(ctx, groupID)
	return ok, err
}

// GetAccount returns the account bound to groupID. ok is false, with a nil
// error, when the group has no binding.
func (s *Service) GetAccount(ctx context.Context, groupID string) (accountID string, ok bool, err error) {
	if id, hit := s.cache.Get(groupID); hit {
		return id, true, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	bindings, err := s.store.ListByGroup(ctx, groupID)
	if err != nil {
		return "", false, err
	}
	if len(bindings) == 0 {
		return "", false, nil
	}
	if len(bindings) > 1 {
		s.logger.Warn("group has more than one binding, using oldest",
			zap.String("group_id", groupID), zap.Int("bindings", len(bindings)))
	}
	accountID = bindings[0].AccountID
	if s.ttl > 0 {
		s.cache.Set(groupID, accountID, cache.WithExpiration(s.ttl))
	} else {
		s.cache.Set(groupID, accountID)
	}
	return accountID, true, nil
}

// GetGroupsForAccount lists the groups whose treasury is accountID.
func (s *Service) GetGroupsForAccount(ctx context.Context, accountID string) ([]string, error) {
	bindings, err := s.store.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	groups := make([]string, 0, len(bindings))
	seen := make(map[string]bool, len(bindings))
	for _, b := range bindings {
		if !seen[b.GroupID] {
			seen[b.GroupID] = true
			groups = append(groups, b.GroupID)
		}
	}
	return groups, nil
}

// Bind links groupID to accountID. Returns ErrAlreadyBound if the group
// already has a binding.
func (s *Service) Bind(ctx context.Context, groupID, accountID string) (*types.Binding, error) {
	if groupID == "" || accountID == "" {
		return nil, fmt.Errorf("%w: group and account are required", types.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: group %s", types.ErrAlreadyBound, groupID)
	}

	b := &types.Binding{GroupID: groupID, AccountID: accountID}
	if _, err := s.store.Insert(ctx, b); err != nil {
		return nil, err
	}
	s.invalidate(ctx, groupID, accountID)
	s.logger.Info("treasury bound", zap.String("group_id", groupID), zap.String("account_id", accountID))
	return b, nil
}

// Rebind replaces every binding of groupID with one to accountID.
func (s *Service) Rebind(ctx context.Context, groupID, accountID string) (*types.Binding, error) {
	if groupID == "" || accountID == "" {
		return nil, fmt.Errorf("%w: group and account are required", types.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, err := s.store.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	b := &types.Binding{GroupID: groupID, AccountID: accountID}
	if _, err := s.store.Replace(ctx, b); err != nil {
		return nil, err
	}
	s.invalidate(ctx, groupID, append(accountIDs(previous), accountID)...)
	s.logger.Info("treasury rebound", zap.String("group_id", groupID), zap.String("account_id", accountID))
	return b, nil
}

// Unbind removes every binding of groupID. Unbinding a group without a
// treasury is a no-op.
func (s *Service) Unbind(ctx context.Context, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, err := s.store.ListByGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if len(previous) == 0 {
		s.cache.Delete(groupID)
		return nil
	}
	if _, err := s.store.DeleteByGroup(ctx, groupID); err != nil {
		return err
	}
	s.invalidate(ctx, groupID, accountIDs(previous)...)
	s.logger.Info("treasury unbound", zap.String("group_id", groupID), zap.Int("bindings", len(previous)))
	return nil
}

func (s *Service) invalidate(ctx context.Context, groupID string, accountIDs ...string) {
	s.cache.Delete(groupID)
	tags := []string{GroupTag(groupID)}
	seen := map[string]bool{}
	for _, id := range accountIDs {
		if !seen[id] {
			seen[id] = true
			tags = append(tags, AccountTag(id))
		}
	}
	for _, inv := range s.invalidators {
		inv.Invalidate(ctx, tags...)
	}
}

func accountIDs(bs []*types.Binding) []string {
	ids := make([]string, 0, len(bs))
	for _, b := range bs {
		ids = append(ids, b.AccountID)
	}
	return ids
}
