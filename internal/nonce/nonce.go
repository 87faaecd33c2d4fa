// Package nonce assigns gap-free, strictly increasing proposal nonces per
// account.
//
// Two layers keep assignment linear. Within a process, a mutex per account
// serializes read-max-then-insert. Across processes, the store's uniqueness
// constraint on (account, nonce) rejects the loser of a race with
// types.ErrAllocationConflict, and the allocator retries with a fresh read.
package nonce

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/puzpuzpuz/xsync/v2"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/treasury/internal/metrics"
	"github.com/mesh-intelligence/treasury/pkg/types"
)

// DefaultMaxAttempts bounds how many times Allocate tries after conflicts.
const DefaultMaxAttempts = 5

// Store is the proposal persistence the allocator needs. Insert must return
// an error wrapping types.ErrAllocationConflict when the nonce is taken.
type Store interface {
	MaxNonce(ctx context.Context, accountID string) (int64, bool, error)
	Insert(ctx context.Context, p *types.Proposal) (string, error)
}

// Allocator hands out nonces and persists proposals atomically with them.
type Allocator struct {
	store       Store
	locks       *xsync.MapOf[string, *sync.Mutex]
	maxAttempts uint
	delay       time.Duration
	logger      *zap.Logger
}

type Option func(*Allocator)

// WithMaxAttempts sets the retry bound. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.maxAttempts = uint(n)
		}
	}
}

// WithDelay sets the base back-off between conflicting attempts.
func WithDelay(d time.Duration) Option {
	return func(a *Allocator) { a.delay = d }
}

func WithLogger(lg *zap.Logger) Option {
	return func(a *Allocator) { a.logger = lg }
}

func New(store Store, opts ...Option) *Allocator {
	a := &Allocator{
		store:       store,
		locks:       xsync.NewMapOf[*sync.Mutex](),
		maxAttempts: DefaultMaxAttempts,
		delay:       5 * time.Millisecond,
		logger:      zap.NewNop(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// NextNonce returns the nonce the next proposal of accountID would get: one
// more than the highest recorded, or 0 when there are none. It is advisory;
// only Allocate reserves a nonce.
func (a *Allocator) NextNonce(ctx context.Context, accountID string) (int64, error) {
	max, ok, err := a.store.MaxNonce(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return max + 1, nil
}

// Allocate builds a proposal for the next nonce of accountID and inserts it.
// build is called once per attempt with the candidate nonce; the allocator
// overwrites AccountID and Nonce on what it returns. A failed insert spends
// no nonce. Conflicts are retried up to the configured bound, after which the
// last ErrAllocationConflict is returned.
func (a *Allocator) Allocate(ctx context.Context, accountID string, build func(nonce int64) *types.Proposal) (*types.Proposal, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: account id is required", types.ErrInvalidInput)
	}

	mu, _ := a.locks.LoadOrCompute(accountID, func() *sync.Mutex { return &sync.Mutex{} })
	mu.Lock()
	defer mu.Unlock()

	var out *types.Proposal
	err := retry.Do(
		func() error {
			n, err := a.NextNonce(ctx, accountID)
			if err != nil {
				return err
			}
			p := build(n)
			if p == nil {
				return fmt.Errorf("%w: empty proposal", types.ErrInvalidInput)
			}
			p.AccountID = accountID
			p.Nonce = n
			if _, err := a.store.Insert(ctx, p); err != nil {
				if errors.Is(err, types.ErrAllocationConflict) {
					metrics.NonceConflicts.Inc()
					a.logger.Debug("nonce conflict, retrying",
						zap.String("account_id", accountID), zap.Int64("nonce", n))
				}
				return err
			}
			out = p
			return nil
		},
		retry.Attempts(a.maxAttempts),
		retry.Delay(a.delay),
		retry.RetryIf(func(err error) bool { return errors.Is(err, types.ErrAllocationConflict) }),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}
