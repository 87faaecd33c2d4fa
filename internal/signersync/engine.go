package signersync

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/treasury/internal/calldata"
	"github.com/mesh-intelligence/treasury/internal/metrics"
	"github.com/mesh-intelligence/treasury/internal/owners"
	"github.com/mesh-intelligence/treasury/pkg/types"
)

// Reasons reported on no-op outcomes.
const (
	ReasonNoBinding   = "group has no treasury"
	ReasonNotActive   = "treasury account is not active"
	ReasonNoAddress   = "member has no on-chain address"
	ReasonNothingToDo = "signer set already matches"
	ReasonLastSigner  = "member is the only signer"
	ReasonUnknownKind = "unknown change kind"
)

const descriptionTemplate = "Automatic signer sync: %s for member %s (%s)"

// Failure stages, used as the metrics label.
const (
	stageResolve  = "resolve"
	stageConfig   = "configuration"
	stageEncode   = "encode"
	stageAllocate = "allocate"
)

// BindingResolver finds the account backing a group.
type BindingResolver interface {
	GetAccount(ctx context.Context, groupID string) (string, bool, error)
}

type AccountStore interface {
	Get(ctx context.Context, id string) (*types.Account, error)
}

type ConfigurationStore interface {
	Get(ctx context.Context, accountID string) (*types.SignerConfiguration, error)
}

// Allocator persists a proposal under the next nonce of an account.
type Allocator interface {
	Allocate(ctx context.Context, accountID string, build func(nonce int64) *types.Proposal) (*types.Proposal, error)
}

// Outcome reports what OnMembershipChanged did. Proposal is set only when
// one was persisted.
type Outcome struct {
	Action   Action          `json:"action"`
	Reason   string          `json:"reason,omitempty"`
	Proposal *types.Proposal `json:"proposal,omitempty"`
}

// Engine reacts to membership changes. Events are handled synchronously and
// independently: a failure aborts that event's proposal only.
type Engine struct {
	bindings BindingResolver
	accounts AccountStore
	configs  ConfigurationStore
	alloc    Allocator
	policy   Policy
	logger   *zap.Logger
}

type Option func(*Engine)

func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

func WithLogger(lg *zap.Logger) Option {
	return func(e *Engine) { e.logger = lg }
}

func NewEngine(bindings BindingResolver, accounts AccountStore, configs ConfigurationStore, alloc Allocator, opts ...Option) *Engine {
	e := &Engine{
		bindings: bindings,
		accounts: accounts,
		configs:  configs,
		alloc:    alloc,
		policy:   DefaultPolicy(),
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// OnMembershipChanged proposes the owner change, if any, that ev requires.
// Groups without a treasury, inactive accounts and members without an
// address yield a no-op outcome and a nil error.
func (e *Engine) OnMembershipChanged(ctx context.Context, ev types.MembershipEvent) (Outcome, error) {
	if ev.GroupID == "" {
		return Outcome{}, fmt.Errorf("%w: group id is required", types.ErrInvalidInput)
	}
	lg := e.logger.With(
		zap.String("group_id", ev.GroupID),
		zap.String("member_id", ev.MemberID),
		zap.String("kind", ev.Kind),
	)

	if !types.ValidChangeKind(ev.Kind) {
		return e.noop(ev, ReasonUnknownKind), nil
	}

	accountID, ok, err := e.bindings.GetAccount(ctx, ev.GroupID)
	if err != nil {
		return Outcome{}, e.fail(lg, stageResolve, fmt.Errorf("resolving treasury: %w", err))
	}
	if !ok {
		return e.noop(ev, ReasonNoBinding), nil
	}
	account, err := e.accounts.Get(ctx, accountID)
	if err != nil {
		return Outcome{}, e.fail(lg, stageResolve, fmt.Errorf("loading account %s: %w", accountID, err))
	}
	if !account.IsActive() {
		return e.noop(ev, ReasonNotActive), nil
	}

	if ev.Address == "" {
		return e.noop(ev, ReasonNoAddress), nil
	}
	member, err := types.CanonicalAddress(ev.Address)
	if err != nil {
		return Outcome{}, e.fail(lg, stageEncode, err)
	}

	cfg, err := e.configs.Get(ctx, accountID)
	if err != nil {
		return Outcome{}, e.fail(lg, stageConfig, fmt.Errorf("loading signer configuration: %w", err))
	}

	action := Decide(ev.Kind, cfg.IsSigner(member))
	var data []byte
	switch action {
	case ActionAdd:
		threshold := e.policy.AddThreshold(cfg.Threshold, len(cfg.Signers)+1)
		data, err = calldata.EncodeAddOwner(member, threshold)
	case ActionRemove:
		if len(cfg.Signers) == 1 {
			return e.noop(ev, ReasonLastSigner), nil
		}
		var prev string
		prev, err = owners.FindPredecessor(cfg.Signers, member)
		if err == nil {
			threshold := e.policy.RemoveThreshold(cfg.Threshold, len(cfg.Signers)-1)
			data, err = calldata.EncodeRemoveOwner(prev, member, threshold)
		}
	default:
		return e.noop(ev, ReasonNothingToDo), nil
	}
	if err != nil {
		return Outcome{}, e.fail(lg, stageEncode, fmt.Errorf("encoding %s owner call: %w", action, err))
	}

	description := fmt.Sprintf(descriptionTemplate, ev.Kind, ev.MemberID, member)
	p, err := e.alloc.Allocate(ctx, accountID, func(int64) *types.Proposal {
		return &types.Proposal{
			To:          account.Address,
			Value:       "0",
			Data:        data,
			Operation:   types.OperationCall,
			Status:      types.ProposalStatusPending,
			CreatedBy:   types.SystemCreator,
			Description: description,
		}
	})
	if err != nil {
		return Outcome{}, e.fail(lg, stageAllocate, fmt.Errorf("persisting proposal: %w", err))
	}

	metrics.SyncEvents.WithLabelValues(ev.Kind, action.String()).Inc()
	metrics.ProposalsCreated.WithLabelValues(metrics.SourceSystem).Inc()
	lg.Info("signer sync proposal created",
		zap.String("account_id", accountID),
		zap.String("action", action.String()),
		zap.Int64("nonce", p.Nonce),
	)
	return Outcome{Action: action, Proposal: p}, nil
}

func (e *Engine) noop(ev types.MembershipEvent, reason string) Outcome {
	kind := ev.Kind
	if !types.ValidChangeKind(kind) {
		kind = "unknown"
	}
	metrics.SyncEvents.WithLabelValues(kind, ActionNoOp.String()).Inc()
	e.logger.Debug("signer sync no-op",
		zap.String("group_id", ev.GroupID),
		zap.String("kind", ev.Kind),
		zap.String("reason", reason),
	)
	return Outcome{Action: ActionNoOp, Reason: reason}
}

func (e *Engine) fail(lg *zap.Logger, stage string, err error) error {
	metrics.SyncFailures.WithLabelValues(stage).Inc()
	if errors.Is(err, types.ErrNotFound) {
		lg.Error("signer sync data integrity failure", zap.String("stage", stage), zap.Error(err))
	} else {
		lg.Error("signer sync failed", zap.String("stage", stage), zap.Error(err))
	}
	return err
}
