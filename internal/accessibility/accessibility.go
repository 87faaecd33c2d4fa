// Package accessibility checks whether treasury accounts can be reached on
// chain and, when they cannot, classifies the failure and suggests how to
// recover.
package accessibility

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/treasury/internal/metrics"
	"github.com/mesh-intelligence/treasury/pkg/types"
)

// Provider reads account state from the chain. Failures should be
// *types.ProviderError; any other error is treated as a transport failure.
type Provider interface {
	GetAccountInfo(ctx context.Context, network, address string) (*types.SafeInfo, error)
}

// Class groups provider failures by what the operator can do about them.
type Class string

const (
	ClassNotFound    Class = "not_found"
	ClassInvalid     Class = "invalid"
	ClassTimeout     Class = "timeout"
	ClassUnavailable Class = "unavailable"
	ClassUnknown     Class = "unknown"
	ClassNotDeployed Class = "not_deployed"
)

// Recovery options offered for inaccessible accounts.
const (
	RecoverRetry     = "retry"
	RecoverReconnect = "reconnect"
	RecoverCreateNew = "create_new"
	RecoverDeploy    = "deploy"
)

// Accessibility is the result of checking one account.
type Accessibility struct {
	Accessible      bool            `json:"accessible"`
	Balance         string          `json:"balance,omitempty"`
	BalanceError    string          `json:"balance_error,omitempty"`
	Threshold       int             `json:"threshold,omitempty"`
	Owners          []string        `json:"owners,omitempty"`
	Info            *types.SafeInfo `json:"info,omitempty"`
	Error           string          `json:"error,omitempty"`
	ErrorCode       int             `json:"error_code,omitempty"`
	Class           Class           `json:"class,omitempty"`
	RecoveryOptions []string        `json:"recovery_options,omitempty"`
}

// Verification is the result of checking an address before reconnecting.
type Verification struct {
	Valid bool            `json:"valid"`
	Info  *types.SafeInfo `json:"info,omitempty"`
	Error string          `json:"error,omitempty"`
}

// DefaultConcurrency bounds CheckAll's parallel provider calls.
const DefaultConcurrency = 8

type Checker struct {
	provider    Provider
	concurrency int
	logger      *zap.Logger
}

type Option func(*Checker)

func WithConcurrency(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func WithLogger(lg *zap.Logger) Option {
	return func(c *Checker) { c.logger = lg }
}

func NewChecker(p Provider, opts ...Option) *Checker {
	c := &Checker{provider: p, concurrency: DefaultConcurrency, logger: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CheckAccessibility queries the provider once for account. Provider
// failures are reported in the result, never returned.
func (c *Checker) CheckAccessibility(ctx context.Context, account *types.Account) Accessibility {
	if account.Address == "" {
		metrics.AccessibilityChecks.WithLabelValues(string(ClassNotDeployed)).Inc()
		return Accessibility{
			Error:           "account has not been deployed",
			Class:           ClassNotDeployed,
			RecoveryOptions: []string{RecoverDeploy, RecoverReconnect, RecoverCreateNew},
		}
	}

	info, err := c.provider.GetAccountInfo(ctx, account.Network, account.Address)
	if err != nil {
		class, code, msg := Classify(err)
		metrics.AccessibilityChecks.WithLabelValues(string(class)).Inc()
		c.logger.Warn("treasury account inaccessible",
			zap.String("account_id", account.AccountID),
			zap.String("address", account.Address),
			zap.String("class", string(class)),
			zap.Int("code", code),
			zap.Error(err),
		)
		return Accessibility{
			Error:           msg,
			ErrorCode:       code,
			Class:           class,
			RecoveryOptions: recoveryOptions(class),
		}
	}

	metrics.AccessibilityChecks.WithLabelValues("accessible").Inc()
	normalizeInfoBalance(info)
	return Accessibility{
		Accessible:   true,
		Balance:      info.Balance,
		BalanceError: info.BalanceError,
		Threshold:    info.Threshold,
		Owners:       info.Owners,
		Info:         info,
	}
}

// normalizeInfoBalance leaves an unknown balance empty.
func normalizeInfoBalance(info *types.SafeInfo) {
	if info.BalanceError != "" {
		info.Balance = ""
		return
	}
	info.Balance = NormalizeBalance(info.Balance)
}

// VerifySafeAddress checks that address hosts an account on network.
func (c *Checker) VerifySafeAddress(ctx context.Context, address, network string) Verification {
	info, err := c.provider.GetAccountInfo(ctx, network, address)
	if err != nil {
		_, _, msg := Classify(err)
		return Verification{Error: msg}
	}
	normalizeInfoBalance(info)
	return Verification{Valid: true, Info: info}
}

// CheckAll checks every account concurrently. Results keep input order.
func (c *Checker) CheckAll(ctx context.Context, accounts []*types.Account) []Accessibility {
	mapper := iter.Mapper[*types.Account, Accessibility]{MaxGoroutines: c.concurrency}
	return mapper.Map(accounts, func(a **types.Account) Accessibility {
		return c.CheckAccessibility(ctx, *a)
	})
}

// Classify maps a provider error to its class, numeric code and the message
// to show. Provider messages are kept verbatim.
func Classify(err error) (Class, int, string) {
	var perr *types.ProviderError
	if errors.As(err, &perr) {
		return classifyCode(perr.Code), perr.Code, perr.Message
	}
	return ClassTimeout, 0, err.Error()
}

func classifyCode(code int) Class {
	switch {
	case code == 404:
		return ClassNotFound
	case code == 400 || code == 422:
		return ClassInvalid
	case code == 0:
		return ClassTimeout
	case code >= 500 && code <= 599:
		return ClassUnavailable
	default:
		return ClassUnknown
	}
}

func recoveryOptions(class Class) []string {
	switch class {
	case ClassTimeout, ClassUnavailable:
		return []string{RecoverRetry, RecoverReconnect, RecoverCreateNew}
	default:
		return []string{RecoverReconnect, RecoverCreateNew}
	}
}

// NormalizeBalance returns "0" for an empty or zero balance and the input,
// trimmed, otherwise.
func NormalizeBalance(b string) string {
	b = strings.TrimSpace(b)
	if b == "" {
		return "0"
	}
	if v, ok := new(big.Int).SetString(b, 10); ok && v.Sign() == 0 {
		return "0"
	}
	return b
}
