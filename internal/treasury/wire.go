package treasury

import (
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/treasury/internal/accessibility"
	"github.com/mesh-intelligence/treasury/internal/binding"
	"github.com/mesh-intelligence/treasury/internal/nonce"
	"github.com/mesh-intelligence/treasury/internal/signersync"
	"github.com/mesh-intelligence/treasury/internal/sqlite"
)

// Settings are the tunables read from configuration.
type Settings struct {
	Policy           signersync.Policy
	NonceMaxAttempts int
	CacheSize        int
	CacheTTL         time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		Policy:           signersync.DefaultPolicy(),
		NonceMaxAttempts: nonce.DefaultMaxAttempts,
		CacheSize:        binding.DefaultCacheSize,
		CacheTTL:         binding.DefaultCacheTTL,
	}
}

// NewFromBackend wires a Service over an attached SQLite backend and a
// chain-state provider. inv, if non-nil, receives every invalidation.
func NewFromBackend(b *sqlite.Backend, provider accessibility.Provider, st Settings, lg *zap.Logger, inv binding.Invalidator) *Service {
	if lg == nil {
		lg = zap.NewNop()
	}
	bindingOpts := []binding.Option{binding.WithCacheSize(st.CacheSize), binding.WithCacheTTL(st.CacheTTL), binding.WithLogger(lg.Named("binding"))}
	serviceOpts := []Option{WithLogger(lg.Named("treasury"))}
	if inv != nil {
		bindingOpts = append(bindingOpts, binding.WithInvalidator(inv))
		serviceOpts = append(serviceOpts, WithInvalidator(inv))
	}

	bindings := binding.New(b.Bindings(), bindingOpts...)
	alloc := nonce.New(b.Proposals(), nonce.WithMaxAttempts(st.NonceMaxAttempts), nonce.WithLogger(lg.Named("nonce")))
	engine := signersync.NewEngine(bindings, b.Accounts(), b.Configurations(), alloc,
		signersync.WithPolicy(st.Policy), signersync.WithLogger(lg.Named("signersync")))

	return New(Deps{
		Accounts:       b.Accounts(),
		Configurations: b.Configurations(),
		Proposals:      b.Proposals(),
		Bindings:       bindings,
		Allocator:      alloc,
		Checker:        accessibility.NewChecker(provider, accessibility.WithLogger(lg.Named("accessibility"))),
		Engine:         engine,
	}, serviceOpts...)
}
