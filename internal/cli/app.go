package cli

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/treasury/internal/binding"
	"github.com/mesh-intelligence/treasury/internal/logging"
	"github.com/mesh-intelligence/treasury/internal/paths"
	"github.com/mesh-intelligence/treasury/internal/safeapi"
	"github.com/mesh-intelligence/treasury/internal/sqlite"
	"github.com/mesh-intelligence/treasury/internal/treasury"
	"github.com/mesh-intelligence/treasury/pkg/types"
)

// app is an attached backend and the service built over it.
type app struct {
	settings settings
	backend  *sqlite.Backend
	provider *safeapi.Client
	service  *treasury.Service
	logger   *zap.Logger
	flush    func()
}

// openApp loads configuration, attaches the backend and wires the service.
// inv, if non-nil, receives cache invalidations. Callers must Close the app.
func openApp(inv binding.Invalidator) (*app, error) {
	configDir, err := resolveConfigDir()
	if err != nil {
		return nil, systemErr("resolve config directory: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return nil, systemErr("%w", err)
	}
	st, err := settingsFrom(v)
	if err != nil {
		return nil, err
	}
	dataDir, err := paths.ResolveDataDir(flags.dataDir, st.DataDir)
	if err != nil {
		return nil, systemErr("resolve data directory: %w", err)
	}
	st.DataDir = dataDir

	lg, err := logging.New(st.LogLevel)
	if err != nil {
		return nil, err
	}
	lg, flush, err := logging.WithSentry(lg, st.SentryDSN)
	if err != nil {
		return nil, systemErr("%w", err)
	}

	apiCfg, err := safeapi.LoadConfig()
	if err != nil {
		flush()
		return nil, err
	}

	b := sqlite.NewBackend()
	if err := b.Attach(types.Config{Backend: st.Backend, DataDir: st.DataDir}); err != nil {
		flush()
		return nil, systemErr("attach storage: %w", err)
	}
	provider := safeapi.New(apiCfg, safeapi.WithLogger(lg.Named("safeapi")))

	return &app{
		settings: st,
		backend:  b,
		provider: provider,
		service:  treasury.NewFromBackend(b, provider, st.Treasury, lg, inv),
		logger:   lg,
		flush:    flush,
	}, nil
}

// Close detaches the backend and flushes logs.
func (a *app) Close() error {
	err := multierr.Combine(a.provider.Close(), a.backend.Detach())
	_ = a.logger.Sync()
	a.flush()
	return err
}

// withApp opens the app, runs fn and closes the app, keeping both errors.
func withApp(fn func(a *app) error) (err error) {
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			err = multierr.Append(err, systemErr("close: %w", cerr))
		}
	}()
	return fn(a)
}
