// Package logging builds the zap logger used across the treasury and
// optionally mirrors error entries to Sentry.
package logging

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production JSON logger at the given level ("debug", "info",
// "warn", "error").
func New(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}
	cfg.Level.SetLevel(lvl)

	lg, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return lg, nil
}

// WithSentry initializes Sentry with dsn and returns a logger that forwards
// entries at error level or above. The returned flush function blocks until
// buffered events are sent. An empty dsn returns lg unchanged.
func WithSentry(lg *zap.Logger, dsn string) (*zap.Logger, func(), error) {
	if dsn == "" {
		return lg, func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		return lg, func() {}, fmt.Errorf("initializing sentry: %w", err)
	}
	hub := sentry.CurrentHub()
	flush := func() { hub.Flush(2 * time.Second) }
	return lg.WithOptions(zap.Hooks(sentryHook(hub))), flush, nil
}

func sentryHook(hub *sentry.Hub) func(zapcore.Entry) error {
	return func(e zapcore.Entry) error {
		if e.Level < zapcore.ErrorLevel {
			return nil
		}
		local := hub.Clone()
		local.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetLevel(sentryLevel(e.Level))
			scope.SetExtras(map[string]interface{}{
				"logger": e.LoggerName,
				"caller": e.Caller.String(),
			})
		})
		local.CaptureMessage(e.Message)
		return nil
	}
}

func sentryLevel(l zapcore.Level) sentry.Level {
	switch {
	case l >= zapcore.FatalLevel:
		return sentry.LevelFatal
	case l >= zapcore.ErrorLevel:
		return sentry.LevelError
	case l >= zapcore.WarnLevel:
		return sentry.LevelWarning
	default:
		return sentry.LevelInfo
	}
}
