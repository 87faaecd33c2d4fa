package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/treasury/internal/api"
	"github.com/mesh-intelligence/treasury/internal/binding"
)

func newServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the treasury HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			var lg *zap.Logger
			inv := binding.InvalidatorFunc(func(_ context.Context, tags ...string) {
				if lg != nil {
					lg.Debug("cache invalidated", zap.Strings("tags", tags))
				}
			})
			a, err := openApp(inv)
			if err != nil {
				return err
			}
			lg = a.logger
			defer func() {
				if cerr := a.Close(); cerr != nil {
					err = multierr.Append(err, systemErr("close: %w", cerr))
				}
			}()

			if a.settings.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			if listen == "" {
				listen = a.settings.HTTPListen
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := api.NewServer(listen, a.service, lg.Named("api")).Run(ctx); err != nil {
				return systemErr("serve: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default: http.listen from config.yaml)")
	return cmd
}
