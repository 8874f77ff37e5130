package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roomsync/roommate-finder/internal/api"
	"github.com/roomsync/roommate-finder/internal/logging"
	"github.com/roomsync/roommate-finder/internal/supervisor"
	"github.com/roomsync/roommate-finder/internal/sweeper"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the profile sweeper",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			logging.Info().Str("driver", st.Dialect()).Msg("database ready")

			server := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           api.NewRouter(st, api.OptionsFromConfig(cfg)),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			tree := supervisor.NewTree(supervisor.TreeConfig{ShutdownTimeout: cfg.Server.ShutdownTimeout})
			tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
			if cfg.Sweeper.Enabled {
				tree.AddJobService(sweeper.New(st, cfg.Sweeper.Interval, cfg.Sweeper.Retention))
			}

			logging.Info().
				Str("addr", cfg.Server.Addr).
				Str("environment", cfg.Server.Environment).
				Bool("sweeper", cfg.Sweeper.Enabled).
				Msg("starting roommate service")

			err = tree.Serve(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logging.Info().Msg("shutdown complete")
			return nil
		},
	}
}
