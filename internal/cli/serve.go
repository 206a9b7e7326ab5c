package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/TwigBush/opa-authz/internal/metrics"
	"github.com/TwigBush/opa-authz/internal/server"
)

func cmdServe() *cobra.Command {
	var (
		addr    string
		origins []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve checks and filters over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}
			m := metrics.New()
			d, log, err := dispatcher(cfg, cmd.ErrOrStderr(), m)
			if err != nil {
				return err
			}
			h := server.BuildRouter(server.Deps{Dispatcher: d, Metrics: m, Log: log}, server.Options{
				EnableCORS:     len(origins) > 0,
				AllowedOrigins: origins,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{Addr: cfg.ListenAddr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
			errc := make(chan error, 1)
			go func() {
				log.Info("listening", "addr", cfg.ListenAddr, "backend", cfg.Backend, "profile", cfg.Profile)
				errc <- srv.ListenAndServe()
			}()
			select {
			case <-ctx.Done():
				ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(ctx2)
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides listen_addr")
	cmd.Flags().StringSliceVar(&origins, "cors-origin", nil, "enable CORS for these origins")
	return cmd
}
