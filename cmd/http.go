package cmd

import (
	"context"
	"time"

	"github.com/foomo/gistkv/pkg/handler"
	"github.com/foomo/gistkv/pkg/store"
	"github.com/foomo/keel"
	"github.com/foomo/keel/healthz"
	"github.com/foomo/keel/net/http/middleware"
	"github.com/foomo/keel/service"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewHTTPCommand() *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:   "http",
		Short: "Start http server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svr := keel.NewServer(
				keel.WithHTTPPrometheusService(servicePrometheusEnabledFlag(v)),
				keel.WithHTTPHealthzService(serviceHealthzEnabledFlag(v)),
				keel.WithPrometheusMeter(servicePrometheusEnabledFlag(v)),
				keel.WithGracefulPeriod(gracefulPeriodFlag(v)),
				keel.WithOTLPGRPCTracer(otelEnabledFlag(v)),
			)

			l := svr.Logger()

			h, err := newHistory(cmd.Context(), l, v, false)
			if err != nil {
				return err
			}
			if h != nil {
				svr.AddClosers(func(ctx context.Context) error {
					return h.Close()
				})
			}

			s, err := newStore(l, v, h)
			if err != nil {
				return err
			}

			isReadyHealthzerFn := healthz.NewHealthzerFn(func(ctx context.Context) error {
				if state := s.State(); state != store.StateReady {
					return errors.Errorf("store is %s", state)
				}
				return nil
			})
			svr.AddStartupHealthzers(isReadyHealthzerFn)
			svr.AddReadinessHealthzers(isReadyHealthzerFn)

			svr.AddServices(
				service.NewGoRoutine(l.Named("go.store"), "store", func(ctx context.Context, l *zap.Logger) error {
					return runStore(ctx, l, s, pollFlag(v), pollIntervalFlag(v))
				}),
				service.NewHTTP(l.Named("svc.http"), "http", addressFlag(v),
					handler.NewHTTP(l.Named("inst.handler"), s, handler.WithBasePath(basePathFlag(v))),
					middleware.Telemetry(),
					middleware.Logger(),
					middleware.Recover(),
				),
			)

			svr.Run()
			return nil
		},
	}

	flags := cmd.Flags()
	addStoreFlags(flags, v)
	addAddressFlag(flags, v)
	addBasePathFlag(flags, v)
	addPollFlag(flags, v)
	addPollIntervalFlag(flags, v)
	addGracefulPeriodFlag(flags, v)
	addOtelEnabledFlag(flags, v)
	addServiceHealthzEnabledFlag(flags, v)
	addServicePrometheusEnabledFlag(flags, v)

	return cmd
}

// runStore resolves the store and keeps pulling the gist file if poll is set
func runStore(ctx context.Context, l *zap.Logger, s *store.Store, poll bool, interval time.Duration) error {
	if err := s.Init(ctx); err != nil {
		return err
	}
	l.Info("serving gist", zap.String("gist_id", s.GistID()), zap.String("filename", s.Filename()))
	if !poll {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Pull(ctx); err != nil {
				l.Error("failed to pull gist", zap.Error(err))
			}
		}
	}
}
