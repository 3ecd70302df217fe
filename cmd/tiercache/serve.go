package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/tiercache/cache"
	"github.com/jonwraymond/tiercache/config"
	"github.com/jonwraymond/tiercache/health"
	"github.com/jonwraymond/tiercache/observe"
	"github.com/jonwraymond/tiercache/remote"
	"github.com/jonwraymond/tiercache/server"
)

func newServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Long: `Run the HTTP service.

Configuration is read from --config (optional) and TIERCACHE_* environment
variables, e.g. TIERCACHE_HTTP_ADDR=:9090 or TIERCACHE_REMOTE_BACKEND=redis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	return cmd
}

// app holds everything serve wires together.
type app struct {
	observer observe.Observer
	local    *cache.Local
	remote   *remote.Sharded
	tiered   *cache.Tiered
	health   *health.Aggregator
	handler  http.Handler
	closers  []func() error
}

func (a *app) close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func build(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			_ = a.close()
		}
	}()

	a.observer, err = observe.NewObserver(ctx, cfg.ObserveConfig())
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.observer.Shutdown(ctx)
	})

	mw, err := observe.MiddlewareFromObserver(a.observer)
	if err != nil {
		return nil, err
	}

	a.local, err = cache.NewLocal(cfg.Cache.LocalConfig())
	if err != nil {
		return nil, err
	}

	backends, err := a.openBackends(ctx, cfg.Remote)
	if err != nil {
		return nil, err
	}
	a.remote, err = remote.NewSharded(backends, cfg.Remote.RouteOptions()...)
	if err != nil {
		return nil, err
	}

	opts := []cache.Option{cache.WithObserver(mw)}
	if cfg.Cache.Coalesce {
		opts = append(opts, cache.WithCoalescing())
	}
	a.tiered, err = cache.New(a.local, a.remote, cfg.Cache.Policy(), opts...)
	if err != nil {
		return nil, err
	}

	a.health = health.NewAggregator(health.AggregatorConfig{})
	a.health.Register(health.NewLocalChecker(a.local, health.LocalCheckerConfig{}))
	for _, b := range backends {
		g := b.(*remote.Guarded)
		a.health.Register(health.NewBackendChecker(g.Name(), g))
	}

	srvOpts := []server.Option{
		server.WithRouter(a.remote.Router()),
		server.WithHealth(a.health),
		server.WithLogger(a.observer.Logger()),
	}
	if cfg.Auth.Enabled {
		authn, err := cfg.Auth.Authenticator()
		if err != nil {
			return nil, err
		}
		srvOpts = append(srvOpts, server.WithAuth(authn, cfg.Auth.WriteRole))
	}
	if cfg.Observe.PrometheusEnabled() {
		srvOpts = append(srvOpts, server.WithMetricsHandler(promhttp.Handler()))
	}

	srv, err := server.New(a.tiered, srvOpts...)
	if err != nil {
		return nil, err
	}
	a.handler = srv.Handler()
	return a, nil
}

// openBackends opens one guarded backend per bucket, in bucket order.
func (a *app) openBackends(ctx context.Context, cfg config.RemoteConfig) ([]remote.Backend, error) {
	n := cfg.Buckets()
	backends := make([]remote.Backend, 0, n)
	for i := range n {
		var b remote.Backend
		switch cfg.Backend {
		case config.BackendRedis:
			client, err := remote.OpenRedis(ctx, cfg.URLs[i], cfg.ConnOptions()...)
			if err != nil {
				return nil, fmt.Errorf("shard %d: %w", i, err)
			}
			a.closers = append(a.closers, client.Close)
			b = remote.NewRedis(client, remote.WithPrefix(cfg.KeyPrefix))
		default:
			b = remote.NewMemory()
		}
		backends = append(backends, remote.NewGuarded(fmt.Sprintf("shard-%d", i), b, cfg.Executor()))
	}
	return backends, nil
}

func serve(ctx context.Context, cfg *config.Config) (err error) {
	a, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.close())
	}()

	logger := a.observer.Logger()
	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.local.RunJanitor(gctx, cfg.Cache.JanitorInterval)
		return nil
	})
	g.Go(func() error {
		logger.Info(gctx, "listening",
			observe.Field{Key: "addr", Value: cfg.HTTP.Addr},
			observe.Field{Key: "buckets", Value: a.remote.Router().Buckets()},
		)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
