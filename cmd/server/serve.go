package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	authhandler "usergate/internal/auth/handler"
	"usergate/internal/auth/oauth"
	authservice "usergate/internal/auth/service"
	"usergate/internal/auth/sessioncookie"
	"usergate/internal/auth/store/state"
	"usergate/internal/jwttoken"
	"usergate/internal/platform/config"
	"usergate/internal/platform/httpserver"
	"usergate/internal/platform/logger"
	"usergate/internal/platform/metrics"
	platformredis "usergate/internal/platform/redis"
	httptransport "usergate/internal/transport/http"
	userhandler "usergate/internal/user/handler"
	userstore "usergate/internal/user/store"
	authmw "usergate/pkg/platform/middleware/auth"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return oops.In("main").Wrapf(err, "Failed to load configuration")
			}
			if err := cfg.ValidateOAuth(); err != nil {
				return oops.In("main").Wrapf(err, "Invalid configuration")
			}
			return run(cmd.Context(), cfg)
		},
	}
}

func run(ctx context.Context, cfg config.Server) error {
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.InfoContext(ctx, "starting usergate",
		"addr", cfg.Addr,
		"version", Version,
		"redis", cfg.RedisEnabled(),
		"dev_mode", cfg.DevMode,
	)

	g, ctx := errgroup.WithContext(ctx)

	a, err := newApp(ctx, cfg, log, prometheus.DefaultRegisterer)
	if err != nil {
		return oops.In("main").Wrapf(err, "Failed to wire the application")
	}

	srv := httpserver.New(cfg.Addr, a.router)
	g.Go(func() error {
		return httpserver.Run(ctx, srv, log)
	})
	g.Go(func() error {
		<-ctx.Done()
		a.close()
		return nil
	})

	if err := g.Wait(); err != nil {
		return oops.In("main").Wrapf(err, "Server stopped with error")
	}
	log.Info("usergate stopped")
	return nil
}

type app struct {
	router  http.Handler
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp builds every component from cfg. reg receives the application
// metrics; the /metrics endpoint serves whatever it gathers.
func newApp(ctx context.Context, cfg config.Server, log *slog.Logger, reg prometheus.Registerer) (*app, error) {
	a := &app{}
	m := metrics.New(reg)

	var (
		states state.Store
		health httptransport.HealthChecker
	)
	if cfg.RedisEnabled() {
		client, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		states = state.NewRedisStore(client.Client, cfg.State.TTL)
		health = client
	} else {
		mem := state.NewInMemoryStore(
			state.WithTTL(cfg.State.TTL),
			state.WithSweepInterval(cfg.State.SweepInterval),
		)
		a.closers = append(a.closers, mem.Close)
		m.RegisterStateBindings(mem.Len)
		states = mem
	}

	exchanger := oauth.NewClient(oauth.Config{
		AuthorizeURL:   cfg.OAuth.AuthorizeURL,
		AccessTokenURL: cfg.OAuth.AccessTokenURL,
		ClientID:       cfg.OAuth.ClientID,
		ClientSecret:   cfg.OAuth.ClientSecret,
		RedirectURL:    cfg.OAuth.RedirectURL,
		Scopes:         cfg.OAuth.Scopes,
		Timeout:        cfg.OAuth.ExchangeTimeout,
	})
	loginService := authservice.New(exchanger, states,
		authservice.WithLogger(log),
		authservice.WithMetrics(m),
		authservice.WithRedirectOrigins(cfg.RedirectAllowedOrigins),
	)
	sessions := sessioncookie.New(cfg.SessionSecret(),
		sessioncookie.WithTTL(cfg.Session.TTL),
		sessioncookie.WithSecure(cfg.Session.CookieSecure),
	)
	validator := jwttoken.NewJWTServiceAdapter(
		jwttoken.NewJWTService(cfg.JWT.AlgorithmSecret, cfg.JWT.Issuer, cfg.JWT.Audience),
	)
	failureHook := authmw.WithFailureHook(m.IncrementAuthFailure)

	gatherer, ok := reg.(prometheus.Gatherer)
	if !ok {
		gatherer = prometheus.DefaultGatherer
	}

	a.router = httptransport.NewRouter(httptransport.Deps{
		Logger:             log,
		Latency:            m,
		Gatherer:           gatherer,
		Health:             health,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Handlers: []httptransport.RouteRegistrar{
			authhandler.New(loginService, sessions, log, failureHook),
			userhandler.New(userstore.NewSeeded(), log, m, validator, failureHook),
		},
	})
	return a, nil
}
