package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/kangaroo/internal/bootstrap"
	"github.com/dropDatabas3/kangaroo/internal/config"
	metrics "github.com/dropDatabas3/kangaroo/internal/http"
	healthctrl "github.com/dropDatabas3/kangaroo/internal/http/controllers/health"
	oauthctrl "github.com/dropDatabas3/kangaroo/internal/http/controllers/oauth"
	mw "github.com/dropDatabas3/kangaroo/internal/http/middlewares"
	"github.com/dropDatabas3/kangaroo/internal/http/router"
	healthsvc "github.com/dropDatabas3/kangaroo/internal/http/services/health"
	oauthsvc "github.com/dropDatabas3/kangaroo/internal/http/services/oauth"
	"github.com/dropDatabas3/kangaroo/internal/observability/logger"
	"github.com/dropDatabas3/kangaroo/internal/oauth/tokens"
	"github.com/dropDatabas3/kangaroo/internal/rate"
	"github.com/dropDatabas3/kangaroo/internal/store"
	"github.com/dropDatabas3/kangaroo/internal/store/pg"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var migrate, seed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, serveOptions{migrate: migrate, seed: seed})
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "aplica migraciones antes de arrancar")
	cmd.Flags().BoolVar(&seed, "seed", false, "aplica seed.path antes de arrancar")
	return cmd
}

type serveOptions struct {
	migrate bool
	seed    bool
}

func serve(ctx context.Context, cfg *config.Config, so serveOptions) error {
	log := logger.L().With(logger.Component("serve"))

	dal, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dal.Close(); err != nil {
			log.Warn("storage close failed", logger.Err(err))
		}
	}()
	log.Info("storage ready", logger.String("driver", dal.Name()))

	if so.migrate {
		if err := runMigrations(ctx, dal); err != nil {
			return err
		}
	}

	rdb, err := openRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	states, err := stateStore(cfg, rdb)
	if err != nil {
		return err
	}
	oauthDAL := store.WithStates(dal, states)

	// en memoria no hay nada persistido: el seed se aplica siempre
	if (so.seed || dal.Name() == "memory") && cfg.Seed.Path != "" {
		if err := applySeed(ctx, oauthDAL, cfg); err != nil {
			return err
		}
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	var pool func() *pgxpool.Pool
	if conn, ok := dal.(*pg.Conn); ok {
		pool = conn.Pool
	}
	metricsHandler, err := metrics.RegisterMetrics(metrics.MetricsConfig{Pool: pool})
	if err != nil {
		return err
	}

	proxies, err := mw.ParseTrustedProxies(cfg.Rate.TrustedProxies)
	if err != nil {
		return fmt.Errorf("rate: %w", err)
	}
	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		if rdb != nil {
			limiter = rate.NewRedisLimiter(rdb, cfg.Cache.Redis.Prefix+"rl:", cfg.Rate.MaxRequests, cfg.Rate.Window)
		} else {
			limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.Rate.Window)
		}
	}

	services := oauthsvc.NewServices(oauthsvc.Deps{
		DAL:                  oauthDAL,
		Tokens:               tokens.NewManager(),
		Authenticators:       registry,
		BaseURL:              cfg.Server.BaseURL,
		StateTTL:             cfg.OAuth.StateTTL,
		AuthenticatorTimeout: cfg.OAuth.AuthenticatorTimeout,
	})
	handler := router.New(router.Deps{
		OAuth:          oauthctrl.NewControllers(services),
		Health:         healthctrl.NewControllers(healthsvc.NewServices(healthsvc.Deps{DAL: dal})),
		Metrics:        metricsHandler,
		RateLimiter:    limiter,
		TrustedProxies: proxies,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening",
			logger.String("addr", cfg.Server.Addr),
			logger.String("base_url", cfg.Server.BaseURL),
			logger.Any("authenticators", registry.Available()),
			logger.String("state_store", cfg.OAuth.StateStore),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	return <-errCh
}

func applySeed(ctx context.Context, dal store.DataAccessLayer, cfg *config.Config) error {
	seed, err := bootstrap.Load(cfg.Seed.Path)
	if err != nil {
		return err
	}
	res, err := bootstrap.Apply(ctx, dal, seed, seedOptions(cfg))
	if err != nil {
		return err
	}
	logger.L().Info("seed applied",
		logger.String("path", cfg.Seed.Path),
		logger.Int("applications", len(res.Applications)),
		logger.Int("clients", len(res.Clients)),
	)
	return nil
}
