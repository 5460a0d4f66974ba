package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/kangaroo/internal/cache"
	"github.com/dropDatabas3/kangaroo/internal/config"
	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	"github.com/dropDatabas3/kangaroo/internal/oauth/authenticators"
	githubauth "github.com/dropDatabas3/kangaroo/internal/oauth/authenticators/github"
	googleauth "github.com/dropDatabas3/kangaroo/internal/oauth/authenticators/google"
	passwordauth "github.com/dropDatabas3/kangaroo/internal/oauth/authenticators/password"
	testauth "github.com/dropDatabas3/kangaroo/internal/oauth/authenticators/test"
	"github.com/dropDatabas3/kangaroo/internal/observability/logger"
	"github.com/dropDatabas3/kangaroo/internal/store"
	"github.com/dropDatabas3/kangaroo/internal/store/state"

	// adapters registrados vía init()
	_ "github.com/dropDatabas3/kangaroo/internal/store/memory"
	_ "github.com/dropDatabas3/kangaroo/internal/store/pg"
)

// factories son los plugins que el binario sabe construir; config decide
// cuáles se habilitan.
var factories = map[string]authenticators.Factory{
	testauth.Type:     testauth.Factory,
	passwordauth.Type: passwordauth.Factory,
	githubauth.Type:   githubauth.Factory,
	googleauth.Type:   googleauth.Factory,
}

// loadConfig carga config e inicializa el logger global.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Config{
		Format:      cfg.Log.Format,
		Level:       cfg.Log.Level,
		ServiceName: "kangaroo",
		Version:     version,
	})
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.DataAccessLayer, error) {
	dal, err := store.Open(ctx, store.AdapterConfig{
		Name:      cfg.Storage.Driver,
		DSN:       cfg.Storage.DSN,
		MaxConns:  int(cfg.Storage.MaxConns),
		MinConns:  int(cfg.Storage.MinConns),
		TxTimeout: cfg.Storage.TxTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return dal, nil
}

func openRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.Cache.Kind != "redis" {
		return nil, nil
	}
	return cache.OpenRedis(ctx, cache.Config{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
}

// stateStore elige el store de AuthenticatorState; nil = el propio del
// storage.
func stateStore(cfg *config.Config, rdb *redis.Client) (repository.AuthenticatorStateRepository, error) {
	switch cfg.OAuth.StateStore {
	case "storage":
		return nil, nil
	case "memory":
		return state.NewMemory(), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("oauth.state_store=redis without a redis connection")
		}
		return state.NewRedis(rdb, cfg.Cache.Redis.Prefix+"state:"), nil
	}
	return nil, fmt.Errorf("unknown oauth.state_store %q", cfg.OAuth.StateStore)
}

func buildRegistry(cfg *config.Config) (*authenticators.Registry, error) {
	reg := authenticators.NewRegistry(authenticators.Deps{
		HTTPClient: &http.Client{Timeout: cfg.OAuth.AuthenticatorTimeout},
	})
	for _, typ := range cfg.OAuth.Authenticators {
		f, ok := factories[typ]
		if !ok {
			return nil, fmt.Errorf("unknown authenticator type %q", typ)
		}
		reg.RegisterFactory(typ, f)
	}
	return reg, nil
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.ShutdownTimeout > 0 {
		return cfg.Server.ShutdownTimeout
	}
	return 10 * time.Second
}
