package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath es el config que usa el CLI si no se pasa --config.
const DefaultPath = "configs/kangaroo.yaml"

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
		// BaseURL es la URL pública del server; arma el callback de los
		// authenticators.
		BaseURL         string        `yaml:"base_url"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		RequestTimeout  time.Duration `yaml:"request_timeout"`
	} `yaml:"server"`

	Storage struct {
		Driver    string        `yaml:"driver"` // memory | postgres
		DSN       string        `yaml:"dsn"`
		MaxConns  int32         `yaml:"max_conns"`
		MinConns  int32         `yaml:"min_conns"`
		TxTimeout time.Duration `yaml:"tx_timeout"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			DB       int    `yaml:"db"`
			Password string `yaml:"password"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	OAuth struct {
		// StateStore: storage (misma DB), memory o redis.
		StateStore           string        `yaml:"state_store"`
		StateTTL             time.Duration `yaml:"state_ttl"`
		AuthenticatorTimeout time.Duration `yaml:"authenticator_timeout"`
		// Authenticators son los tipos de plugin habilitados.
		Authenticators []string `yaml:"authenticators"`
	} `yaml:"oauth"`

	Rate struct {
		Enabled     bool          `yaml:"enabled"`
		Window      time.Duration `yaml:"window"`
		MaxRequests int           `yaml:"max_requests"`

		// TrustedProxies (IPs o CIDRs) son los únicos RemoteAddr cuyo
		// X-Forwarded-For se usa como IP del cliente.
		TrustedProxies []string `yaml:"trusted_proxies"`
	} `yaml:"rate"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json | console
	} `yaml:"log"`

	Seed struct {
		Path string `yaml:"path"`
	} `yaml:"seed"`
}

// Load lee el YAML en path (si existe), aplica defaults y overrides
// KANGAROO_* y valida. Un path inexistente no es error: vale sólo con env.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	c.applyDefaults()
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	// seed relativo al directorio del YAML
	if p := strings.TrimSpace(c.Seed.Path); p != "" && path != "" && !filepath.IsAbs(p) {
		if _, err := os.Stat(p); err != nil {
			c.Seed.Path = filepath.Clean(filepath.Join(filepath.Dir(path), p))
		}
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost" + c.Server.Addr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 30 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.MaxConns == 0 {
		c.Storage.MaxConns = 10
	}
	if c.Storage.TxTimeout == 0 {
		c.Storage.TxTimeout = 5 * time.Second
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "kangaroo:"
	}
	if c.OAuth.StateStore == "" {
		c.OAuth.StateStore = "storage"
	}
	if c.OAuth.StateTTL == 0 {
		c.OAuth.StateTTL = 10 * time.Minute
	}
	if c.OAuth.AuthenticatorTimeout == 0 {
		c.OAuth.AuthenticatorTimeout = 10 * time.Second
	}
	if c.OAuth.Authenticators == nil {
		c.OAuth.Authenticators = []string{"password"}
	}
	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
		if c.App.Env == "dev" {
			c.Log.Format = "console"
		}
	}
}

// ---- Helpers env ----

const envPrefix = "KANGAROO_"

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(envPrefix + key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides pisa el YAML con variables KANGAROO_*.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("SERVER_BASE_URL"); ok {
		c.Server.BaseURL = v
	}
	if v, ok := getEnvDur("SERVER_READ_TIMEOUT"); ok {
		c.Server.ReadTimeout = v
	}
	if v, ok := getEnvDur("SERVER_WRITE_TIMEOUT"); ok {
		c.Server.WriteTimeout = v
	}
	if v, ok := getEnvDur("SERVER_SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}
	if v, ok := getEnvDur("SERVER_REQUEST_TIMEOUT"); ok {
		c.Server.RequestTimeout = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("STORAGE_MAX_CONNS"); ok {
		c.Storage.MaxConns = int32(v)
	}
	if v, ok := getEnvInt("STORAGE_MIN_CONNS"); ok {
		c.Storage.MinConns = int32(v)
	}
	if v, ok := getEnvDur("STORAGE_TX_TIMEOUT"); ok {
		c.Storage.TxTimeout = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// OAUTH
	if v, ok := getEnvStr("OAUTH_STATE_STORE"); ok {
		c.OAuth.StateStore = strings.ToLower(v)
	}
	if v, ok := getEnvDur("OAUTH_STATE_TTL"); ok {
		c.OAuth.StateTTL = v
	}
	if v, ok := getEnvDur("OAUTH_AUTHENTICATOR_TIMEOUT"); ok {
		c.OAuth.AuthenticatorTimeout = v
	}
	if v, ok := getEnvCSV("OAUTH_AUTHENTICATORS"); ok {
		c.OAuth.Authenticators = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvDur("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvCSV("RATE_TRUSTED_PROXIES"); ok {
		c.Rate.TrustedProxies = v
	}

	// LOG
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_FORMAT"); ok {
		c.Log.Format = strings.ToLower(v)
	}

	// SEED
	if v, ok := getEnvStr("SEED_PATH"); ok {
		c.Seed.Path = v
	}
}

// Validate revisa combinaciones que no arrancarían.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return errors.New("config: storage.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}

	switch c.Cache.Kind {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.Cache.Redis.Addr) == "" {
			return errors.New("config: cache.redis.addr is required for redis")
		}
	default:
		return fmt.Errorf("config: unknown cache.kind %q", c.Cache.Kind)
	}

	switch c.OAuth.StateStore {
	case "storage", "memory":
	case "redis":
		if c.Cache.Kind != "redis" {
			return errors.New("config: oauth.state_store=redis needs cache.kind=redis")
		}
	default:
		return fmt.Errorf("config: unknown oauth.state_store %q", c.OAuth.StateStore)
	}

	if c.Storage.MinConns > c.Storage.MaxConns {
		return errors.New("config: storage.min_conns exceeds storage.max_conns")
	}
	if c.Rate.Enabled && (c.Rate.MaxRequests <= 0 || c.Rate.Window <= 0) {
		return errors.New("config: rate limits must be positive")
	}
	for _, p := range c.Rate.TrustedProxies {
		if !validProxy(strings.TrimSpace(p)) {
			return fmt.Errorf("config: rate.trusted_proxies: invalid entry %q", p)
		}
	}
	if !strings.HasPrefix(c.Server.BaseURL, "http://") && !strings.HasPrefix(c.Server.BaseURL, "https://") {
		return fmt.Errorf("config: server.base_url must be absolute, got %q", c.Server.BaseURL)
	}
	if c.IsProd() {
		for _, typ := range c.OAuth.Authenticators {
			if typ == "test" {
				return errors.New("config: the test authenticator cannot be enabled in prod")
			}
		}
	}
	return nil
}

// IsProd indica si corre en producción.
func (c *Config) IsProd() bool { return strings.EqualFold(c.App.Env, "prod") }

func validProxy(v string) bool {
	if strings.Contains(v, "/") {
		_, err := netip.ParsePrefix(v)
		return err == nil
	}
	_, err := netip.ParseAddr(v)
	return err == nil
}
