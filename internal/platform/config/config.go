package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	pkgstrings "usergate/pkg/platform/strings"
)

// MinSecretLength is the shortest HMAC secret accepted outside dev mode.
const MinSecretLength = 32

// Server captures process level configuration.
type Server struct {
	Addr      string `env:"USERGATE_ADDR" envDefault:":8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	DevMode   bool   `env:"DEV_MODE"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	// Origins an absolute redirectUrl may point at. Relative paths need no entry.
	RedirectAllowedOrigins []string `env:"REDIRECT_ALLOWED_ORIGINS" envSeparator:","`

	OAuth   OAuthConfig   `envPrefix:"OAUTH_"`
	JWT     JWTConfig     `envPrefix:"JWT_"`
	Session SessionConfig `envPrefix:"SESSION_"`
	State   StateConfig   `envPrefix:"STATE_"`
	Redis   RedisConfig   `envPrefix:"REDIS_"`
}

// OAuthConfig is the provider registration used by /login and /callback.
type OAuthConfig struct {
	AuthorizeURL    string        `env:"AUTHORIZE_URL"`
	AccessTokenURL  string        `env:"ACCESS_TOKEN_URL"`
	ClientID        string        `env:"CLIENT_ID"`
	ClientSecret    string        `env:"CLIENT_SECRET"`
	RedirectURL     string        `env:"REDIRECT_URL"`
	Scopes          []string      `env:"SCOPES" envDefault:"openid,profile,email" envSeparator:","`
	ExchangeTimeout time.Duration `env:"EXCHANGE_TIMEOUT" envDefault:"5s"`
}

// JWTConfig pins the bearer tokens the API accepts.
type JWTConfig struct {
	AlgorithmSecret string `env:"ALGORITHM_SECRET"`
	Issuer          string `env:"ISSUER"`
	Audience        string `env:"AUDIENCE"`
}

// SessionConfig controls the user_session cookie. An empty Secret falls back
// to the JWT secret.
type SessionConfig struct {
	Secret       string        `env:"SECRET"`
	TTL          time.Duration `env:"TTL" envDefault:"12h"`
	CookieSecure bool          `env:"COOKIE_SECURE"`
}

// StateConfig controls the lifetime of pending login bindings.
type StateConfig struct {
	TTL           time.Duration `env:"TTL" envDefault:"10m"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
}

// RedisConfig enables the shared state store when URL is set.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

// FromEnv parses the environment. It does not validate; call Validate or
// ValidateOAuth depending on what the caller needs.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.CORSAllowedOrigins = pkgstrings.NormalizeOrigins(cfg.CORSAllowedOrigins)
	cfg.OAuth.Scopes = pkgstrings.DedupeAndTrim(cfg.OAuth.Scopes)
	cfg.RedirectAllowedOrigins = pkgstrings.NormalizeOrigins(cfg.RedirectAllowedOrigins)
	return cfg, nil
}

// SessionSecret returns the secret used to sign session cookies.
func (c Server) SessionSecret() string {
	if c.Session.Secret != "" {
		return c.Session.Secret
	}
	return c.JWT.AlgorithmSecret
}

// RedisEnabled reports whether state bindings live in Redis.
func (c Server) RedisEnabled() bool {
	return c.Redis.URL != ""
}

// Validate checks what every command needs: the bearer token settings.
func (c Server) Validate() error {
	var errs []error
	if c.JWT.AlgorithmSecret == "" {
		errs = append(errs, errors.New("JWT_ALGORITHM_SECRET is required"))
	} else if len(c.JWT.AlgorithmSecret) < MinSecretLength && !c.DevMode {
		errs = append(errs, fmt.Errorf("JWT_ALGORITHM_SECRET must be at least %d bytes", MinSecretLength))
	}
	if c.Session.Secret != "" && len(c.Session.Secret) < MinSecretLength && !c.DevMode {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d bytes", MinSecretLength))
	}
	if c.JWT.Issuer == "" {
		errs = append(errs, errors.New("JWT_ISSUER is required"))
	}
	if c.JWT.Audience == "" {
		errs = append(errs, errors.New("JWT_AUDIENCE is required"))
	}
	return errors.Join(errs...)
}

// ValidateOAuth additionally checks the provider registration used by serve.
func (c Server) ValidateOAuth() error {
	var errs []error
	if err := c.Validate(); err != nil {
		errs = append(errs, err)
	}
	required := []struct {
		key, value string
	}{
		{"OAUTH_AUTHORIZE_URL", c.OAuth.AuthorizeURL},
		{"OAUTH_ACCESS_TOKEN_URL", c.OAuth.AccessTokenURL},
		{"OAUTH_CLIENT_ID", c.OAuth.ClientID},
		{"OAUTH_REDIRECT_URL", c.OAuth.RedirectURL},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s is required", r.key))
		}
	}
	return errors.Join(errs...)
}
