package auth

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
)

// Defaults matching the deployed service configuration.
const (
	DefaultIssuer            = "CRA-Saint-Louis"
	DefaultAudience          = "cra-users"
	DefaultTokenExpiration   = "7d"
	DefaultRefreshExpiration = "30d"
)

// AppConfig holds runtime configuration resolved from the environment.
type AppConfig struct {
	SigningKey        string
	TokenExpiration   time.Duration
	RefreshExpiration time.Duration
	Issuer            string
	Audience          []string
	DatabaseDSN       string
	HTTPAddr          string
	Environment       string
}

var _ Config = (*AppConfig)(nil)

func (c *AppConfig) GetSigningKey() string               { return c.SigningKey }
func (c *AppConfig) GetTokenExpiration() time.Duration   { return c.TokenExpiration }
func (c *AppConfig) GetRefreshExpiration() time.Duration { return c.RefreshExpiration }
func (c *AppConfig) GetIssuer() string                   { return c.Issuer }
func (c *AppConfig) GetAudience() []string               { return c.Audience }

// IsProduction reports whether the service runs with production hardening.
func (c *AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// LoadConfig resolves configuration from environment variables. In production
// a missing JWT_SECRET is a hard error; in development an ephemeral random
// key is generated so every restart invalidates previously issued tokens.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		SigningKey:  os.Getenv("JWT_SECRET"),
		Issuer:      envOrDefault("JWT_ISSUER", DefaultIssuer),
		DatabaseDSN: os.Getenv("DATABASE_URL"),
		HTTPAddr:    envOrDefault("HTTP_ADDR", ":3000"),
		Environment: envOrDefault("APP_ENV", "development"),
	}

	cfg.Audience = splitList(envOrDefault("JWT_AUDIENCE", DefaultAudience))

	var err error
	if cfg.TokenExpiration, err = parseExpiry(envOrDefault("JWT_EXPIRES_IN", DefaultTokenExpiration)); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid JWT_EXPIRES_IN")
	}

	if cfg.RefreshExpiration, err = parseExpiry(envOrDefault("JWT_REFRESH_EXPIRES_IN", DefaultRefreshExpiration)); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid JWT_REFRESH_EXPIRES_IN")
	}

	if cfg.SigningKey == "" {
		if cfg.IsProduction() {
			return nil, ErrSigningKeyMissing
		}
		cfg.SigningKey = ephemeralSigningKey()
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseExpiry accepts Go duration strings plus a "d" suffix for whole days,
// matching the "7d"/"30d" convention used in the service configuration.
func parseExpiry(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(v, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(v)
}

func ephemeralSigningKey() string {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
