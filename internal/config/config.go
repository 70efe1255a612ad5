package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// MinSigningKeyLen is the minimum accepted length for the session signing
// key. Anything shorter makes HS256 brute-forceable offline.
const MinSigningKeyLen = 32

// Config gathers every process-wide constant. It is parsed once in main and
// injected into components by value; nothing reads the environment after
// startup.
type Config struct {
	Addr string `env:"MATCHDAY_ADDR" envDefault:":8080"`

	// SigningKey is the symmetric key used to sign session tokens.
	SigningKey string `env:"MATCHDAY_JWT_KEY,notEmpty"`

	// SessionCookie and ConsentCookie carry the session token and the
	// cookie-consent marker respectively.
	SessionCookie string `env:"MATCHDAY_SESSION_COOKIE" envDefault:"session-token"`
	ConsentCookie string `env:"MATCHDAY_CONSENT_COOKIE" envDefault:"cookies-approved"`

	PostgresDSN string `env:"MATCHDAY_PG_DSN,notEmpty"`
	RedisURL    string `env:"MATCHDAY_REDIS_URL,notEmpty"`
	MongoURL    string `env:"MATCHDAY_MONGO_URL,notEmpty"`
	MongoDBName string `env:"MATCHDAY_MONGO_DBNAME" envDefault:"matchday"`

	// SessionTTL bounds token lifetime; RefreshAfter is the point at which
	// a verified token gets replaced mid-request.
	SessionTTL   time.Duration `env:"MATCHDAY_SESSION_TTL" envDefault:"168h"`
	RefreshAfter time.Duration `env:"MATCHDAY_SESSION_REFRESH_AFTER" envDefault:"15m"`

	// LoginDelay is applied uniformly to every login outcome to blunt
	// credential enumeration by timing.
	LoginDelay time.Duration `env:"MATCHDAY_LOGIN_DELAY" envDefault:"3s"`

	// BanThreshold is the number of client errors an address may produce
	// before the abuse gate rejects it. The counter never decays.
	BanThreshold int64 `env:"MATCHDAY_BAN_THRESHOLD" envDefault:"15"`

	// Cache TTLs: reads refresh a hit to CacheReadTTL, misses are stored
	// with CacheWriteTTL. Short on purpose; staleness is TTL-bounded.
	CacheReadTTL  time.Duration `env:"MATCHDAY_CACHE_READ_TTL" envDefault:"200s"`
	CacheWriteTTL time.Duration `env:"MATCHDAY_CACHE_WRITE_TTL" envDefault:"100s"`

	// Asset protection: hosts allowed to reference protected assets and
	// referer paths allowed without a session cookie.
	AssetsBasePath string   `env:"MATCHDAY_ASSETS_BASE_PATH" envDefault:"/assets"`
	TrustedHosts   []string `env:"MATCHDAY_TRUSTED_HOSTS" envSeparator:","`
	// BypassedPaths stay reachable without the consent cookie, on top of
	// the consent page itself. Only consent-granting paths belong here;
	// everything else waits behind the approval.
	BypassedPaths []string `env:"MATCHDAY_BYPASSED_PATHS" envSeparator:"," envDefault:"/cookies/approve"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the invariants that Parse cannot express.
func (c Config) Validate() error {
	if len(c.SigningKey) < MinSigningKeyLen {
		return fmt.Errorf("config: signing key must be at least %d bytes, got %d", MinSigningKeyLen, len(c.SigningKey))
	}
	if c.BanThreshold <= 0 {
		return errors.New("config: ban threshold must be positive")
	}
	if c.SessionTTL <= 0 || c.RefreshAfter <= 0 {
		return errors.New("config: session TTLs must be positive")
	}
	if c.RefreshAfter >= c.SessionTTL {
		return errors.New("config: refresh-after must be shorter than the session TTL")
	}
	if c.CacheReadTTL <= 0 || c.CacheWriteTTL <= 0 {
		return errors.New("config: cache TTLs must be positive")
	}
	return nil
}
