package engine

import (
	"fmt"
	"time"

	"github.com/jmcardon/http4s/security"
	"github.com/jmcardon/http4s/validation"
	"github.com/jmcardon/http4s/version"
)

const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 5
	defaultIdleConnTimeout     = 5 * time.Minute
	defaultDialTimeout         = 10 * time.Second
	defaultTLSHandshakeTimeout = 10 * time.Second
	defaultCacheLifeWindow     = 10 * time.Minute
	defaultCacheShards         = 16
	defaultCacheMaxEntries     = 1024
	defaultCacheMaxEntrySize   = 64 * 1024
)

// Config configures the default net/http engine.
type Config struct {
	// Dispatcher bounds the number of calls executing at once.
	Dispatcher DispatcherConfig `yaml:"dispatcher" mapstructure:"dispatcher"`

	MaxIdleConns        int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns" validate:"gte=0"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host" mapstructure:"max_idle_conns_per_host" validate:"gte=0"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout" mapstructure:"idle_conn_timeout" validate:"gte=0"`
	DialTimeout         time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout" validate:"gte=0"`

	// CallTimeout bounds a whole call including reading the response body.
	// 0 means no limit.
	CallTimeout time.Duration `yaml:"call_timeout" mapstructure:"call_timeout" validate:"gte=0"`

	// DisableHTTP2 turns off HTTP/2 negotiation over TLS.
	DisableHTTP2 bool `yaml:"disable_http2" mapstructure:"disable_http2"`

	// DisableRedirects returns 3xx responses to the caller instead of
	// following them.
	DisableRedirects bool `yaml:"disable_redirects" mapstructure:"disable_redirects"`

	// UserAgent is sent when the request carries none. Defaults to
	// version.UserAgent().
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`
}

// CacheConfig configures the in-memory response cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// MaxEntrySize is the largest body, in bytes, that is cached.
	MaxEntrySize int `yaml:"max_entry_size" mapstructure:"max_entry_size" validate:"gte=0"`
	// LifeWindow is how long an entry stays valid.
	LifeWindow time.Duration `yaml:"life_window" mapstructure:"life_window" validate:"gte=0"`
	// MaxEntries is the expected number of live entries.
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries" validate:"gte=0"`
	// Shards must be a power of two.
	Shards int `yaml:"shards" mapstructure:"shards" validate:"gte=0"`
	// HardMaxCacheSizeMB caps memory use. 0 means unbounded.
	HardMaxCacheSizeMB int `yaml:"hard_max_cache_size_mb" mapstructure:"hard_max_cache_size_mb" validate:"gte=0"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Dispatcher.Name == "" {
		c.Dispatcher.Name = "engine"
	}
	c.Dispatcher.ApplyDefaults()
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = defaultMaxIdleConns
	}
	if c.MaxIdleConnsPerHost == 0 {
		c.MaxIdleConnsPerHost = defaultMaxIdleConnsPerHost
	}
	if c.IdleConnTimeout == 0 {
		c.IdleConnTimeout = defaultIdleConnTimeout
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = version.UserAgent()
	}
	if c.Cache.Enabled {
		if c.Cache.MaxEntrySize == 0 {
			c.Cache.MaxEntrySize = defaultCacheMaxEntrySize
		}
		if c.Cache.LifeWindow == 0 {
			c.Cache.LifeWindow = defaultCacheLifeWindow
		}
		if c.Cache.MaxEntries == 0 {
			c.Cache.MaxEntries = defaultCacheMaxEntries
		}
		if c.Cache.Shards == 0 {
			c.Cache.Shards = defaultCacheShards
		}
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if c.Cache.Enabled && c.Cache.Shards&(c.Cache.Shards-1) != 0 {
		return fmt.Errorf("engine: cache.shards must be a power of two (got: %d)", c.Cache.Shards)
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return fmt.Errorf("engine: %w", err)
		}
	}
	return nil
}
