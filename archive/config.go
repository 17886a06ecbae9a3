package archive

import (
	"time"

	"github.com/amobagan/nutristream/validation"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config selects and configures the archive backend.
type Config struct {
	// Enabled controls whether reports are archived at all.
	Enabled bool `mapstructure:"enabled"`
	// Backend is "memory" or "redis".
	Backend string `mapstructure:"backend"`
	// TTL expires archived reports. Zero keeps them.
	TTL time.Duration `mapstructure:"ttl"`
	// KeyPrefix namespaces report keys.
	KeyPrefix string `mapstructure:"key_prefix"`

	// Addr is the Redis server address (host:port).
	Addr string `mapstructure:"addr"`
	// Password is the Redis server password.
	Password string `mapstructure:"password"`
	// DB is the Redis database number.
	DB int `mapstructure:"db"`
	// PoolSize is the maximum number of socket connections.
	PoolSize int `mapstructure:"pool_size"`
	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "nutristream:report"
	}
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.PoolSize == 0 {
		c.PoolSize = 10
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 3 * time.Second
	}
}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	v := validation.New().
		OneOf("backend", c.Backend, []string{BackendMemory, BackendRedis}).
		NonNegativeDuration("ttl", c.TTL)
	if c.Backend == BackendRedis {
		v.Required("addr", c.Addr).
			Custom(c.DB >= 0, "db", "must be non-negative").
			Custom(c.PoolSize > 0, "pool_size", "must be positive")
	}
	return v.Err()
}
