package mockbackend

import (
	"time"

	"github.com/amobagan/nutristream/validation"
)

// Config holds dev server settings.
type Config struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`

	// Secret signs and verifies HS256 tokens.
	Secret   string        `mapstructure:"secret"`
	Issuer   string        `mapstructure:"issuer"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`

	// ChunkDelay paces stream_chunk messages.
	ChunkDelay time.Duration `mapstructure:"chunk_delay"`
	// MaxMessageBytes caps an inbound request frame.
	MaxMessageBytes int64 `mapstructure:"max_message_bytes"`

	// RequestsPerMinute throttles analyses per token subject. Zero disables
	// throttling.
	RequestsPerMinute float64 `mapstructure:"requests_per_minute"`
	RequestBurst      int     `mapstructure:"request_burst"`
}

func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.Secret == "" {
		c.Secret = "nutristream-dev-secret"
	}
	if c.Issuer == "" {
		c.Issuer = "nutrition-mock"
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = 24 * time.Hour
	}
	if c.ChunkDelay == 0 {
		c.ChunkDelay = 40 * time.Millisecond
	}
	if c.MaxMessageBytes == 0 {
		c.MaxMessageBytes = 4096
	}
}

func (c *Config) Validate() error {
	return validation.New().
		Custom(c.Port >= 0 && c.Port <= 65535, "port", "must be between 0 and 65535").
		MinLength("secret", c.Secret, 16).
		PositiveDuration("token_ttl", c.TokenTTL).
		NonNegativeDuration("chunk_delay", c.ChunkDelay).
		NonNegativeDuration("read_timeout", c.ReadTimeout).
		NonNegativeDuration("write_timeout", c.WriteTimeout).
		Custom(c.MaxMessageBytes > 0, "max_message_bytes", "must be positive").
		Custom(c.RequestsPerMinute >= 0, "requests_per_minute", "must not be negative").
		Custom(c.RequestBurst >= 0, "request_burst", "must not be negative").
		Err()
}
