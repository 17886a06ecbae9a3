package stream

import (
	"time"

	"github.com/amobagan/nutristream/validation"
)

const (
	DefaultDialTimeout    = 10 * time.Second
	DefaultAutoStartDelay = 500 * time.Millisecond
)

// Config holds session behaviour. Transport settings live with the dialer.
type Config struct {
	// DialTimeout bounds connection establishment only. Requests have no
	// timeout.
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	// AutoStartDelay is how long after connecting an initial subject is
	// submitted. Zero selects DefaultAutoStartDelay; a negative value
	// submits as soon as the connection is ready.
	AutoStartDelay time.Duration `mapstructure:"auto_start_delay"`
	// FailOnDisconnect moves a streaming request to Failed when the
	// transport closes. When false the request is left streaming.
	FailOnDisconnect bool `mapstructure:"fail_on_disconnect"`
}

// ApplyDefaults fills zero durations.
func (c *Config) ApplyDefaults() {
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.AutoStartDelay == 0 {
		c.AutoStartDelay = DefaultAutoStartDelay
	}
}

// Validate checks durations after defaults are applied.
func (c *Config) Validate() error {
	return validation.New().
		PositiveDuration("dial_timeout", c.DialTimeout).
		Err()
}
