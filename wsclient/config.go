package wsclient

import (
	"net/url"
	"strings"
	"time"

	"github.com/amobagan/nutristream/errors"
	"github.com/amobagan/nutristream/validation"
)

const (
	DefaultEndpoint         = "ws://localhost:8080"
	DefaultPath             = "/ws/nutrition/stream"
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 10 * time.Second
	DefaultMaxMessageBytes  = 1 << 20
)

// Config locates the analysis endpoint.
type Config struct {
	// Endpoint is the backend base address. http and https are accepted and
	// mapped to ws and wss.
	Endpoint         string        `mapstructure:"endpoint"`
	Path             string        `mapstructure:"path"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	// MaxMessageBytes caps a single inbound frame.
	MaxMessageBytes int64     `mapstructure:"max_message_bytes"`
	TLS             TLSConfig `mapstructure:"tls"`
}

func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.MaxMessageBytes == 0 {
		c.MaxMessageBytes = DefaultMaxMessageBytes
	}
}

func (c *Config) Validate() error {
	v := validation.New().
		Required("endpoint", c.Endpoint).
		URL("endpoint", c.Endpoint, "ws", "wss", "http", "https").
		PositiveDuration("handshake_timeout", c.HandshakeTimeout).
		PositiveDuration("write_timeout", c.WriteTimeout).
		Custom(c.MaxMessageBytes > 0, "max_message_bytes", "must be positive").
		Custom(c.Path == "" || strings.HasPrefix(c.Path, "/"), "path", "must start with /")
	if err := c.TLS.Validate(); err != nil {
		v.AddError("tls", err.Error())
	}
	return v.Err()
}

// StreamURL returns the address without credentials, suitable for logs.
func (c Config) StreamURL() (*url.URL, error) {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return nil, errors.Validation("invalid endpoint").WithCause(err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, errors.Validation("endpoint scheme must be ws, wss, http or https").WithDetail("scheme", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + c.Path
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// DialURL returns StreamURL with the credential as the token query
// parameter.
func (c Config) DialURL(token string) (string, error) {
	u, err := c.StreamURL()
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
