package wsclient

import (
	"net/url"
	"path/filepath"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Endpoint != "ws://localhost:8080" || cfg.Path != DefaultPath {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.MaxMessageBytes != DefaultMaxMessageBytes || cfg.HandshakeTimeout != DefaultHandshakeTimeout {
		t.Errorf("limits = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	base := func() Config {
		c := Config{}
		c.ApplyDefaults()
		return c
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"ftp scheme", func(c *Config) { c.Endpoint = "ftp://host" }},
		{"no host", func(c *Config) { c.Endpoint = "ws://" }},
		{"relative path", func(c *Config) { c.Path = "ws/stream" }},
		{"negative limit", func(c *Config) { c.MaxMessageBytes = -1 }},
		{"cert without key", func(c *Config) { c.TLS.CertFile = "cert.pem" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			if cfg.Validate() == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDialURL(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"ws://localhost:8080", "ws://localhost:8080/ws/nutrition/stream"},
		{"http://localhost:8080/", "ws://localhost:8080/ws/nutrition/stream"},
		{"https://api.example.com/v1", "wss://api.example.com/v1/ws/nutrition/stream"},
		{"wss://api.example.com?x=1", "wss://api.example.com/ws/nutrition/stream"},
	}
	for _, tc := range tests {
		cfg := Config{Endpoint: tc.endpoint}
		cfg.ApplyDefaults()
		raw, err := cfg.DialURL("a b&c=d")
		if err != nil {
			t.Fatalf("DialURL(%q): %v", tc.endpoint, err)
		}
		u, _ := url.Parse(raw)
		if got := u.Scheme + "://" + u.Host + u.Path; got != tc.want {
			t.Errorf("%q => %q, want %q", tc.endpoint, got, tc.want)
		}
		if u.Query().Get("token") != "a b&c=d" || len(u.Query()) != 1 {
			t.Errorf("query = %q", u.RawQuery)
		}
	}

	bad := Config{Endpoint: "ftp://x", Path: DefaultPath}
	if _, err := bad.DialURL("t"); err == nil {
		t.Error("unsupported scheme should fail")
	}
}

func TestTLSConfig(t *testing.T) {
	var none TLSConfig
	if cfg, err := none.Build(); cfg != nil || err != nil {
		t.Errorf("empty Build = %v, %v", cfg, err)
	}

	skip := TLSConfig{SkipVerify: true, ServerName: "api"}
	cfg, err := skip.Build()
	if err != nil || cfg == nil || !cfg.InsecureSkipVerify || cfg.ServerName != "api" {
		t.Errorf("Build = %+v, %v", cfg, err)
	}

	missing := TLSConfig{CAFile: filepath.Join(t.TempDir(), "nope.pem")}
	if _, err := missing.Build(); err == nil {
		t.Error("missing CA file should fail")
	}

	var nilCfg *TLSConfig
	if nilCfg.IsEnabled() || nilCfg.Validate() != nil {
		t.Error("nil TLS config is disabled and valid")
	}
}
