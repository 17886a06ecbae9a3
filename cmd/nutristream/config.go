package main

import (
	"fmt"

	"github.com/amobagan/nutristream/archive"
	"github.com/amobagan/nutristream/config"
	"github.com/amobagan/nutristream/credential"
	"github.com/amobagan/nutristream/observability"
	"github.com/amobagan/nutristream/stream"
	"github.com/amobagan/nutristream/wsclient"
)

const serviceName = "nutristream"

// Config is the client configuration, loaded from config.yml, .env, and
// NUTRISTREAM_* environment variables.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Stream     stream.Config        `yaml:"stream" mapstructure:"stream"`
	Transport  wsclient.Config      `yaml:"transport" mapstructure:"transport"`
	Credential credential.Config    `yaml:"credential" mapstructure:"credential"`
	Archive    archive.Config       `yaml:"archive" mapstructure:"archive"`
	Telemetry  observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Logging.Level == "" && !c.Debug {
		c.Logging.Level = "warn"
	}
	c.ServiceConfig.ApplyDefaults()
	c.Stream.ApplyDefaults()
	c.Transport.ApplyDefaults()
	c.Credential.ApplyDefaults()
	c.Archive.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Stream.Validate(); err != nil {
		return fmt.Errorf("config.stream: %w", err)
	}
	if err := c.Transport.Validate(); err != nil {
		return fmt.Errorf("config.transport: %w", err)
	}
	if err := c.Credential.Validate(); err != nil {
		return fmt.Errorf("config.credential: %w", err)
	}
	if err := c.Archive.Validate(); err != nil {
		return fmt.Errorf("config.archive: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("config.telemetry: %w", err)
	}
	return nil
}

func loadConfig(path string) (*Config, error) {
	cfg := &Config{}
	opts := []config.LoaderOption{config.WithEnvPrefix("NUTRISTREAM")}
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if err := config.Load(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}
