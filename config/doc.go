// Package config loads service configuration from YAML, .env files, and the
// environment using Viper.
//
// Resolution order, later sources winning:
//
//  1. config.yml (explicit path, ./cmd/<service>/config.yml, ./config/config.yml, ./config.yml)
//  2. .env (explicit path, or .env.<service> / .env next to the config)
//  3. process environment, with NUTRISTREAM_STREAM_ENDPOINT binding stream.endpoint
//
// Application configs embed ServiceConfig:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Stream stream.Config `yaml:"stream" mapstructure:"stream"`
//	}
package config
