// Command nutrition-mock serves a local stand-in for the nutrition analysis
// backend.
//
//	nutrition-mock -config config.yml
//	nutrition-mock -issue-token alice
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/amobagan/nutristream/bootstrap"
	"github.com/amobagan/nutristream/config"
	"github.com/amobagan/nutristream/mockbackend"
	"github.com/amobagan/nutristream/version"
)

const serviceName = "nutrition-mock"

// Config is the dev server configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server mockbackend.Config `yaml:"server" mapstructure:"server"`
}

func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
}

func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("config.server: %w", err)
	}
	return nil
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "path to config.yml")
	issue := fs.String("issue-token", "", "print a dev token for this subject and exit")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Fprintln(stdout, version.UserAgent(serviceName))
		return nil
	}

	cfg := &Config{}
	opts := []config.LoaderOption{config.WithEnvPrefix("NUTRITION_MOCK")}
	if *cfgPath != "" {
		opts = append(opts, config.WithConfigFile(*cfgPath))
	}
	if err := config.Load(serviceName, cfg, opts...); err != nil {
		return err
	}

	if *issue != "" {
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return err
		}
		tok, err := mockbackend.NewTokenIssuer(cfg.Server.Secret, cfg.Server.Issuer, cfg.Server.TokenTTL).Issue(*issue)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, tok)
		return nil
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	srv := mockbackend.NewServer(cfg.Server, mockbackend.NewCatalog(nil),
		mockbackend.NewTokenVerifier(cfg.Server.Secret, cfg.Server.Issuer), app.Logger)
	srv.SetHealthChecker(app.Components.HealthAll)
	if err := app.RegisterComponent(mockbackend.NewComponent(srv)); err != nil {
		return err
	}
	return app.Run(ctx)
}
