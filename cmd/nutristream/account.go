package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/amobagan/nutristream/credential"
	"github.com/amobagan/nutristream/errors"
)

// runLogin seals a token into the token file. "-token -" reads it from stdin.
func runLogin(_ context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := newFlagSet("login", stderr)
	cfgPath := fs.String("config", "", "path to config.yml")
	token := fs.String("token", "", "bearer token to store, or - to read stdin")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	tok := *token
	if tok == "-" {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			return exitCode(err, stderr)
		}
		tok = line
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		fs.Usage()
		return exitCode(errors.MissingField("token"), stderr)
	}

	if exp, ok := credential.ExpiresAt(tok); ok && !exp.After(time.Now()) {
		return exitCode(errors.TokenExpired(), stderr)
	}

	store, err := tokenStore(*cfgPath)
	if err != nil {
		return exitCode(err, stderr)
	}
	if err := store.Save(tok); err != nil {
		return exitCode(err, stderr)
	}

	fmt.Fprintf(stdout, "token saved to %s", store.Path())
	if exp, ok := credential.ExpiresAt(tok); ok {
		fmt.Fprintf(stdout, " (expires %s)", exp.Local().Format(time.RFC1123))
	}
	fmt.Fprintln(stdout)
	return exitOK
}

func runLogout(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("logout", stderr)
	cfgPath := fs.String("config", "", "path to config.yml")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	store, err := tokenStore(*cfgPath)
	if err != nil {
		return exitCode(err, stderr)
	}
	if err := store.Clear(); err != nil {
		return exitCode(err, stderr)
	}
	fmt.Fprintln(stdout, "signed out")
	return exitOK
}

func tokenStore(cfgPath string) (*credential.FileStore, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	cfg.Credential.ApplyDefaults()
	if err := cfg.Credential.Validate(); err != nil {
		return nil, fmt.Errorf("config.credential: %w", err)
	}
	_, store, err := credential.Build(cfg.Credential, "")
	return store, err
}
