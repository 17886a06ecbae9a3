package credential

import (
	"context"
	"os"
	"strings"

	"github.com/amobagan/nutristream/errors"
)

// Provider returns the current bearer token. When none is available it
// returns an AUTH_REQUIRED error.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (string, error)

// Token calls f.
func (f ProviderFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Static is a fixed token. An empty Static has no token.
type Static string

// Token returns the trimmed token.
func (s Static) Token(context.Context) (string, error) {
	if tok := strings.TrimSpace(string(s)); tok != "" {
		return tok, nil
	}
	return "", errors.AuthRequired()
}

// Env reads the token from an environment variable on every call.
type Env string

// Token returns the trimmed value of the variable.
func (e Env) Token(context.Context) (string, error) {
	if tok := strings.TrimSpace(os.Getenv(string(e))); tok != "" {
		return tok, nil
	}
	return "", errors.AuthRequired()
}

// Chain returns the token of the first provider that has one. A provider
// answering AUTH_REQUIRED or TOKEN_EXPIRED passes to the next; any other
// error stops the chain. When no provider has a token, the first
// TOKEN_EXPIRED seen is returned so callers can tell the user to log in
// again.
type Chain []Provider

// Token walks the chain in order.
func (c Chain) Token(ctx context.Context) (string, error) {
	var expired error
	for _, p := range c {
		if p == nil {
			continue
		}
		tok, err := p.Token(ctx)
		switch {
		case err == nil && tok != "":
			return tok, nil
		case errors.IsCode(err, errors.ErrCodeTokenExpired):
			if expired == nil {
				expired = err
			}
		case err != nil && !errors.IsCode(err, errors.ErrCodeAuthRequired):
			return "", err
		}
	}
	if expired != nil {
		return "", expired
	}
	return "", errors.AuthRequired()
}
