package credential

import (
	"context"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/amobagan/nutristream/errors"
)

// ExpiryGuard wraps a provider and rejects JWTs whose exp claim is in the
// past. Tokens that are not JWTs, or carry no exp, pass through untouched.
// The signature is not checked; that is the backend's job.
type ExpiryGuard struct {
	Inner Provider
	// Leeway treats a token as expired this long before exp.
	Leeway time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Token returns the inner token unless its exp claim has passed.
func (g ExpiryGuard) Token(ctx context.Context) (string, error) {
	if g.Inner == nil {
		return "", errors.AuthRequired()
	}
	tok, err := g.Inner.Token(ctx)
	if err != nil {
		return "", err
	}
	exp, ok := ExpiresAt(tok)
	if !ok {
		return tok, nil
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	if !now().Add(g.Leeway).Before(exp) {
		return "", errors.TokenExpired().WithDetail("expired_at", exp.UTC().Format(time.RFC3339))
	}
	return tok, nil
}

// ExpiresAt reads the exp claim of an unverified JWT.
func ExpiresAt(token string) (time.Time, bool) {
	claims := gojwt.MapClaims{}
	if _, _, err := gojwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
