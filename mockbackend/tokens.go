package mockbackend

import (
	stderrors "errors"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/amobagan/nutristream/errors"
)

// Claims are the dev token claims.
type Claims struct {
	gojwt.RegisteredClaims
}

// TokenIssuer signs HS256 dev tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue returns a token for subject valid for the issuer's TTL.
func (i *TokenIssuer) Issue(subject string) (string, error) {
	if subject == "" {
		return "", errors.MissingField("subject")
	}
	now := i.now()
	claims := Claims{RegisteredClaims: gojwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    i.issuer,
		IssuedAt:  gojwt.NewNumericDate(now),
		NotBefore: gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(now.Add(i.ttl)),
	}}
	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", errors.Internal(err)
	}
	return signed, nil
}

// TokenVerifier checks HS256 dev tokens.
type TokenVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Verify returns TOKEN_EXPIRED for an expired token and INVALID_TOKEN for
// anything else that fails.
func (v *TokenVerifier) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, errors.AuthRequired()
	}
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithTimeFunc(v.now),
		gojwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	_, err := gojwt.ParseWithClaims(token, claims, func(*gojwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if stderrors.Is(err, gojwt.ErrTokenExpired) {
			return nil, errors.TokenExpired()
		}
		return nil, errors.InvalidToken(err)
	}
	return claims, nil
}
