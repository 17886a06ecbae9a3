package credential

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/amobagan/nutristream/errors"
)

func TestStatic(t *testing.T) {
	tok, err := Static("  abc  ").Token(context.Background())
	if err != nil || tok != "abc" {
		t.Fatalf("Static = %q, %v", tok, err)
	}
	if _, err := Static("   ").Token(context.Background()); !errors.IsCode(err, errors.ErrCodeAuthRequired) {
		t.Errorf("blank static should require auth, got %v", err)
	}
}

func TestEnv(t *testing.T) {
	t.Setenv("NUTRISTREAM_TEST_TOKEN", "from-env")
	tok, err := Env("NUTRISTREAM_TEST_TOKEN").Token(context.Background())
	if err != nil || tok != "from-env" {
		t.Fatalf("Env = %q, %v", tok, err)
	}
	if _, err := Env("NUTRISTREAM_TEST_UNSET").Token(context.Background()); !errors.IsCode(err, errors.ErrCodeAuthRequired) {
		t.Errorf("unset env should require auth, got %v", err)
	}
}

func TestChainPrecedence(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		chain Chain
		want  string
		code  errors.ErrorCode
	}{
		{"first wins", Chain{Static("a"), Static("b")}, "a", ""},
		{"falls through", Chain{Static(""), nil, Static("b")}, "b", ""},
		{"none", Chain{Static(""), Static("")}, "", errors.ErrCodeAuthRequired},
		{"empty", Chain{}, "", errors.ErrCodeAuthRequired},
		{
			"expired falls through",
			Chain{ProviderFunc(func(context.Context) (string, error) { return "", errors.TokenExpired() }), Static("b")},
			"b", "",
		},
		{
			"expired reported when nothing else",
			Chain{ProviderFunc(func(context.Context) (string, error) { return "", errors.TokenExpired() }), Static("")},
			"", errors.ErrCodeTokenExpired,
		},
		{
			"hard error stops",
			Chain{
				ProviderFunc(func(context.Context) (string, error) { return "", errors.Storage("read", stderrors.New("io")) }),
				Static("b"),
			},
			"", errors.ErrCodeStorage,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.chain.Token(ctx)
			if tc.code != "" {
				if !errors.IsCode(err, tc.code) {
					t.Fatalf("err = %v, want %s", err, tc.code)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("Token = %q, %v; want %q", got, err, tc.want)
			}
		})
	}
}

func TestSealerAlgorithms(t *testing.T) {
	for _, alg := range []Algorithm{AlgorithmAESGCM, AlgorithmChaCha20} {
		t.Run(string(alg), func(t *testing.T) {
			s, err := NewSealer("passphrase", alg)
			if err != nil {
				t.Fatalf("NewSealer: %v", err)
			}
			a, _ := s.Seal("secret-token")
			b, _ := s.Seal("secret-token")
			if a == b {
				t.Error("nonces should differ between seals")
			}
			got, err := s.Open(a)
			if err != nil || got != "secret-token" {
				t.Fatalf("Open = %q, %v", got, err)
			}

			other, _ := NewSealer("different", alg)
			if _, err := other.Open(a); err == nil {
				t.Error("wrong key must not open")
			}
			if _, err := s.Open("!!"); err == nil {
				t.Error("bad base64 must fail")
			}
			if _, err := s.Open("AAAA"); err == nil {
				t.Error("short ciphertext must fail")
			}
		})
	}

	if _, err := NewSealer("k", "rot13"); err == nil {
		t.Error("unknown algorithm should fail")
	}
}

func TestFileStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	sealer, _ := NewSealer("k", AlgorithmChaCha20)
	path := filepath.Join(t.TempDir(), "nested", "token")
	fs := NewFileStore(path, sealer)

	if _, err := fs.Token(ctx); !errors.IsCode(err, errors.ErrCodeAuthRequired) {
		t.Fatalf("missing file should require auth, got %v", err)
	}

	if err := fs.Save("  tok-1 "); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o", perm)
	}
	raw, _ := os.ReadFile(path)
	if string(raw) == "tok-1\n" {
		t.Error("token stored in plaintext")
	}

	got, err := fs.Token(ctx)
	if err != nil || got != "tok-1" {
		t.Fatalf("Token = %q, %v", got, err)
	}

	if err := fs.Save(" "); !errors.IsCode(err, errors.ErrCodeMissingField) {
		t.Errorf("blank save = %v", err)
	}

	if err := fs.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := fs.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
	if _, err := fs.Token(ctx); !errors.IsCode(err, errors.ErrCodeAuthRequired) {
		t.Errorf("cleared store should require auth, got %v", err)
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	sealer, _ := NewSealer("k", AlgorithmAESGCM)
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("not-sealed\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := NewFileStore(path, sealer).Token(context.Background())
	if !errors.IsCode(err, errors.ErrCodeInvalidToken) {
		t.Errorf("corrupt file = %v", err)
	}
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := gojwt.RegisteredClaims{Subject: "u1"}
	if !exp.IsZero() {
		claims.ExpiresAt = gojwt.NewNumericDate(exp)
	}
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestExpiryGuard(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	ctx := context.Background()

	tests := []struct {
		name    string
		token   string
		leeway  time.Duration
		expired bool
	}{
		{"opaque token", "opaque-token", 0, false},
		{"no exp", signed(t, time.Time{}), 0, false},
		{"valid", signed(t, now.Add(time.Hour)), 0, false},
		{"expired", signed(t, now.Add(-time.Minute)), 0, true},
		{"within leeway", signed(t, now.Add(30*time.Second)), time.Minute, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := ExpiryGuard{Inner: Static(tc.token), Leeway: tc.leeway, Now: clock}
			got, err := g.Token(ctx)
			if tc.expired {
				if !errors.IsCode(err, errors.ErrCodeTokenExpired) {
					t.Fatalf("err = %v, want TOKEN_EXPIRED", err)
				}
				return
			}
			if err != nil || got != tc.token {
				t.Fatalf("Token = %q, %v", got, err)
			}
		})
	}

	if _, err := (ExpiryGuard{}).Token(ctx); !errors.IsCode(err, errors.ErrCodeAuthRequired) {
		t.Errorf("nil inner = %v", err)
	}
	if _, err := (ExpiryGuard{Inner: Static("")}).Token(ctx); !errors.IsCode(err, errors.ErrCodeAuthRequired) {
		t.Errorf("inner error should pass through, got %v", err)
	}
}

func TestConfigAndBuild(t *testing.T) {
	cfg := Config{TokenFile: filepath.Join(t.TempDir(), "token"), FileKey: "k"}
	cfg.ApplyDefaults()
	if cfg.TokenEnv != DefaultTokenEnv || cfg.Algorithm != string(AlgorithmAESGCM) {
		t.Fatalf("defaults = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	bad := cfg
	bad.Algorithm = "des"
	if bad.Validate() == nil {
		t.Error("unknown algorithm should fail validation")
	}

	t.Setenv(DefaultTokenEnv, "env-token")
	p, store, err := Build(cfg, "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ctx := context.Background()
	if tok, _ := p.Token(ctx); tok != "env-token" {
		t.Errorf("env fallback = %q", tok)
	}

	if err := store.Save("file-token"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if tok, _ := p.Token(ctx); tok != "file-token" {
		t.Errorf("file should beat env, got %q", tok)
	}

	p, _, _ = Build(cfg, "flag-token")
	if tok, _ := p.Token(ctx); tok != "flag-token" {
		t.Errorf("static should beat file, got %q", tok)
	}
}

func TestBuildSkipsExpiredLinks(t *testing.T) {
	cfg := Config{TokenFile: filepath.Join(t.TempDir(), "token"), FileKey: "k"}
	cfg.ApplyDefaults()
	ctx := context.Background()

	valid := signed(t, time.Now().Add(time.Hour))
	expired := signed(t, time.Now().Add(-time.Hour))
	t.Setenv(DefaultTokenEnv, valid)

	p, store, err := Build(cfg, "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := store.Save(expired); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if tok, err := p.Token(ctx); err != nil || tok != valid {
		t.Fatalf("expired file token should fall through to env: %q, %v", tok, err)
	}

	t.Setenv(DefaultTokenEnv, "")
	if _, err := p.Token(ctx); !errors.IsCode(err, errors.ErrCodeTokenExpired) {
		t.Errorf("only an expired token: err = %v, want TOKEN_EXPIRED", err)
	}
}
