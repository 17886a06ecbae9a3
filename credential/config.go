package credential

import (
	"os"
	"path/filepath"
	"time"

	"github.com/amobagan/nutristream/validation"
)

// DefaultTokenEnv is the environment variable read when no other token is found.
const DefaultTokenEnv = "NUTRISTREAM_TOKEN"

// Config locates the stored token.
type Config struct {
	// TokenEnv names the environment variable consulted last.
	TokenEnv string `mapstructure:"token_env"`
	// TokenFile is the sealed token file.
	TokenFile string `mapstructure:"token_file"`
	// FileKey is the passphrase the token file is sealed with.
	FileKey string `mapstructure:"file_key"`
	// Algorithm is aes-256-gcm or chacha20-poly1305.
	Algorithm string `mapstructure:"algorithm"`
	// ExpiryLeeway treats JWTs as expired this long before exp.
	ExpiryLeeway time.Duration `mapstructure:"expiry_leeway"`
}

// ApplyDefaults fills the env name, file location, key, and algorithm.
func (c *Config) ApplyDefaults() {
	if c.TokenEnv == "" {
		c.TokenEnv = DefaultTokenEnv
	}
	if c.TokenFile == "" {
		c.TokenFile = defaultTokenFile()
	}
	if c.FileKey == "" {
		c.FileKey = defaultFileKey()
	}
	if c.Algorithm == "" {
		c.Algorithm = string(AlgorithmAESGCM)
	}
}

// Validate checks the config after defaults are applied.
func (c *Config) Validate() error {
	return validation.New().
		Required("token_env", c.TokenEnv).
		Required("token_file", c.TokenFile).
		Required("file_key", c.FileKey).
		OneOf("algorithm", c.Algorithm, []string{string(AlgorithmAESGCM), string(AlgorithmChaCha20)}).
		NonNegativeDuration("expiry_leeway", c.ExpiryLeeway).
		Err()
}

// Build returns the provider chain static, file, env with each link behind
// an ExpiryGuard, so an expired token falls through to the next source. The
// file store is returned so callers can log in and out.
func Build(cfg Config, static string) (Provider, *FileStore, error) {
	sealer, err := NewSealer(cfg.FileKey, Algorithm(cfg.Algorithm))
	if err != nil {
		return nil, nil, err
	}
	store := NewFileStore(cfg.TokenFile, sealer)
	guard := func(p Provider) Provider {
		return ExpiryGuard{Inner: p, Leeway: cfg.ExpiryLeeway}
	}
	p := Chain{guard(Static(static)), guard(store), guard(Env(cfg.TokenEnv))}
	return p, store, nil
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "nutristream", "token")
}

// defaultFileKey binds the file to the local user and host. It keeps the
// token unreadable to casual inspection, not to the user themselves.
func defaultFileKey() string {
	host, _ := os.Hostname()
	home, _ := os.UserHomeDir()
	return "nutristream:" + host + ":" + home
}
