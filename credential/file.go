package credential

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/amobagan/nutristream/errors"
)

// FileStore keeps one token sealed in a file. It is both a Provider and the
// place login writes to.
type FileStore struct {
	path   string
	sealer *Sealer
}

func NewFileStore(path string, sealer *Sealer) *FileStore {
	return &FileStore{path: path, sealer: sealer}
}

func (f *FileStore) Path() string { return f.path }

// Token returns AUTH_REQUIRED when the file does not exist or is empty.
func (f *FileStore) Token(context.Context) (string, error) {
	raw, err := os.ReadFile(f.path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return "", errors.AuthRequired()
	}
	if err != nil {
		return "", errors.Storage("read token file", err)
	}
	sealed := strings.TrimSpace(string(raw))
	if sealed == "" {
		return "", errors.AuthRequired()
	}
	tok, err := f.sealer.Open(sealed)
	if err != nil {
		return "", errors.InvalidToken(err).WithDetail("path", f.path)
	}
	return tok, nil
}

// Save seals token and writes it with owner-only permissions.
func (f *FileStore) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.MissingField("token")
	}
	sealed, err := f.sealer.Seal(token)
	if err != nil {
		return errors.Internal(err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return errors.Storage("create token dir", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(sealed+"\n"), 0o600); err != nil {
		return errors.Storage("write token file", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Storage("write token file", err)
	}
	return nil
}

// Clear removes the stored token. A missing file is not an error.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return errors.Storage("remove token file", err)
	}
	return nil
}
