package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"dtt/internal/session"
)

// SaveSnapshot writes the session state to path. The file is replaced
// atomically: readers see either the old snapshot or the complete new one.
func SaveSnapshot(path string, s *session.Session) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()
	if err = s.Encode(f); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// atomic replace
	return os.Rename(f.Name(), path)
}

// LoadSnapshot decodes the snapshot at path into a new session. Every
// declaration is re-checked by the kernel while loading.
func LoadSnapshot(path string, opts session.Options) (*session.Session, error) {
	// #nosec G304 -- path is provided by the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := session.Decode(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
