package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// FSStorage stores objects as files below a base directory.
type FSStorage struct {
	baseDir string
}

var _ Storage = (*FSStorage)(nil)

// NewFSStorage creates the base directory when needed.
func NewFSStorage(baseDir string) (*FSStorage, error) {
	if baseDir == "" {
		return nil, errors.New("fs storage: base directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("fs storage: create base directory: %w", err)
	}
	return &FSStorage{baseDir: baseDir}, nil
}

// Save writes r to key and returns the cleaned key.
func (s *FSStorage) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	cleaned, full, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("fs storage: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("fs storage: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("fs storage: write %s: %w", cleaned, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("fs storage: close %s: %w", cleaned, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("fs storage: move %s into place: %w", cleaned, err)
	}

	return cleaned, nil
}

// Open returns a reader for key.
func (s *FSStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	cleaned, full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("fs storage: open %s: %w", cleaned, err)
	}
	return f, nil
}

// Delete removes key. Deleting a missing object is not an error.
func (s *FSStorage) Delete(_ context.Context, key string) error {
	cleaned, full, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("fs storage: delete %s: %w", cleaned, err)
	}
	return nil
}

func (s *FSStorage) resolve(key string) (string, string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", "", fmt.Errorf("fs storage: %w", err)
	}
	return cleaned, filepath.Join(s.baseDir, filepath.FromSlash(cleaned)), nil
}
