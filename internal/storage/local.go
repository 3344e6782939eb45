package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/avelagg/stickerforge/internal/media"
)

// ErrPublishNotConfigured is returned when Publish is called without an
// object store configured.
var ErrPublishNotConfigured = errors.New("asset publishing is not configured")

// Compile-time check that LocalStorage implements Storage.
var _ Storage = (*LocalStorage)(nil)

// LocalStorage implements Storage on the local disk. It holds temporary
// files in a configurable directory and does not support publishing
// unless wrapped by S3Storage.
type LocalStorage struct {
	tempDir string
}

// NewLocalStorage creates a LocalStorage rooted at tempDir, creating the
// directory if needed. An empty tempDir defaults to a subdirectory of the
// system temp dir.
func NewLocalStorage(tempDir string) (*LocalStorage, error) {
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "stickerforge")
	}

	if err := os.MkdirAll(tempDir, 0750); err != nil {
		return nil, fmt.Errorf("%w: create temp directory: %v", media.ErrResource, err)
	}

	return &LocalStorage{tempDir: tempDir}, nil
}

// TempDir returns the temporary directory path.
func (s *LocalStorage) TempDir() string {
	return s.tempDir
}

// SaveTemp writes data to a fresh temporary file and returns its path.
func (s *LocalStorage) SaveTemp(ctx context.Context, name string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	f, err := os.CreateTemp(s.tempDir, name+"_*")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %v", media.ErrResource, err)
	}

	fileName := f.Name()
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(fileName)
		return "", fmt.Errorf("%w: write temp file: %v", media.ErrResource, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(fileName)
		return "", fmt.Errorf("%w: close temp file: %v", media.ErrResource, err)
	}

	return fileName, nil
}

// TempPath returns a unique path in the temp directory without creating
// the file, for tools that create their own outputs.
func (s *LocalStorage) TempPath(name string) string {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return filepath.Join(s.tempDir, name)
	}
	return filepath.Join(s.tempDir, hex.EncodeToString(suffix)+"_"+name)
}

// CleanupTemp removes the given temporary files. It keeps going when
// individual removals fail and reports the first error.
func (s *LocalStorage) CleanupTemp(ctx context.Context, paths []string) error {
	var firstErr error
	for _, p := range paths {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: remove temp file %s: %v", media.ErrResource, p, err)
			}
		}
	}
	return firstErr
}

// Publish is not supported by LocalStorage.
func (s *LocalStorage) Publish(_ context.Context, _ string, _ io.Reader) (string, error) {
	return "", ErrPublishNotConfigured
}
