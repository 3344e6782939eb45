// Package storage provides job-scoped temporary files for codec I/O and
// optional publication of converted assets to S3.
package storage

import (
	"context"
	"io"
)

// Storage is the file storage port used by the conversion pipeline.
// Temporary files are scoped to a single job: acquired when a stage needs
// disk-backed I/O and released when that stage ends, on every path.
type Storage interface {
	// SaveTemp writes data to a fresh temporary file and returns its path.
	// The name parameter is a filename hint.
	SaveTemp(ctx context.Context, name string, data io.Reader) (path string, err error)

	// TempPath returns a path for a not-yet-existing temporary file, for
	// tools that create their own output files.
	TempPath(name string) string

	// CleanupTemp removes the given temporary files, continuing past
	// individual failures.
	CleanupTemp(ctx context.Context, paths []string) error

	// Publish uploads a converted asset and returns its public URL.
	// Returns ErrPublishNotConfigured when no object store is configured.
	Publish(ctx context.Context, key string, data io.Reader) (url string, err error)
}
