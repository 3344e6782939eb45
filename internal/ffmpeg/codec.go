// Package ffmpeg drives the external ffmpeg/ffprobe tools as blocking,
// time-bounded subprocesses. The Codec interface is the injection point
// that keeps the transcoder's search logic testable without spawning
// real processes.
package ffmpeg

import (
	"context"

	"github.com/avelagg/stickerforge/internal/media"
)

// Params is the explicit argument set for one transcode invocation.
// Every field maps to a single ffmpeg flag; the tool's controls are
// advisory, so produced output is always re-measured by the verifier.
type Params struct {
	// Width and Height are the target scale dimensions.
	Width  int
	Height int
	// FPS is the output frame-rate cap.
	FPS int
	// Duration caps the output length in seconds, taken from the start.
	Duration float64
	// CRF is the VP9 constant rate factor (0-63, higher = smaller).
	CRF int
}

// Codec is the external codec capability used by the video path.
type Codec interface {
	// Probe inspects the file at path and returns its stream metadata.
	// A probe failure means the input is not usable video.
	Probe(ctx context.Context, path string) (media.Metadata, error)

	// Transcode reads the file at in and writes a VP9/WebM file to out
	// using the given parameters. Success means a zero exit status and a
	// non-empty, readable output file; anything else is a transcode
	// failure.
	Transcode(ctx context.Context, in, out string, p Params) error
}
