// Package media defines the domain model shared by the conversion pipeline:
// the classified asset, probed metadata, encoding attempts and results, and
// the error kinds every stage reports.
package media

import "fmt"

// Kind is the coarse media category decided once from content.
// It is never re-derived from a transport-declared content type.
type Kind string

const (
	// KindStaticImage is a single-frame raster image.
	KindStaticImage Kind = "static_image"
	// KindAnimatedImage is a multi-frame raster image (e.g. animated GIF).
	KindAnimatedImage Kind = "animated_image"
	// KindVideo is a video clip.
	KindVideo Kind = "video"
)

// Metadata holds properties probed from the raw bytes.
// Duration and FPS are zero for still images.
type Metadata struct {
	// Width is the source width in pixels.
	Width int
	// Height is the source height in pixels.
	Height int
	// Duration is the source duration in seconds.
	Duration float64
	// FPS is the source frame rate.
	FPS float64
}

// LongSide returns the larger of width and height.
func (m Metadata) LongSide() int {
	if m.Width >= m.Height {
		return m.Width
	}
	return m.Height
}

// Asset is an immutable input to a pipeline stage: raw bytes plus the
// classified kind and any metadata probed from them. Transformations
// produce new assets rather than mutating in place.
type Asset struct {
	// Data is the raw media bytes.
	Data []byte
	// Kind is the content-derived media category.
	Kind Kind
	// Meta is the probed source metadata.
	Meta Metadata
}

// Attempt is one candidate parameter set tried by an encoder search,
// together with the byte size it produced. Attempts are ephemeral and
// discarded between iterations; the best one is kept for diagnostics.
type Attempt struct {
	// Width and Height are the target dimensions of this attempt.
	Width  int
	Height int
	// Quality is the WebP quality used (image path, 0 when unused).
	Quality float32
	// CRF is the VP9 constant rate factor used (video path, 0 when unused).
	CRF int
	// FPS is the frame-rate cap applied (video path).
	FPS int
	// Duration is the duration cap applied in seconds (video path).
	Duration float64
	// Size is the byte size the attempt produced.
	Size int
}

// Result is an accepted conversion: the final bytes, the attempt that
// produced them, and the measurements taken from the produced bytes.
// Ownership transfers to the caller; the pipeline keeps no reference.
type Result struct {
	// Data is the converted asset bytes.
	Data []byte
	// MIME is the concrete output format tag ("image/webp" or "video/webm").
	MIME string
	// Attempt is the parameter set that produced Data.
	Attempt Attempt
	// Meta is the metadata measured from Data, not taken from Attempt.
	Meta Metadata
}

// Size returns the byte size of the result data.
func (r *Result) Size() int {
	return len(r.Data)
}

func (r *Result) String() string {
	return fmt.Sprintf("Result{%s %dx%d %dB}", r.MIME, r.Meta.Width, r.Meta.Height, len(r.Data))
}
