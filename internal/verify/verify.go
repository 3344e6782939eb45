// Package verify re-measures produced assets against the target profile.
// External codec controls are advisory, so the only trustworthy signal is
// decoding or probing the actual output bytes.
package verify

import (
	"bytes"
	"context"
	"fmt"

	"github.com/chai2010/webp"

	"github.com/avelagg/stickerforge/internal/ffmpeg"
	"github.com/avelagg/stickerforge/internal/media"
	"github.com/avelagg/stickerforge/internal/profile"
	"github.com/avelagg/stickerforge/internal/storage"
)

// Violation reports a single failed constraint. The orchestrator treats a
// violation as a cue to continue the encoder's escalation loop, not as a
// terminal failure.
type Violation struct {
	// Constraint names the violated bound ("bytes", "long_side",
	// "duration", "fps").
	Constraint string
	// Detail describes the measured value against the limit.
	Detail string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("constraint %s violated: %s", v.Constraint, v.Detail)
}

// Verifier measures candidate results. Video measurement needs the codec
// tool, image measurement is a pure header decode.
type Verifier struct {
	codec ffmpeg.Codec
	store storage.Storage
}

// New creates a Verifier.
func New(codec ffmpeg.Codec, store storage.Storage) *Verifier {
	return &Verifier{codec: codec, store: store}
}

// Image re-measures an image result and returns the measured metadata.
// A result that does not decode as WebP is invalid media, not a violation.
func (v *Verifier) Image(res *media.Result, prof profile.Profile) (media.Metadata, error) {
	cfg, err := webp.DecodeConfig(bytes.NewReader(res.Data))
	if err != nil {
		return media.Metadata{}, fmt.Errorf("%w: produced image does not decode: %v", media.ErrInvalidMedia, err)
	}

	meta := media.Metadata{Width: cfg.Width, Height: cfg.Height}
	if len(res.Data) > prof.MaxBytes {
		return meta, &Violation{
			Constraint: "bytes",
			Detail:     fmt.Sprintf("%dB > %dB", len(res.Data), prof.MaxBytes),
		}
	}
	if meta.LongSide() > prof.MaxLongSide {
		return meta, &Violation{
			Constraint: "long_side",
			Detail:     fmt.Sprintf("%dpx > %dpx", meta.LongSide(), prof.MaxLongSide),
		}
	}
	return meta, nil
}

// Video re-probes a video result and returns the measured metadata.
func (v *Verifier) Video(ctx context.Context, res *media.Result, prof profile.Profile) (media.Metadata, error) {
	path, err := v.store.SaveTemp(ctx, "verify", bytes.NewReader(res.Data))
	if err != nil {
		return media.Metadata{}, err
	}
	defer func() {
		_ = v.store.CleanupTemp(context.WithoutCancel(ctx), []string{path})
	}()

	meta, err := v.codec.Probe(ctx, path)
	if err != nil {
		return media.Metadata{}, fmt.Errorf("probe produced video: %w", err)
	}

	if len(res.Data) > prof.MaxBytes {
		return meta, &Violation{
			Constraint: "bytes",
			Detail:     fmt.Sprintf("%dB > %dB", len(res.Data), prof.MaxBytes),
		}
	}
	if meta.LongSide() > prof.MaxLongSide {
		return meta, &Violation{
			Constraint: "long_side",
			Detail:     fmt.Sprintf("%dpx > %dpx", meta.LongSide(), prof.MaxLongSide),
		}
	}
	// Allow the tail frame: a 3s cap encoded at 30fps often probes a
	// frame duration over the nominal limit.
	if meta.Duration > prof.MaxDuration+0.1 {
		return meta, &Violation{
			Constraint: "duration",
			Detail:     fmt.Sprintf("%.2fs > %.2fs", meta.Duration, prof.MaxDuration),
		}
	}
	if meta.FPS > float64(prof.MaxFPS)+0.5 {
		return meta, &Violation{
			Constraint: "fps",
			Detail:     fmt.Sprintf("%.2f > %d", meta.FPS, prof.MaxFPS),
		}
	}
	return meta, nil
}
