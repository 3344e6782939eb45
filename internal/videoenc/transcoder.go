// Package videoenc converts video clips into sticker-ready VP9/WebM under
// a byte budget. Four axes affect output size (scale, duration, fps,
// quality); duration and fps are clamped deterministically up front, then
// a bounded CRF search runs at fixed dimensions, escalating to smaller
// dimensions only when the quality floor still misses the budget. Each
// attempt is one external codec invocation, so the search is shaped to
// keep the invocation count at most ladder length times rounds.
package videoenc

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/avelagg/stickerforge/internal/ffmpeg"
	"github.com/avelagg/stickerforge/internal/media"
	"github.com/avelagg/stickerforge/internal/planner"
	"github.com/avelagg/stickerforge/internal/profile"
	"github.com/avelagg/stickerforge/internal/storage"
)

// Transcoder drives the external codec through the bounded search.
type Transcoder struct {
	codec  ffmpeg.Codec
	store  storage.Storage
	policy profile.SearchPolicy
	logger *slog.Logger
}

// New creates a Transcoder. The codec is injected so the search logic can
// be exercised against a fake without spawning processes.
func New(codec ffmpeg.Codec, store storage.Storage, policy profile.SearchPolicy, logger *slog.Logger) *Transcoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transcoder{codec: codec, store: store, policy: policy, logger: logger}
}

// Transcode converts the asset to VP9/WebM within prof's bounds.
// Temporary files are scoped to this call and removed on every path.
func (t *Transcoder) Transcode(ctx context.Context, asset media.Asset, prof profile.Profile) (*media.Result, error) {
	inPath, err := t.store.SaveTemp(ctx, "input", bytes.NewReader(asset.Data))
	if err != nil {
		return nil, err
	}

	tempPaths := []string{inPath}
	defer func() {
		_ = t.store.CleanupTemp(context.WithoutCancel(ctx), tempPaths)
	}()

	meta := asset.Meta
	if meta.Width == 0 || meta.Height == 0 {
		meta, err = t.codec.Probe(ctx, inPath)
		if err != nil {
			return nil, err
		}
	}

	// Deterministic pre-clamp: trim and frame-rate cap are required
	// regardless of the byte budget, so they are fixed before any search.
	duration := meta.Duration
	if duration > prof.MaxDuration {
		duration = prof.MaxDuration
	}
	fps := int(math.Round(meta.FPS))
	if fps > prof.MaxFPS {
		fps = prof.MaxFPS
	}
	if fps < 1 {
		fps = 1
	}

	longSide := prof.MaxLongSide
	best := media.Attempt{Size: -1}

	for round := 0; round < t.policy.MaxRounds; round++ {
		w, h, err := planner.Plan(meta.Width, meta.Height, longSide)
		if err != nil {
			return nil, err
		}

		for _, crf := range t.policy.CRFLadder {
			outPath := t.store.TempPath(fmt.Sprintf("out_r%d_crf%d.webm", round, crf))
			tempPaths = append(tempPaths, outPath)

			params := ffmpeg.Params{Width: w, Height: h, FPS: fps, Duration: duration, CRF: crf}
			if err := t.codec.Transcode(ctx, inPath, outPath, params); err != nil {
				// A tool failure is terminal for the job: re-running the
				// same parameters would fail the same way, and the next
				// parameter set goes through the same broken tool.
				return nil, err
			}

			size, err := fileSize(outPath)
			if err != nil {
				return nil, fmt.Errorf("%w: stat transcode output: %v", media.ErrResource, err)
			}

			attempt := media.Attempt{
				Width: w, Height: h, CRF: crf, FPS: fps, Duration: duration, Size: size,
			}
			if best.Size < 0 || attempt.Size < best.Size {
				best = attempt
			}

			if size <= prof.MaxBytes {
				data, err := os.ReadFile(outPath) // #nosec G304 - path produced by our storage layer
				if err != nil {
					return nil, fmt.Errorf("%w: read transcode output: %v", media.ErrResource, err)
				}
				t.logger.Debug("video transcode accepted",
					slog.Int("round", round),
					slog.Int("crf", crf),
					slog.Int("width", w),
					slog.Int("height", h),
					slog.Int("size", size),
				)
				return &media.Result{
					Data:    data,
					MIME:    prof.MIME,
					Attempt: attempt,
					Meta:    media.Metadata{Width: w, Height: h, Duration: duration, FPS: float64(fps)},
				}, nil
			}
		}

		// Quality floor reached, escalate by shrinking the target.
		longSide = int(float64(longSide) * t.policy.DownscaleFactor)
		if longSide < 1 {
			break
		}
	}

	return nil, &media.BudgetError{Limit: prof.MaxBytes, Best: best}
}

func fileSize(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return int(info.Size()), nil
}
