// Package imageenc converts still images into sticker-ready WebP under a
// byte budget using a bounded quality search.
package imageenc

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	"github.com/avelagg/stickerforge/internal/media"
	"github.com/avelagg/stickerforge/internal/planner"
	"github.com/avelagg/stickerforge/internal/profile"
)

// Encoder performs the bounded WebP quality search.
type Encoder struct {
	policy profile.SearchPolicy
	logger *slog.Logger
}

// New creates an Encoder with the given search policy.
func New(policy profile.SearchPolicy, logger *slog.Logger) *Encoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Encoder{policy: policy, logger: logger}
}

// Encode converts the asset to WebP within prof's bounds.
//
// The search encodes at descending qualities until the byte budget is met.
// If the quality floor is still over budget, the target long side shrinks
// by the policy's downscale factor and the quality ladder restarts, up to
// MaxRounds rounds. Exhaustion returns a BudgetError with the smallest
// attempt for diagnostics.
//
// Input that is already a compliant WebP is returned unchanged.
func (e *Encoder) Encode(asset media.Asset, prof profile.Profile) (*media.Result, error) {
	if passthrough, ok := e.tryPassthrough(asset, prof); ok {
		return passthrough, nil
	}

	img, err := decodeImage(asset)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	longSide := prof.MaxLongSide
	best := media.Attempt{Size: -1}

	for round := 0; round < e.policy.MaxRounds; round++ {
		w, h, err := planner.Plan(srcW, srcH, longSide)
		if err != nil {
			return nil, err
		}

		resized := img
		if w != srcW || h != srcH {
			resized = imaging.Resize(img, w, h, imaging.Lanczos)
		}

		for _, q := range e.policy.ImageQualities {
			data, err := encodeWebP(resized, q)
			if err != nil {
				return nil, fmt.Errorf("%w: webp encode: %v", media.ErrInvalidMedia, err)
			}

			attempt := media.Attempt{Width: w, Height: h, Quality: q, Size: len(data)}
			if best.Size < 0 || attempt.Size < best.Size {
				best = attempt
			}

			if len(data) <= prof.MaxBytes {
				e.logger.Debug("image encode accepted",
					slog.Int("round", round),
					slog.Int("width", w),
					slog.Int("height", h),
					slog.Any("quality", q),
					slog.Int("size", len(data)),
				)
				return &media.Result{
					Data:    data,
					MIME:    prof.MIME,
					Attempt: attempt,
					Meta:    media.Metadata{Width: w, Height: h},
				}, nil
			}
		}

		// Quality floor reached, escalate by shrinking the target.
		longSide = int(float64(longSide) * e.policy.DownscaleFactor)
		if longSide < 1 {
			break
		}
	}

	return nil, &media.BudgetError{Limit: prof.MaxBytes, Best: best}
}

// tryPassthrough returns the input unchanged when it is already a WebP
// that satisfies the profile, so compliant stickers are not re-encoded.
func (e *Encoder) tryPassthrough(asset media.Asset, prof profile.Profile) (*media.Result, bool) {
	if asset.Kind != media.KindStaticImage || len(asset.Data) > prof.MaxBytes {
		return nil, false
	}
	if !mimetype.Detect(asset.Data).Is("image/webp") {
		return nil, false
	}
	cfg, err := webp.DecodeConfig(bytes.NewReader(asset.Data))
	if err != nil || cfg.Width > prof.MaxLongSide || cfg.Height > prof.MaxLongSide {
		return nil, false
	}
	e.logger.Debug("image already compliant, passing through",
		slog.Int("width", cfg.Width),
		slog.Int("height", cfg.Height),
		slog.Int("size", len(asset.Data)),
	)
	return &media.Result{
		Data:    asset.Data,
		MIME:    prof.MIME,
		Attempt: media.Attempt{Width: cfg.Width, Height: cfg.Height, Size: len(asset.Data)},
		Meta:    media.Metadata{Width: cfg.Width, Height: cfg.Height},
	}, true
}

// decodeImage decodes the asset into an in-memory image, dispatching on
// the sniffed content type. Animated input is flattened to its first
// frame, which is the documented lossy policy for the flatten route.
func decodeImage(asset media.Asset) (image.Image, error) {
	r := bytes.NewReader(asset.Data)

	mt := mimetype.Detect(asset.Data)
	switch {
	case mt.Is("image/jpeg"):
		img, err := jpeg.Decode(r)
		return img, wrapDecode(err)
	case mt.Is("image/png"):
		img, err := png.Decode(r)
		return img, wrapDecode(err)
	case mt.Is("image/webp"):
		img, err := webp.Decode(r)
		return img, wrapDecode(err)
	case mt.Is("image/gif"):
		g, err := gif.DecodeAll(r)
		if err != nil {
			return nil, wrapDecode(err)
		}
		if len(g.Image) == 0 {
			return nil, fmt.Errorf("%w: gif has no frames", media.ErrInvalidMedia)
		}
		return g.Image[0], nil
	default:
		img, err := imaging.Decode(r)
		return img, wrapDecode(err)
	}
}

func wrapDecode(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: decode image: %v", media.ErrInvalidMedia, err)
}

// encodeWebP encodes img as lossy WebP at the given quality.
func encodeWebP(img image.Image, quality float32) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
