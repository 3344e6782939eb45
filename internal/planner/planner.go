// Package planner computes target dimensions for converted assets.
package planner

import (
	"fmt"
	"math"

	"github.com/avelagg/stickerforge/internal/media"
)

// Plan returns the target dimensions for a source of w x h constrained to
// maxLongSide. The aspect ratio is preserved within one pixel of rounding,
// and sources already within the constraint are returned unchanged: the
// planner never upscales. Both the image and video paths share this.
func Plan(w, h, maxLongSide int) (int, int, error) {
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("%w: non-positive dimensions %dx%d", media.ErrInvalidMedia, w, h)
	}
	if w <= maxLongSide && h <= maxLongSide {
		return w, h, nil
	}

	if w >= h {
		ratio := float64(maxLongSide) / float64(w)
		return maxLongSide, atLeastOne(math.Round(float64(h) * ratio)), nil
	}
	ratio := float64(maxLongSide) / float64(h)
	return atLeastOne(math.Round(float64(w) * ratio)), maxLongSide, nil
}

// atLeastOne clamps rounded short sides of extreme aspect ratios to a
// single pixel so the codec never sees a zero dimension.
func atLeastOne(v float64) int {
	if v < 1 {
		return 1
	}
	return int(v)
}
