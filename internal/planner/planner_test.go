package planner

import (
	"errors"
	"math"
	"testing"

	"github.com/avelagg/stickerforge/internal/media"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name        string
		w, h        int
		maxLongSide int
		wantW       int
		wantH       int
	}{
		{"landscape scales to long side", 4000, 3000, 512, 512, 384},
		{"portrait scales to long side", 3000, 4000, 512, 384, 512},
		{"square scales", 1024, 1024, 512, 512, 512},
		{"already within bounds unchanged", 200, 512, 512, 200, 512},
		{"small input never upscaled", 100, 50, 512, 100, 50},
		{"one by one unchanged", 1, 1, 512, 1, 1},
		{"extreme aspect clamps short side to one", 10000, 2, 512, 512, 1},
		{"exact fit unchanged", 512, 512, 512, 512, 512},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, h, err := Plan(tc.w, tc.h, tc.maxLongSide)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w != tc.wantW || h != tc.wantH {
				t.Errorf("Plan(%d, %d, %d) = %dx%d, want %dx%d",
					tc.w, tc.h, tc.maxLongSide, w, h, tc.wantW, tc.wantH)
			}
		})
	}
}

func TestPlan_DegenerateInput(t *testing.T) {
	tests := []struct {
		w, h int
	}{
		{0, 100},
		{100, 0},
		{-1, 100},
		{100, -1},
	}

	for _, tc := range tests {
		_, _, err := Plan(tc.w, tc.h, 512)
		if err == nil {
			t.Errorf("expected error for %dx%d, got nil", tc.w, tc.h)
			continue
		}
		if !errors.Is(err, media.ErrInvalidMedia) {
			t.Errorf("expected ErrInvalidMedia for %dx%d, got %v", tc.w, tc.h, err)
		}
	}
}

func TestPlan_Idempotent(t *testing.T) {
	// Planning an already-planned size returns it unchanged.
	w1, h1, err := Plan(1920, 1080, 512)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w2, h2, err := Plan(w1, h1, 512)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w1 != w2 || h1 != h2 {
		t.Errorf("replanning changed %dx%d to %dx%d", w1, h1, w2, h2)
	}
}

func TestPlan_AspectRatioPreserved(t *testing.T) {
	cases := [][2]int{{1920, 1080}, {3000, 4000}, {640, 480}, {4032, 3024}, {700, 1300}}
	for _, c := range cases {
		w, h, err := Plan(c[0], c[1], 512)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		srcRatio := float64(c[0]) / float64(c[1])
		// Within one pixel of rounding on the short side.
		short := float64(h)
		wantShort := float64(w) / srcRatio
		if c[0] < c[1] {
			short = float64(w)
			wantShort = float64(h) * srcRatio
		}
		if math.Abs(short-wantShort) > 1.0 {
			t.Errorf("Plan(%d, %d, 512) = %dx%d drifts aspect ratio by more than 1px", c[0], c[1], w, h)
		}
	}
}
