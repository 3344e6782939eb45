// Package profile defines the fixed target profiles for sticker assets and
// the tunable policy constants that drive the encoding searches.
package profile

// Profile is the hard constraint set a converted asset must satisfy.
// Profiles are process-wide constants, not user-configurable.
type Profile struct {
	// MaxLongSide is the maximum allowed long side in pixels.
	MaxLongSide int
	// MaxBytes is the byte budget for the output file.
	MaxBytes int
	// MaxDuration is the maximum duration in seconds (video only).
	MaxDuration float64
	// MaxFPS is the maximum frame rate (video only).
	MaxFPS int
	// MIME is the output format tag.
	MIME string
}

// Image returns the still-image target profile: WebP, 512 px long side,
// 512 KB budget.
func Image() Profile {
	return Profile{
		MaxLongSide: 512,
		MaxBytes:    512 * 1024,
		MIME:        "image/webp",
	}
}

// Video returns the video target profile: VP9 in WebM, 512 px long side,
// 3 seconds, 30 fps, 256 KB budget.
func Video() Profile {
	return Profile{
		MaxLongSide: 512,
		MaxBytes:    256 * 1024,
		MaxDuration: 3.0,
		MaxFPS:      30,
		MIME:        "video/webm",
	}
}

// AnimatedPolicy decides what happens to multi-frame image input.
type AnimatedPolicy string

const (
	// AnimatedFlatten encodes the first frame as a static WebP sticker.
	AnimatedFlatten AnimatedPolicy = "flatten"
	// AnimatedKeepMotion routes the animation through the video path and
	// produces a WebM sticker instead.
	AnimatedKeepMotion AnimatedPolicy = "keep-motion"
)

// IsValid returns true if the policy is one of the known values.
func (p AnimatedPolicy) IsValid() bool {
	return p == AnimatedFlatten || p == AnimatedKeepMotion
}

// SearchPolicy holds the knobs of the bounded encoding searches. The
// defaults are deliberate policy choices, kept injectable so tests can
// shrink the ladders and tuning does not require code changes.
type SearchPolicy struct {
	// ImageQualities is the descending WebP quality ladder. The last
	// entry is the quality floor.
	ImageQualities []float32
	// CRFLadder is the ascending VP9 CRF ladder (higher = smaller).
	// The last entry is the quality floor.
	CRFLadder []int
	// DownscaleFactor shrinks the target long side between escalation
	// rounds. Must be in (0, 1).
	DownscaleFactor float64
	// MaxRounds bounds the number of escalation rounds per search, so the
	// total number of encode attempts is at most MaxRounds times the
	// ladder length.
	MaxRounds int
	// VerifyRetries bounds how many times the orchestrator re-enters the
	// encoding stage after the verifier rejects a candidate.
	VerifyRetries int
}

// DefaultSearchPolicy returns the production search policy.
func DefaultSearchPolicy() SearchPolicy {
	return SearchPolicy{
		ImageQualities:  []float32{90, 80, 70, 60, 50, 40, 30},
		CRFLadder:       []int{32, 38, 45, 52, 60},
		DownscaleFactor: 0.85,
		MaxRounds:       5,
		VerifyRetries:   2,
	}
}

// MaxAttempts returns the upper bound on encode invocations for one
// search: ladder length times escalation rounds.
func (p SearchPolicy) MaxAttempts(ladderLen int) int {
	return ladderLen * p.MaxRounds
}
