package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/avelagg/stickerforge/internal/media"
)

// DefaultTimeout bounds a single codec invocation. A sticker-sized encode
// finishing later than this is treated as failed.
const DefaultTimeout = 60 * time.Second

// Compile-time check that Tool implements Codec.
var _ Codec = (*Tool)(nil)

// Tool implements Codec by invoking the ffmpeg and ffprobe binaries.
type Tool struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
}

// ToolOption configures a Tool.
type ToolOption func(*Tool)

// WithTimeout overrides the per-invocation timeout.
func WithTimeout(d time.Duration) ToolOption {
	return func(t *Tool) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// NewTool creates a Tool. Empty paths default to "ffmpeg" and "ffprobe"
// resolved via PATH.
func NewTool(ffmpegPath, ffprobePath string, opts ...ToolOption) *Tool {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	t := &Tool{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// probeOutput mirrors the ffprobe JSON we request.
type probeOutput struct {
	Streams []struct {
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe implements Codec.Probe using ffprobe's JSON output.
func (t *Tool) Probe(ctx context.Context, path string) (media.Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, t.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate:format=duration",
		"-of", "json",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return media.Metadata{}, fmt.Errorf("%w: ffprobe: %s", media.ErrInvalidMedia, firstLine(stderr.String()))
	}

	var out probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return media.Metadata{}, fmt.Errorf("%w: parse ffprobe output: %v", media.ErrInvalidMedia, err)
	}
	if len(out.Streams) == 0 {
		return media.Metadata{}, fmt.Errorf("%w: no video stream found", media.ErrInvalidMedia)
	}

	s := out.Streams[0]
	if s.Width <= 0 || s.Height <= 0 {
		return media.Metadata{}, fmt.Errorf("%w: probed dimensions %dx%d", media.ErrInvalidMedia, s.Width, s.Height)
	}

	fps, err := parseFrameRate(s.RFrameRate)
	if err != nil {
		return media.Metadata{}, fmt.Errorf("%w: %v", media.ErrInvalidMedia, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(out.Format.Duration), 64)
	if err != nil {
		return media.Metadata{}, fmt.Errorf("%w: parse duration %q: %v", media.ErrInvalidMedia, out.Format.Duration, err)
	}

	return media.Metadata{
		Width:    s.Width,
		Height:   s.Height,
		Duration: duration,
		FPS:      fps,
	}, nil
}

// Transcode implements Codec.Transcode with a VP9/WebM encode.
func (t *Tool) Transcode(ctx context.Context, in, out string, p Params) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	args := []string{
		"-y",
		"-i", in,
		"-t", strconv.FormatFloat(p.Duration, 'f', 3, 64),
		"-vf", fmt.Sprintf("scale=%d:%d", p.Width, p.Height),
		"-r", strconv.Itoa(p.FPS),
		"-c:v", "libvpx-vp9",
		"-crf", strconv.Itoa(p.CRF),
		"-b:v", "0",
		"-auto-alt-ref", "0",
		"-pix_fmt", "yuva420p",
		"-an",
		"-f", "webm",
		out,
	}

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: timed out after %s", media.ErrTranscodeFailed, t.timeout)
		}
		return &ToolError{Args: args, Stderr: stderr.String(), Err: err}
	}

	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("%w: output file missing or empty", media.ErrTranscodeFailed)
	}

	return nil
}

// ToolError carries the failed invocation's arguments and stderr so the
// logs show exactly what was run.
type ToolError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

// Unwrap makes errors.Is(err, media.ErrTranscodeFailed) hold for any
// non-zero exit.
func (e *ToolError) Unwrap() error {
	return media.ErrTranscodeFailed
}

// parseFrameRate parses ffprobe's fractional r_frame_rate ("30000/1001")
// or a plain number.
func parseFrameRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("parse frame rate %q: %w", s, err)
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil {
			return 0, fmt.Errorf("parse frame rate %q: %w", s, err)
		}
		if d == 0 {
			return 0, errors.New("frame rate has zero denominator")
		}
		return n / d, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse frame rate %q: %w", s, err)
	}
	return f, nil
}

// firstLine trims ffprobe stderr to its first line for error messages.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
