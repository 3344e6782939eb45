package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/avelagg/stickerforge/internal/media"
)

// skipIfNoFFmpeg skips the test if ffmpeg or ffprobe is not available.
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH, skipping test")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH, skipping test")
	}
}

// createTestVideo creates a simple test video using ffmpeg.
func createTestVideo(t *testing.T, path string, duration float64, fps int, size string) {
	t.Helper()

	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("testsrc=duration=%.1f:size=%s:rate=%d", duration, size, fps),
		"-c:v", "libx264",
		"-preset", "ultrafast",
		path,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to create test video: %v\noutput: %s", err, output)
	}
}

func TestNewTool(t *testing.T) {
	t.Run("default paths", func(t *testing.T) {
		tool := NewTool("", "")
		if tool.ffmpegPath != "ffmpeg" {
			t.Errorf("expected default path 'ffmpeg', got %q", tool.ffmpegPath)
		}
		if tool.ffprobePath != "ffprobe" {
			t.Errorf("expected default path 'ffprobe', got %q", tool.ffprobePath)
		}
		if tool.timeout != DefaultTimeout {
			t.Errorf("expected default timeout, got %s", tool.timeout)
		}
	})

	t.Run("custom paths and timeout", func(t *testing.T) {
		tool := NewTool("/opt/ffmpeg", "/opt/ffprobe", WithTimeout(5*time.Second))
		if tool.ffmpegPath != "/opt/ffmpeg" {
			t.Errorf("expected custom ffmpeg path, got %q", tool.ffmpegPath)
		}
		if tool.timeout != 5*time.Second {
			t.Errorf("expected 5s timeout, got %s", tool.timeout)
		}
	})

	t.Run("non-positive timeout ignored", func(t *testing.T) {
		tool := NewTool("", "", WithTimeout(0))
		if tool.timeout != DefaultTimeout {
			t.Errorf("expected default timeout, got %s", tool.timeout)
		}
	})
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"30/1", 30, false},
		{"30000/1001", 29.97002997002997, false},
		{"60", 60, false},
		{"25.0", 25, false},
		{"0/0", 0, true},
		{"abc", 0, true},
		{"1/abc", 0, true},
	}

	for _, tc := range tests {
		got, err := parseFrameRate(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseFrameRate(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseFrameRate(%q): unexpected error %v", tc.in, err)
			continue
		}
		if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("parseFrameRate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestToolError(t *testing.T) {
	err := &ToolError{
		Args:   []string{"-i", "in.mp4", "out.webm"},
		Stderr: "encoder failed",
		Err:    errors.New("exit status 1"),
	}

	if err.Error() == "" {
		t.Error("Error() returned empty string")
	}
	if !errors.Is(err, media.ErrTranscodeFailed) {
		t.Error("ToolError should unwrap to ErrTranscodeFailed")
	}
}

func TestProbe(t *testing.T) {
	skipIfNoFFmpeg(t)

	tmpDir := t.TempDir()
	tool := NewTool("", "")
	ctx := context.Background()

	t.Run("probes dimensions duration and fps", func(t *testing.T) {
		path := filepath.Join(tmpDir, "probe.mp4")
		createTestVideo(t, path, 2.0, 24, "320x240")

		meta, err := tool.Probe(ctx, path)
		if err != nil {
			t.Fatalf("Probe failed: %v", err)
		}
		if meta.Width != 320 || meta.Height != 240 {
			t.Errorf("expected 320x240, got %dx%d", meta.Width, meta.Height)
		}
		if meta.Duration < 1.8 || meta.Duration > 2.2 {
			t.Errorf("expected ~2s duration, got %.2f", meta.Duration)
		}
		if meta.FPS < 23.5 || meta.FPS > 24.5 {
			t.Errorf("expected ~24 fps, got %.2f", meta.FPS)
		}
	})

	t.Run("non-media file is invalid", func(t *testing.T) {
		path := filepath.Join(tmpDir, "garbage.bin")
		if err := os.WriteFile(path, []byte("not a video"), 0600); err != nil {
			t.Fatal(err)
		}

		_, err := tool.Probe(ctx, path)
		if !errors.Is(err, media.ErrInvalidMedia) {
			t.Errorf("expected ErrInvalidMedia, got %v", err)
		}
	})

	t.Run("missing file is invalid", func(t *testing.T) {
		_, err := tool.Probe(ctx, filepath.Join(tmpDir, "missing.mp4"))
		if !errors.Is(err, media.ErrInvalidMedia) {
			t.Errorf("expected ErrInvalidMedia, got %v", err)
		}
	})
}

func TestTranscode(t *testing.T) {
	skipIfNoFFmpeg(t)

	tmpDir := t.TempDir()
	tool := NewTool("", "")
	ctx := context.Background()

	t.Run("produces webm within parameters", func(t *testing.T) {
		in := filepath.Join(tmpDir, "in.mp4")
		out := filepath.Join(tmpDir, "out.webm")
		createTestVideo(t, in, 2.0, 30, "640x480")

		params := Params{Width: 320, Height: 240, FPS: 24, Duration: 1.0, CRF: 40}
		if err := tool.Transcode(ctx, in, out, params); err != nil {
			t.Fatalf("Transcode failed: %v", err)
		}

		meta, err := tool.Probe(ctx, out)
		if err != nil {
			t.Fatalf("probe output: %v", err)
		}
		if meta.Width != 320 || meta.Height != 240 {
			t.Errorf("expected 320x240, got %dx%d", meta.Width, meta.Height)
		}
		if meta.Duration > 1.2 {
			t.Errorf("expected <=1s output, got %.2f", meta.Duration)
		}
	})

	t.Run("invalid input fails as transcode error", func(t *testing.T) {
		in := filepath.Join(tmpDir, "bad.bin")
		if err := os.WriteFile(in, []byte("junk"), 0600); err != nil {
			t.Fatal(err)
		}

		err := tool.Transcode(ctx, in, filepath.Join(tmpDir, "bad_out.webm"), Params{
			Width: 64, Height: 64, FPS: 24, Duration: 1.0, CRF: 40,
		})
		if !errors.Is(err, media.ErrTranscodeFailed) {
			t.Errorf("expected ErrTranscodeFailed, got %v", err)
		}
	})

	t.Run("cancelled context fails", func(t *testing.T) {
		in := filepath.Join(tmpDir, "cancel.mp4")
		createTestVideo(t, in, 1.0, 24, "320x240")

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := tool.Transcode(cancelled, in, filepath.Join(tmpDir, "cancel_out.webm"), Params{
			Width: 64, Height: 64, FPS: 24, Duration: 1.0, CRF: 40,
		})
		if err == nil {
			t.Error("expected error for cancelled context, got nil")
		}
	})
}
