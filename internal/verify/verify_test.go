package verify

import (
	"bytes"
	"context"
	"image"
	"os"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelagg/stickerforge/internal/ffmpeg"
	"github.com/avelagg/stickerforge/internal/media"
	"github.com/avelagg/stickerforge/internal/profile"
	"github.com/avelagg/stickerforge/internal/storage"
)

// fakeProbe implements ffmpeg.Codec for verification tests.
type fakeProbe struct {
	meta     media.Metadata
	probeErr error
}

func (f *fakeProbe) Probe(_ context.Context, _ string) (media.Metadata, error) {
	if f.probeErr != nil {
		return media.Metadata{}, f.probeErr
	}
	return f.meta, nil
}

func (f *fakeProbe) Transcode(_ context.Context, _, _ string, _ ffmpeg.Params) error {
	return os.ErrInvalid
}

func webpResult(t *testing.T, w, h int) *media.Result {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, webp.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), &webp.Options{Quality: 80}))
	return &media.Result{Data: buf.Bytes(), MIME: "image/webp"}
}

func TestImage(t *testing.T) {
	v := New(nil, nil)
	prof := profile.Image()

	t.Run("compliant image accepted with measured metadata", func(t *testing.T) {
		res := webpResult(t, 300, 200)
		meta, err := v.Image(res, prof)
		require.NoError(t, err)
		assert.Equal(t, 300, meta.Width)
		assert.Equal(t, 200, meta.Height)
	})

	t.Run("oversized bytes violate budget", func(t *testing.T) {
		res := webpResult(t, 64, 64)
		small := prof
		small.MaxBytes = 1

		_, err := v.Image(res, small)
		var viol *Violation
		require.ErrorAs(t, err, &viol)
		assert.Equal(t, "bytes", viol.Constraint)
	})

	t.Run("oversized dimensions violate long side", func(t *testing.T) {
		res := webpResult(t, 600, 100)
		_, err := v.Image(res, prof)
		var viol *Violation
		require.ErrorAs(t, err, &viol)
		assert.Equal(t, "long_side", viol.Constraint)
	})

	t.Run("non-webp output is invalid media", func(t *testing.T) {
		res := &media.Result{Data: []byte("not webp"), MIME: "image/webp"}
		_, err := v.Image(res, prof)
		assert.ErrorIs(t, err, media.ErrInvalidMedia)
	})
}

func TestVideo(t *testing.T) {
	prof := profile.Video()
	res := &media.Result{Data: []byte("webm bytes"), MIME: "video/webm"}

	newVerifier := func(t *testing.T, meta media.Metadata) *Verifier {
		t.Helper()
		store, err := storage.NewLocalStorage(t.TempDir())
		require.NoError(t, err)
		return New(&fakeProbe{meta: meta}, store)
	}

	t.Run("compliant video accepted", func(t *testing.T) {
		v := newVerifier(t, media.Metadata{Width: 512, Height: 288, Duration: 2.9, FPS: 30})
		meta, err := v.Video(context.Background(), res, prof)
		require.NoError(t, err)
		assert.Equal(t, 512, meta.Width)
	})

	t.Run("fractional fps just over the cap accepted", func(t *testing.T) {
		// 30000/1001 probes as 29.97; container rounding may report a
		// touch over 30 and still be fine.
		v := newVerifier(t, media.Metadata{Width: 512, Height: 288, Duration: 2.9, FPS: 30.3})
		_, err := v.Video(context.Background(), res, prof)
		require.NoError(t, err)
	})

	t.Run("duration violation", func(t *testing.T) {
		v := newVerifier(t, media.Metadata{Width: 512, Height: 288, Duration: 4.0, FPS: 30})
		_, err := v.Video(context.Background(), res, prof)
		var viol *Violation
		require.ErrorAs(t, err, &viol)
		assert.Equal(t, "duration", viol.Constraint)
	})

	t.Run("fps violation", func(t *testing.T) {
		v := newVerifier(t, media.Metadata{Width: 512, Height: 288, Duration: 2.0, FPS: 60})
		_, err := v.Video(context.Background(), res, prof)
		var viol *Violation
		require.ErrorAs(t, err, &viol)
		assert.Equal(t, "fps", viol.Constraint)
	})

	t.Run("long side violation", func(t *testing.T) {
		v := newVerifier(t, media.Metadata{Width: 1024, Height: 576, Duration: 2.0, FPS: 30})
		_, err := v.Video(context.Background(), res, prof)
		var viol *Violation
		require.ErrorAs(t, err, &viol)
		assert.Equal(t, "long_side", viol.Constraint)
	})

	t.Run("bytes violation", func(t *testing.T) {
		v := newVerifier(t, media.Metadata{Width: 512, Height: 288, Duration: 2.0, FPS: 30})
		small := prof
		small.MaxBytes = 1
		_, err := v.Video(context.Background(), res, small)
		var viol *Violation
		require.ErrorAs(t, err, &viol)
		assert.Equal(t, "bytes", viol.Constraint)
	})

	t.Run("unprobeable output is reported", func(t *testing.T) {
		store, err := storage.NewLocalStorage(t.TempDir())
		require.NoError(t, err)
		v := New(&fakeProbe{probeErr: media.ErrInvalidMedia}, store)

		_, err = v.Video(context.Background(), res, prof)
		assert.ErrorIs(t, err, media.ErrInvalidMedia)
	})
}
