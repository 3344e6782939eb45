package media

import (
	"bytes"
	"fmt"
	"image/gif"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DetectKind classifies raw bytes into a Kind by content sniffing.
// It is a pure function with a deterministic priority order:
//
//  1. video/*            -> KindVideo
//  2. image/gif          -> KindAnimatedImage if multi-frame, else static
//  3. any other image/*  -> KindStaticImage
//  4. anything else      -> ErrInvalidMedia
//
// The transport's declared content type plays no part here.
func DetectKind(data []byte) (Kind, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty input", ErrInvalidMedia)
	}

	mt := mimetype.Detect(data)
	switch {
	case strings.HasPrefix(mt.String(), "video/"):
		return KindVideo, nil
	case mt.Is("image/gif"):
		if gifFrameCount(data) > 1 {
			return KindAnimatedImage, nil
		}
		return KindStaticImage, nil
	case strings.HasPrefix(mt.String(), "image/"):
		return KindStaticImage, nil
	default:
		return "", fmt.Errorf("%w: unsupported content type %s", ErrInvalidMedia, mt.String())
	}
}

// gifFrameCount decodes the GIF frame list. A decode failure counts as a
// single frame; the later full decode reports the real error.
func gifFrameCount(data []byte) int {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	return len(g.Image)
}
