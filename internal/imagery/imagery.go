// Package imagery derives ground area from georeferenced aerial imagery.
// Only the image header is inspected; pixel data is never decoded, so the
// original upload can stream to object storage untouched.
package imagery

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	// Register decoders for the formats accepted by the upload endpoint.
	_ "image/jpeg"
	_ "image/png"
)

// ErrInvalidImage is returned when the payload is not a decodable image.
var ErrInvalidImage = errors.New("invalid image")

// headerLimit bounds how much of the payload is buffered to find the image
// dimensions. JPEG size markers can sit behind EXIF blocks, so this is
// generous but still small relative to typical aerial captures.
const headerLimit = 1 << 20

// Probe reads at most headerLimit bytes from r to determine the image's
// pixel dimensions. It returns the dimensions together with a reader that
// replays the full payload, header included, so the caller can still
// stream the original bytes elsewhere.
func Probe(r io.Reader) (width, height int, replay io.Reader, err error) {
	head := make([]byte, headerLimit)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, 0, nil, fmt.Errorf("read image header: %w", err)
	}
	head = head[:n]

	cfg, _, err := image.DecodeConfig(bytes.NewReader(head))
	if err != nil {
		return 0, 0, nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, nil, ErrInvalidImage
	}

	return cfg.Width, cfg.Height, io.MultiReader(bytes.NewReader(head), r), nil
}

// GroundAreaM2 converts pixel dimensions to ground area at the given
// resolution in meters per pixel.
func GroundAreaM2(width, height int, resolutionM float64) float64 {
	return (float64(width) * resolutionM) * (float64(height) * resolutionM)
}
