package ingest

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Dimensions is the pixel size and decoded format of an image payload.
type Dimensions struct {
	Width  int
	Height int
	Format string
}

// Probe reads the image header. Formats the decoders don't know (HEIC,
// SVG, ...) return an error; callers treat that as unknown dimensions.
func Probe(data []byte) (Dimensions, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Dimensions{}, err
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}
