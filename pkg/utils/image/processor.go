package image

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/chai2010/webp"
)

var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// DecodeConfig reads only the image header for the given sniffed content type.
func DecodeConfig(r io.Reader, contentType string) (image.Config, error) {
	var (
		cfg image.Config
		err error
	)
	switch contentType {
	case "image/jpeg":
		cfg, err = jpeg.DecodeConfig(r)
	case "image/png":
		cfg, err = png.DecodeConfig(r)
	case "image/webp":
		cfg, err = webp.DecodeConfig(r)
	default:
		return image.Config{}, fmt.Errorf("unsupported image format: %s", contentType)
	}
	if err != nil {
		return image.Config{}, fmt.Errorf("could not decode image: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return image.Config{}, fmt.Errorf("image has no dimensions")
	}
	return cfg, nil
}

// Extension maps a sniffed content type to the extension used for stored files.
func Extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	return ""
}
