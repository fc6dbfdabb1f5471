package scenedoc

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"renderplan/internal/host"
)

// writeArtifact materializes the still image for a configured render. This
// backend does no 3D work; it writes a flat image at the configured
// resolution so downstream tooling sees a real artifact in the agreed
// location. Formats without a stdlib encoder fall back to PNG bytes under
// the declared extension.
func writeArtifact(cfg host.RenderConfig) error {
	dir := filepath.Dir(cfg.FilePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create render output directory: %w", err)
		}
	}

	img := backgroundImage(cfg)

	f, err := os.Create(cfg.FilePath)
	if err != nil {
		return fmt.Errorf("create render artifact: %w", err)
	}

	switch strings.ToLower(cfg.FileFormat) {
	case "jpeg", "jpg":
		err = jpeg.Encode(f, img, nil)
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", cfg.FilePath, err)
	}
	return f.Close()
}

func backgroundImage(cfg host.RenderConfig) image.Image {
	bounds := image.Rect(0, 0, cfg.ResolutionX, cfg.ResolutionY)
	if strings.EqualFold(cfg.ColorMode, "BW") {
		img := image.NewGray(bounds)
		fillGray(img, 32)
		return img
	}
	img := image.NewRGBA(bounds)
	fillRGBA(img, color.RGBA{R: 24, G: 24, B: 32, A: 255})
	return img
}

func fillGray(img *image.Gray, v uint8) {
	for i := range img.Pix {
		img.Pix[i] = v
	}
}

func fillRGBA(img *image.RGBA, c color.RGBA) {
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}
