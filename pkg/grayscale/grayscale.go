// Package grayscale converts decoded pixel arrays into intensity images.
package grayscale

import (
	"github.com/lucasb-eyer/go-colorful"

	"outlineart/internal/models"
	perr "outlineart/pkg/errors"
)

// Luminance weights (ITU-R BT.709 primaries).
const (
	WeightR = 0.2125
	WeightG = 0.7154
	WeightB = 0.0721
)

// Background is the colour transparent pixels are composited over.
var Background = colorful.Color{R: 1, G: 1, B: 1}

// Normalize converts a 1, 3 or 4 channel pixel array into an intensity image
// with values in [0, 1]. RGBA is first composited over Background, then RGB is
// reduced with the luminance weights. Single-channel input is only rescaled.
func Normalize(src models.PixelArray) (models.Intensity, error) {
	if src.Width <= 0 || src.Height <= 0 {
		return models.Intensity{}, perr.New(perr.KindShape, "dimensions",
			"image must be non-empty, got %dx%d", src.Width, src.Height)
	}
	switch src.Channels {
	case 1, 3, 4:
	default:
		return models.Intensity{}, perr.New(perr.KindShape, "channels",
			"invalid shape (%d, %d, %d): must be (H, W), (H, W, 3) or (H, W, 4)",
			src.Height, src.Width, src.Channels)
	}
	n := src.Width * src.Height
	if len(src.Pix) != n*src.Channels {
		return models.Intensity{}, perr.New(perr.KindShape, "pix",
			"expected %d samples for %dx%dx%d, got %d",
			n*src.Channels, src.Width, src.Height, src.Channels, len(src.Pix))
	}

	out := models.NewIntensity(src.Width, src.Height)
	switch src.Channels {
	case 1:
		for i, v := range src.Pix {
			out.Pix[i] = float64(v) / 255.0
		}
	case 3:
		for i := 0; i < n; i++ {
			off := i * 3
			c := colorful.Color{
				R: float64(src.Pix[off]) / 255.0,
				G: float64(src.Pix[off+1]) / 255.0,
				B: float64(src.Pix[off+2]) / 255.0,
			}
			out.Pix[i] = luminance(c)
		}
	case 4:
		for i := 0; i < n; i++ {
			off := i * 4
			fg := colorful.Color{
				R: float64(src.Pix[off]) / 255.0,
				G: float64(src.Pix[off+1]) / 255.0,
				B: float64(src.Pix[off+2]) / 255.0,
			}
			a := float64(src.Pix[off+3]) / 255.0
			out.Pix[i] = luminance(Background.BlendRgb(fg, a))
		}
	}
	return out, nil
}

func luminance(c colorful.Color) float64 {
	v := WeightR*c.R + WeightG*c.G + WeightB*c.B
	return max(0, min(1, v))
}
