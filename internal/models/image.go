package models

import (
	"image"
	"image/color"

	perr "outlineart/pkg/errors"
)

// PixelArray is a decoded source image as handed over by the loader.
// Pixels are 8-bit and stored row-major with interleaved channels.
type PixelArray struct {
	// Height and Width are the image dimensions in pixels
	Height int
	Width  int

	// Channels is 1 (gray), 3 (RGB) or 4 (RGBA); other values are rejected
	// by the grayscale normalizer
	Channels int

	// Pix holds Height*Width*Channels samples
	Pix []uint8
}

// Intensity is a single-channel image with values in [0, 1].
type Intensity struct {
	Width, Height int
	Pix           []float64 // row-major, len = Width*Height
}

// NewIntensity allocates a zero intensity image.
func NewIntensity(width, height int) Intensity {
	return Intensity{Width: width, Height: height, Pix: make([]float64, width*height)}
}

// LabelMap assigns each pixel a class in [0, Classes-1].
type LabelMap struct {
	Width, Height int
	Classes       int
	Labels        []int // row-major, len = Width*Height
}

// Mask is a binary image; true marks an "on" pixel.
type Mask struct {
	Width, Height int
	Bits          []bool // row-major, len = Width*Height
}

// NewMask allocates an all-off mask.
func NewMask(width, height int) Mask {
	return Mask{Width: width, Height: height, Bits: make([]bool, width*height)}
}

// Count returns the number of "on" pixels.
func (m Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Raster is the final output: 8-bit gray, optionally with an alpha channel.
// With Alpha set, Pix is interleaved gray/alpha pairs.
type Raster struct {
	Width, Height int
	Alpha         bool
	Pix           []uint8
}

// Channels returns 1 for an opaque raster and 2 when alpha is present.
func (r Raster) Channels() int {
	if r.Alpha {
		return 2
	}
	return 1
}

// Image converts the raster into a standard library image: *image.Gray when
// opaque, *image.NRGBA with gray replicated into R, G and B otherwise.
func (r Raster) Image() image.Image {
	rect := image.Rect(0, 0, r.Width, r.Height)
	if !r.Alpha {
		img := image.NewGray(rect)
		copy(img.Pix, r.Pix)
		return img
	}
	img := image.NewNRGBA(rect)
	for i := 0; i < r.Width*r.Height; i++ {
		v, a := r.Pix[2*i], r.Pix[2*i+1]
		img.Pix[4*i] = v
		img.Pix[4*i+1] = v
		img.Pix[4*i+2] = v
		img.Pix[4*i+3] = a
	}
	return img
}

// Size is an optional resize target. The zero value means "no resize";
// a set Size always has positive dimensions.
type Size struct {
	width, height int
}

// NoResize returns the unset Size.
func NoResize() Size {
	return Size{}
}

// NewSize validates a (width, height) pair in pixels.
func NewSize(width, height int) (Size, error) {
	if width <= 0 {
		return Size{}, perr.New(perr.KindInvalidSize, "width", "width must be positive, got %d", width)
	}
	if height <= 0 {
		return Size{}, perr.New(perr.KindInvalidSize, "height", "height must be positive, got %d", height)
	}
	return Size{width: width, height: height}, nil
}

// IsSet reports whether a resize was requested.
func (s Size) IsSet() bool {
	return s.width > 0 && s.height > 0
}

// Width is the target width in pixels (columns).
func (s Size) Width() int { return s.width }

// Height is the target height in pixels (rows).
func (s Size) Height() int { return s.height }

// FromImage converts a decoded image into a PixelArray. Gray images keep a
// single channel, opaque images become RGB and anything else RGBA with
// non-premultiplied alpha.
func FromImage(img image.Image) PixelArray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if g, ok := img.(*image.Gray); ok {
		pa := PixelArray{Height: h, Width: w, Channels: 1, Pix: make([]uint8, w*h)}
		for y := 0; y < h; y++ {
			copy(pa.Pix[y*w:(y+1)*w], g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return pa
	}

	channels := 4
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		channels = 3
	}
	pa := PixelArray{Height: h, Width: w, Channels: channels, Pix: make([]uint8, w*h*channels)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			off := (y*w + x) * channels
			pa.Pix[off] = c.R
			pa.Pix[off+1] = c.G
			pa.Pix[off+2] = c.B
			if channels == 4 {
				pa.Pix[off+3] = c.A
			}
		}
	}
	return pa
}

// HistogramBins is the fixed histogram resolution over [0, 1].
const HistogramBins = 256

// BinOf maps an intensity to its histogram bin, clamping to [0, HistogramBins-1].
func BinOf(v float64) int {
	b := int(v * HistogramBins)
	if b < 0 || v != v {
		return 0
	}
	if b >= HistogramBins {
		return HistogramBins - 1
	}
	return b
}

// Histogram counts the pixels of img per bin.
func (img Intensity) Histogram() [HistogramBins]int64 {
	var hist [HistogramBins]int64
	for _, v := range img.Pix {
		hist[BinOf(v)]++
	}
	return hist
}
