// Package compositor turns a boundary mask into the final 8-bit raster.
//
// The three operations run in a fixed order when enabled: Resize, Invert,
// then Transparency. Boundary pixels start at 255 and background at 0.
package compositor

import (
	"image"

	"golang.org/x/image/draw"

	"outlineart/internal/models"
	perr "outlineart/pkg/errors"
)

const (
	On  uint8 = 255
	Off uint8 = 0
)

// Options selects the post-processing applied to a mask.
type Options struct {
	Size        models.Size
	Invert      bool
	Transparent bool
}

// FromMask renders a mask as an opaque raster, On for boundary pixels.
func FromMask(m models.Mask) models.Raster {
	r := models.Raster{Width: m.Width, Height: m.Height, Pix: make([]uint8, len(m.Bits))}
	for i, b := range m.Bits {
		if b {
			r.Pix[i] = On
		}
	}
	return r
}

// Resize resamples r to width x height with nearest-neighbour sampling, so
// hard boundary edges are never blended.
func Resize(r models.Raster, width, height int) (models.Raster, error) {
	if width <= 0 || height <= 0 {
		return models.Raster{}, perr.New(perr.KindInvalidSize, "size",
			"resize target must be positive, got %dx%d", width, height)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return models.Raster{}, perr.New(perr.KindShape, "raster",
			"cannot resize an empty %dx%d raster", r.Width, r.Height)
	}
	if width == r.Width && height == r.Height {
		return clone(r), nil
	}

	// Each channel is resampled as its own gray plane so values never mix.
	channels := r.Channels()
	out := models.Raster{Width: width, Height: height, Alpha: r.Alpha, Pix: make([]uint8, width*height*channels)}
	for c := 0; c < channels; c++ {
		src := image.NewGray(image.Rect(0, 0, r.Width, r.Height))
		for i := range src.Pix {
			src.Pix[i] = r.Pix[i*channels+c]
		}
		dst := image.NewGray(image.Rect(0, 0, width, height))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		for i, v := range dst.Pix {
			out.Pix[i*channels+c] = v
		}
	}
	return out, nil
}

// Invert complements the gray channel. Alpha, if present, is left alone, so
// Invert(Invert(r)) == r exactly.
func Invert(r models.Raster) models.Raster {
	out := clone(r)
	step := r.Channels()
	for i := 0; i < len(out.Pix); i += step {
		out.Pix[i] = 255 - out.Pix[i]
	}
	return out
}

// Transparency appends an alpha channel. Pixels equal to the background fill
// (Off, or On when inverted) become fully transparent; all others stay opaque.
func Transparency(r models.Raster, inverted bool) (models.Raster, error) {
	if r.Alpha {
		return models.Raster{}, perr.New(perr.KindShape, "raster", "raster already has an alpha channel")
	}
	background := Off
	if inverted {
		background = On
	}
	out := models.Raster{Width: r.Width, Height: r.Height, Alpha: true, Pix: make([]uint8, 2*len(r.Pix))}
	for i, v := range r.Pix {
		out.Pix[2*i] = v
		if v != background {
			out.Pix[2*i+1] = 255
		}
	}
	return out, nil
}

// Composite renders m and applies resize, invert and transparency in order.
func Composite(m models.Mask, opts Options) (models.Raster, error) {
	r := FromMask(m)
	if opts.Size.IsSet() {
		var err error
		if r, err = Resize(r, opts.Size.Width(), opts.Size.Height()); err != nil {
			return models.Raster{}, err
		}
	}
	if opts.Invert {
		r = Invert(r)
	}
	if opts.Transparent {
		return Transparency(r, opts.Invert)
	}
	return r, nil
}

func clone(r models.Raster) models.Raster {
	out := r
	out.Pix = append([]uint8(nil), r.Pix...)
	return out
}
