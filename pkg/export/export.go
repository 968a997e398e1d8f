// Package export writes final rasters to disk as PNG, JPG or PDF.
package export

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/jung-kurt/gofpdf"

	"outlineart/internal/models"
	perr "outlineart/pkg/errors"
)

// Format is an output file type.
type Format string

const (
	PNG Format = "PNG"
	JPG Format = "JPG"
	PDF Format = "PDF"
)

// JPEGQuality is used for every JPG output.
const JPEGQuality = 95

// ParseFormat accepts PNG, JPG, JPEG or PDF in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "PNG":
		return PNG, nil
	case "JPG", "JPEG":
		return JPG, nil
	case "PDF":
		return PDF, nil
	}
	return "", perr.New(perr.KindInvalidParameter, "filetype", "unsupported output filetype %q", s)
}

// Extension returns the lower-case file extension including the dot.
func (f Format) Extension() string {
	return "." + strings.ToLower(string(f))
}

// Save writes r to path in the given format. dpi sets the PDF page size so
// the image prints at that resolution; it is ignored for PNG and JPG.
// JPG has no alpha channel, so a transparent raster is written opaque.
func Save(r models.Raster, path string, format Format, dpi float64) error {
	if r.Width <= 0 || r.Height <= 0 || len(r.Pix) != r.Width*r.Height*r.Channels() {
		return perr.New(perr.KindShape, "raster", "cannot save an inconsistent %dx%d raster", r.Width, r.Height)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating output directory: %w", err)
		}
	}

	switch format {
	case PNG:
		return encodeFile(path, r.Image(), imaging.PNG)
	case JPG:
		return encodeFile(path, Opaque(r).Image(), imaging.JPEG, imaging.JPEGQuality(JPEGQuality))
	case PDF:
		return savePDF(r, path, dpi)
	}
	return perr.New(perr.KindInvalidParameter, "filetype", "unsupported output filetype %q", format)
}

// Opaque drops the alpha channel of r, keeping the gray values.
func Opaque(r models.Raster) models.Raster {
	if !r.Alpha {
		return r
	}
	out := models.Raster{Width: r.Width, Height: r.Height, Pix: make([]uint8, r.Width*r.Height)}
	for i := range out.Pix {
		out.Pix[i] = r.Pix[2*i]
	}
	return out
}

func encodeFile(path string, img image.Image, f imaging.Format, opts ...imaging.EncodeOption) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	if err := imaging.Encode(out, img, f, opts...); err != nil {
		out.Close()
		return fmt.Errorf("error encoding %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("error writing output file: %w", err)
	}
	return nil
}

// pxToPt converts pixels to PDF points (72 per inch) at the given resolution.
func pxToPt(px int, dpi float64) float64 {
	return float64(px) / dpi * 72
}

func savePDF(r models.Raster, path string, dpi float64) error {
	if !(dpi > 0) {
		return perr.New(perr.KindInvalidParameter, "resolution", "resolution must be positive, got %g", dpi)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, r.Image(), imaging.PNG); err != nil {
		return fmt.Errorf("error encoding page image: %w", err)
	}

	w, h := pxToPt(r.Width, dpi), pxToPt(r.Height, dpi)
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	name := filepath.Base(path)
	pdf.RegisterImageOptionsReader(name, opts, &buf)
	pdf.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("error writing pdf: %w", err)
	}
	return nil
}
