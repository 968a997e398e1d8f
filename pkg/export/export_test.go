package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"outlineart/internal/models"
	perr "outlineart/pkg/errors"
)

func stripes(w, h int, alpha bool) models.Raster {
	r := models.Raster{Width: w, Height: h, Alpha: alpha}
	r.Pix = make([]uint8, w*h*r.Channels())
	for i := 0; i < w*h; i++ {
		v := uint8(0)
		if (i%w)%4 == 0 {
			v = 255
		}
		if alpha {
			r.Pix[2*i] = v
			r.Pix[2*i+1] = v
		} else {
			r.Pix[i] = v
		}
	}
	return r
}

// TestParseFormat checks accepted spellings and rejection of unknown types
func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"png": PNG, "PNG": PNG, "jpeg": JPG, ".jpg": JPG, " pdf ": PDF}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q): expected %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := ParseFormat("tiff"); !perr.Is(err, perr.KindInvalidParameter) {
		t.Errorf("Expected INVALID_PARAMETER for tiff, got %v", err)
	}
	if PDF.Extension() != ".pdf" {
		t.Errorf("Expected .pdf, got %s", PDF.Extension())
	}
}

// TestSavePNGRoundTrip verifies lossless PNG output for an opaque raster
func TestSavePNGRoundTrip(t *testing.T) {
	r := stripes(12, 5, false)
	path := filepath.Join(t.TempDir(), "out.png")
	if err := Save(r, path, PNG, 96); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	back := models.FromImage(img)
	if back.Width != 12 || back.Height != 5 || back.Channels != 1 {
		t.Fatalf("Expected 12x5 gray, got %dx%d with %d channels", back.Width, back.Height, back.Channels)
	}
	if !bytes.Equal(back.Pix, r.Pix) {
		t.Errorf("Expected PNG to round-trip exactly")
	}
}

// TestSavePNGKeepsAlpha verifies transparent pixels survive PNG encoding
func TestSavePNGKeepsAlpha(t *testing.T) {
	r := stripes(8, 3, true)
	path := filepath.Join(t.TempDir(), "alpha.png")
	if err := Save(r, path, PNG, 96); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	back := models.FromImage(img)
	if back.Channels != 4 {
		t.Fatalf("Expected 4 channels, got %d", back.Channels)
	}
	if back.Pix[3] != 255 || back.Pix[7] != 0 {
		t.Errorf("Expected alpha 255 then 0, got %d and %d", back.Pix[3], back.Pix[7])
	}
}

// TestSaveJPGAndPDF checks both formats produce non-empty files
func TestSaveJPGAndPDF(t *testing.T) {
	dir := t.TempDir()
	r := stripes(20, 10, true)

	jpg := filepath.Join(dir, "nested", "out.jpg")
	if err := Save(r, jpg, JPG, 96); err != nil {
		t.Fatalf("Save JPG failed: %v", err)
	}
	img, err := imaging.Open(jpg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("Expected 20x10, got %dx%d", b.Dx(), b.Dy())
	}

	pdf := filepath.Join(dir, "out.pdf")
	if err := Save(r, pdf, PDF, 300); err != nil {
		t.Fatalf("Save PDF failed: %v", err)
	}
	data, err := os.ReadFile(pdf)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("Expected a PDF header")
	}
}

// TestSaveErrors covers inconsistent rasters and bad resolutions
func TestSaveErrors(t *testing.T) {
	dir := t.TempDir()
	bad := models.Raster{Width: 3, Height: 3, Pix: make([]uint8, 4)}
	if err := Save(bad, filepath.Join(dir, "a.png"), PNG, 96); !perr.Is(err, perr.KindShape) {
		t.Errorf("Expected SHAPE_ERROR, got %v", err)
	}
	if err := Save(stripes(4, 4, false), filepath.Join(dir, "a.pdf"), PDF, 0); !perr.Is(err, perr.KindInvalidParameter) {
		t.Errorf("Expected INVALID_PARAMETER, got %v", err)
	}
}

func TestPxToPt(t *testing.T) {
	if got := pxToPt(300, 300); got != 72 {
		t.Errorf("Expected 72, got %g", got)
	}
}
