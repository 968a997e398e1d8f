package exposure

import (
	"math"
	"testing"

	"outlineart/internal/models"
	perr "outlineart/pkg/errors"
)

// ramp builds a w x h image whose values increase left to right
func ramp(w, h int) models.Intensity {
	img := models.NewIntensity(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Pix[y*w+x] = float64(x) / float64(w-1)
		}
	}
	return img
}

func inUnitRange(t *testing.T, img models.Intensity) {
	t.Helper()
	for i, v := range img.Pix {
		if v < 0 || v > 1 || math.IsNaN(v) {
			t.Fatalf("Value %f at %d outside [0,1]", v, i)
		}
	}
}

// TestGammaIdentity verifies that gamma=1 reproduces the input exactly
func TestGammaIdentity(t *testing.T) {
	img := ramp(17, 3)
	out, err := Correct(img, Gamma{Gamma: 1})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for i := range img.Pix {
		if out.Pix[i] != img.Pix[i] {
			t.Fatalf("Expected %v at %d, got %v", img.Pix[i], i, out.Pix[i])
		}
	}
}

// TestGammaMonotonic verifies the power law preserves ordering
func TestGammaMonotonic(t *testing.T) {
	img := ramp(64, 1)
	for _, g := range []float64{0.5, 1.5, 3} {
		out, err := Correct(img, Gamma{Gamma: g})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		inUnitRange(t, out)
		for i := 1; i < len(out.Pix); i++ {
			if out.Pix[i] < out.Pix[i-1] {
				t.Errorf("gamma=%g: ordering broken at %d", g, i)
			}
		}
		if math.Abs(out.Pix[32]-math.Pow(img.Pix[32], g)) > 1e-12 {
			t.Errorf("gamma=%g: expected %f, got %f", g, math.Pow(img.Pix[32], g), out.Pix[32])
		}
	}
	if _, err := Correct(img, Gamma{Gamma: 0}); !perr.Is(err, perr.KindInvalidParameter) {
		t.Errorf("Expected INVALID_PARAMETER for gamma=0, got %v", err)
	}
}

// TestSigmoid verifies endpoints are rescaled and contrast increases at the cutoff
func TestSigmoid(t *testing.T) {
	img := ramp(101, 1)
	out, err := Correct(img, DefaultSigmoid())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	inUnitRange(t, out)
	if math.Abs(out.Pix[0]) > 1e-12 || math.Abs(out.Pix[100]-1) > 1e-12 {
		t.Errorf("Expected endpoints 0 and 1, got %f and %f", out.Pix[0], out.Pix[100])
	}
	if math.Abs(out.Pix[50]-0.5) > 1e-9 {
		t.Errorf("Expected cutoff to map to 0.5, got %f", out.Pix[50])
	}
	// slope near the cutoff must exceed the identity slope
	if out.Pix[55]-out.Pix[45] <= img.Pix[55]-img.Pix[45] {
		t.Errorf("Expected increased contrast around the cutoff")
	}
	if _, err := Correct(img, Sigmoid{Cutoff: 0.5, Gain: 0}); !perr.Is(err, perr.KindInvalidParameter) {
		t.Errorf("Expected INVALID_PARAMETER for gain=0, got %v", err)
	}
}

// TestHistogramEqualization verifies a skewed histogram is spread out
func TestHistogramEqualization(t *testing.T) {
	img := models.NewIntensity(100, 1)
	for i := range img.Pix {
		img.Pix[i] = 0.1 + 0.1*float64(i%4)/4 // crowded into [0.1, 0.2)
	}
	out, err := Correct(img, HistogramEqualization{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	inUnitRange(t, out)
	lo, hi := 1.0, 0.0
	for _, v := range out.Pix {
		lo, hi = min(lo, v), max(hi, v)
	}
	if math.Abs(hi-1) > 1e-12 {
		t.Errorf("Expected the brightest bin to map to 1, got %f", hi)
	}
	if hi-lo < 0.7 {
		t.Errorf("Expected equalized range to widen, got [%f, %f]", lo, hi)
	}
}

// TestContrastStretch verifies percentile clipping and rescaling
func TestContrastStretch(t *testing.T) {
	img := models.NewIntensity(100, 1)
	for i := range img.Pix {
		img.Pix[i] = 0.4 + 0.2*float64(i)/99
	}
	img.Pix[0] = 0  // outlier below the 2nd percentile
	img.Pix[99] = 1 // outlier above the 98th percentile
	out, err := Correct(img, DefaultContrastStretch())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	inUnitRange(t, out)
	if out.Pix[0] != 0 || out.Pix[99] != 1 {
		t.Errorf("Expected outliers clipped to 0 and 1, got %f and %f", out.Pix[0], out.Pix[99])
	}
	if out.Pix[50] <= 0.2 || out.Pix[50] >= 0.8 {
		t.Errorf("Expected mid value to stay mid-range, got %f", out.Pix[50])
	}

	flat := models.NewIntensity(4, 4)
	for i := range flat.Pix {
		flat.Pix[i] = 0.3
	}
	out, err = Correct(flat, DefaultContrastStretch())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.Pix[0] != 0.3 {
		t.Errorf("Expected flat image to be unchanged, got %f", out.Pix[0])
	}

	if _, err := Correct(img, ContrastStretch{Low: 60, High: 40}); !perr.Is(err, perr.KindInvalidParameter) {
		t.Errorf("Expected INVALID_PARAMETER for inverted percentiles, got %v", err)
	}
}

// TestCLAHE verifies local contrast is improved in both halves of an image
func TestCLAHE(t *testing.T) {
	w, h := 64, 64
	img := models.NewIntensity(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			base := 0.1
			if x >= w/2 {
				base = 0.8
			}
			img.Pix[y*w+x] = base + 0.05*float64((x+y)%5)/4
		}
	}
	out, err := Correct(img, CLAHE{Tiles: 4, ClipLimit: 0.05})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	inUnitRange(t, out)

	spread := func(img models.Intensity, x0, x1 int) float64 {
		lo, hi := 1.0, 0.0
		for y := 0; y < h; y++ {
			for x := x0; x < x1; x++ {
				v := img.Pix[y*w+x]
				lo, hi = min(lo, v), max(hi, v)
			}
		}
		return hi - lo
	}
	if spread(out, 0, 16) <= spread(img, 0, 16) {
		t.Errorf("Expected CLAHE to stretch the dark region")
	}
	if spread(out, 48, 64) <= spread(img, 48, 64) {
		t.Errorf("Expected CLAHE to stretch the bright region")
	}
}

// TestCLAHESmallImage verifies images smaller than the tile grid are handled
func TestCLAHESmallImage(t *testing.T) {
	img := ramp(3, 2)
	out, err := Correct(img, DefaultCLAHE())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.Width != 3 || out.Height != 2 {
		t.Errorf("Expected 3x2, got %dx%d", out.Width, out.Height)
	}
	inUnitRange(t, out)

	if _, err := Correct(img, CLAHE{Tiles: 0, ClipLimit: 0.01}); !perr.Is(err, perr.KindInvalidParameter) {
		t.Errorf("Expected INVALID_PARAMETER for zero tiles, got %v", err)
	}
}

type bogus struct{ Gamma }

// TestUnsupportedMethod verifies there is no silent fallback
func TestUnsupportedMethod(t *testing.T) {
	img := ramp(4, 4)
	if _, err := Correct(img, nil); !perr.Is(err, perr.KindUnsupportedMethod) {
		t.Errorf("Expected UNSUPPORTED_METHOD for nil method, got %v", err)
	}
	if _, err := Correct(img, bogus{}); !perr.Is(err, perr.KindUnsupportedMethod) {
		t.Errorf("Expected UNSUPPORTED_METHOD for unknown variant, got %v", err)
	}
}

// TestCorrectDoesNotMutate verifies the input image is left untouched
func TestCorrectDoesNotMutate(t *testing.T) {
	img := ramp(16, 4)
	orig := append([]float64(nil), img.Pix...)
	methods := []Method{DefaultGamma(), DefaultSigmoid(), DefaultCLAHE(), HistogramEqualization{}, DefaultContrastStretch()}
	for _, m := range methods {
		if _, err := Correct(img, m); err != nil {
			t.Fatalf("%s: unexpected error: %v", m.Name(), err)
		}
		for i := range orig {
			if img.Pix[i] != orig[i] {
				t.Fatalf("%s modified its input at %d", m.Name(), i)
			}
		}
	}
}
