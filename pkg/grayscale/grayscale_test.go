package grayscale

import (
	"math"
	"testing"

	"outlineart/internal/models"
	perr "outlineart/pkg/errors"
)

// TestNormalizeGray verifies single-channel pass-through rescaling
func TestNormalizeGray(t *testing.T) {
	src := models.PixelArray{Height: 1, Width: 3, Channels: 1, Pix: []uint8{0, 51, 255}}
	out, err := Normalize(src)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := []float64{0, 0.2, 1}
	for i, v := range expected {
		if math.Abs(out.Pix[i]-v) > 1e-12 {
			t.Errorf("Expected %f at %d, got %f", v, i, out.Pix[i])
		}
	}
}

// TestNormalizeRGB verifies the luminance combination
func TestNormalizeRGB(t *testing.T) {
	src := models.PixelArray{Height: 1, Width: 4, Channels: 3, Pix: []uint8{
		255, 0, 0,
		0, 255, 0,
		0, 0, 255,
		255, 255, 255,
	}}
	out, err := Normalize(src)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := []float64{WeightR, WeightG, WeightB, 1}
	for i, v := range expected {
		if math.Abs(out.Pix[i]-v) > 1e-9 {
			t.Errorf("Expected %f at %d, got %f", v, i, out.Pix[i])
		}
	}
}

// TestNormalizeRGBA verifies compositing over the white background
func TestNormalizeRGBA(t *testing.T) {
	src := models.PixelArray{Height: 1, Width: 3, Channels: 4, Pix: []uint8{
		0, 0, 0, 0, // fully transparent black shows the background
		0, 0, 0, 255, // opaque black
		0, 0, 0, 51, // 20% black over white
	}}
	out, err := Normalize(src)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := []float64{1, 0, 0.8}
	for i, v := range expected {
		if math.Abs(out.Pix[i]-v) > 1e-9 {
			t.Errorf("Expected %f at %d, got %f", v, i, out.Pix[i])
		}
	}
}

// TestNormalizeShapeErrors verifies malformed input is rejected
func TestNormalizeShapeErrors(t *testing.T) {
	cases := []struct {
		name string
		src  models.PixelArray
	}{
		{"two channels", models.PixelArray{Height: 1, Width: 1, Channels: 2, Pix: []uint8{0, 0}}},
		{"five channels", models.PixelArray{Height: 1, Width: 1, Channels: 5, Pix: make([]uint8, 5)}},
		{"empty", models.PixelArray{Height: 0, Width: 4, Channels: 1}},
		{"short buffer", models.PixelArray{Height: 2, Width: 2, Channels: 3, Pix: make([]uint8, 5)}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Normalize(c.src)
			if !perr.Is(err, perr.KindShape) {
				t.Errorf("Expected SHAPE_ERROR, got %v", err)
			}
		})
	}
}
