// Package visualization renders the intermediate products of a pipeline run
// as images and saves them as a numbered sequence for inspection.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"outlineart/internal/models"
	"outlineart/pkg/pipeline"
)

// Stages lists the snapshot names in pipeline order.
var Stages = []string{"grayscale", "exposure", "labels", "boundary", "postfilter", "final"}

// Viewer exposes every stage of a traced run as an image.
type Viewer struct {
	trace *pipeline.Trace
}

// NewViewer creates a viewer over a completed trace
func NewViewer(trace *pipeline.Trace) *Viewer {
	return &Viewer{trace: trace}
}

// IntensityImage maps [0, 1] intensities onto 16-bit gray.
func IntensityImage(img models.Intensity) *image.Gray16 {
	out := image.NewGray16(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			value := uint16(math.Max(0, math.Min(65535, math.Round(img.Pix[y*img.Width+x]*65535))))
			out.SetGray16(x, y, color.Gray16{Y: value})
		}
	}
	return out
}

// LabelImage spreads class labels evenly over the gray range, class 0 black
// and the last class white.
func LabelImage(lm models.LabelMap) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, lm.Width, lm.Height))
	step := 255.0
	if lm.Classes > 1 {
		step = 255.0 / float64(lm.Classes-1)
	}
	for i, l := range lm.Labels {
		out.Pix[i] = uint8(math.Round(float64(l) * step))
	}
	return out
}

// MaskImage renders on pixels white on black.
func MaskImage(m models.Mask) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, b := range m.Bits {
		if b {
			out.Pix[i] = 255
		}
	}
	return out
}

// ExtractStage returns the snapshot of one named stage
func (v *Viewer) ExtractStage(stage string) (image.Image, error) {
	if v.trace == nil {
		return nil, fmt.Errorf("viewer has no trace")
	}
	switch strings.ToLower(stage) {
	case "grayscale":
		return IntensityImage(v.trace.Gray), nil
	case "exposure":
		return IntensityImage(v.trace.Corrected), nil
	case "labels":
		return LabelImage(v.trace.Labels), nil
	case "boundary":
		return MaskImage(v.trace.Boundary), nil
	case "postfilter":
		return MaskImage(v.trace.Filtered), nil
	case "final":
		return v.trace.Final.Image(), nil
	default:
		return nil, fmt.Errorf("invalid stage: %s (must be one of %s)", stage, strings.Join(Stages, ", "))
	}
}

// SaveStage saves a snapshot; the format follows the file extension
func (v *Viewer) SaveStage(img image.Image, filename string) error {
	return imaging.Save(img, filename, imaging.JPEGQuality(90))
}

// SaveSequence writes every stage to outputDir as NN_<stage>.png
func (v *Viewer) SaveSequence(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for i, stage := range Stages {
		img, err := v.ExtractStage(stage)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("%02d_%s.png", i+1, stage))
		if err := v.SaveStage(img, filename); err != nil {
			return fmt.Errorf("error saving %s: %w", stage, err)
		}
	}

	return nil
}
