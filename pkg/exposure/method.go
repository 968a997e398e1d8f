// Package exposure implements the photometric corrections applied before
// segmentation to compensate for photographic lighting.
//
// The set of methods is closed: Gamma, Sigmoid, CLAHE, HistogramEqualization
// and ContrastStretch. Mapping free-form labels to a method is the job of the
// configuration layer; this package only dispatches on the concrete type.
package exposure

import "fmt"

// Method is one of the five correction variants.
type Method interface {
	// Name returns a stable identifier for logging.
	Name() string
	method()
}

// Gamma is the power-law remap v' = v^Gamma.
type Gamma struct {
	Gamma float64
}

// Sigmoid is the logistic remap 1/(1+exp(Gain*(Cutoff-v))) rescaled to [0, 1].
type Sigmoid struct {
	Cutoff float64
	Gain   float64
}

// CLAHE is contrast-limited adaptive histogram equalization.
type CLAHE struct {
	// Tiles is the number of tiles along each axis.
	Tiles int
	// ClipLimit bounds each histogram bin to ClipLimit * tile pixel count,
	// in (0, 1]. Larger values mean stronger local contrast.
	ClipLimit float64
}

// HistogramEqualization flattens the global cumulative distribution.
type HistogramEqualization struct{}

// ContrastStretch linearly remaps the [Low, High] percentile range to [0, 1],
// clipping values outside it. Percentiles are in [0, 100].
type ContrastStretch struct {
	Low  float64
	High float64
}

func (Gamma) Name() string                 { return "gamma" }
func (Sigmoid) Name() string               { return "sigmoid" }
func (CLAHE) Name() string                 { return "clahe" }
func (HistogramEqualization) Name() string { return "histeq" }
func (ContrastStretch) Name() string       { return "contrast_stretch" }

func (Gamma) method()                 {}
func (Sigmoid) method()               {}
func (CLAHE) method()                 {}
func (HistogramEqualization) method() {}
func (ContrastStretch) method()       {}

func (g Gamma) String() string   { return fmt.Sprintf("gamma(%g)", g.Gamma) }
func (s Sigmoid) String() string { return fmt.Sprintf("sigmoid(cutoff=%g, gain=%g)", s.Cutoff, s.Gain) }
func (c CLAHE) String() string   { return fmt.Sprintf("clahe(tiles=%d, clip=%g)", c.Tiles, c.ClipLimit) }
func (c ContrastStretch) String() string {
	return fmt.Sprintf("contrast_stretch(%g%%-%g%%)", c.Low, c.High)
}

// Defaults used by the configuration layer.
func DefaultGamma() Gamma { return Gamma{Gamma: 1.5} }

func DefaultSigmoid() Sigmoid { return Sigmoid{Cutoff: 0.5, Gain: 10} }

func DefaultCLAHE() CLAHE { return CLAHE{Tiles: 8, ClipLimit: 0.01} }

func DefaultContrastStretch() ContrastStretch { return ContrastStretch{Low: 2, High: 98} }
