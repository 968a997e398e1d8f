package exposure

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"outlineart/internal/models"
	perr "outlineart/pkg/errors"
)

// Correct applies m to img and returns a new intensity image in [0, 1].
// img is never modified. An unknown or nil method is an UNSUPPORTED_METHOD
// error; there is no fallback.
func Correct(img models.Intensity, m Method) (models.Intensity, error) {
	if len(img.Pix) == 0 || len(img.Pix) != img.Width*img.Height {
		return models.Intensity{}, perr.New(perr.KindProcessing, "image",
			"cannot correct an empty or inconsistent %dx%d image", img.Width, img.Height)
	}
	switch v := m.(type) {
	case Gamma:
		return applyGamma(img, v)
	case Sigmoid:
		return applySigmoid(img, v)
	case CLAHE:
		return applyCLAHE(img, v)
	case HistogramEqualization:
		return applyHistEq(img), nil
	case ContrastStretch:
		return applyContrastStretch(img, v)
	default:
		return models.Intensity{}, perr.New(perr.KindUnsupportedMethod, "method",
			"unsupported correction method %T", m)
	}
}

func applyGamma(img models.Intensity, g Gamma) (models.Intensity, error) {
	if !(g.Gamma > 0) || math.IsInf(g.Gamma, 0) {
		return models.Intensity{}, perr.New(perr.KindInvalidParameter, "gamma",
			"gamma must be positive and finite, got %g", g.Gamma)
	}
	out := models.NewIntensity(img.Width, img.Height)
	for i, v := range img.Pix {
		out.Pix[i] = math.Pow(v, g.Gamma)
	}
	return out, nil
}

func applySigmoid(img models.Intensity, s Sigmoid) (models.Intensity, error) {
	if !(s.Gain > 0) || math.IsInf(s.Gain, 0) {
		return models.Intensity{}, perr.New(perr.KindInvalidParameter, "gain",
			"sigmoid gain must be positive and finite, got %g", s.Gain)
	}
	f := func(v float64) float64 {
		return 1 / (1 + math.Exp(s.Gain*(s.Cutoff-v)))
	}
	lo, hi := f(0), f(1)
	span := hi - lo
	out := models.NewIntensity(img.Width, img.Height)
	for i, v := range img.Pix {
		out.Pix[i] = clamp01((f(v) - lo) / span)
	}
	return out, nil
}

func applyHistEq(img models.Intensity) models.Intensity {
	lut := equalizationLUT(img.Histogram(), len(img.Pix))
	out := models.NewIntensity(img.Width, img.Height)
	for i, v := range img.Pix {
		out.Pix[i] = lut[models.BinOf(v)]
	}
	return out
}

// equalizationLUT maps each bin to its normalized cumulative count.
func equalizationLUT(hist [models.HistogramBins]int64, total int) []float64 {
	cdf := make([]float64, models.HistogramBins)
	for i, c := range hist {
		cdf[i] = float64(c)
	}
	floats.CumSum(cdf, cdf)
	if total > 0 {
		floats.Scale(1/float64(total), cdf)
	}
	return cdf
}

func applyContrastStretch(img models.Intensity, c ContrastStretch) (models.Intensity, error) {
	if c.Low < 0 || c.High > 100 || !(c.Low < c.High) {
		return models.Intensity{}, perr.New(perr.KindInvalidParameter, "percentiles",
			"percentiles must satisfy 0 <= low < high <= 100, got %g/%g", c.Low, c.High)
	}
	sorted := slices.Clone(img.Pix)
	slices.Sort(sorted)
	lo := stat.Quantile(c.Low/100, stat.Empirical, sorted, nil)
	hi := stat.Quantile(c.High/100, stat.Empirical, sorted, nil)

	out := models.NewIntensity(img.Width, img.Height)
	if hi <= lo {
		copy(out.Pix, img.Pix)
		return out, nil
	}
	scale := 1 / (hi - lo)
	for i, v := range img.Pix {
		out.Pix[i] = clamp01((v - lo) * scale)
	}
	return out, nil
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
