package threshold

import (
	"outlineart/internal/models"
	perr "outlineart/pkg/errors"
)

// Segment computes multi-Otsu thresholds for img and labels every pixel with
// the class whose half-open interval contains it.
func Segment(img models.Intensity, classes int) (models.LabelMap, Result, error) {
	if len(img.Pix) == 0 || len(img.Pix) != img.Width*img.Height {
		return models.LabelMap{}, Result{}, perr.New(perr.KindProcessing, "image",
			"cannot threshold an empty or inconsistent %dx%d image", img.Width, img.Height)
	}
	res, err := MultiOtsu(img.Histogram(), classes)
	if err != nil {
		return models.LabelMap{}, Result{}, err
	}
	return Label(img, res.Edges), res, nil
}

// Label assigns each pixel the number of edges at or below its bin.
func Label(img models.Intensity, edges []int) models.LabelMap {
	var lut [models.HistogramBins]int
	c := 0
	for b := range lut {
		for c < len(edges) && edges[c] <= b {
			c++
		}
		lut[b] = c
	}
	lm := models.LabelMap{
		Width:   img.Width,
		Height:  img.Height,
		Classes: len(edges) + 1,
		Labels:  make([]int, len(img.Pix)),
	}
	for i, v := range img.Pix {
		lm.Labels[i] = lut[models.BinOf(v)]
	}
	return lm
}

// ClassCounts returns the number of pixels per label.
func ClassCounts(lm models.LabelMap) []int {
	counts := make([]int, lm.Classes)
	for _, l := range lm.Labels {
		counts[l]++
	}
	return counts
}
