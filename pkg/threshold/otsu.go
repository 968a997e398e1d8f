// Package threshold implements multi-level Otsu segmentation.
//
// The intensity range [0, 1] is binned into models.HistogramBins bins. A
// threshold is a bin edge index t in [1, HistogramBins-1]; class c covers bins
// [t_c, t_{c+1}). Between-class variance is maximized over all strictly
// increasing threshold tuples, which is equivalent to maximizing
// sum_k S_k^2 / n_k, where n_k and S_k are the pixel count and the sum of bin
// indices of class k. Working in integer bin indices keeps every partial sum
// exact, so equal partitions always score bit-identically.
package threshold

import (
	"outlineart/internal/models"
	perr "outlineart/pkg/errors"
)

// Result is the outcome of a multi-level Otsu search.
type Result struct {
	// Edges are the N-1 threshold bin indices, strictly increasing.
	Edges []int
	// Thresholds are the same edges as intensities (edge / HistogramBins).
	Thresholds []float64
	// Variance is the between-class variance in bin units.
	Variance float64
}

// prefix holds cumulative pixel counts and bin-index sums.
type prefix struct {
	n []int64
	s []int64
}

func newPrefix(hist [models.HistogramBins]int64) prefix {
	p := prefix{
		n: make([]int64, models.HistogramBins+1),
		s: make([]int64, models.HistogramBins+1),
	}
	for i, c := range hist {
		p.n[i+1] = p.n[i] + c
		p.s[i+1] = p.s[i] + c*int64(i)
	}
	return p
}

// score is S^2/n for the class covering bins [i, j); empty classes score 0.
func (p prefix) score(i, j int) float64 {
	n := p.n[j] - p.n[i]
	if n == 0 {
		return 0
	}
	s := float64(p.s[j] - p.s[i])
	return s * s / float64(n)
}

// MultiOtsu returns the thresholds splitting hist into classes classes.
// Ties are broken in favour of the lexicographically smallest edge tuple.
func MultiOtsu(hist [models.HistogramBins]int64, classes int) (Result, error) {
	if classes < 2 {
		return Result{}, perr.New(perr.KindInvalidParameter, "classes",
			"class count must be at least 2, got %d", classes)
	}
	if classes > models.HistogramBins {
		return Result{}, perr.New(perr.KindProcessing, "classes",
			"class count %d exceeds histogram resolution %d", classes, models.HistogramBins)
	}
	p := newPrefix(hist)
	if p.n[models.HistogramBins] == 0 {
		return Result{}, perr.New(perr.KindProcessing, "histogram", "empty histogram")
	}

	var edges []int
	var best float64
	if classes == 2 {
		edges, best = otsu2(p)
	} else {
		edges, best = searchDP(p, classes)
	}
	return newResult(p, edges, best), nil
}

func newResult(p prefix, edges []int, best float64) Result {
	total := float64(p.n[models.HistogramBins])
	mean := float64(p.s[models.HistogramBins]) / total
	r := Result{
		Edges:      edges,
		Thresholds: make([]float64, len(edges)),
		Variance:   best/total - mean*mean,
	}
	for i, e := range edges {
		r.Thresholds[i] = float64(e) / models.HistogramBins
	}
	return r
}

// otsu2 is the closed-form single threshold search.
func otsu2(p prefix) ([]int, float64) {
	L := models.HistogramBins
	bestT := 1
	best := p.score(0, 1) + p.score(1, L)
	for t := 2; t < L; t++ {
		if v := p.score(0, t) + p.score(t, L); v > best {
			best, bestT = v, t
		}
	}
	return []int{bestT}, best
}

// searchDP solves the N-class problem with a suffix recurrence:
// g[k][i] is the best score for splitting bins [i, L) into k classes.
// Reconstruction walks forward taking the smallest edge that attains the
// optimum at every step, which yields the lexicographically smallest tuple.
func searchDP(p prefix, classes int) ([]int, float64) {
	L := models.HistogramBins
	g := make([][]float64, classes+1)
	for k := 1; k <= classes; k++ {
		g[k] = make([]float64, L+1)
	}
	for i := 0; i < L; i++ {
		g[1][i] = p.score(i, L)
	}
	for k := 2; k <= classes; k++ {
		// bins [i, L) must hold at least k classes
		for i := L - k; i >= 0; i-- {
			best := p.score(i, i+1) + g[k-1][i+1]
			for j := i + 2; j <= L-(k-1); j++ {
				if v := p.score(i, j) + g[k-1][j]; v > best {
					best = v
				}
			}
			g[k][i] = best
		}
	}

	edges := make([]int, 0, classes-1)
	i := 0
	for k := classes; k > 1; k-- {
		target := g[k][i]
		for j := i + 1; j <= L-(k-1); j++ {
			if p.score(i, j)+g[k-1][j] == target {
				edges = append(edges, j)
				i = j
				break
			}
		}
	}
	return edges, g[classes][0]
}
