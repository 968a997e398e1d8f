package exposure

import (
	"gonum.org/v1/gonum/floats"

	"outlineart/internal/models"
	perr "outlineart/pkg/errors"
)

// tileGrid partitions one axis of length n into k contiguous spans and
// records each span's centre.
type tileGrid struct {
	starts  []int
	centres []float64
}

func newTileGrid(n, k int) tileGrid {
	g := tileGrid{starts: make([]int, k+1), centres: make([]float64, k)}
	for i := 0; i <= k; i++ {
		g.starts[i] = i * n / k
	}
	for i := 0; i < k; i++ {
		g.centres[i] = float64(g.starts[i]+g.starts[i+1]-1) / 2
	}
	return g
}

// locate returns the two tiles whose centres bracket p and the weight of the
// second one. Outside the outermost centres the nearest tile is used alone.
func (g tileGrid) locate(p int) (int, int, float64) {
	k := len(g.centres)
	fp := float64(p)
	if fp <= g.centres[0] {
		return 0, 0, 0
	}
	if fp >= g.centres[k-1] {
		return k - 1, k - 1, 0
	}
	i := 0
	for i+1 < k && g.centres[i+1] <= fp {
		i++
	}
	w := (fp - g.centres[i]) / (g.centres[i+1] - g.centres[i])
	return i, i + 1, w
}

func applyCLAHE(img models.Intensity, c CLAHE) (models.Intensity, error) {
	if c.Tiles < 1 {
		return models.Intensity{}, perr.New(perr.KindInvalidParameter, "tiles",
			"CLAHE tiles must be at least 1, got %d", c.Tiles)
	}
	if !(c.ClipLimit > 0) || c.ClipLimit > 1 {
		return models.Intensity{}, perr.New(perr.KindInvalidParameter, "clipLimit",
			"CLAHE clip limit must be in (0, 1], got %g", c.ClipLimit)
	}

	w, h := img.Width, img.Height
	tx, ty := min(c.Tiles, w), min(c.Tiles, h)
	gx, gy := newTileGrid(w, tx), newTileGrid(h, ty)

	// One equalization LUT per tile, row-major over the tile grid.
	luts := make([][]float64, tx*ty)
	for j := 0; j < ty; j++ {
		for i := 0; i < tx; i++ {
			var hist [models.HistogramBins]int64
			x0, x1 := gx.starts[i], gx.starts[i+1]
			y0, y1 := gy.starts[j], gy.starts[j+1]
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					hist[models.BinOf(img.Pix[y*w+x])]++
				}
			}
			n := (x1 - x0) * (y1 - y0)
			clipHistogram(&hist, max(1, int64(c.ClipLimit*float64(n))))
			luts[j*tx+i] = tileLUT(hist)
		}
	}

	out := models.NewIntensity(w, h)
	for y := 0; y < h; y++ {
		j0, j1, wy := gy.locate(y)
		for x := 0; x < w; x++ {
			i0, i1, wx := gx.locate(x)
			b := models.BinOf(img.Pix[y*w+x])
			top := (1-wx)*luts[j0*tx+i0][b] + wx*luts[j0*tx+i1][b]
			bottom := (1-wx)*luts[j1*tx+i0][b] + wx*luts[j1*tx+i1][b]
			out.Pix[y*w+x] = clamp01((1-wy)*top + wy*bottom)
		}
	}
	return out, nil
}

// clipHistogram caps every bin at limit and spreads the excess evenly.
func clipHistogram(hist *[models.HistogramBins]int64, limit int64) {
	var excess int64
	for i, v := range hist {
		if v > limit {
			excess += v - limit
			hist[i] = limit
		}
	}
	if excess == 0 {
		return
	}
	bins := int64(models.HistogramBins)
	incr := excess / bins
	for i := range hist {
		hist[i] += incr
	}
	if residual := excess % bins; residual > 0 {
		step := bins / residual
		for i := int64(0); i < residual; i++ {
			hist[i*step]++
		}
	}
}

// tileLUT is the normalized cumulative histogram of one tile.
func tileLUT(hist [models.HistogramBins]int64) []float64 {
	cdf := make([]float64, models.HistogramBins)
	for i, v := range hist {
		cdf[i] = float64(v)
	}
	floats.CumSum(cdf, cdf)
	total := cdf[len(cdf)-1]
	if total > 0 {
		floats.Scale(1/total, cdf)
	}
	return cdf
}
