// Package boundary derives the class-transition mask from a label map.
//
// Connectivity is 4-neighbour (up, down, left, right). A pixel is on the
// boundary iff at least one in-bounds neighbour carries a different label;
// pixels on the image border only look at the neighbours that exist.
package boundary

import (
	"outlineart/internal/models"
	perr "outlineart/pkg/errors"
)

// Offsets lists the 4-connected neighbourhood as (dx, dy) pairs.
var Offsets = [4][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}

// Extract marks every pixel adjacent to a different label.
func Extract(lm models.LabelMap) (models.Mask, error) {
	w, h := lm.Width, lm.Height
	if w <= 0 || h <= 0 || len(lm.Labels) != w*h {
		return models.Mask{}, perr.New(perr.KindShape, "labels",
			"label map %dx%d holds %d labels", w, h, len(lm.Labels))
	}
	mask := models.NewMask(w, h)
	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			l := lm.Labels[row+x]
			switch {
			case x > 0 && lm.Labels[row+x-1] != l:
			case x < w-1 && lm.Labels[row+x+1] != l:
			case y > 0 && lm.Labels[row-w+x] != l:
			case y < h-1 && lm.Labels[row+w+x] != l:
			default:
				continue
			}
			mask.Bits[row+x] = true
		}
	}
	return mask, nil
}
