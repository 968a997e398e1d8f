// Package postfilter removes boundary fragments that are too small to matter.
package postfilter

import (
	"outlineart/internal/models"
	"outlineart/pkg/boundary"
	perr "outlineart/pkg/errors"
)

// DefaultMinComponentSize is the smallest connected fragment, in pixels,
// that survives filtering.
const DefaultMinComponentSize = 64

// RemoveSmall clears every 4-connected component of "on" pixels with fewer
// than minSize pixels. Larger components are kept untouched, so the result is
// always a subset of the input. It also returns how many components were
// removed.
func RemoveSmall(mask models.Mask, minSize int) (models.Mask, int, error) {
	w, h := mask.Width, mask.Height
	if w <= 0 || h <= 0 || len(mask.Bits) != w*h {
		return models.Mask{}, 0, perr.New(perr.KindShape, "mask",
			"mask %dx%d holds %d pixels", w, h, len(mask.Bits))
	}
	out := models.NewMask(w, h)
	copy(out.Bits, mask.Bits)
	if minSize <= 1 {
		return out, 0, nil
	}

	visited := make([]bool, w*h)
	var stack, component []int
	removed := 0
	for start, on := range mask.Bits {
		if !on || visited[start] {
			continue
		}
		visited[start] = true
		stack = append(stack[:0], start)
		component = component[:0]
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, p)
			x, y := p%w, p/w
			for _, d := range boundary.Offsets {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				q := ny*w + nx
				if mask.Bits[q] && !visited[q] {
					visited[q] = true
					stack = append(stack, q)
				}
			}
		}
		if len(component) < minSize {
			for _, p := range component {
				out.Bits[p] = false
			}
			removed++
		}
	}
	return out, removed, nil
}
