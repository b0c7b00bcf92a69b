// Package wu implements Xiaolin Wu's variance-minimizing color quantizer.
//
// Colors are histogrammed on a 32×32×32 grid (3 low bits dropped per
// channel), the grid is turned into a summed-volume table of count, first
// and second moments, and the color space is then cut recursively with
// axis-aligned planes, always refining the cube with the largest variance,
// until the requested number of cubes exists or nothing is left to split.
// Every cube becomes one palette entry (its mean color), and a dense
// grid-sized index maps any color to its cube in O(1).
package wu

import (
	"errors"
	"fmt"

	"github.com/maax3v3/wuquant/internal/color"
)

// MaxColors is the largest palette Compress produces; indices are one byte.
const MaxColors = 256

var (
	// ErrEmptyPalette is returned when there are no colors to quantize.
	ErrEmptyPalette = errors.New("wu: empty palette")
	// ErrColorCount is returned when the requested palette size is outside
	// [1, MaxColors].
	ErrColorCount = errors.New("wu: color count out of range")
	// ErrConsumed is returned when a histogram is compressed twice without
	// a Reset in between.
	ErrConsumed = errors.New("wu: histogram already compressed")
)

// Result is the quantized palette and the lookup from colors into it.
type Result struct {
	Palette []color.RGB
	Index   *IndexMap
}

// IndexMap maps every reduced grid coordinate to a palette index.
type IndexMap struct {
	cells [numCells]uint8
}

// Lookup returns the palette index of c.
func (m *IndexMap) Lookup(c color.RGB) uint8 {
	p := c.Reduce(Shift)
	return m.Cell(p.R, p.G, p.B)
}

// Cell returns the palette index of the grid cell (r, g, b). Coordinates
// must be below Side.
func (m *IndexMap) Cell(r, g, b uint8) uint8 {
	return m.cells[offset(int(r), int(g), int(b))]
}

// Compress quantizes palette to at most n colors.
func Compress(palette []color.RGB, n int) (*Result, error) {
	if err := validate(len(palette), n); err != nil {
		return nil, err
	}
	h := NewHistogram()
	h.AddAll(palette)
	return h.Compress(n)
}

// Compress quantizes the recorded pixels to at most n colors. The grid is
// consumed: it must be Reset before it is filled again.
func (h *Histogram) Compress(n int) (*Result, error) {
	if h.cumulated {
		return nil, ErrConsumed
	}
	if err := validate(h.Len(), n); err != nil {
		return nil, err
	}
	h.cumulate()
	cubes := h.partition(n)
	palette, index := h.materialize(cubes)
	return &Result{Palette: palette, Index: index}, nil
}

func validate(colors, n int) error {
	if colors == 0 {
		return ErrEmptyPalette
	}
	if n < 1 || n > MaxColors {
		return fmt.Errorf("%w: got %d, want 1..%d", ErrColorCount, n, MaxColors)
	}
	return nil
}

// partition cuts the grid into at most n cubes.
func (h *Histogram) partition(n int) []Cube {
	q := newQueue(n)
	whole := wholeCube()
	q.push(whole, h.Volume(whole).Variance())

	for q.Len() < n {
		c, ok := q.pop()
		if !ok {
			break
		}
		lower, upper, ok := h.Split(c)
		if !ok {
			q.retire(c)
			continue
		}
		h.enqueue(q, lower)
		h.enqueue(q, upper)
	}
	return q.cubes()
}

func (h *Histogram) enqueue(q *queue, c Cube) {
	if c.IsUnit() {
		q.retire(c)
		return
	}
	q.push(c, h.Volume(c).Variance())
}

// materialize assigns palette index i to cubes[i], computes its mean color
// and writes i into every grid cell the cube covers.
func (h *Histogram) materialize(cubes []Cube) ([]color.RGB, *IndexMap) {
	palette := make([]color.RGB, len(cubes))
	index := new(IndexMap)
	var owned [numCells]bool

	for i, c := range cubes {
		m := h.Volume(c)
		if m.Count == 0 {
			panic(fmt.Sprintf("wu: cube %v holds no pixels", c))
		}
		palette[i] = m.Mean()

		for r := c.Lo[Red].first(); r <= int(c.Hi[Red]); r++ {
			for g := c.Lo[Green].first(); g <= int(c.Hi[Green]); g++ {
				for b := c.Lo[Blue].first(); b <= int(c.Hi[Blue]); b++ {
					o := offset(r, g, b)
					if owned[o] {
						panic(fmt.Sprintf("wu: cell (%d,%d,%d) claimed by cubes %d and %d",
							r, g, b, index.cells[o], i))
					}
					owned[o] = true
					index.cells[o] = uint8(i)
				}
			}
		}
	}
	return palette, index
}
