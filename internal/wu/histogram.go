package wu

import "github.com/maax3v3/wuquant/internal/color"

const (
	// Shift is the number of low bits dropped from every channel before a
	// color is placed on the grid.
	Shift = 3

	// Side is the number of grid cells along each axis.
	Side = (255 >> Shift) + 1

	numCells = Side * Side * Side
)

func offset(r, g, b int) int {
	return (r*Side+g)*Side + b
}

// Histogram is a Side×Side×Side grid of Moments addressed by reduced color.
//
// It is filled with Add, then Compress turns it in place into a summed-volume
// table: afterwards cell (r,g,b) holds the sum of every cell at or below
// (r,g,b) on all three axes. The raw histogram is gone at that point; call
// Reset before reusing the grid.
type Histogram struct {
	cells     [numCells]Moments
	total     uint64
	cumulated bool
}

// NewHistogram allocates an empty grid.
func NewHistogram() *Histogram {
	return new(Histogram)
}

// Add records one pixel.
func (h *Histogram) Add(c color.RGB) {
	if h.cumulated {
		panic("wu: Add on a consumed histogram")
	}
	p := c.Reduce(Shift)
	h.cells[offset(int(p.R), int(p.G), int(p.B))].addPixel(c)
	h.total++
}

// AddAll records every color in palette.
func (h *Histogram) AddAll(palette []color.RGB) {
	for _, c := range palette {
		h.Add(c)
	}
}

// Len returns the number of pixels recorded since the last Reset.
func (h *Histogram) Len() int {
	return int(h.total)
}

// Reset clears the grid so it can be filled again.
func (h *Histogram) Reset() {
	*h = Histogram{}
}

// cumulate converts the histogram into a summed-volume table. r is the
// outer loop; area[b] carries the running sum over g for the current r
// slice and line the running sum over b, and the already converted r-1
// slice is folded in last.
func (h *Histogram) cumulate() {
	var area [Side]Moments
	for r := 0; r < Side; r++ {
		area = [Side]Moments{}
		for g := 0; g < Side; g++ {
			var line Moments
			for b := 0; b < Side; b++ {
				i := offset(r, g, b)
				line = line.Add(h.cells[i])
				area[b] = area[b].Add(line)
				v := area[b]
				if r > 0 {
					v = v.Add(h.cells[offset(r-1, g, b)])
				}
				h.cells[i] = v
			}
		}
	}
	h.cumulated = true
}

func (h *Histogram) at(p [3]int) Moments {
	return h.cells[offset(p[0], p[1], p[2])]
}
