package wu

import "fmt"

// Axis is a color channel of the grid.
type Axis int

// Color axis constants
const (
	Red Axis = iota
	Green
	Blue
)

var axes = [...]Axis{Red, Green, Blue}

func (a Axis) String() string {
	switch a {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// Bound is the exclusive lower edge of a cube along one axis. An Open bound
// has no edge: the cube reaches down to grid cell 0.
type Bound struct {
	At   uint8
	Open bool
}

// first returns the lowest grid cell inside the bound.
func (b Bound) first() int {
	if b.Open {
		return 0
	}
	return int(b.At) + 1
}

// Cube is an axis-aligned box of grid cells. Lo is exclusive, Hi inclusive.
type Cube struct {
	Lo [3]Bound
	Hi [3]uint8
}

// wholeCube spans the entire grid.
func wholeCube() Cube {
	var c Cube
	for _, a := range axes {
		c.Lo[a] = Bound{Open: true}
		c.Hi[a] = Side - 1
	}
	return c
}

// Width returns the number of grid cells the cube covers along a.
func (c Cube) Width(a Axis) int {
	return int(c.Hi[a]) - c.Lo[a].first() + 1
}

// IsUnit reports whether the cube is a single grid cell.
func (c Cube) IsUnit() bool {
	for _, a := range axes {
		if c.Width(a) != 1 {
			return false
		}
	}
	return true
}

func (c Cube) String() string {
	lo := func(b Bound) string {
		if b.Open {
			return "-"
		}
		return fmt.Sprint(b.At)
	}
	return fmt.Sprintf("(%s,%s,%s]..[%d,%d,%d]",
		lo(c.Lo[Red]), lo(c.Lo[Green]), lo(c.Lo[Blue]),
		c.Hi[Red], c.Hi[Green], c.Hi[Blue])
}

// corner picks, per axis, the upper (hi) or lower (lo) edge of a cube.
type corner [3]bool

const (
	lo = false
	hi = true
)

// Summed-volume inclusion–exclusion: corners with an even number of lower
// edges are added, the others subtracted.
var (
	positiveCorners = [...]corner{
		{hi, hi, hi},
		{hi, lo, lo},
		{lo, hi, lo},
		{lo, lo, hi},
	}
	negativeCorners = [...]corner{
		{lo, lo, lo},
		{lo, hi, hi},
		{hi, lo, hi},
		{hi, hi, lo},
	}
)

// point resolves k against c. It reports false when k touches an open
// lower bound; such a corner lies below the grid and contributes nothing.
func (c Cube) point(k corner) ([3]int, bool) {
	var p [3]int
	for _, a := range axes {
		switch {
		case k[a] == hi:
			p[a] = int(c.Hi[a])
		case c.Lo[a].Open:
			return p, false
		default:
			p[a] = int(c.Lo[a].At)
		}
	}
	return p, true
}

func (h *Histogram) sumCorners(c Cube, corners []corner) Moments {
	var m Moments
	for _, k := range corners {
		if p, ok := c.point(k); ok {
			m = m.Add(h.at(p))
		}
	}
	return m
}

// Volume returns the aggregate Moments of every cell inside c. The
// histogram must already be cumulated.
func (h *Histogram) Volume(c Cube) Moments {
	if !h.cumulated {
		panic("wu: Volume on a raw histogram")
	}
	pos := h.sumCorners(c, positiveCorners[:])
	neg := h.sumCorners(c, negativeCorners[:])
	return pos.Sub(neg)
}

// slab returns the Moments of c stretched down to cell 0 along a and cut at
// the inclusive plane at. Only four corners survive the open bound.
func (h *Histogram) slab(c Cube, a Axis, at uint8) Moments {
	c.Lo[a] = Bound{Open: true}
	c.Hi[a] = at
	return h.Volume(c)
}
