package wu

import (
	"fmt"

	"github.com/maax3v3/wuquant/internal/color"
)

// Moments aggregates the pixels of one grid cell or one box of cells.
type Moments struct {
	R, G, B uint64 // first moment: sums of raw 8-bit channel values
	Count   uint64
	M2      uint64 // sum of r²+g²+b² over raw channel values
}

func (m *Moments) addPixel(c color.RGB) {
	m.R += uint64(c.R)
	m.G += uint64(c.G)
	m.B += uint64(c.B)
	m.Count++
	m.M2 += c.Squared()
}

// Add returns m + o.
func (m Moments) Add(o Moments) Moments {
	return Moments{
		R:     m.R + o.R,
		G:     m.G + o.G,
		B:     m.B + o.B,
		Count: m.Count + o.Count,
		M2:    m.M2 + o.M2,
	}
}

// Sub returns m - o. o must be the aggregate of a subset of m's pixels;
// anything else is a bug in the caller and panics.
func (m Moments) Sub(o Moments) Moments {
	if o.Count > m.Count || o.R > m.R || o.G > m.G || o.B > m.B || o.M2 > m.M2 {
		panic(fmt.Sprintf("wu: moment underflow: %+v - %+v", m, o))
	}
	return Moments{
		R:     m.R - o.R,
		G:     m.G - o.G,
		B:     m.B - o.B,
		Count: m.Count - o.Count,
		M2:    m.M2 - o.M2,
	}
}

// norm returns ‖m‖², the squared length of the first moment vector.
func (m Moments) norm() float64 {
	r, g, b := float64(m.R), float64(m.G), float64(m.B)
	return r*r + g*g + b*b
}

// separation returns ‖m‖²/count, the between-group term of one side of a cut.
func (m Moments) separation() float64 {
	return m.norm() / float64(m.Count)
}

// Variance returns the sum of squared distances of every pixel to the mean.
func (m Moments) Variance() float64 {
	if m.Count == 0 {
		return 0
	}
	return float64(m.M2) - m.separation()
}

// Mean returns the mean color, each channel truncated.
func (m Moments) Mean() color.RGB {
	if m.Count == 0 {
		panic("wu: mean of empty moments")
	}
	return color.RGB{
		R: uint8(m.R / m.Count),
		G: uint8(m.G / m.Count),
		B: uint8(m.B / m.Count),
	}
}
