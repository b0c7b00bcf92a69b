package aggregation

import (
	"math"

	"github.com/maax3v3/wuquant/internal/color"
	"github.com/maax3v3/wuquant/internal/wu"
)

// ColorEntry represents a resulting color with its assigned number.
type ColorEntry struct {
	Number int // 1-based
	Color  color.RGB
	Pixels int // pixels assigned to this entry
}

// ColorMap describes a quantized palette and how the input maps onto it.
type ColorMap struct {
	Entries []ColorEntry
	// Assign maps input color i to an index into Entries. It is only set
	// by ReduceColors.
	Assign []int
	// MeanError and MaxError are RGB distances between a pixel and the
	// palette color it was assigned.
	MeanError float64
	MaxError  float64
}

// Indexer maps a color to a palette index.
type Indexer interface {
	Lookup(c color.RGB) uint8
}

// ReduceColors reduces colors to at most maxColors palette entries using
// Wu's quantizer. maxColors 0 means wu.MaxColors.
func ReduceColors(colors []color.RGB, maxColors int) (*ColorMap, error) {
	if maxColors == 0 {
		maxColors = wu.MaxColors
	}
	res, err := wu.Compress(colors, maxColors)
	if err != nil {
		return nil, err
	}

	t := NewTally(res.Palette, res.Index)
	assign := make([]int, len(colors))
	for i, c := range colors {
		assign[i] = t.Add(c)
	}
	cm := t.ColorMap()
	cm.Assign = assign
	return cm, nil
}

// Tally accumulates per-entry pixel counts and error statistics one pixel
// at a time.
type Tally struct {
	palette []color.RGB
	index   Indexer
	counts  []int
	pixels  int
	errSum  float64
	errMax  float64
}

// NewTally starts an empty tally over palette.
func NewTally(palette []color.RGB, index Indexer) *Tally {
	return &Tally{
		palette: palette,
		index:   index,
		counts:  make([]int, len(palette)),
	}
}

// Add records one pixel and returns its palette index.
func (t *Tally) Add(c color.RGB) int {
	i := int(t.index.Lookup(c))
	t.counts[i]++
	t.pixels++
	d := color.DistanceRGB(c, t.palette[i])
	t.errSum += d
	t.errMax = math.Max(t.errMax, d)
	return i
}

// Pixels returns the number of pixels recorded.
func (t *Tally) Pixels() int {
	return t.pixels
}

// ColorMap returns the entries and error statistics recorded so far.
func (t *Tally) ColorMap() *ColorMap {
	cm := &ColorMap{
		Entries:  make([]ColorEntry, len(t.palette)),
		MaxError: t.errMax,
	}
	if t.pixels > 0 {
		cm.MeanError = t.errSum / float64(t.pixels)
	}
	for i, c := range t.palette {
		cm.Entries[i] = ColorEntry{
			Number: i + 1,
			Color:  c,
			Pixels: t.counts[i],
		}
	}
	return cm
}
