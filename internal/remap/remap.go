// Package remap applies a color index to images, turning them into
// paletted images.
package remap

import (
	"image"
	stdcolor "image/color"
	"sync"

	"golang.org/x/image/draw"

	"github.com/maax3v3/wuquant/internal/color"
)

// Indexer maps a color to a palette index.
type Indexer interface {
	Lookup(c color.RGB) uint8
}

// Target is the palette frames are remapped onto.
type Target struct {
	Palette stdcolor.Palette
	Index   Indexer
	// Transparent is the palette index given to pixels with alpha below
	// half, or -1 to treat every pixel as opaque.
	Transparent int
}

// ToRGBA returns img as *image.RGBA, converting it when it is some other
// image type.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	return rgba
}

// pixel reads the pixel at Pix offset i, undoing alpha premultiplication.
func pixel(pix []uint8, i int) (c color.RGB, opaque bool) {
	r, g, b, a := pix[i], pix[i+1], pix[i+2], pix[i+3]
	switch a {
	case 0xff:
		return color.RGB{R: r, G: g, B: b}, true
	case 0:
		return color.RGB{}, false
	}
	un := func(v uint8) uint8 {
		return uint8(min(255, uint32(v)*0xff/uint32(a)))
	}
	return color.RGB{R: un(r), G: un(g), B: un(b)}, a >= 0x80
}

// Visit calls fn with every pixel of img that is at least half opaque.
func Visit(img image.Image, fn func(c color.RGB)) {
	rgba := ToRGBA(img)
	b := rgba.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := rgba.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x, i = x+1, i+4 {
			if c, opaque := pixel(rgba.Pix, i); opaque {
				fn(c)
			}
		}
	}
}

// HasTransparency reports whether any pixel of img is less than half opaque.
func HasTransparency(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return false
	}
	rgba := ToRGBA(img)
	b := rgba.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := rgba.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x, i = x+1, i+4 {
			if rgba.Pix[i+3] < 0x80 {
				return true
			}
		}
	}
	return false
}

// Image remaps img onto t. Rows are processed in parallel.
func Image(img image.Image, t Target) *image.Paletted {
	rgba := ToRGBA(img)
	b := rgba.Bounds()
	out := image.NewPaletted(b, t.Palette)

	parallelRows(b.Dy(), func(sy, ey int) {
		for y := b.Min.Y + sy; y < b.Min.Y+ey; y++ {
			i := rgba.PixOffset(b.Min.X, y)
			o := out.PixOffset(b.Min.X, y)
			for x := b.Min.X; x < b.Max.X; x, i, o = x+1, i+4, o+1 {
				c, opaque := pixel(rgba.Pix, i)
				if !opaque && t.Transparent >= 0 {
					out.Pix[o] = uint8(t.Transparent)
					continue
				}
				out.Pix[o] = t.Index.Lookup(c)
			}
		}
	})
	return out
}

// Frames remaps every frame onto t using a small worker pool.
func Frames(frames []image.Image, t Target) []*image.Paletted {
	out := make([]*image.Paletted, len(frames))

	work := make(chan int, len(frames))
	for i := range frames {
		work <- i
	}
	close(work)

	numWorkers := 4
	if len(frames) < numWorkers {
		numWorkers = len(frames)
	}

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				out[i] = Image(frames[i], t)
			}
		}()
	}
	wg.Wait()

	return out
}

// parallelRows splits h rows into contiguous bands and runs fn on each band
// concurrently.
func parallelRows(h int, fn func(startY, endY int)) {
	numWorkers := 8
	rowsPerWorker := (h + numWorkers - 1) / numWorkers
	var wg sync.WaitGroup
	for worker := 0; worker < numWorkers; worker++ {
		startY := worker * rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > h {
			endY = h
		}
		if startY >= h {
			break
		}
		wg.Add(1)
		go func(sy, ey int) {
			defer wg.Done()
			fn(sy, ey)
		}(startY, endY)
	}
	wg.Wait()
}
