// Package wuquant reduces images to small palettes with Xiaolin Wu's
// variance-minimizing color quantizer.
//
// Usage as a library:
//
//	img, _ := wuquant.LoadImage("photo.png")
//	paletted, _ := wuquant.Convert(img, wuquant.DefaultOptions())
//	wuquant.SavePNG("photo-256.png", paletted)
//
// Or use the file-based convenience, which keeps every frame of animated
// GIFs on one shared palette:
//
//	err := wuquant.ConvertFile("clip.gif", "clip-64.gif", wuquant.Options{MaxColors: 64})
//
// Quantizer plugs the same engine into image/draw and image/gif:
//
//	gif.Encode(w, img, &gif.Options{NumColors: 256, Quantizer: wuquant.Quantizer{}})
package wuquant

import (
	"fmt"
	"image"
	stdcolor "image/color"
	"image/gif"
	"io"
	"log/slog"

	"github.com/maax3v3/wuquant/internal/cli"
	"github.com/maax3v3/wuquant/internal/color"
	"github.com/maax3v3/wuquant/internal/imaging"
	"github.com/maax3v3/wuquant/internal/pipeline"
	"github.com/maax3v3/wuquant/internal/remap"
	"github.com/maax3v3/wuquant/internal/wu"
)

// MaxColors is the largest palette the quantizer produces.
const MaxColors = wu.MaxColors

// Errors returned by Compress and Convert. Use errors.Is to test for them.
var (
	ErrEmptyPalette = wu.ErrEmptyPalette
	ErrColorCount   = wu.ErrColorCount
)

// Options configures Convert and ConvertFile.
type Options struct {
	// MaxColors is the largest number of palette entries in the output,
	// including the transparent entry reserved for images with alpha.
	// Must be in [1, MaxColors]. Default: 256.
	MaxColors int

	// MaxSize downscales still images so neither side exceeds it.
	// 0 keeps the original size. Animations are never scaled.
	MaxSize int

	// Logger receives progress messages from ConvertFile. Nil discards them.
	Logger *slog.Logger
}

// Color is an opaque 8-bit RGB color.
type Color struct {
	R, G, B uint8
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{MaxColors: MaxColors}
}

// ParseHexColor parses a hex color string like "#000" or "FF00FF".
func ParseHexColor(hex string) (Color, error) {
	c, err := color.ParseHex(hex)
	if err != nil {
		return Color{}, err
	}
	return Color(c), nil
}

// Hex formats c as "#rrggbb".
func (c Color) Hex() string {
	return color.RGB(c).Hex()
}

// IndexMap maps any color to the palette entry of its region of color
// space.
type IndexMap struct {
	m *wu.IndexMap
}

// Lookup returns the palette index for c.
func (m *IndexMap) Lookup(c Color) uint8 {
	return m.m.Lookup(color.RGB(c))
}

// Compress quantizes palette, a list of pixel colors where repeats count as
// weight, to at most n colors. It returns the reduced palette and an index
// that maps every color, including ones not in the input, into it.
func Compress(palette []Color, n int) ([]Color, *IndexMap, error) {
	in := make([]color.RGB, len(palette))
	for i, c := range palette {
		in[i] = color.RGB(c)
	}
	res, err := wu.Compress(in, n)
	if err != nil {
		return nil, nil, err
	}
	out := make([]Color, len(res.Palette))
	for i, c := range res.Palette {
		out[i] = Color(c)
	}
	return out, &IndexMap{m: res.Index}, nil
}

// Quantizer implements image/draw.Quantizer. It fills the unused capacity
// of the palette it is given, cap(p)-len(p) entries, with colors taken
// from the image.
type Quantizer struct {
	// AddTransparent reserves the last palette slot for a fully
	// transparent color when the image has transparent pixels.
	AddTransparent bool
}

// Quantize appends up to cap(p)-len(p) colors to p. When the only free
// slot would go to the transparent entry, the slot holds an opaque color
// instead. An image without opaque pixels gets just the transparent entry.
func (q Quantizer) Quantize(p stdcolor.Palette, m image.Image) stdcolor.Palette {
	n := min(cap(p)-len(p), MaxColors)
	if n <= 0 {
		return p
	}
	addTransparent := q.AddTransparent && remap.HasTransparency(m)

	h := wu.NewHistogram()
	remap.Visit(m, h.Add)
	if h.Len() > 0 {
		if addTransparent && n > 1 {
			n--
		} else {
			addTransparent = false
		}
		res, err := h.Compress(n)
		if err != nil {
			return p
		}
		for _, c := range res.Palette {
			p = append(p, c.ToStdColor())
		}
	}
	if addTransparent {
		p = append(p, stdcolor.RGBA{})
	}
	return p
}

// LoadImage reads an image from disk. Supports PNG, JPEG, WEBP and GIF
// (first frame).
func LoadImage(path string) (image.Image, error) {
	return imaging.Load(path)
}

// SavePNG writes an image to disk as PNG.
func SavePNG(path string, img image.Image) error {
	return imaging.SavePNG(path, img)
}

// SaveGIF writes g to disk.
func SaveGIF(path string, g *gif.GIF) error {
	return imaging.SaveGIF(path, g)
}

// Convert quantizes img to a paletted image of at most opts.MaxColors
// colors. Pixels less than half opaque map to a transparent palette entry.
func Convert(img image.Image, opts Options) (*image.Paletted, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}
	if opts.MaxColors == 0 {
		opts.MaxColors = MaxColors
	}

	out, err := pipeline.Quantize(imaging.Still(imaging.Fit(img, opts.MaxSize)), opts.MaxColors)
	if err != nil {
		return nil, err
	}
	return out.GIF.Image[0], nil
}

// ConvertFile loads inPath, quantizes every frame onto one palette and
// saves the result to outPath as GIF, or as a paletted PNG of the first
// frame when outPath ends in .png.
func ConvertFile(inPath, outPath string, opts Options) error {
	if opts.MaxColors == 0 {
		opts.MaxColors = MaxColors
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return pipeline.Run(cli.Config{
		InPath:    inPath,
		OutPath:   outPath,
		MaxColors: opts.MaxColors,
		MaxSize:   opts.MaxSize,
	}, logger)
}
