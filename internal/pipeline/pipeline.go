package pipeline

import (
	"fmt"
	"image"
	stdcolor "image/color"
	"image/gif"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/maax3v3/wuquant/internal/aggregation"
	"github.com/maax3v3/wuquant/internal/cli"
	"github.com/maax3v3/wuquant/internal/color"
	"github.com/maax3v3/wuquant/internal/imaging"
	"github.com/maax3v3/wuquant/internal/remap"
	"github.com/maax3v3/wuquant/internal/wu"
)

// Output is a quantized animation together with its palette summary.
type Output struct {
	GIF      *gif.GIF
	ColorMap *aggregation.ColorMap
	// Transparent is the palette index reserved for transparent pixels, or
	// -1 when the input had none.
	Transparent int
}

// Quantize reduces all frames of a to one shared palette of at most
// maxColors entries and remaps every frame onto it. When any frame has
// transparent pixels one palette entry is reserved for them, unless
// maxColors is 1: then every pixel maps to the single opaque color.
// Input with no opaque pixels at all yields a lone transparent entry.
func Quantize(a *imaging.Animation, maxColors int) (*Output, error) {
	if maxColors < 1 || maxColors > wu.MaxColors {
		return nil, fmt.Errorf("quantizing: %w: got %d, want 1..%d", wu.ErrColorCount, maxColors, wu.MaxColors)
	}

	transparent := -1
	for _, f := range a.Frames {
		if remap.HasTransparency(f) {
			transparent = 0
			break
		}
	}

	h := wu.NewHistogram()
	for _, f := range a.Frames {
		remap.Visit(f, h.Add)
	}

	res := &wu.Result{}
	if h.Len() > 0 || transparent < 0 {
		n := maxColors
		if transparent >= 0 {
			if n == 1 {
				transparent = -1
			} else {
				n--
			}
		}
		var err error
		if res, err = h.Compress(n); err != nil {
			return nil, fmt.Errorf("quantizing: %w", err)
		}
	}

	palette := make(stdcolor.Palette, 0, len(res.Palette)+1)
	for _, c := range res.Palette {
		palette = append(palette, c.ToStdColor())
	}
	if transparent >= 0 {
		transparent = len(palette)
		palette = append(palette, stdcolor.RGBA{})
	}

	var index remap.Indexer = res.Index
	if res.Index == nil {
		index = transparentOnly{}
	}
	frames := remap.Frames(a.Frames, remap.Target{
		Palette:     palette,
		Index:       index,
		Transparent: transparent,
	})

	tally := aggregation.NewTally(res.Palette, index)
	for _, f := range a.Frames {
		remap.Visit(f, func(c color.RGB) { tally.Add(c) })
	}

	return &Output{
		GIF: &gif.GIF{
			Image:     frames,
			Delay:     a.Delay,
			Disposal:  a.Disposal,
			LoopCount: a.LoopCount,
			Config: image.Config{
				ColorModel: palette,
				Width:      a.Width,
				Height:     a.Height,
			},
		},
		ColorMap:    tally.ColorMap(),
		Transparent: transparent,
	}, nil
}

// transparentOnly indexes palettes that hold nothing but the transparent
// entry. Remap never asks it about an opaque pixel.
type transparentOnly struct{}

func (transparentOnly) Lookup(color.RGB) uint8 { return 0 }

// Run executes the full wuquant pipeline with the given configuration.
func Run(cfg cli.Config, logger *slog.Logger) error {
	// Step 1: Load input frames
	logger.Info("loading image", "path", cfg.InPath)
	a, err := imaging.LoadFrames(cfg.InPath)
	if err != nil {
		return fmt.Errorf("loading image: %w", err)
	}
	logger.Info("image loaded", "width", a.Width, "height", a.Height, "frames", len(a.Frames))

	// Step 2: Optionally downscale single-frame images
	if cfg.MaxSize > 0 {
		if a.Fit(cfg.MaxSize) {
			logger.Info("image scaled", "width", a.Width, "height", a.Height)
		} else {
			logger.Warn("scaling only applies to single frames covering the canvas", "frames", len(a.Frames))
		}
	}

	// Step 3: Quantize all frames onto one palette
	logger.Info("quantizing", "max_colors", cfg.MaxColors)
	out, err := Quantize(a, cfg.MaxColors)
	if err != nil {
		return err
	}
	logger.Info("palette built",
		"colors", len(out.ColorMap.Entries),
		"transparent", out.Transparent >= 0,
		"mean_error", fmt.Sprintf("%.2f", out.ColorMap.MeanError),
		"max_error", fmt.Sprintf("%.2f", out.ColorMap.MaxError))
	for _, e := range out.ColorMap.Entries {
		logger.Debug("palette entry", "number", e.Number, "color", e.Color.Hex(), "pixels", e.Pixels)
	}

	// Step 4: Save output
	logger.Info("saving output", "path", cfg.OutPath)
	if err := save(cfg.OutPath, out.GIF); err != nil {
		return fmt.Errorf("saving output: %w", err)
	}

	logger.Info("done")
	return nil
}

// save writes g as a GIF, or its first frame as a paletted PNG when path
// ends in .png.
func save(path string, g *gif.GIF) error {
	if strings.ToLower(filepath.Ext(path)) == ".png" {
		return imaging.SavePNG(path, g.Image[0])
	}
	return imaging.SaveGIF(path, g)
}
