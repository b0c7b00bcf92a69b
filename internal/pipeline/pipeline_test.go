package pipeline

import (
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maax3v3/wuquant/internal/cli"
	"github.com/maax3v3/wuquant/internal/imaging"
	"github.com/maax3v3/wuquant/internal/wu"
)

var (
	red    = color.RGBA{255, 0, 0, 255}
	green  = color.RGBA{0, 200, 0, 255}
	blue   = color.RGBA{0, 0, 255, 255}
	yellow = color.RGBA{255, 255, 0, 255}
)

func quadrants(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			switch {
			case x < w/2 && y < h/2:
				img.Set(x, y, red)
			case x >= w/2 && y < h/2:
				img.Set(x, y, green)
			case x < w/2 && y >= h/2:
				img.Set(x, y, blue)
			default:
				img.Set(x, y, yellow)
			}
		}
	}
	return img
}

func createTestImage(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, quadrants(200, 200)))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestQuantize_Still(t *testing.T) {
	out, err := Quantize(imaging.Still(quadrants(40, 40)), 256)
	require.NoError(t, err)

	require.Len(t, out.GIF.Image, 1)
	assert.Equal(t, -1, out.Transparent)
	assert.Len(t, out.ColorMap.Entries, 4)
	assert.Zero(t, out.ColorMap.MeanError)

	frame := out.GIF.Image[0]
	for _, p := range []image.Point{{0, 0}, {39, 0}, {0, 39}, {39, 39}} {
		want := quadrants(40, 40).At(p.X, p.Y)
		assert.Equal(t, want, frame.At(p.X, p.Y), "pixel %v", p)
	}
	pixels := 0
	for _, e := range out.ColorMap.Entries {
		assert.Equal(t, 400, e.Pixels)
		pixels += e.Pixels
	}
	assert.Equal(t, 1600, pixels)
}

func TestQuantize_ReducesToMaxColors(t *testing.T) {
	out, err := Quantize(imaging.Still(quadrants(40, 40)), 2)
	require.NoError(t, err)
	assert.Len(t, out.GIF.Config.ColorModel.(color.Palette), 2)
	assert.Len(t, out.ColorMap.Entries, 2)
	assert.Greater(t, out.ColorMap.MeanError, 0.0)
}

func TestQuantize_SharedPaletteAcrossFrames(t *testing.T) {
	pal := color.Palette{red, blue, green}
	a := image.NewPaletted(image.Rect(0, 0, 4, 4), pal)
	b := image.NewPaletted(image.Rect(0, 0, 4, 4), pal)
	for i := range b.Pix {
		b.Pix[i] = 1
	}
	c := image.NewPaletted(image.Rect(1, 1, 3, 3), pal)
	for i := range c.Pix {
		c.Pix[i] = 2
	}
	anim := &imaging.Animation{
		Frames:    []image.Image{a, b, c},
		Delay:     []int{10, 20, 30},
		Disposal:  []byte{0, 1, 2},
		LoopCount: 0,
		Width:     4,
		Height:    4,
	}

	out, err := Quantize(anim, 16)
	require.NoError(t, err)
	g := out.GIF
	require.Len(t, g.Image, 3)
	assert.Equal(t, anim.Delay, g.Delay)
	assert.Equal(t, anim.Disposal, g.Disposal)
	assert.Equal(t, image.Rect(1, 1, 3, 3), g.Image[2].Bounds())
	assert.Len(t, out.ColorMap.Entries, 3)

	assert.Equal(t, red, g.Image[0].At(0, 0))
	assert.Equal(t, blue, g.Image[1].At(3, 3))
	assert.Equal(t, color.Color(color.RGBA{0, 200, 0, 255}), g.Image[2].At(2, 2))

	// All frames share one palette.
	for _, f := range g.Image {
		assert.Equal(t, g.Config.ColorModel, f.Palette)
	}
}

func TestQuantize_ReservesTransparentEntry(t *testing.T) {
	img := quadrants(10, 10)
	img.SetRGBA(0, 0, color.RGBA{})

	out, err := Quantize(imaging.Still(img), 3)
	require.NoError(t, err)

	pal := out.GIF.Config.ColorModel.(color.Palette)
	require.Len(t, pal, 3)
	require.Equal(t, 2, out.Transparent)
	assert.Equal(t, color.Color(color.RGBA{}), pal[2])
	assert.Equal(t, uint8(2), out.GIF.Image[0].ColorIndexAt(0, 0))
	assert.NotEqual(t, uint8(2), out.GIF.Image[0].ColorIndexAt(9, 9))
}

func TestQuantize_SingleColorWithTransparency(t *testing.T) {
	img := quadrants(4, 4)
	img.SetRGBA(0, 0, color.RGBA{})
	img.SetRGBA(3, 3, color.RGBA{})

	out, err := Quantize(imaging.Still(img), 1)
	require.NoError(t, err)

	pal := out.GIF.Config.ColorModel.(color.Palette)
	require.Len(t, pal, 1)
	assert.Equal(t, -1, out.Transparent, "no room for a transparent entry")
	_, _, _, a := pal[0].RGBA()
	assert.Equal(t, uint32(0xffff), a)
	for _, px := range out.GIF.Image[0].Pix {
		assert.Equal(t, uint8(0), px)
	}
	require.Len(t, out.ColorMap.Entries, 1)
	assert.Equal(t, 14, out.ColorMap.Entries[0].Pixels)
}

func TestQuantize_FullyTransparent(t *testing.T) {
	for _, maxColors := range []int{1, 16} {
		out, err := Quantize(imaging.Still(image.NewRGBA(image.Rect(0, 0, 4, 4))), maxColors)
		require.NoError(t, err, "maxColors=%d", maxColors)

		assert.Equal(t, color.Palette{color.RGBA{}}, out.GIF.Config.ColorModel)
		assert.Equal(t, 0, out.Transparent)
		assert.Empty(t, out.ColorMap.Entries)
		for _, px := range out.GIF.Image[0].Pix {
			assert.Equal(t, uint8(0), px)
		}
	}
}

func TestQuantize_Errors(t *testing.T) {
	_, err := Quantize(imaging.Still(image.NewRGBA(image.Rectangle{})), 8)
	assert.ErrorIs(t, err, wu.ErrEmptyPalette, "no pixels at all")

	_, err = Quantize(imaging.Still(quadrants(4, 4)), 0)
	assert.ErrorIs(t, err, wu.ErrColorCount)

	transparent := quadrants(4, 4)
	transparent.SetRGBA(0, 0, color.RGBA{})
	_, err = Quantize(imaging.Still(transparent), wu.MaxColors+1)
	assert.ErrorIs(t, err, wu.ErrColorCount)
}

func TestPipelineEndToEnd(t *testing.T) {
	tmpDir := t.TempDir()
	inPath := filepath.Join(tmpDir, "input.png")
	outPath := filepath.Join(tmpDir, "output.gif")

	createTestImage(t, inPath)

	cfg := cli.Config{InPath: inPath, OutPath: outPath, MaxColors: 256}
	require.NoError(t, Run(cfg, discardLogger()))

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()

	g, err := gif.DecodeAll(f)
	require.NoError(t, err)
	require.Len(t, g.Image, 1)
	assert.Equal(t, 200, g.Config.Width)
	assert.Equal(t, 200, g.Config.Height)

	r, gg, b, _ := g.Image[0].At(10, 10).RGBA()
	assert.Equal(t, []uint32{255, 0, 0}, []uint32{r >> 8, gg >> 8, b >> 8})
}

func TestPipelinePNGOutputWithScaling(t *testing.T) {
	tmpDir := t.TempDir()
	inPath := filepath.Join(tmpDir, "input.png")
	outPath := filepath.Join(tmpDir, "output.png")

	createTestImage(t, inPath)

	cfg := cli.Config{InPath: inPath, OutPath: outPath, MaxColors: 2, MaxSize: 50}
	require.NoError(t, Run(cfg, discardLogger()))

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 50, 50), img.Bounds())
	p, ok := img.(*image.Paletted)
	require.True(t, ok, "expected a paletted PNG, got %T", img)
	assert.LessOrEqual(t, len(p.Palette), 2)
}

func TestPipelineGIFRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	inPath := filepath.Join(tmpDir, "input.gif")
	outPath := filepath.Join(tmpDir, "output.gif")

	pal := color.Palette{red, blue}
	a := image.NewPaletted(image.Rect(0, 0, 8, 8), pal)
	b := image.NewPaletted(image.Rect(0, 0, 8, 8), pal)
	for i := range b.Pix {
		b.Pix[i] = 1
	}
	require.NoError(t, imaging.SaveGIF(inPath, &gif.GIF{
		Image: []*image.Paletted{a, b},
		Delay: []int{4, 8},
	}))

	require.NoError(t, Run(cli.Config{InPath: inPath, OutPath: outPath, MaxColors: 8, MaxSize: 4}, discardLogger()))

	anim, err := imaging.LoadFrames(outPath)
	require.NoError(t, err)
	require.Len(t, anim.Frames, 2)
	assert.Equal(t, []int{4, 8}, anim.Delay)
	assert.Equal(t, 8, anim.Width, "animations are not scaled")
}

func TestPipelineScalesSingleFrameGIF(t *testing.T) {
	tmpDir := t.TempDir()
	inPath := filepath.Join(tmpDir, "input.gif")
	outPath := filepath.Join(tmpDir, "output.gif")

	frame := image.NewPaletted(image.Rect(0, 0, 16, 8), color.Palette{red, blue})
	require.NoError(t, imaging.SaveGIF(inPath, &gif.GIF{
		Image:     []*image.Paletted{frame},
		Delay: []int{12},
	}))

	require.NoError(t, Run(cli.Config{InPath: inPath, OutPath: outPath, MaxColors: 4, MaxSize: 4}, discardLogger()))

	anim, err := imaging.LoadFrames(outPath)
	require.NoError(t, err)
	require.Len(t, anim.Frames, 1)
	assert.Equal(t, 4, anim.Width)
	assert.Equal(t, 2, anim.Height)
	assert.Equal(t, []int{12}, anim.Delay)
}

func TestPipelineMissingInput(t *testing.T) {
	cfg := cli.Config{InPath: "/nonexistent/in.png", OutPath: filepath.Join(t.TempDir(), "o.gif"), MaxColors: 4}
	assert.ErrorContains(t, Run(cfg, discardLogger()), "loading image")
}
