package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Animation is a decoded frame sequence. Still images have a single frame
// and zero delay.
type Animation struct {
	Frames    []image.Image
	Delay     []int  // per frame, in 100ths of a second
	Disposal  []byte // per frame, gif.Disposal* values
	LoopCount int
	Width     int
	Height    int
}

// Still wraps a single image as a one-frame Animation. Images whose bounds
// do not start at the origin are copied so the frame fits the canvas.
func Still(img image.Image) *Animation {
	b := img.Bounds()
	if b.Min != (image.Point{}) {
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		img = dst
	}
	return &Animation{
		Frames:   []image.Image{img},
		Delay:    []int{0},
		Disposal: []byte{0},
		Width:    b.Dx(),
		Height:   b.Dy(),
	}
}

// Fit scales a single-frame animation so neither side exceeds maxSize,
// keeping its delay, disposal and loop count. It reports false and leaves
// a untouched when there is more than one frame or the frame does not
// cover the whole canvas.
func (a *Animation) Fit(maxSize int) bool {
	if len(a.Frames) != 1 || a.Frames[0].Bounds() != image.Rect(0, 0, a.Width, a.Height) {
		return false
	}
	img := Fit(a.Frames[0], maxSize)
	a.Frames[0] = img
	a.Width, a.Height = img.Bounds().Dx(), img.Bounds().Dy()
	return true
}

// Load reads an image file from disk. Supports PNG, JPEG, WEBP and GIF
// (first frame only; see LoadFrames).
// The path is normalized: ~ is expanded to the user's home directory,
// and relative paths are resolved to absolute.
func Load(path string) (image.Image, error) {
	path = ExpandPath(path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png":
		return png.Decode(f)
	case ".jpg", ".jpeg":
		return jpeg.Decode(f)
	case ".gif":
		return gif.Decode(f)
	case ".webp":
		// Decoded via the blank import of golang.org/x/image/webp
		img, _, err := image.Decode(f)
		return img, err
	default:
		return nil, fmt.Errorf("unsupported image format %q (supported: png, jpg, jpeg, webp, gif)", ext)
	}
}

// LoadFrames reads every frame of a GIF, or a still image of any format
// Load supports.
func LoadFrames(path string) (*Animation, error) {
	path = ExpandPath(path)
	if strings.ToLower(filepath.Ext(path)) != ".gif" {
		img, err := Load(path)
		if err != nil {
			return nil, err
		}
		return Still(img), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()
	return decodeGIF(f)
}

// Decode reads an image of any supported format from raw bytes. GIF input
// keeps all of its frames.
func Decode(data []byte) (*Animation, error) {
	if bytes.HasPrefix(data, []byte("GIF8")) {
		return decodeGIF(bytes.NewReader(data))
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return Still(img), nil
}

func decodeGIF(r io.Reader) (*Animation, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("decoding gif: %w", err)
	}
	a := &Animation{
		Frames:    make([]image.Image, len(g.Image)),
		Delay:     g.Delay,
		Disposal:  g.Disposal,
		LoopCount: g.LoopCount,
		Width:     g.Config.Width,
		Height:    g.Config.Height,
	}
	for i, frame := range g.Image {
		a.Frames[i] = frame
	}
	if a.Disposal == nil {
		a.Disposal = make([]byte, len(a.Frames))
	}
	return a, nil
}

// Fit scales img down so neither side exceeds maxSize, keeping the aspect
// ratio. Images that already fit, and maxSize <= 0, are returned as is.
func Fit(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return img
	}
	nw, nh := maxSize, maxSize
	if w >= h {
		nh = max(1, h*maxSize/w)
	} else {
		nw = max(1, w*maxSize/h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// SavePNG writes an image to disk as PNG.
// The path is normalized: ~ is expanded and relative paths are resolved.
func SavePNG(path string, img image.Image) error {
	path = ExpandPath(path)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}

// SaveGIF writes g to disk. The path is normalized like SavePNG.
func SaveGIF(path string, g *gif.GIF) error {
	path = ExpandPath(path)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	if err := gif.EncodeAll(f, g); err != nil {
		return fmt.Errorf("encoding GIF: %w", err)
	}
	return nil
}

// ExpandPath normalizes a file path by expanding ~ to the user's home
// directory and resolving relative paths to absolute.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	// Expand ~ and ~/ to home directory
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	// On Windows, also handle ~\
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "~\\") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	// Resolve relative paths to absolute
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return filepath.Clean(path)
}
