package cli

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/maax3v3/wuquant/internal/wu"
)

// Config holds the parsed arguments of the wuquant command.
type Config struct {
	InPath    string
	OutPath   string
	MaxColors int
	MaxSize   int
	Verbose   bool
}

// ServerConfig holds the parsed arguments of the wuquantd command.
type ServerConfig struct {
	Addr          string
	MaxUploadMiB  int64
	DefaultColors int
	Verbose       bool
}

// Parse parses wuquant arguments (without the program name) and returns a
// validated Config. Usage and errors are written to output.
func Parse(args []string, output io.Writer) (Config, error) {
	fs := flag.NewFlagSet("wuquant", flag.ContinueOnError)
	fs.SetOutput(output)

	inPath := fs.String("in", "", "Path to input image (required, supports PNG, JPEG, WEBP, GIF)")
	outPath := fs.String("out", "", "Path to generated output image (required, .gif or .png)")
	maxColors := fs.Int("colors", wu.MaxColors, "Maximum number of palette colors (1-256)")
	maxSize := fs.Int("max-size", 0, "Downscale still images so neither side exceeds this many pixels (0 = keep size)")
	verbose := fs.Bool("v", false, "Log every palette entry")

	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: wuquant [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(output, "\nExample:\n  wuquant --in=photo.png --out=photo.gif --colors=64\n")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *inPath == "" {
		return Config{}, fmt.Errorf("--in is required")
	}
	if *outPath == "" {
		return Config{}, fmt.Errorf("--out is required")
	}
	if ext := strings.ToLower(filepath.Ext(*outPath)); ext != ".gif" && ext != ".png" {
		return Config{}, fmt.Errorf("--out must be a .gif or .png file, got %q", ext)
	}
	if err := checkColors("--colors", *maxColors); err != nil {
		return Config{}, err
	}
	if *maxSize < 0 {
		return Config{}, fmt.Errorf("--max-size must be >= 0, got %d", *maxSize)
	}

	return Config{
		InPath:    *inPath,
		OutPath:   *outPath,
		MaxColors: *maxColors,
		MaxSize:   *maxSize,
		Verbose:   *verbose,
	}, nil
}

// ParseServer parses wuquantd arguments and returns a validated ServerConfig.
func ParseServer(args []string, output io.Writer) (ServerConfig, error) {
	fs := flag.NewFlagSet("wuquantd", flag.ContinueOnError)
	fs.SetOutput(output)

	addr := fs.String("addr", ":8080", "Listen address")
	maxUpload := fs.Int64("max-upload", 32, "Largest accepted request body in MiB")
	colors := fs.Int("colors", wu.MaxColors, "Palette size used when a request does not set ?colors (1-256)")
	verbose := fs.Bool("v", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return ServerConfig{}, err
	}

	if *addr == "" {
		return ServerConfig{}, fmt.Errorf("--addr must not be empty")
	}
	if *maxUpload <= 0 {
		return ServerConfig{}, fmt.Errorf("--max-upload must be > 0, got %d", *maxUpload)
	}
	if err := checkColors("--colors", *colors); err != nil {
		return ServerConfig{}, err
	}

	return ServerConfig{
		Addr:          *addr,
		MaxUploadMiB:  *maxUpload,
		DefaultColors: *colors,
		Verbose:       *verbose,
	}, nil
}

func checkColors(flagName string, n int) error {
	if n < 1 || n > wu.MaxColors {
		return fmt.Errorf("%s must be between 1 and %d, got %d", flagName, wu.MaxColors, n)
	}
	return nil
}
