// Package server exposes the quantizer over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/gif"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/maax3v3/wuquant/internal/aggregation"
	"github.com/maax3v3/wuquant/internal/color"
	"github.com/maax3v3/wuquant/internal/imaging"
	"github.com/maax3v3/wuquant/internal/pipeline"
	"github.com/maax3v3/wuquant/internal/wu"
)

// Config controls request limits and defaults.
type Config struct {
	MaxUploadBytes int64
	DefaultColors  int
}

type server struct {
	cfg    Config
	logger *slog.Logger
}

// New returns the HTTP handler serving the quantizer API.
func New(cfg Config, logger *slog.Logger) http.Handler {
	s := &server{cfg: cfg, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/quantize", s.quantize)
		r.Post("/palette", s.palette)
		r.Post("/reduce", s.reduce)
	})
	return r
}

func (s *server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, "ok\n"); err != nil {
		s.logger.Error("writing response", "err", err)
	}
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// quantize reads an image body and answers with it as a GIF on a palette of
// ?colors entries. Animated GIF input keeps its frames.
func (s *server) quantize(w http.ResponseWriter, r *http.Request) {
	out, ok := s.decodeAndQuantize(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/gif")
	if err := gif.EncodeAll(w, out.GIF); err != nil {
		s.logger.Error("encoding gif", "err", err)
	}
}

type paletteEntry struct {
	Index  int    `json:"index"`
	Hex    string `json:"hex"`
	Pixels int    `json:"pixels"`
}

type paletteResponse struct {
	Colors      []paletteEntry `json:"colors"`
	Transparent *int           `json:"transparent,omitempty"`
	MeanError   float64        `json:"mean_error"`
	MaxError    float64        `json:"max_error"`
}

// palette reads an image body and answers with the palette it quantizes to.
func (s *server) palette(w http.ResponseWriter, r *http.Request) {
	out, ok := s.decodeAndQuantize(w, r)
	if !ok {
		return
	}
	resp := paletteResponse{
		Colors:    make([]paletteEntry, len(out.ColorMap.Entries)),
		MeanError: out.ColorMap.MeanError,
		MaxError:  out.ColorMap.MaxError,
	}
	for i, e := range out.ColorMap.Entries {
		resp.Colors[i] = paletteEntry{Index: i, Hex: e.Color.Hex(), Pixels: e.Pixels}
	}
	if out.Transparent >= 0 {
		resp.Transparent = &out.Transparent
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type reduceRequest struct {
	Colors    []string `json:"colors"`
	MaxColors int      `json:"max_colors"`
}

type reduceResponse struct {
	Palette []string `json:"palette"`
	Assign  []int    `json:"assign"`
}

// reduce quantizes a JSON list of hex colors and reports which palette entry
// each input color maps to.
func (s *server) reduce(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	var req reduceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, bodyStatus(err), fmt.Errorf("decoding request: %w", err))
		return
	}

	colors := make([]color.RGB, len(req.Colors))
	for i, h := range req.Colors {
		c, err := color.ParseHex(h)
		if err != nil {
			s.fail(w, http.StatusBadRequest, fmt.Errorf("colors[%d]: %w", i, err))
			return
		}
		colors[i] = c
	}
	if req.MaxColors == 0 {
		req.MaxColors = s.cfg.DefaultColors
	}

	cm, err := aggregation.ReduceColors(colors, req.MaxColors)
	if err != nil {
		s.fail(w, errorStatus(err), err)
		return
	}
	resp := reduceResponse{Palette: make([]string, len(cm.Entries)), Assign: cm.Assign}
	for i, e := range cm.Entries {
		resp.Palette[i] = e.Color.Hex()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *server) decodeAndQuantize(w http.ResponseWriter, r *http.Request) (*pipeline.Output, bool) {
	n, err := s.colors(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return nil, false
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes))
	if err != nil {
		s.fail(w, bodyStatus(err), fmt.Errorf("reading body: %w", err))
		return nil, false
	}
	a, err := imaging.Decode(data)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return nil, false
	}

	out, err := pipeline.Quantize(a, n)
	if err != nil {
		s.fail(w, errorStatus(err), err)
		return nil, false
	}
	s.logger.Debug("quantized",
		"frames", len(a.Frames),
		"colors", len(out.ColorMap.Entries),
		"mean_error", out.ColorMap.MeanError)
	return out, true
}

func (s *server) colors(r *http.Request) (int, error) {
	v := r.URL.Query().Get("colors")
	if v == "" {
		return s.cfg.DefaultColors, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("colors: %w", err)
	}
	if n < 1 || n > wu.MaxColors {
		return 0, fmt.Errorf("%w: got %d, want 1..%d", wu.ErrColorCount, n, wu.MaxColors)
	}
	return n, nil
}

func bodyStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func errorStatus(err error) int {
	if errors.Is(err, wu.ErrEmptyPalette) || errors.Is(err, wu.ErrColorCount) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *server) fail(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("writing response", "err", err)
	}
}
