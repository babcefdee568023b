// Package server exposes the analyzer over HTTP: upload a device export,
// receive the report.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/HerbHall/coldtrace/internal/analysis"
	"github.com/HerbHall/coldtrace/internal/config"
	"github.com/HerbHall/coldtrace/internal/ingest"
	"github.com/HerbHall/coldtrace/internal/report"
	"github.com/HerbHall/coldtrace/internal/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ReadinessChecker verifies that the server is ready to serve traffic.
// Returns nil if ready, an error describing why not otherwise.
type ReadinessChecker func(ctx context.Context) error

// Server is the coldtrace HTTP server.
type Server struct {
	httpServer *http.Server
	analyzer   *analysis.Analyzer
	parser     *ingest.Parser
	logger     *zap.Logger
	mux        *http.ServeMux
	ready      ReadinessChecker
}

var operationalPaths = []string{"/healthz", "/readyz", "/metrics"}

// New creates a Server with middleware and routes. ready may be nil.
func New(cfg config.ServerConfig, analyzer *analysis.Analyzer, parser *ingest.Parser, logger *zap.Logger, ready ReadinessChecker) *Server {
	mux := http.NewServeMux()

	s := &Server{
		analyzer: analyzer,
		parser:   parser,
		logger:   logger,
		mux:      mux,
		ready:    ready,
	}

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.Handle("POST /api/v1/analyze", BodyLimitMiddleware(cfg.MaxUploadBytes)(http.HandlerFunc(s.handleAnalyze)))

	// Middleware chain: outermost listed first.
	handler := Chain(mux,
		RecoveryMiddleware(logger),
		RequestIDMiddleware,
		LoggingMiddleware(logger, operationalPaths),
		SecurityHeadersMiddleware,
		VersionHeaderMiddleware,
		RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst, operationalPaths),
	)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving HTTP requests. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Version  map[string]string `json:"version"`
	Analysis analysis.Config   `json:"analysis"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Service:  "coldtrace",
		Version:  version.Map(),
		Analysis: s.analyzer.Config(),
	})
}

// handleAnalyze parses the uploaded export, runs the analysis and writes the
// report. Query parameters min, max, gap_hours and cutoff override the
// configured analysis settings for this request; format selects the output.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	format, err := report.ParseFormat(q.Get("format"))
	if err != nil {
		BadRequest(w, err.Error(), r.URL.Path)
		return
	}

	cfg, err := s.overrides(q.Get)
	if err != nil {
		BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	analyzer, err := s.analyzer.WithConfig(cfg)
	if err != nil {
		BadRequest(w, err.Error(), r.URL.Path)
		return
	}

	body, err := uploadBody(r)
	if err != nil {
		s.writeIngestError(w, r, err)
		return
	}

	res, err := s.parser.Parse(body)
	if err != nil {
		s.writeIngestError(w, r, err)
		return
	}

	rep := analyzer.Run(res.Series)

	var buf bytes.Buffer
	if err := report.Render(&buf, format, rep); err != nil {
		s.logger.Error("render report", zap.Error(err), zap.String("request_id", RequestID(r.Context())))
		InternalError(w, "failed to render report", r.URL.Path)
		return
	}

	h := w.Header()
	h.Set("Content-Type", report.ContentType(format))
	h.Set("X-Coldtrace-Report-ID", rep.ID)
	h.Set("X-Coldtrace-Disposition", string(rep.Decision.Disposition))
	h.Set("X-Coldtrace-Dropped-Rows", strconv.Itoa(res.DroppedRows))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// overrides applies request query parameters on top of the analyzer config.
func (s *Server) overrides(get func(string) string) (analysis.Config, error) {
	cfg := s.analyzer.Config()

	if v := get("min"); v != "" {
		f, err := ingest.ParseTemperature(v)
		if err != nil {
			return cfg, fmt.Errorf("min: %w", err)
		}
		cfg.MinTempLimit = f
	}
	if v := get("max"); v != "" {
		f, err := ingest.ParseTemperature(v)
		if err != nil {
			return cfg, fmt.Errorf("max: %w", err)
		}
		cfg.MaxTempLimit = f
	}
	if v := get("gap_hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("gap_hours: %q is not an integer", v)
		}
		cfg.GapThresholdHours = n
	}
	if v := get("cutoff"); v != "" {
		t, err := ingest.ParseTimestamp(v, s.parser.Location())
		if err != nil {
			return cfg, fmt.Errorf("cutoff: %w", err)
		}
		cfg.InterventionCutoff = &t
	}
	return cfg, nil
}

// uploadBody returns the export: the "file" part of a multipart form, or the
// raw request body otherwise.
func uploadBody(r *http.Request) (io.Reader, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return r.Body, nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ingest.ErrParse, err)
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: multipart form has no \"file\" field", ingest.ErrParse)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ingest.ErrParse, err)
		}
		if part.FormName() == "file" {
			return part, nil
		}
	}
}

func (s *Server) writeIngestError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("rejected upload",
		zap.Error(err),
		zap.String("request_id", RequestID(r.Context())),
	)

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		PayloadTooLarge(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), r.URL.Path)
	case errors.Is(err, ingest.ErrMissingColumn):
		MissingColumn(w, err.Error(), r.URL.Path)
	case errors.Is(err, ingest.ErrParse):
		BadRequest(w, err.Error(), r.URL.Path)
	default:
		InternalError(w, "failed to read upload", r.URL.Path)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
