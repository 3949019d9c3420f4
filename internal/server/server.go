// Package server exposes the sharpening pipeline over HTTP: a health
// endpoint and a sharpen endpoint that processes one raster per
// request.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rastertools/sharpen/internal/pipeline"
)

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    int       `json:"uptime"`
	Version   string    `json:"version"`
}

// SharpenRequest asks for a single raster to be sharpened. Input and
// Output are filesystem paths visible to the server.
type SharpenRequest struct {
	Input    string `json:"input"`
	Output   string `json:"output"`
	Strength string `json:"strength,omitempty"`
	Method   string `json:"method,omitempty"`
	Workers  int    `json:"workers,omitempty"`
}

// SharpenResponse describes a completed sharpening run.
type SharpenResponse struct {
	Output     string `json:"output"`
	Strength   string `json:"strength"`
	Method     string `json:"method"`
	DurationMs int64  `json:"duration_ms"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server implements the HTTP API.
type Server struct {
	startTime time.Time
	version   string
	workRoot  string
}

// NewServer creates a server. workRoot stages output rasters; empty
// selects the system temp directory.
func NewServer(version, workRoot string) *Server {
	if workRoot == "" {
		workRoot = os.TempDir()
	}
	return &Server{
		startTime: time.Now(),
		version:   version,
		workRoot:  workRoot,
	}
}

// Routes mounts the API endpoints on a router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.GetHealth)
	r.Post("/sharpen", s.CreateSharpenedRaster)
}

// GetHealth implements the health check endpoint.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    int(time.Since(s.startTime).Seconds()),
		Version:   s.version,
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// CreateSharpenedRaster implements the sharpen endpoint. Configuration
// errors are rejected with 400 before the input raster is touched.
func (s *Server) CreateSharpenedRaster(w http.ResponseWriter, r *http.Request) {
	var req SharpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid JSON in request body")
		return
	}
	if req.Input == "" || req.Output == "" {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "input and output paths are required")
		return
	}

	cfg := pipeline.Config{
		InputRoot:  filepath.Dir(req.Input),
		OutputRoot: filepath.Dir(req.Output),
		WorkRoot:   s.workRoot,
		Strength:   req.Strength,
		Method:     req.Method,
		Workers:    req.Workers,
	}
	p, err := pipeline.New(cfg)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}

	start := time.Now()
	if err := p.ProcessRaster(r.Context(), req.Input, req.Output); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "PROCESSING_FAILED", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, SharpenResponse{
		Output:     req.Output,
		Strength:   cfg.Strength,
		Method:     cfg.Method,
		DurationMs: time.Since(start).Milliseconds(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("error encoding response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
