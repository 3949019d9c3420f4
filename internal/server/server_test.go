package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func TestMain(m *testing.M) {
	godal.RegisterAll()
	os.Exit(m.Run())
}

// Test server setup
func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()

	// Add middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(30 * time.Second))

	apiServer := NewServer("1.0.0-test", t.TempDir())

	r.Route("/api/v1", func(r chi.Router) {
		apiServer.Routes(r)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	server := setupTestServer(t)

	resp, err := http.Get(server.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %s", ct)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if health.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got %s", health.Status)
	}
	if health.Version != "1.0.0-test" {
		t.Errorf("Expected version '1.0.0-test', got %s", health.Version)
	}
	if time.Since(health.Timestamp) > time.Minute {
		t.Errorf("Timestamp seems too old: %v", health.Timestamp)
	}
}

func postSharpen(t *testing.T, url string, req SharpenRequest) *http.Response {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	resp, err := http.Post(url+"/api/v1/sharpen", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	return resp
}

func TestSharpenEndpoint_InvalidJSON(t *testing.T) {
	server := setupTestServer(t)

	resp, err := http.Post(server.URL+"/api/v1/sharpen", "application/json",
		bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}
	var e ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("Failed to decode error: %v", err)
	}
	if e.Code != "INVALID_JSON" {
		t.Errorf("Expected code INVALID_JSON, got %s", e.Code)
	}
}

func TestSharpenEndpoint_MissingPaths(t *testing.T) {
	server := setupTestServer(t)

	resp := postSharpen(t, server.URL, SharpenRequest{Strength: "medium"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}
}

func TestSharpenEndpoint_InvalidStrength(t *testing.T) {
	server := setupTestServer(t)
	dir := t.TempDir()

	resp := postSharpen(t, server.URL, SharpenRequest{
		Input:    filepath.Join(dir, "in.tif"),
		Output:   filepath.Join(dir, "out.tif"),
		Strength: "extreme",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}
	var e ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("Failed to decode error: %v", err)
	}
	if e.Code != "INVALID_CONFIG" {
		t.Errorf("Expected code INVALID_CONFIG, got %s", e.Code)
	}

	// Config errors must fire before any output file appears.
	if _, err := os.Stat(filepath.Join(dir, "out.tif")); !os.IsNotExist(err) {
		t.Error("output file created despite config error")
	}
}

func TestSharpenEndpoint_MissingInput(t *testing.T) {
	server := setupTestServer(t)
	dir := t.TempDir()

	resp := postSharpen(t, server.URL, SharpenRequest{
		Input:  filepath.Join(dir, "does-not-exist.tif"),
		Output: filepath.Join(dir, "out.tif"),
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", resp.StatusCode)
	}
}

func TestSharpenEndpoint_Success(t *testing.T) {
	server := setupTestServer(t)
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.tif")
	outPath := filepath.Join(dir, "out.tif")

	ds, err := godal.Create(godal.GTiff, inPath, 3, godal.Byte, 64, 64)
	if err != nil {
		t.Fatalf("Failed to create test raster: %v", err)
	}
	buf := make([]byte, 3*64*64)
	for i := range buf {
		buf[i] = byte((i*7 + i/64) % 251)
	}
	if err := ds.Write(0, 0, buf, 64, 64, godal.BandInterleaved()); err != nil {
		t.Fatalf("Failed to fill test raster: %v", err)
	}
	if err := ds.Close(); err != nil {
		t.Fatalf("Failed to close test raster: %v", err)
	}

	resp := postSharpen(t, server.URL, SharpenRequest{
		Input:    inPath,
		Output:   outPath,
		Strength: "light",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	var result SharpenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.Strength != "light" {
		t.Errorf("Expected strength light, got %s", result.Strength)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("Output raster missing: %v", err)
	}
}
