package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kwv/polrefine/poly"
)

func handlerConfig(t *testing.T) *poly.Config {
	t.Helper()
	root := t.TempDir()
	cfg := poly.DefaultConfig()
	cfg.InputDir = filepath.Join(root, "plans")
	cfg.OutputDir = filepath.Join(root, "refined")
	if err := os.MkdirAll(cfg.InputDir, 0755); err != nil {
		t.Fatal(err)
	}

	plan := `{"id": "house", "verts": [[0,0],[10,0],[10,0.0001],[10,5],[7,5],[7,8],[0,8],[0,0]]}`
	if err := os.WriteFile(filepath.Join(cfg.InputDir, "house.json"), []byte(plan), 0644); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestHealthEndpoint(t *testing.T) {
	handler := newHTTPServer(handlerConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var status struct {
		Status  string `json:"status"`
		Inputs  int    `json:"inputs"`
		Refined int    `json:"refined"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if status.Status != "ok" {
		t.Errorf("status = %q, want ok", status.Status)
	}
	if status.Inputs != 1 {
		t.Errorf("inputs = %d, want 1", status.Inputs)
	}
	if status.Refined != 0 {
		t.Errorf("refined = %d, want 0 before any batch", status.Refined)
	}
}

func TestPolygonsEndpoint(t *testing.T) {
	cfg := handlerConfig(t)
	degenerate := `{"verts": [[0,0],[1,0],[2,0]]}`
	if err := os.WriteFile(filepath.Join(cfg.InputDir, "bad.json"), []byte(degenerate), 0644); err != nil {
		t.Fatal(err)
	}

	handler := newHTTPServer(cfg)
	req := httptest.NewRequest(http.MethodGet, "/polygons", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var entries []struct {
		Name     string `json:"name"`
		Vertices int    `json:"vertices"`
		Refined  int    `json:"refined"`
		Error    string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	// Sorted by file name: bad before house.
	if entries[0].Name != "bad" || entries[0].Error == "" {
		t.Errorf("bad entry = %+v, want refine error", entries[0])
	}
	if entries[1].Name != "house" || entries[1].Refined != 6 {
		t.Errorf("house entry = %+v, want 6 refined vertices", entries[1])
	}
}

func TestPolygonsEndpointEmpty(t *testing.T) {
	cfg := handlerConfig(t)
	if err := os.Remove(filepath.Join(cfg.InputDir, "house.json")); err != nil {
		t.Fatal(err)
	}

	handler := newHTTPServer(cfg)
	req := httptest.NewRequest(http.MethodGet, "/polygons", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestCompareEndpoint(t *testing.T) {
	handler := newHTTPServer(handlerConfig(t))

	t.Run("svg", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/compare/house.svg", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
			t.Errorf("Content-Type = %q", ct)
		}
		if !strings.Contains(rec.Body.String(), "<svg") {
			t.Error("body is not SVG")
		}
	})

	t.Run("png", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/compare/house.png", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("Content-Type = %q", ct)
		}
	})

	t.Run("unknown polygon", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/compare/nope.svg", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/compare/house.gif", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("suspicious name", func(t *testing.T) {
		for _, target := range []string{"/compare/..hidden.svg", "/compare/.svg"} {
			req := httptest.NewRequest(http.MethodGet, target, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: status = %d, want 400", target, rec.Code)
			}
		}
	})

	t.Run("degenerate polygon", func(t *testing.T) {
		cfg := handlerConfig(t)
		bad := `{"verts": [[0,0],[1,0],[2,0]]}`
		if err := os.WriteFile(filepath.Join(cfg.InputDir, "flat.json"), []byte(bad), 0644); err != nil {
			t.Fatal(err)
		}

		req := httptest.NewRequest(http.MethodGet, "/compare/flat.svg", nil)
		rec := httptest.NewRecorder()
		newHTTPServer(cfg).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", rec.Code)
		}
	})
}
