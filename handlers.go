package main

import (
	"encoding/json"
	"log"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kwv/polrefine/poly"
)

// newHTTPServer creates an HTTP handler with all QA endpoints.
func newHTTPServer(cfg *poly.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] /health request from %s", r.RemoteAddr)

		inputs, _ := filepath.Glob(filepath.Join(cfg.InputDir, "*.json"))
		refined, _ := filepath.Glob(filepath.Join(cfg.OutputDir, "*.json"))

		w.Header().Set("Content-Type", "application/json")
		status := struct {
			Status    string    `json:"status"`
			Timestamp time.Time `json:"timestamp"`
			Inputs    int       `json:"inputs"`
			Refined   int       `json:"refined"`
		}{
			Status:    "ok",
			Timestamp: time.Now(),
			Inputs:    len(inputs),
			Refined:   len(refined),
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("Error encoding health status: %v", err)
		}
	})

	// Polygon listing endpoint
	mux.HandleFunc("/polygons", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] /polygons request from %s", r.RemoteAddr)

		files, err := filepath.Glob(filepath.Join(cfg.InputDir, "*.json"))
		if err != nil || len(files) == 0 {
			http.Error(w, "No polygons available", http.StatusServiceUnavailable)
			return
		}
		sort.Strings(files)

		type entry struct {
			Name     string  `json:"name"`
			Vertices int     `json:"vertices"`
			Refined  int     `json:"refined,omitempty"`
			Area     float64 `json:"area"`
			Error    string  `json:"error,omitempty"`
		}

		entries := make([]entry, 0, len(files))
		for _, file := range files {
			base := filepath.Base(file)
			name := strings.TrimSuffix(base, filepath.Ext(base))
			e := entry{Name: name}

			doc, err := poly.LoadPolygon(file)
			if err != nil {
				e.Error = err.Error()
				entries = append(entries, e)
				continue
			}
			e.Vertices = len(doc.Verts)
			e.Area = poly.Area(doc.Verts)

			if refined, err := poly.Refine(doc.Verts, cfg.Tolerances); err != nil {
				e.Error = err.Error()
			} else {
				e.Refined = len(refined)
			}
			entries = append(entries, e)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			log.Printf("Error encoding polygon list: %v", err)
		}
	})

	// Comparison render endpoint: /compare/<name>.png or /compare/<name>.svg
	mux.HandleFunc("/compare/", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] %s request from %s", r.URL.Path, r.RemoteAddr)

		file := strings.TrimPrefix(r.URL.Path, "/compare/")
		ext := filepath.Ext(file)
		name := strings.TrimSuffix(file, ext)
		if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
			http.Error(w, "Bad polygon name", http.StatusBadRequest)
			return
		}

		var renderer poly.ComparisonRenderer
		var contentType string
		switch ext {
		case ".png":
			renderer = poly.NewVectorRenderer(poly.RenderPNG)
			contentType = "image/png"
		case ".svg":
			renderer = poly.NewVectorRenderer(poly.RenderSVG)
			contentType = "image/svg+xml"
		default:
			http.Error(w, "Unsupported render format", http.StatusNotFound)
			return
		}

		doc, err := poly.LoadPolygon(filepath.Join(cfg.InputDir, name+".json"))
		if err != nil {
			http.Error(w, "Polygon not found", http.StatusNotFound)
			return
		}

		// Refine on the fly so renders always reflect the current tolerances.
		refined, err := poly.Refine(doc.Verts, cfg.Tolerances)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "no-cache")
		if err := renderer.RenderComparison(w, doc.Verts, refined); err != nil {
			log.Printf("Error rendering comparison for %s: %v", name, err)
		}
	})

	return mux
}
