package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kwv/polrefine/poly"
)

// App encapsulates the application state and dependencies.
type App struct {
	Config *poly.Config
	Log    *zap.Logger
	Opts   AppOptions
}

// NewApp creates a new App instance.
func NewApp() *App {
	return &App{
		Log: zap.Must(zap.NewDevelopment()),
	}
}

// Close flushes buffered log output.
func (a *App) Close() {
	_ = a.Log.Sync()
}

// ApplyOptions records CLI options; loadConfig resolves them against the
// config file.
func (a *App) ApplyOptions(opts AppOptions) {
	a.Opts = opts
}

// loadConfig loads the config file if it exists (falling back to defaults so
// flag-only invocations work), then applies flag overrides and re-validates.
func (a *App) loadConfig() error {
	if _, err := os.Stat(a.Opts.ConfigFile); err == nil {
		cfg, err := poly.LoadConfig(a.Opts.ConfigFile)
		if err != nil {
			return err
		}
		a.Config = cfg
	} else {
		a.Config = poly.DefaultConfig()
	}

	if a.Opts.InputDir != "" {
		a.Config.InputDir = a.Opts.InputDir
	}
	if a.Opts.OutputDir != "" {
		a.Config.OutputDir = a.Opts.OutputDir
	}
	if a.Opts.PolDir != "" {
		a.Config.PolDir = a.Opts.PolDir
	}
	if a.Opts.RenderDir != "" {
		a.Config.RenderDir = a.Opts.RenderDir
	}
	if a.Opts.RenderFormat != "" {
		a.Config.RenderFormat = a.Opts.RenderFormat
	}
	if a.Opts.Workers > 0 {
		a.Config.Workers = a.Opts.Workers
	}
	if a.Opts.FileTimeout > 0 {
		a.Config.FileTimeout = poly.Duration(a.Opts.FileTimeout)
	}
	if a.Opts.HTTPPort > 0 {
		a.Config.HTTPPort = a.Opts.HTTPPort
	}

	return a.Config.Validate()
}

// newProcessor builds the batch processor with renderers per the config.
func (a *App) newProcessor() *poly.Processor {
	p := poly.NewProcessor(a.Config, a.Log)
	p.Renderers = buildRenderers(a.Config)
	return p
}

// buildRenderers maps the configured render format to concrete renderers
// keyed by output file extension.
func buildRenderers(cfg *poly.Config) map[string]poly.ComparisonRenderer {
	if cfg.RenderDir == "" {
		return nil
	}

	switch cfg.RenderFormat {
	case poly.RenderSVG:
		return map[string]poly.ComparisonRenderer{
			"svg": poly.NewVectorRenderer(poly.RenderSVG),
		}
	case poly.RenderPNG:
		return map[string]poly.ComparisonRenderer{
			"png": poly.NewVectorRenderer(poly.RenderPNG),
		}
	case poly.RenderBoth:
		return map[string]poly.ComparisonRenderer{
			"svg": poly.NewVectorRenderer(poly.RenderSVG),
			"png": poly.NewVectorRenderer(poly.RenderPNG),
		}
	case poly.RenderRaster:
		return map[string]poly.ComparisonRenderer{
			"png": poly.NewRasterRenderer(),
		}
	default:
		return nil
	}
}

// signalContext returns a context canceled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// RunParseOnly parses every input and prints a summary without writing any
// output. Refinement runs as a dry run so tolerance problems show up here.
func (a *App) RunParseOnly() error {
	if err := a.loadConfig(); err != nil {
		return err
	}

	files, err := filepath.Glob(filepath.Join(a.Config.InputDir, "*.json"))
	if err != nil {
		return fmt.Errorf("finding JSON files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no *.json files found in %s", a.Config.InputDir)
	}
	sort.Strings(files)

	fmt.Printf("Found %d floor plan(s)\n\n", len(files))
	for _, file := range files {
		a.parseAndPrint(file)
	}
	return nil
}

func (a *App) parseAndPrint(path string) {
	base := filepath.Base(path)
	fmt.Printf("=== %s ===\n", base)

	doc, err := poly.LoadPolygon(path)
	if err != nil {
		fmt.Printf("ERROR: %v\n\n", err)
		return
	}

	bound := doc.Verts.Bound()
	fmt.Printf("Vertices: %d\n", len(doc.Verts))
	fmt.Printf("Bounds: (%.2f, %.2f) - (%.2f, %.2f)\n",
		bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1])
	fmt.Printf("Area: %.2f\n", poly.Area(doc.Verts))

	refined, err := poly.Refine(doc.Verts, a.Config.Tolerances)
	if err != nil {
		fmt.Printf("Refine: ERROR: %v\n", err)
	} else {
		fmt.Printf("Refine: %d -> %d vertices (area %.2f)\n",
			len(doc.Verts), len(refined), poly.Area(refined))
	}
	fmt.Println()
}

// RunBatch refines and exports every input, then prints the summary report.
func (a *App) RunBatch() error {
	if err := a.loadConfig(); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	summary, err := a.newProcessor().Run(ctx)
	if err != nil {
		return err
	}

	fmt.Print(summary.Report())
	if summary.OK() == 0 {
		return fmt.Errorf("all %d polygons failed", len(summary.Results))
	}
	return nil
}

// RunWatch runs an initial batch, then reprocesses inputs as they change.
func (a *App) RunWatch() error {
	if err := a.loadConfig(); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	p := a.newProcessor()
	if summary, err := p.Run(ctx); err != nil {
		// An empty input dir is fine in watch mode; files may arrive later.
		a.Log.Warn("initial batch incomplete", zap.Error(err))
	} else {
		fmt.Print(summary.Report())
	}

	return p.Watch(ctx)
}

// RunServe runs the batch, then serves comparison renders over HTTP until
// interrupted.
func (a *App) RunServe() error {
	if err := a.loadConfig(); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	if summary, err := a.newProcessor().Run(ctx); err != nil {
		a.Log.Warn("batch incomplete", zap.Error(err))
	} else {
		fmt.Print(summary.Report())
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.Config.HTTPPort),
		Handler: newHTTPServer(a.Config),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("HTTP server listening on :%d\n", a.Config.HTTPPort)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
