package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// Version is set at build time via -ldflags
var Version = "dev"

// AppOptions carries parsed CLI flags into the application.
type AppOptions struct {
	ConfigFile   string
	InputDir     string
	OutputDir    string
	PolDir       string
	RenderDir    string
	RenderFormat string
	Workers      int
	FileTimeout  time.Duration
	HTTPPort     int
	ParseOnly    bool
	WatchMode    bool
	HTTPMode     bool
}

// AppRunner is the mode surface run dispatches to. Tests substitute a mock.
type AppRunner interface {
	ApplyOptions(opts AppOptions)
	RunParseOnly() error
	RunBatch() error
	RunWatch() error
	RunServe() error
}

// run parses args, applies the options, and dispatches to the selected mode.
func run(args []string, out io.Writer, app AppRunner) error {
	fs := flag.NewFlagSet("polrefine", flag.ContinueOnError)
	fs.SetOutput(out)

	var (
		configFile   = fs.String("config", "config.yaml", "Path to configuration file")
		inputDir     = fs.String("input-dir", "", "Directory containing *.json floor plans (overrides config)")
		outputDir    = fs.String("output-dir", "", "Directory for refined JSON output (overrides config)")
		polDir       = fs.String("pol-dir", "", "Directory for .pol output (overrides config)")
		renderDir    = fs.String("render-dir", "", "Directory for comparison renders (overrides config)")
		renderFormat = fs.String("format", "", "Comparison render format: svg, png, both, raster, or none")
		workers      = fs.Int("workers", 0, "Concurrent polygon workers (0 = config value)")
		fileTimeout  = fs.Duration("timeout", 0, "Per-polygon processing timeout (0 = config value)")
		parseOnly    = fs.Bool("parse-only", false, "Parse and summarize inputs without writing output")
		watchMode    = fs.Bool("watch", false, "Watch the input directory and reprocess on change")
		httpMode     = fs.Bool("http", false, "Serve comparison renders over HTTP after the batch run")
		httpPort     = fs.Int("http-port", 0, "HTTP server port (0 = config value, default 8080)")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Fprintf(out, "polrefine version: %s\n", Version)

	app.ApplyOptions(AppOptions{
		ConfigFile:   *configFile,
		InputDir:     *inputDir,
		OutputDir:    *outputDir,
		PolDir:       *polDir,
		RenderDir:    *renderDir,
		RenderFormat: *renderFormat,
		Workers:      *workers,
		FileTimeout:  *fileTimeout,
		HTTPPort:     *httpPort,
		ParseOnly:    *parseOnly,
		WatchMode:    *watchMode,
		HTTPMode:     *httpMode,
	})

	switch {
	case *parseOnly:
		return app.RunParseOnly()
	case *watchMode:
		return app.RunWatch()
	case *httpMode:
		return app.RunServe()
	default:
		return app.RunBatch()
	}
}

func main() {
	app := NewApp()
	defer app.Close()

	if err := run(os.Args[1:], os.Stdout, app); err != nil {
		if err == flag.ErrHelp {
			return
		}
		log.Fatalf("Error: %v", err)
	}
}
