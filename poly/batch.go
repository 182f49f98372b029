package poly

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result records the outcome of processing one input file.
type Result struct {
	Path     string
	Err      error
	VertsIn  int
	VertsOut int
	Duration time.Duration
}

// Summary aggregates the results of a batch run.
type Summary struct {
	Results []Result
}

// OK returns the number of successfully processed polygons.
func (s *Summary) OK() int {
	return len(s.Results) - len(s.Failed())
}

// Failed returns the results that ended in an error.
func (s *Summary) Failed() []Result {
	var failed []Result
	for _, r := range s.Results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// Report renders an operator-readable summary listing every failed input and
// the reason it failed.
func (s *Summary) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "refined %d/%d polygons\n", s.OK(), len(s.Results))
	for _, r := range s.Failed() {
		fmt.Fprintf(&b, "FAILED %s: %v\n", filepath.Base(r.Path), r.Err)
	}
	return b.String()
}

// Processor runs the refine/export pipeline over a directory of floor-plan
// JSON files. Each polygon is processed independently; one failure never
// stops the batch.
type Processor struct {
	Config *Config

	// Renderers maps a file extension (without dot) to the comparison
	// renderer that produces it. Nil or empty disables rendering.
	Renderers map[string]ComparisonRenderer

	Log *zap.Logger
}

// NewProcessor creates a processor for the given configuration.
func NewProcessor(cfg *Config, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{Config: cfg, Log: log}
}

// Run processes every *.json file in the input directory and returns the
// per-file results. Files are processed concurrently up to Config.Workers;
// they are independent, so no ordering between polygons is needed, but the
// result slice follows the sorted file order for a deterministic report.
func (p *Processor) Run(ctx context.Context) (*Summary, error) {
	files, err := filepath.Glob(filepath.Join(p.Config.InputDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scanning input dir: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no *.json inputs found in %s", p.Config.InputDir)
	}
	sort.Strings(files)

	if err := p.ensureOutputDirs(); err != nil {
		return nil, err
	}

	results := make([]Result, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Config.Workers)
	for i, file := range files {
		g.Go(func() error {
			results[i] = p.ProcessFile(ctx, file)
			return nil
		})
	}
	// Workers never return errors; per-file failures live in the results.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Summary{Results: results}, nil
}

// ProcessFile runs the single-file pipeline under the per-file timeout. The
// transform is a bounded pure computation, but pathological inputs (huge
// vertex counts) are cut off rather than allowed to stall the batch.
func (p *Processor) ProcessFile(ctx context.Context, path string) Result {
	start := time.Now()

	if p.Config.FileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(p.Config.FileTimeout))
		defer cancel()
	}

	done := make(chan Result, 1)
	go func() {
		done <- p.processFile(path)
	}()

	select {
	case res := <-done:
		res.Duration = time.Since(start)
		p.logResult(res)
		return res
	case <-ctx.Done():
		res := Result{
			Path:     path,
			Err:      fmt.Errorf("processing aborted: %w", ctx.Err()),
			Duration: time.Since(start),
		}
		p.logResult(res)
		return res
	}
}

// processFile loads, refines, exports, and optionally renders one polygon.
func (p *Processor) processFile(path string) Result {
	res := Result{Path: path}

	doc, err := LoadPolygon(path)
	if err != nil {
		res.Err = fmt.Errorf("load: %w", err)
		return res
	}
	res.VertsIn = len(doc.Verts)

	refined, err := Refine(doc.Verts, p.Config.Tolerances)
	if err != nil {
		res.Err = fmt.Errorf("refine: %w", err)
		return res
	}
	res.VertsOut = len(refined)

	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	if err := SaveJSON(filepath.Join(p.Config.OutputDir, base), doc.WithVerts(refined)); err != nil {
		res.Err = fmt.Errorf("save JSON: %w", err)
		return res
	}

	polText, err := ExportPol(refined)
	if err != nil {
		res.Err = fmt.Errorf("export: %w", err)
		return res
	}
	if err := SavePol(filepath.Join(p.Config.PolDir, name+".pol"), polText); err != nil {
		res.Err = fmt.Errorf("save .pol: %w", err)
		return res
	}

	if err := p.renderComparisons(name, doc.Verts, refined); err != nil {
		res.Err = fmt.Errorf("render: %w", err)
		return res
	}

	return res
}

// renderComparisons writes one comparison file per configured renderer. The
// processor owns the file handles; renderers only see writers.
func (p *Processor) renderComparisons(name string, original, refined orb.Ring) error {
	if len(p.Renderers) == 0 || p.Config.RenderDir == "" {
		return nil
	}

	for ext, renderer := range p.Renderers {
		path := filepath.Join(p.Config.RenderDir, name+"."+ext)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		err = renderer.RenderComparison(f, original, refined)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("rendering %s: %w", path, err)
		}
	}
	return nil
}

// ensureOutputDirs creates the output directories if needed.
func (p *Processor) ensureOutputDirs() error {
	dirs := []string{p.Config.OutputDir, p.Config.PolDir}
	if p.Config.RenderDir != "" && len(p.Renderers) > 0 {
		dirs = append(dirs, p.Config.RenderDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir %s: %w", dir, err)
		}
	}
	return nil
}

func (p *Processor) logResult(res Result) {
	if res.Err != nil {
		p.Log.Warn("skipping polygon",
			zap.String("file", filepath.Base(res.Path)),
			zap.Error(res.Err),
			zap.Duration("duration", res.Duration))
		return
	}
	p.Log.Info("refined polygon",
		zap.String("file", filepath.Base(res.Path)),
		zap.Int("vertsIn", res.VertsIn),
		zap.Int("vertsOut", res.VertsOut),
		zap.Duration("duration", res.Duration))
}
