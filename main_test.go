package main

import (
	"bytes"
	"errors"
	"flag"
	"strings"
	"testing"
	"time"
)

// mockApp records which mode run dispatched to.
type mockApp struct {
	opts     AppOptions
	mode     string
	parseErr error
	batchErr error
	watchErr error
	serveErr error
}

func (m *mockApp) ApplyOptions(opts AppOptions) { m.opts = opts }
func (m *mockApp) RunParseOnly() error          { m.mode = "parse"; return m.parseErr }
func (m *mockApp) RunBatch() error              { m.mode = "batch"; return m.batchErr }
func (m *mockApp) RunWatch() error              { m.mode = "watch"; return m.watchErr }
func (m *mockApp) RunServe() error              { m.mode = "serve"; return m.serveErr }

func TestRunDispatch(t *testing.T) {
	cases := []struct {
		name string
		args []string
		mode string
	}{
		{"default is batch", nil, "batch"},
		{"parse only", []string{"--parse-only"}, "parse"},
		{"watch", []string{"--watch"}, "watch"},
		{"http", []string{"--http"}, "serve"},
		{"parse only wins over watch", []string{"--parse-only", "--watch"}, "parse"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := &mockApp{}
			var out bytes.Buffer
			if err := run(tc.args, &out, app); err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if app.mode != tc.mode {
				t.Errorf("dispatched to %q, want %q", app.mode, tc.mode)
			}
			if !strings.Contains(out.String(), "polrefine version") {
				t.Error("version banner not printed")
			}
		})
	}
}

func TestRunOptions(t *testing.T) {
	app := &mockApp{}
	var out bytes.Buffer

	args := []string{
		"--config", "custom.yaml",
		"--input-dir", "in",
		"--output-dir", "out",
		"--pol-dir", "pol",
		"--render-dir", "renders",
		"--format", "svg",
		"--workers", "4",
		"--timeout", "30s",
		"--http-port", "9090",
	}
	if err := run(args, &out, app); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := AppOptions{
		ConfigFile:   "custom.yaml",
		InputDir:     "in",
		OutputDir:    "out",
		PolDir:       "pol",
		RenderDir:    "renders",
		RenderFormat: "svg",
		Workers:      4,
		FileTimeout:  30 * time.Second,
		HTTPPort:     9090,
	}
	if app.opts != want {
		t.Errorf("options = %+v, want %+v", app.opts, want)
	}
	if app.mode != "batch" {
		t.Errorf("dispatched to %q, want batch", app.mode)
	}
}

func TestRunHelp(t *testing.T) {
	app := &mockApp{}
	var out bytes.Buffer

	err := run([]string{"--help"}, &out, app)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected flag.ErrHelp, got %v", err)
	}
	if app.mode != "" {
		t.Errorf("help must not dispatch, but ran %q", app.mode)
	}
	if !strings.Contains(out.String(), "-input-dir") {
		t.Error("usage output missing flags")
	}
}

func TestRunBadFlag(t *testing.T) {
	app := &mockApp{}
	var out bytes.Buffer

	if err := run([]string{"--no-such-flag"}, &out, app); err == nil {
		t.Fatal("expected error for unknown flag")
	}
	if app.mode != "" {
		t.Errorf("bad flag must not dispatch, but ran %q", app.mode)
	}
}

func TestRunModeError(t *testing.T) {
	app := &mockApp{batchErr: errors.New("boom")}
	var out bytes.Buffer

	err := run(nil, &out, app)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected batch error to propagate, got %v", err)
	}
}
