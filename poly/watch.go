package poly

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchSettle is how long a file must be quiet before it is reprocessed.
// Editors and copies emit several write events per save.
const watchSettle = 250 * time.Millisecond

// Watch re-runs the single-file pipeline whenever a JSON input is created or
// written, until the context is canceled. It exists for the tolerance-tuning
// loop: edit a plan or the config, watch the refreshed render.
func (p *Processor) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(p.Config.InputDir); err != nil {
		return fmt.Errorf("watching %s: %w", p.Config.InputDir, err)
	}
	if err := p.ensureOutputDirs(); err != nil {
		return err
	}

	p.Log.Info("watching for changes", zap.String("dir", p.Config.InputDir))

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".json") {
				continue
			}
			pending[ev.Name] = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.Log.Warn("watcher error", zap.Error(err))

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < watchSettle {
					continue
				}
				delete(pending, path)
				p.ProcessFile(ctx, path)
			}
		}
	}
}
