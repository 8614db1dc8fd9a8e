package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounce is how long Watch waits after the last change before it
// recompiles.
const WatchDebounce = 100 * time.Millisecond

// WatchFunc receives the results of every recompile triggered by Watch.
type WatchFunc func(results []*Result, err error)

// Watch recompiles schema files when they change until ctx is cancelled.
// Directories are watched instead of files so editors that replace the file
// on save keep triggering events.
func (e *Engine) Watch(ctx context.Context, fn WatchFunc) error {
	files, err := e.Schemas()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	tracked := make(map[string]string, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		tracked[abs] = f
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	e.logger.Info("watching schemas", "files", len(files), "dirs", len(dirs))

	var (
		mu            sync.Mutex
		pending       = make(map[string]bool)
		debounceTimer *time.Timer
		wg            sync.WaitGroup
	)
	defer func() {
		mu.Lock()
		if debounceTimer != nil && debounceTimer.Stop() {
			wg.Done()
		}
		mu.Unlock()
		wg.Wait()
	}()

	flush := func() {
		defer wg.Done()
		mu.Lock()
		changed := make([]string, 0, len(pending))
		for f := range pending {
			changed = append(changed, f)
		}
		clear(pending)
		mu.Unlock()

		if len(changed) == 0 || ctx.Err() != nil {
			return
		}
		sort.Strings(changed)
		e.logger.Debug("schemas changed, recompiling", "files", changed)
		results, err := e.compileFiles(ctx, changed)
		fn(results, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			file, ok := tracked[abs]
			if !ok {
				continue
			}

			mu.Lock()
			pending[file] = true
			if debounceTimer != nil && debounceTimer.Stop() {
				wg.Done()
			}
			wg.Add(1)
			debounceTimer = time.AfterFunc(WatchDebounce, flush)
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Error("watcher error", "error", err)
		}
	}
}
