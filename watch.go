package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"templecode/logging"
)

// defaultWatchDebounce groups the burst of events an editor save produces
const defaultWatchDebounce = 100 * time.Millisecond

// programWatcher re-runs a program whenever its file changes on disk
type programWatcher struct {
	watcher  *fsnotify.Watcher
	target   string
	debounce time.Duration
	logger   logging.Logger
}

// newProgramWatcher watches the directory holding path, so editors that
// replace the file instead of writing it in place are still noticed
func newProgramWatcher(path string, debounce time.Duration, logger logging.Logger) (*programWatcher, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("cannot start file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("cannot watch %s: %w", path, err)
	}
	return &programWatcher{
		watcher:  watcher,
		target:   target,
		debounce: debounce,
		logger:   logger.WithComponent("watch"),
	}, nil
}

// Loop calls run after each settled change until ctx is done
func (w *programWatcher) Loop(ctx context.Context, run func()) error {
	defer w.watcher.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !isProgramChange(event, w.target) {
				continue
			}
			w.logger.Debug("change detected", logging.StringField("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			run()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// isProgramChange reports whether event rewrote the watched file
func isProgramChange(event fsnotify.Event, target string) bool {
	if filepath.Clean(event.Name) != target {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create) != 0
}
