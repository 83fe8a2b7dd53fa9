package catalog

import (
	"fmt"
	"time"

	"melodex/logger"

	"github.com/fsnotify/fsnotify"
)

// scanDebounce is how long the watcher waits after the last filesystem
// event before triggering a scan, so a batch copy produces one scan
// instead of one per file.
const scanDebounce = 2 * time.Second

// WatchMusicDir watches the managed music directory and reconciles new
// files into the catalog in the background. Blocks until stop is closed.
func (e *Engine) WatchMusicDir(stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(e.musicDir); err != nil {
		return fmt.Errorf("failed to watch music directory %s: %w", e.musicDir, err)
	}
	logger.Info("Watching music directory", logger.String("dir", e.musicDir))

	debounce := time.NewTimer(scanDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !IsAllowedFormat(event.Name) {
				continue
			}
			debounce.Reset(scanDebounce)

		case <-debounce.C:
			if _, err := e.ScanDirectory(); err != nil {
				logger.Error("Background scan failed", logger.ErrorField(err))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Filesystem watcher error", logger.ErrorField(err))

		case <-stop:
			return nil
		}
	}
}
