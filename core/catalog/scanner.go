package catalog

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"melodex/logger"
)

// ScanDirectory walks the managed music directory and runs every allowed
// audio file that is not yet referenced by a store row through the
// ingestion pipeline. Returns the number of newly indexed tracks.
//
// Per-file failures are logged and skipped: one corrupt file must not
// block indexing the rest of the library. A missing directory is not an
// error and yields zero.
func (e *Engine) ScanDirectory() (int, error) {
	if _, err := os.Stat(e.musicDir); err != nil {
		if os.IsNotExist(err) {
			logger.Warn("Music directory does not exist, nothing to scan",
				logger.String("dir", e.musicDir))
			return 0, nil
		}
		return 0, err
	}

	indexed := 0
	walkErr := filepath.WalkDir(e.musicDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Skipping unreadable path during scan",
				logger.String("path", path),
				logger.ErrorField(err))
			return nil
		}
		if d.IsDir() {
			return nil
		}
		// Ignore in-flight upload placements.
		if strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		if !IsAllowedFormat(d.Name()) {
			return nil
		}

		absPath, err := filepath.Abs(path)
		if err != nil {
			logger.Warn("Failed to resolve path during scan",
				logger.String("path", path),
				logger.ErrorField(err))
			return nil
		}

		known, err := e.repo.TrackExistsByPath(absPath)
		if err != nil {
			logger.Error("Failed to check store for path during scan",
				logger.String("path", absPath),
				logger.ErrorField(err))
			return nil
		}
		if known {
			return nil
		}

		if _, err := e.ingestResident(absPath); err != nil {
			if errors.Is(err, ErrDuplicateTrack) {
				logger.Debug("Scan skipped duplicate track",
					logger.String("path", absPath),
					logger.ErrorField(err))
			} else {
				logger.Warn("Failed to index file during scan",
					logger.String("path", absPath),
					logger.ErrorField(err))
			}
			return nil
		}
		indexed++
		return nil
	})
	if walkErr != nil {
		return indexed, walkErr
	}

	logger.Info("Directory scan completed",
		logger.String("dir", e.musicDir),
		logger.Int("indexed", indexed))
	return indexed, nil
}
