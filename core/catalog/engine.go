// Package catalog implements the track catalog engine: an in-memory cache
// of tracks kept consistent with the durable store, plus the ingestion
// pipeline and directory reconciler that feed it.
//
// Consistency rules: every write goes to the store first and is mirrored
// into the cache afterwards; every cache miss on read is filled from the
// store. The cache therefore never holds state the store does not, and a
// restart rebuilds it completely via Initialize.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"melodex/cache"
	"melodex/config"
	"melodex/logger"
	"melodex/model"
	"melodex/repository"
)

// Engine is the catalog façade. All methods are safe for concurrent use
// from arbitrarily many request goroutines.
type Engine struct {
	repo  repository.TrackRepository
	cache *cache.TrackCache

	musicDir       string
	coverDir       string
	maxUploadBytes int64
}

// NewEngine constructs an engine over the given repository and cache.
func NewEngine(repo repository.TrackRepository, trackCache *cache.TrackCache, cfg *config.Config) *Engine {
	return &Engine{
		repo:           repo,
		cache:          trackCache,
		musicDir:       cfg.MusicDir,
		coverDir:       cfg.CoverDir,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
}

// Initialize creates the managed directories and warms the cache with the
// full store contents, paging with the repository's bounded page size.
func (e *Engine) Initialize() error {
	for _, dir := range []string{e.musicDir, e.coverDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	loaded := 0
	for offset := 0; ; offset += repository.MaxPageSize {
		page, err := e.repo.ListTracks(repository.MaxPageSize, offset)
		if err != nil {
			return fmt.Errorf("failed to load tracks into cache: %w", err)
		}
		for _, track := range page {
			e.cache.Put(track)
		}
		loaded += len(page)
		if len(page) < repository.MaxPageSize {
			break
		}
	}

	logger.Info("Catalog initialized", logger.Int("tracks", loaded))
	return nil
}

// GetTrack returns the track with the given ID, or (nil, nil) when it does
// not exist. Cache hits return immediately; misses are filled from the
// store (read-through).
func (e *Engine) GetTrack(id string) (*model.Track, error) {
	if track, ok := e.cache.Get(id); ok {
		return track, nil
	}

	track, err := e.repo.GetTrackByID(id)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, nil
	}

	e.cache.Put(track)
	return track, nil
}

// ListTracks returns a store-backed page ordered by added_at descending,
// plus the total count. The store is authoritative here: counting the cache
// could drift while concurrent ingestion is running.
func (e *Engine) ListTracks(limit, offset int) ([]*model.Track, int64, error) {
	tracks, err := e.repo.ListTracks(limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := e.repo.CountTracks()
	if err != nil {
		return nil, 0, err
	}
	return tracks, total, nil
}

// Search filters the cache snapshot by case-insensitive substring match
// against artist, title and album, then paginates. A blank query behaves
// like ListTracks. This relies on the cache being fully warmed at
// Initialize and kept complete by the write-through rules.
func (e *Engine) Search(query string, limit, offset int) ([]*model.Track, int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return e.ListTracks(limit, offset)
	}
	if limit <= 0 || limit > repository.MaxPageSize {
		limit = repository.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	needle := strings.ToLower(query)
	matched := make([]*model.Track, 0)
	for _, track := range e.cache.All() {
		if strings.Contains(strings.ToLower(track.Artist), needle) ||
			strings.Contains(strings.ToLower(track.Title), needle) ||
			strings.Contains(strings.ToLower(track.Album), needle) {
			matched = append(matched, track)
		}
	}

	// Same ordering as ListTracks so pagination over search results is
	// stable.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].AddedAt.Equal(matched[j].AddedAt) {
			return matched[i].AddedAt.After(matched[j].AddedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return []*model.Track{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// DeleteTrack removes the track everywhere: store row, cache entry, audio
// file and cover file. The store and cache are cleared first so no read
// path can re-expose the track; file removal after that is best-effort and
// reported as a warning rather than a failure.
func (e *Engine) DeleteTrack(id string) (string, error) {
	track, err := e.GetTrack(id)
	if err != nil {
		return "", err
	}
	if track == nil {
		return "", ErrTrackNotFound
	}

	deleted, err := e.repo.DeleteTrack(id)
	if err != nil {
		return "", fmt.Errorf("failed to delete track %s: %w", id, err)
	}
	if !deleted {
		// Lost a race with a concurrent delete.
		e.cache.Remove(id)
		return "", ErrTrackNotFound
	}
	e.cache.Remove(id)

	var failures []string
	if err := os.Remove(track.FilePath); err != nil && !os.IsNotExist(err) {
		failures = append(failures, fmt.Sprintf("audio file: %v", err))
	}
	if track.CoverURL != "" {
		if err := os.Remove(e.coverPath(id)); err != nil && !os.IsNotExist(err) {
			failures = append(failures, fmt.Sprintf("cover file: %v", err))
		}
	}

	if len(failures) > 0 {
		warning := "track deleted from catalog, but file cleanup failed: " + strings.Join(failures, "; ")
		logger.Warn("Partial failure during track deletion",
			logger.String("trackId", id),
			logger.String("detail", warning))
		return warning, nil
	}

	logger.Info("Track deleted", logger.String("trackId", id))
	return "", nil
}

// IncrementPlayCount bumps the play counter in the store, then refreshes
// the cached copy from the store row. A concurrent reader may briefly
// observe the pre-increment count in the cache; play counts are advisory,
// so that staleness window is accepted.
func (e *Engine) IncrementPlayCount(id string) error {
	ok, err := e.repo.IncrementPlayCount(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTrackNotFound
	}

	track, err := e.repo.GetTrackByID(id)
	if err != nil {
		return fmt.Errorf("failed to refresh cache after play count increment: %w", err)
	}
	if track != nil {
		e.cache.Put(track)
	}
	return nil
}

// MusicDir returns the managed audio directory.
func (e *Engine) MusicDir() string {
	return e.musicDir
}
