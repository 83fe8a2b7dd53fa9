package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"melodex/logger"
	"melodex/model"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
)

// UploadParams carries a freshly uploaded audio file plus optional
// caller-supplied metadata. Non-blank Artist/Title/Album override whatever
// is extracted from the file's tags.
type UploadParams struct {
	Filename string
	Data     []byte
	Artist   string
	Title    string
	Album    string
	Cover    []byte
}

// trackMeta is the metadata assembled for a candidate file before commit.
type trackMeta struct {
	Artist   string
	Title    string
	Album    string
	Genre    string
	Year     int
	Duration int
	Bitrate  int
	Cover    []byte // Embedded cover image, if any
}

// Upload runs the full ingestion pipeline for uploaded bytes: validate,
// place under a temp name, extract metadata, dedup-check, rename to the
// final path, write the cover, and commit to store and cache.
func (e *Engine) Upload(params UploadParams) (*model.Track, error) {
	if !IsAllowedFormat(params.Filename) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(params.Filename))
	}
	if int64(len(params.Data)) > e.maxUploadBytes {
		return nil, &FileTooLargeError{Size: int64(len(params.Data)), Max: e.maxUploadBytes}
	}

	format := NormalizeFormat(params.Filename)

	// Write to a temp path first. Nothing is indexed until the file is
	// complete and renamed, so a crash here leaves only an orphaned temp
	// file, never a half-registered track.
	tempPath := filepath.Join(e.musicDir, ".tmp-"+uuid.NewString()+"."+format)
	if err := os.WriteFile(tempPath, params.Data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}

	meta := extractMetadata(tempPath, params.Filename)
	applyOverrides(&meta, params.Artist, params.Title, params.Album)

	trackID := DeriveTrackID(meta.Artist, meta.Title, meta.Duration, SourceUpload)

	exists, err := e.repo.TrackExists(trackID)
	if err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to check for duplicate track: %w", err)
	}
	if exists {
		os.Remove(tempPath)
		return nil, fmt.Errorf("%w: %s - %s (%s)", ErrDuplicateTrack, meta.Artist, meta.Title, trackID)
	}

	finalPath := filepath.Join(e.musicDir, trackID+"."+format)
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to move track into place: %w", err)
	}

	cover := params.Cover
	if len(cover) == 0 {
		cover = meta.Cover
	}

	track, err := e.commitTrack(trackID, finalPath, format, meta, cover)
	if err != nil {
		// Placement already happened; clean up so storage is not orphaned.
		os.Remove(finalPath)
		os.Remove(e.coverPath(trackID))
		return nil, err
	}
	return track, nil
}

// ingestResident commits an already-resident file discovered by the
// directory scanner. The temp-write/rename step is skipped because the file
// is in place, and the file is never deleted on failure: it belongs to the
// library directory whether or not indexing succeeds.
func (e *Engine) ingestResident(path string) (*model.Track, error) {
	meta := extractMetadata(path, filepath.Base(path))

	trackID := DeriveTrackID(meta.Artist, meta.Title, meta.Duration, SourceScan)

	exists, err := e.repo.TrackExists(trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate track: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s - %s (%s)", ErrDuplicateTrack, meta.Artist, meta.Title, trackID)
	}

	track, err := e.commitTrack(trackID, path, NormalizeFormat(path), meta, meta.Cover)
	if err != nil {
		os.Remove(e.coverPath(trackID))
		return nil, err
	}
	return track, nil
}

// commitTrack writes the cover (if any), builds the Track and commits it to
// the store, then fills the cache. Store first, cache second: the cache is
// a pure mirror and must never hold a track the store does not.
func (e *Engine) commitTrack(trackID, filePath, format string, meta trackMeta, cover []byte) (*model.Track, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve track path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat placed track file: %w", err)
	}

	coverURL := ""
	if len(cover) > 0 {
		if err := e.writeCover(trackID, cover); err != nil {
			// A missing cover should not fail ingestion.
			logger.Warn("Failed to write cover art",
				logger.String("trackId", trackID),
				logger.ErrorField(err))
		} else {
			coverURL = "/covers/" + trackID + ".jpg"
		}
	}

	track := &model.Track{
		ID:        trackID,
		Artist:    meta.Artist,
		Title:     meta.Title,
		Album:     meta.Album,
		Genre:     meta.Genre,
		Year:      meta.Year,
		Duration:  meta.Duration,
		Bitrate:   meta.Bitrate,
		FilePath:  absPath,
		FileSize:  info.Size(),
		Format:    format,
		CoverURL:  coverURL,
		PlayCount: 0,
	}

	if err := e.repo.CreateTrack(track); err != nil {
		return nil, fmt.Errorf("failed to commit track %s: %w", trackID, err)
	}
	e.cache.Put(track)

	logger.Info("Track ingested",
		logger.String("trackId", trackID),
		logger.String("artist", track.Artist),
		logger.String("title", track.Title),
		logger.Int64("fileSize", track.FileSize))
	return track, nil
}

// writeCover places the cover image at <coverDir>/<trackID>.jpg using the
// same temp-write/rename pattern as audio placement, so a concurrent reader
// never sees a partially written image.
func (e *Engine) writeCover(trackID string, data []byte) error {
	tempPath := filepath.Join(e.coverDir, ".tmp-"+uuid.NewString()+".jpg")
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp cover file: %w", err)
	}
	if err := os.Rename(tempPath, e.coverPath(trackID)); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to move cover into place: %w", err)
	}
	return nil
}

func (e *Engine) coverPath(trackID string) string {
	return filepath.Join(e.coverDir, trackID+".jpg")
}

// extractMetadata reads embedded tags from the file at path. Extraction
// failure is non-fatal: the fallback derives artist and title from the
// original filename instead.
func extractMetadata(path, originalName string) trackMeta {
	meta := filenameFallback(originalName)

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("Failed to open file for metadata extraction",
			logger.String("path", path),
			logger.ErrorField(err))
		return meta
	}
	defer f.Close()

	tags, err := tag.ReadFrom(f)
	if err != nil {
		logger.Debug("No readable tags, using filename-derived metadata",
			logger.String("path", path),
			logger.ErrorField(err))
		return meta
	}

	if v := strings.TrimSpace(tags.Artist()); v != "" {
		meta.Artist = v
	}
	if v := strings.TrimSpace(tags.Title()); v != "" {
		meta.Title = v
	}
	if v := strings.TrimSpace(tags.Album()); v != "" {
		meta.Album = v
	}
	if v := strings.TrimSpace(tags.Genre()); v != "" {
		meta.Genre = v
	}
	if y := tags.Year(); y > 0 {
		meta.Year = y
	}
	if pic := tags.Picture(); pic != nil && len(pic.Data) > 0 {
		meta.Cover = pic.Data
	}

	return meta
}

// filenameFallback derives placeholder metadata from a filename, splitting
// "Artist - Title.ext" on the first separator when present.
func filenameFallback(filename string) trackMeta {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	meta := trackMeta{
		Artist: "Unknown Artist",
		Title:  base,
	}
	if parts := strings.SplitN(base, " - ", 2); len(parts) == 2 {
		if artist := strings.TrimSpace(parts[0]); artist != "" {
			meta.Artist = artist
		}
		if title := strings.TrimSpace(parts[1]); title != "" {
			meta.Title = title
		}
	}
	if strings.TrimSpace(meta.Title) == "" {
		meta.Title = "Untitled Track"
	}
	return meta
}

// applyOverrides replaces extracted fields with caller-supplied values
// when those are non-blank.
func applyOverrides(meta *trackMeta, artist, title, album string) {
	if v := strings.TrimSpace(artist); v != "" {
		meta.Artist = v
	}
	if v := strings.TrimSpace(title); v != "" {
		meta.Title = v
	}
	if v := strings.TrimSpace(album); v != "" {
		meta.Album = v
	}
}
