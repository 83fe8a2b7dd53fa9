package repository

import (
	"database/sql"
	"fmt"
	"time"

	"melodex/db"
	"melodex/model"
)

// MaxPageSize bounds the number of rows a single list query may return.
// "All tracks" operations (cache warm-up, export) page with this size
// instead of issuing an unbounded SELECT.
const MaxPageSize = 10000

// TrackRepository defines the interface for track data operations.
type TrackRepository interface {
	CreateTrack(track *model.Track) error
	GetTrackByID(id string) (*model.Track, error)
	ListTracks(limit, offset int) ([]*model.Track, error)
	CountTracks() (int64, error)
	TrackExists(id string) (bool, error)
	TrackExistsByPath(filePath string) (bool, error)
	DeleteTrack(id string) (bool, error)
	IncrementPlayCount(id string) (bool, error)
}

// sqliteTrackRepository implements TrackRepository for SQLite.
type sqliteTrackRepository struct {
	db *sql.DB
}

// NewSQLiteTrackRepository creates a new sqliteTrackRepository backed by the
// shared connection.
func NewSQLiteTrackRepository() TrackRepository {
	return &sqliteTrackRepository{db: db.DB}
}

// NewSQLiteTrackRepositoryWithDB creates a repository over an explicit
// connection. Used by tests.
func NewSQLiteTrackRepositoryWithDB(conn *sql.DB) TrackRepository {
	return &sqliteTrackRepository{db: conn}
}

const trackColumns = `id, artist, title, album, genre, year, duration, bitrate, file_path, file_size, format, cover_url, play_count, added_at, updated_at`

// CreateTrack adds a new track to the database.
func (r *sqliteTrackRepository) CreateTrack(track *model.Track) error {
	query := `INSERT INTO tracks (` + trackColumns + `)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for CreateTrack: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	if track.AddedAt.IsZero() {
		track.AddedAt = now
	}
	track.UpdatedAt = now

	_, err = stmt.Exec(track.ID, track.Artist, track.Title, track.Album, track.Genre,
		track.Year, track.Duration, track.Bitrate, track.FilePath, track.FileSize,
		track.Format, track.CoverURL, track.PlayCount, track.AddedAt, track.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute CreateTrack for %s: %w", track.ID, err)
	}
	return nil
}

// GetTrackByID retrieves a track by its ID. Returns (nil, nil) when the
// track does not exist.
func (r *sqliteTrackRepository) GetTrackByID(id string) (*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`
	row := r.db.QueryRow(query, id)

	track, err := scanTrack(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Track not found
		}
		return nil, fmt.Errorf("failed to scan track by ID %s: %w", id, err)
	}
	return track, nil
}

// ListTracks retrieves a page of tracks ordered by added_at descending.
// The limit is clamped to MaxPageSize.
func (r *sqliteTrackRepository) ListTracks(limit, offset int) ([]*model.Track, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + trackColumns + ` FROM tracks ORDER BY added_at DESC, id LIMIT ? OFFSET ?`
	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := make([]*model.Track, 0)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track in ListTracks: %w", err)
		}
		tracks = append(tracks, track)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in ListTracks: %w", err)
	}

	return tracks, nil
}

// CountTracks returns the total number of tracks.
func (r *sqliteTrackRepository) CountTracks() (int64, error) {
	var count int64
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM tracks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}

// TrackExists reports whether a track with the given ID exists.
func (r *sqliteTrackRepository) TrackExists(id string) (bool, error) {
	var one int
	err := r.db.QueryRow(`SELECT 1 FROM tracks WHERE id = ?`, id).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to check track existence for %s: %w", id, err)
	}
	return true, nil
}

// TrackExistsByPath reports whether any track references the given file path.
func (r *sqliteTrackRepository) TrackExistsByPath(filePath string) (bool, error) {
	var one int
	err := r.db.QueryRow(`SELECT 1 FROM tracks WHERE file_path = ?`, filePath).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to check track existence for path %s: %w", filePath, err)
	}
	return true, nil
}

// DeleteTrack removes a track row. Returns false when no row matched.
func (r *sqliteTrackRepository) DeleteTrack(id string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to execute DeleteTrack for %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows for DeleteTrack: %w", err)
	}
	return affected > 0, nil
}

// IncrementPlayCount atomically bumps the play counter. Returns false when
// the track does not exist. The single UPDATE guarantees no increment is
// lost under concurrent requests.
func (r *sqliteTrackRepository) IncrementPlayCount(id string) (bool, error) {
	res, err := r.db.Exec(`UPDATE tracks SET play_count = play_count + 1, updated_at = ? WHERE id = ?`, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to execute IncrementPlayCount for %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows for IncrementPlayCount: %w", err)
	}
	return affected > 0, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanTrack.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTrack(s scanner) (*model.Track, error) {
	track := &model.Track{}
	err := s.Scan(&track.ID, &track.Artist, &track.Title, &track.Album, &track.Genre,
		&track.Year, &track.Duration, &track.Bitrate, &track.FilePath, &track.FileSize,
		&track.Format, &track.CoverURL, &track.PlayCount, &track.AddedAt, &track.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return track, nil
}
