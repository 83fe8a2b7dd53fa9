package model

import "time"

// Track represents an audio track in the music library.
//
// The ID is content-derived (see core/catalog) and doubles as the audio
// file's base name under the managed music directory. Everything except
// PlayCount and UpdatedAt is immutable after creation.
type Track struct {
	ID        string    `json:"id"`
	Artist    string    `json:"artist"`
	Title     string    `json:"title"`
	Album     string    `json:"album,omitempty"`
	Genre     string    `json:"genre,omitempty"`
	Year      int       `json:"year"`
	Duration  int       `json:"duration"` // Seconds, 0 when unknown
	Bitrate   int       `json:"bitrate"`  // kbps, 0 when unknown
	FilePath  string    `json:"-"`        // Absolute path, not exposed in API responses
	FileSize  int64     `json:"fileSize"`
	Format    string    `json:"format"`             // Normalized extension without the dot
	CoverURL  string    `json:"coverUrl,omitempty"` // Relative URL under /covers/
	PlayCount int64     `json:"playCount"`
	AddedAt   time.Time `json:"addedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
