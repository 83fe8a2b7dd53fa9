package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned when a file's extension is not on
	// the audio format allow-list.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrDuplicateTrack is returned when ingestion derives a track ID that
	// already exists in the store.
	ErrDuplicateTrack = errors.New("track already exists")

	// ErrTrackNotFound is returned by mutations targeting a missing track.
	// Plain reads report absence as a nil result instead.
	ErrTrackNotFound = errors.New("track not found")
)

// FileTooLargeError is returned when an upload exceeds the configured size
// limit. It carries both the observed and the allowed size.
type FileTooLargeError struct {
	Size int64
	Max  int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file too large: %d bytes exceeds limit of %d bytes", e.Size, e.Max)
}
