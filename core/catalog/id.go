package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

// Ingestion source discriminators. They are part of the track ID hash
// input, so the same file uploaded and scanned yields distinct IDs.
const (
	SourceUpload = "upload"
	SourceScan   = "scan"
)

// trackIDLength is the number of hex characters kept from the hash.
const trackIDLength = 16

// allowedFormats is the audio extension allow-list, lower-case without
// the leading dot.
var allowedFormats = map[string]bool{
	"mp3":  true,
	"wav":  true,
	"flac": true,
	"m4a":  true,
	"ogg":  true,
	"aac":  true,
}

// NormalizeFormat returns the lower-case extension of filename without the
// leading dot.
func NormalizeFormat(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// IsAllowedFormat reports whether the file's extension is on the allow-list.
// Matching is case-insensitive.
func IsAllowedFormat(filename string) bool {
	return allowedFormats[NormalizeFormat(filename)]
}

// DeriveTrackID computes the deterministic track ID from content-identifying
// fields plus the ingestion source. No wall-clock input goes into the hash:
// re-ingesting the same logical track from the same source always derives
// the same ID, which is what makes duplicate detection work.
func DeriveTrackID(artist, title string, durationSeconds int, source string) string {
	input := fmt.Sprintf("%s|%s|%d|%s",
		strings.ToLower(strings.TrimSpace(artist)),
		strings.ToLower(strings.TrimSpace(title)),
		durationSeconds,
		source,
	)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:trackIDLength]
}
