package catalog

import "testing"

func TestDeriveTrackIDDeterministic(t *testing.T) {
	a := DeriveTrackID("Daft Punk", "One More Time", 320, SourceUpload)
	b := DeriveTrackID("Daft Punk", "One More Time", 320, SourceUpload)
	if a != b {
		t.Errorf("same inputs derived different IDs: %q vs %q", a, b)
	}
	if len(a) != trackIDLength {
		t.Errorf("ID length = %d, want %d", len(a), trackIDLength)
	}
}

func TestDeriveTrackIDCaseAndSpaceInsensitive(t *testing.T) {
	a := DeriveTrackID("Daft Punk", "One More Time", 320, SourceUpload)
	b := DeriveTrackID("  daft punk ", "ONE MORE TIME", 320, SourceUpload)
	if a != b {
		t.Errorf("normalization failed: %q vs %q", a, b)
	}
}

func TestDeriveTrackIDDistinguishes(t *testing.T) {
	base := DeriveTrackID("Daft Punk", "One More Time", 320, SourceUpload)

	tests := []struct {
		name string
		id   string
	}{
		{"different artist", DeriveTrackID("Queen", "One More Time", 320, SourceUpload)},
		{"different title", DeriveTrackID("Daft Punk", "Aerodynamic", 320, SourceUpload)},
		{"different duration", DeriveTrackID("Daft Punk", "One More Time", 321, SourceUpload)},
		{"different source", DeriveTrackID("Daft Punk", "One More Time", 320, SourceScan)},
	}
	for _, tt := range tests {
		if tt.id == base {
			t.Errorf("%s derived the same ID %q", tt.name, tt.id)
		}
	}
}

func TestIsAllowedFormat(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"song.mp3", true},
		{"song.MP3", true},
		{"song.FlAc", true},
		{"song.wav", true},
		{"song.m4a", true},
		{"song.ogg", true},
		{"song.aac", true},
		{"track.exe", false},
		{"song.mp3.txt", false},
		{"noext", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsAllowedFormat(tt.filename); got != tt.want {
			t.Errorf("IsAllowedFormat(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestNormalizeFormat(t *testing.T) {
	if got := NormalizeFormat("Song.FLAC"); got != "flac" {
		t.Errorf("NormalizeFormat = %q, want %q", got, "flac")
	}
	if got := NormalizeFormat("noext"); got != "" {
		t.Errorf("NormalizeFormat = %q, want empty", got)
	}
}

func TestFilenameFallback(t *testing.T) {
	tests := []struct {
		filename   string
		wantArtist string
		wantTitle  string
	}{
		{"Daft Punk - One More Time.mp3", "Daft Punk", "One More Time"},
		{"lonesome.mp3", "Unknown Artist", "lonesome"},
		{"A - B - C.mp3", "A", "B - C"},
	}
	for _, tt := range tests {
		meta := filenameFallback(tt.filename)
		if meta.Artist != tt.wantArtist || meta.Title != tt.wantTitle {
			t.Errorf("filenameFallback(%q) = (%q, %q), want (%q, %q)",
				tt.filename, meta.Artist, meta.Title, tt.wantArtist, tt.wantTitle)
		}
	}
}

func TestApplyOverrides(t *testing.T) {
	meta := trackMeta{Artist: "Extracted", Title: "Extracted Title", Album: "Extracted Album"}
	applyOverrides(&meta, "Override", "", "  ")

	if meta.Artist != "Override" {
		t.Errorf("Artist = %q, want %q", meta.Artist, "Override")
	}
	if meta.Title != "Extracted Title" {
		t.Errorf("blank override replaced Title: %q", meta.Title)
	}
	if meta.Album != "Extracted Album" {
		t.Errorf("whitespace override replaced Album: %q", meta.Album)
	}
}
