package repository

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"melodex/db"
	"melodex/model"

	_ "github.com/mattn/go-sqlite3"
)

func newTestRepo(t *testing.T) TrackRepository {
	t.Helper()

	conn, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return NewSQLiteTrackRepositoryWithDB(conn)
}

func fixtureTrack(id string) *model.Track {
	return &model.Track{
		ID:       id,
		Artist:   "Artist",
		Title:    "Title " + id,
		Album:    "Album",
		FilePath: "/music/" + id + ".mp3",
		FileSize: 1024,
		Format:   "mp3",
		AddedAt:  time.Now(),
	}
}

func TestCreateAndGetTrack(t *testing.T) {
	repo := newTestRepo(t)

	track := fixtureTrack("t1")
	if err := repo.CreateTrack(track); err != nil {
		t.Fatalf("CreateTrack: %v", err)
	}

	got, err := repo.GetTrackByID("t1")
	if err != nil {
		t.Fatalf("GetTrackByID: %v", err)
	}
	if got == nil {
		t.Fatal("track not found after create")
	}
	if got.Title != "Title t1" || got.FilePath != "/music/t1.mp3" || got.FileSize != 1024 {
		t.Errorf("stored track mismatch: %+v", got)
	}
}

func TestGetTrackNotFound(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.GetTrackByID("missing")
	if err != nil {
		t.Fatalf("GetTrackByID: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil for missing track", got)
	}
}

func TestCreateTrackDuplicateIDFails(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.CreateTrack(fixtureTrack("t1")); err != nil {
		t.Fatalf("CreateTrack: %v", err)
	}

	dup := fixtureTrack("t1")
	dup.FilePath = "/music/other.mp3" // Avoid the file_path constraint; test the id one
	if err := repo.CreateTrack(dup); err == nil {
		t.Error("duplicate primary key accepted")
	}
}

func TestCreateTrackDuplicatePathFails(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.CreateTrack(fixtureTrack("t1")); err != nil {
		t.Fatalf("CreateTrack: %v", err)
	}

	other := fixtureTrack("t2")
	other.FilePath = "/music/t1.mp3"
	if err := repo.CreateTrack(other); err == nil {
		t.Error("duplicate file_path accepted")
	}
}

func TestTrackExists(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.CreateTrack(fixtureTrack("t1")); err != nil {
		t.Fatalf("CreateTrack: %v", err)
	}

	exists, err := repo.TrackExists("t1")
	if err != nil || !exists {
		t.Errorf("TrackExists(t1) = (%v, %v), want (true, nil)", exists, err)
	}
	exists, err = repo.TrackExists("t2")
	if err != nil || exists {
		t.Errorf("TrackExists(t2) = (%v, %v), want (false, nil)", exists, err)
	}

	exists, err = repo.TrackExistsByPath("/music/t1.mp3")
	if err != nil || !exists {
		t.Errorf("TrackExistsByPath = (%v, %v), want (true, nil)", exists, err)
	}
}

func TestListTracksOrderAndClamp(t *testing.T) {
	repo := newTestRepo(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		track := fixtureTrack(fmt.Sprintf("t%d", i))
		track.FilePath = fmt.Sprintf("/music/t%d.mp3", i)
		track.AddedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.CreateTrack(track); err != nil {
			t.Fatalf("CreateTrack: %v", err)
		}
	}

	tracks, err := repo.ListTracks(0, 0) // Zero limit falls back to the page bound
	if err != nil {
		t.Fatalf("ListTracks: %v", err)
	}
	if len(tracks) != 3 {
		t.Fatalf("len = %d, want 3", len(tracks))
	}
	if tracks[0].ID != "t2" || tracks[2].ID != "t0" {
		t.Errorf("order = %s..%s, want t2..t0", tracks[0].ID, tracks[2].ID)
	}

	count, err := repo.CountTracks()
	if err != nil || count != 3 {
		t.Errorf("CountTracks = (%d, %v), want (3, nil)", count, err)
	}
}

func TestDeleteTrack(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.CreateTrack(fixtureTrack("t1")); err != nil {
		t.Fatalf("CreateTrack: %v", err)
	}

	deleted, err := repo.DeleteTrack("t1")
	if err != nil || !deleted {
		t.Fatalf("DeleteTrack = (%v, %v), want (true, nil)", deleted, err)
	}

	deleted, err = repo.DeleteTrack("t1")
	if err != nil || deleted {
		t.Errorf("second DeleteTrack = (%v, %v), want (false, nil)", deleted, err)
	}
}

func TestIncrementPlayCount(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.CreateTrack(fixtureTrack("t1")); err != nil {
		t.Fatalf("CreateTrack: %v", err)
	}

	for i := 0; i < 3; i++ {
		ok, err := repo.IncrementPlayCount("t1")
		if err != nil || !ok {
			t.Fatalf("IncrementPlayCount = (%v, %v), want (true, nil)", ok, err)
		}
	}

	got, err := repo.GetTrackByID("t1")
	if err != nil {
		t.Fatalf("GetTrackByID: %v", err)
	}
	if got.PlayCount != 3 {
		t.Errorf("PlayCount = %d, want 3", got.PlayCount)
	}

	ok, err := repo.IncrementPlayCount("missing")
	if err != nil || ok {
		t.Errorf("IncrementPlayCount(missing) = (%v, %v), want (false, nil)", ok, err)
	}
}
