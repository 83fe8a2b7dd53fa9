package server

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"melodex/cache"
	"melodex/config"
	"melodex/core/auth"
	"melodex/core/catalog"
	"melodex/db"
	"melodex/model"
	"melodex/repository"

	"github.com/gorilla/mux"
	_ "github.com/mattn/go-sqlite3"
)

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()

	dir := t.TempDir()
	conn, err := sql.Open("sqlite3", filepath.Join(dir, "test.sqlite"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	cfg := &config.Config{
		MusicDir:       filepath.Join(dir, "music"),
		CoverDir:       filepath.Join(dir, "covers"),
		MaxUploadBytes: 1 << 20,
	}

	engine := catalog.NewEngine(repository.NewSQLiteTrackRepositoryWithDB(conn), cache.NewTrackCache(), cfg)
	if err := engine.Initialize(); err != nil {
		t.Fatalf("failed to initialize engine: %v", err)
	}

	auth.SetSecret("test-secret")
	handler := NewAPIHandler(engine, nil, cfg)

	router := mux.NewRouter()
	router.HandleFunc("/api/tracks", handler.GetTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", handler.GetTrackHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", handler.AuthMiddleware(handler.DeleteTrackHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/search", handler.SearchTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/upload", handler.AuthMiddleware(handler.UploadTrackHandler)).Methods(http.MethodPost)
	return router
}

func bearerToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GenerateToken(1, "tester")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return "Bearer " + token
}

// multipartUpload builds an upload request body with the given filename.
func multipartUpload(t *testing.T, filename string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("trackFile", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte("audio payload")); err != nil {
		t.Fatalf("writing part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestGetTrackNotFound(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tracks/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestUploadRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartUpload(t, "song.mp3")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestUploadAndListRoundTrip(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartUpload(t, "Daft Punk - One More Time.mp3")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearerToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var created model.Track
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding upload response: %v", err)
	}
	if created.Artist != "Daft Punk" {
		t.Errorf("Artist = %q, want %q", created.Artist, "Daft Punk")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/tracks", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d", rec.Code, http.StatusOK)
	}
	var page trackPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decoding list response: %v", err)
	}
	if page.Total != 1 || len(page.Tracks) != 1 {
		t.Errorf("list = %d tracks (total %d), want 1", len(page.Tracks), page.Total)
	}
}

func TestUploadRejectsUnsupportedFormat(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartUpload(t, "track.exe")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearerToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUploadDuplicateConflict(t *testing.T) {
	router := newTestRouter(t)

	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		body, contentType := multipartUpload(t, "Daft Punk - One More Time.mp3")
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", bearerToken(t))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != want {
			t.Errorf("upload %d status = %d, want %d", i+1, rec.Code, want)
		}
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartUpload(t, "Daft Punk - One More Time.mp3")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearerToken(t))
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/api/search?q=daft", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var page trackPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decoding search response: %v", err)
	}
	if page.Total != 1 {
		t.Errorf("search total = %d, want 1", page.Total)
	}
}

func TestDeleteEndpoint(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartUpload(t, "Daft Punk - One More Time.mp3")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearerToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var created model.Track
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding upload response: %v", err)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/tracks/"+created.ID, nil)
	req.Header.Set("Authorization", bearerToken(t))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want %d", rec.Code, http.StatusOK)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/tracks/"+created.ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
