package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"melodex/core/catalog"
	"melodex/logger"
	"melodex/model"

	"github.com/gorilla/mux"
)

// trackPage is the response body for list and search requests.
type trackPage struct {
	Tracks []*model.Track `json:"tracks"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// GetTracksHandler returns a page of tracks ordered by newest first.
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)

	tracks, total, err := h.engine.ListTracks(limit, offset)
	if err != nil {
		logger.Error("Failed to list tracks", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to list tracks")
		return
	}
	writeJSON(w, http.StatusOK, trackPage{Tracks: tracks, Total: total, Limit: limit, Offset: offset})
}

// GetTrackHandler returns a single track by ID.
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	track, err := h.engine.GetTrack(id)
	if err != nil {
		logger.Error("Failed to get track", logger.String("trackId", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to get track")
		return
	}
	if track == nil {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}
	writeJSON(w, http.StatusOK, track)
}

// SearchTracksHandler filters tracks by a case-insensitive substring match
// against artist, title and album. A blank query lists everything.
func (h *APIHandler) SearchTracksHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	query := r.URL.Query().Get("q")

	tracks, total, err := h.engine.Search(query, limit, offset)
	if err != nil {
		logger.Error("Failed to search tracks", logger.String("query", query), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to search tracks")
		return
	}
	writeJSON(w, http.StatusOK, trackPage{Tracks: tracks, Total: total, Limit: limit, Offset: offset})
}

// UploadTrackHandler handles audio file uploads with optional metadata and
// cover art.
func (h *APIHandler) UploadTrackHandler(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.cfg.MaxUploadBytes+(1<<20) {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Request too large. Maximum size is %d MB", h.cfg.MaxUploadBytes>>20))
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logger.Error("Failed to parse upload form", logger.ErrorField(err))
		writeError(w, http.StatusBadRequest, "Failed to parse upload form")
		return
	}

	trackFile, trackHeader, err := r.FormFile("trackFile")
	if err != nil {
		if err == http.ErrMissingFile {
			writeError(w, http.StatusBadRequest, "Missing audio file")
		} else {
			writeError(w, http.StatusBadRequest, "Failed to process uploaded file")
		}
		return
	}
	defer trackFile.Close()

	data, err := io.ReadAll(trackFile)
	if err != nil {
		logger.Error("Failed to read uploaded file", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to read uploaded file")
		return
	}

	params := catalog.UploadParams{
		Filename: trackHeader.Filename,
		Data:     data,
		Artist:   r.FormValue("artist"),
		Title:    r.FormValue("title"),
		Album:    r.FormValue("album"),
	}

	if coverFile, _, err := r.FormFile("coverFile"); err == nil {
		defer coverFile.Close()
		cover, err := io.ReadAll(coverFile)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to read cover file")
			return
		}
		params.Cover = cover
	} else if err != http.ErrMissingFile {
		writeError(w, http.StatusBadRequest, "Failed to process cover file")
		return
	}

	track, err := h.engine.Upload(params)
	if err != nil {
		var tooLarge *catalog.FileTooLargeError
		switch {
		case errors.Is(err, catalog.ErrUnsupportedFormat):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, catalog.ErrDuplicateTrack):
			writeError(w, http.StatusConflict, err.Error())
		default:
			logger.Error("Upload failed",
				logger.String("filename", trackHeader.Filename),
				logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Failed to ingest track")
		}
		return
	}

	writeJSON(w, http.StatusCreated, track)
}

// DeleteTrackHandler removes a track from the catalog, including its files.
func (h *APIHandler) DeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	warning, err := h.engine.DeleteTrack(id)
	if err != nil {
		if errors.Is(err, catalog.ErrTrackNotFound) {
			writeError(w, http.StatusNotFound, "Track not found")
			return
		}
		logger.Error("Failed to delete track", logger.String("trackId", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete track")
		return
	}

	resp := map[string]string{"status": "deleted"}
	if warning != "" {
		resp["warning"] = warning
	}
	writeJSON(w, http.StatusOK, resp)
}

// StreamTrackHandler serves the audio file for playback. The play counter
// is bumped by a detached goroutine so a slow or failing store write can
// never delay or fail the response.
func (h *APIHandler) StreamTrackHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	track, err := h.engine.GetTrack(id)
	if err != nil {
		logger.Error("Failed to get track for streaming", logger.String("trackId", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to get track")
		return
	}
	if track == nil {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}

	go func(trackID string) {
		if err := h.engine.IncrementPlayCount(trackID); err != nil {
			logger.Warn("Failed to increment play count",
				logger.String("trackId", trackID),
				logger.ErrorField(err))
		}
	}(track.ID)

	// ServeFile handles Range requests for seeking.
	http.ServeFile(w, r, track.FilePath)
}

// ScanDirectoryHandler triggers a reconcile of the music directory.
func (h *APIHandler) ScanDirectoryHandler(w http.ResponseWriter, r *http.Request) {
	indexed, err := h.engine.ScanDirectory()
	if err != nil {
		logger.Error("Directory scan failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Directory scan failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"indexed": indexed})
}
