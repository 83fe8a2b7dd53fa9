package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"melodex/config"
	"melodex/core/catalog"
	"melodex/logger"
	"melodex/repository"
)

// defaultPageSize is used when a list request does not specify a limit.
const defaultPageSize = 50

// APIHandler handles all API requests.
type APIHandler struct {
	engine   *catalog.Engine
	userRepo repository.UserRepository
	cfg      *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(engine *catalog.Engine, userRepo repository.UserRepository, cfg *config.Config) *APIHandler {
	return &APIHandler{
		engine:   engine,
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode JSON response", logger.ErrorField(err))
	}
}

// writeError sends a JSON error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// pageParams parses limit/offset query parameters with defaults.
func pageParams(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
