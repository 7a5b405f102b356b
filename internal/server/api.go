package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jams/internal/catalog"
	"github.com/desertthunder/jams/internal/models"
	"github.com/desertthunder/jams/internal/shared"
)

const defaultRunsLimit = 20

// APIHandler serves the JSON endpoints used by the presentation layer.
type APIHandler struct {
	catalog *catalog.Catalog
	engine  PlaylistRunner
	runs    RunLister
	logger  *log.Logger
}

// StatusResponse is returned by GET /.
type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	BirthYear     int    `json:"birthYear,omitempty"`
	Error         string `json:"error,omitempty"`
	Details       string `json:"details,omitempty"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

type createPlaylistRequest struct {
	BirthYear any `json:"birthYear"`
}

// Status reports whether the caller holds a token and echoes callback errors.
func (h *APIHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Authenticated: bearerToken(r) != "",
		Error:         r.URL.Query().Get("error"),
		Details:       r.URL.Query().Get("details"),
	}
	if c, err := r.Cookie(BirthYearCookie); err == nil {
		if year, err := catalog.ParseBirthYear(c.Value); err == nil {
			resp.BirthYear = year
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health reports that the server is up.
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Songs resolves ?birthYear= to the song list for its 8th grade year.
func (h *APIHandler) Songs(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resolve(w, r.URL.Query().Get("birthYear"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CreatePlaylist runs the playlist engine for the birth year in the request body.
func (h *APIHandler) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "playlist creation is not configured"})
		return
	}

	token := bearerToken(r)
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "not logged in to Spotify"})
		return
	}

	var req createPlaylistRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	res, ok := h.resolve(w, req.BirthYear)
	if !ok {
		return
	}

	result, err := h.engine.Run(r.Context(), res, token, nil)
	if err != nil {
		h.logger.Error("playlist run rejected", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	status := http.StatusOK
	if !result.Succeeded() {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, result)
}

// Runs lists recent playlist runs, newest first.
func (h *APIHandler) Runs(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "run history is not configured"})
		return
	}

	q := r.URL.Query()
	limit := defaultRunsLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	criteria := map[string]any{"limit": limit}
	if state := q.Get("state"); state != "" {
		criteria["state"] = models.RunState(state)
	}

	runs, err := h.runs.List(criteria)
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to list runs"})
		return
	}
	if runs == nil {
		runs = []*models.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// resolve writes 400 for invalid years and 404 when no data exists.
func (h *APIHandler) resolve(w http.ResponseWriter, raw any) (*catalog.Resolution, bool) {
	res, err := h.catalog.Resolve(raw)
	switch {
	case err == nil:
		return res, true
	case errors.Is(err, shared.ErrNoSongData):
		writeJSON(w, http.StatusNotFound, struct {
			*catalog.Resolution
			Error string `json:"error"`
		}{res, err.Error()})
	case errors.Is(err, shared.ErrInvalidBirthYear):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Please enter a valid birth year between 1950 and 2015"})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	return nil, false
}

// bearerToken reads the access token from the Authorization header or the token cookie.
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
