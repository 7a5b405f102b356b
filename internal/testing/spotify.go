package testing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// FakeSpotify is an in-process stand-in for the Spotify Web API and accounts token endpoint.
//
// Configure the exported fields before issuing requests. API routes live under /v1 and the
// token endpoint under /api/token.
type FakeSpotify struct {
	Server *httptest.Server

	ClientID     string
	ClientSecret string
	AccessToken  string
	UserID       string
	PlaylistID   string
	Tracks       map[string]string // search query → track URI

	ExchangeErrorCode string // non-empty → token endpoint answers 400 with this code
	FailProfile       bool
	FailCreate        bool
	FailAdd           bool
	FailSearch        bool

	mu           sync.Mutex
	queries      []string
	created      []map[string]any
	added        [][]string
	exchanged    []string
	unauthorized int
}

// NewFakeSpotify starts a fake server that is closed when the test ends.
func NewFakeSpotify(t *testing.T) *FakeSpotify {
	t.Helper()

	f := &FakeSpotify{
		ClientID:     "test_client_id",
		ClientSecret: "test_client_secret",
		AccessToken:  "test_access_token",
		UserID:       "user-1",
		PlaylistID:   "playlist-1",
		Tracks:       map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", f.token)
	mux.HandleFunc("GET /v1/me", f.authorized(f.me))
	mux.HandleFunc("GET /v1/search", f.authorized(f.search))
	mux.HandleFunc("POST /v1/users/{user}/playlists", f.authorized(f.createPlaylist))
	mux.HandleFunc("POST /v1/playlists/{id}/tracks", f.authorized(f.addTracks))

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// Update changes the fake's configuration while the server is running.
func (f *FakeSpotify) Update(fn func(f *FakeSpotify)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// APIURL is the base URL for Web API calls.
func (f *FakeSpotify) APIURL() string { return f.Server.URL + "/v1" }

// TokenURL is the token endpoint URL.
func (f *FakeSpotify) TokenURL() string { return f.Server.URL + "/api/token" }

// Queries returns the search queries received, in arrival order.
func (f *FakeSpotify) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// Created returns the decoded bodies of create-playlist requests.
func (f *FakeSpotify) Created() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.created...)
}

// Added returns the URI lists of add-tracks requests.
func (f *FakeSpotify) Added() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.added...)
}

// Exchanged returns the authorization codes received by the token endpoint.
func (f *FakeSpotify) Exchanged() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.exchanged...)
}

// Unauthorized counts requests rejected for a wrong bearer token.
func (f *FakeSpotify) Unauthorized() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unauthorized
}

func (f *FakeSpotify) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		ok := r.Header.Get("Authorization") == "Bearer "+f.AccessToken
		if !ok {
			f.unauthorized++
		}
		f.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "Invalid access token")
			return
		}
		next(w, r)
	}
}

func (f *FakeSpotify) token(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, secret, ok := r.BasicAuth()
	if !ok || id != f.ClientID || secret != f.ClientSecret {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid_client"}`)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.exchanged = append(f.exchanged, r.PostForm.Get("code"))

	w.Header().Set("Content-Type", "application/json")
	if f.ExchangeErrorCode != "" || r.PostForm.Get("grant_type") != "authorization_code" {
		code := f.ExchangeErrorCode
		if code == "" {
			code = "unsupported_grant_type"
		}
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": code, "error_description": "rejected by fake"})
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"access_token":  f.AccessToken,
		"token_type":    "Bearer",
		"expires_in":    3600,
		"refresh_token": "test_refresh_token",
		"scope":         r.PostForm.Get("scope"),
	})
}

func (f *FakeSpotify) me(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	fail, id := f.FailProfile, f.UserID
	f.mu.Unlock()

	if fail {
		writeError(w, http.StatusInternalServerError, "profile unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "display_name": "Test User"})
}

func (f *FakeSpotify) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	f.mu.Lock()
	f.queries = append(f.queries, q)
	fail := f.FailSearch
	uri, found := f.Tracks[q]
	f.mu.Unlock()

	if fail {
		writeError(w, http.StatusBadGateway, "search unavailable")
		return
	}

	items := []map[string]any{}
	if found {
		items = append(items, map[string]any{"uri": uri, "name": q})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": map[string]any{"items": items}})
}

func (f *FakeSpotify) createPlaylist(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	body["user"] = r.PathValue("user")

	f.mu.Lock()
	f.created = append(f.created, body)
	fail, id := f.FailCreate, f.PlaylistID
	f.mu.Unlock()

	if fail {
		writeError(w, http.StatusForbidden, "cannot create playlist")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "name": body["name"]})
}

func (f *FakeSpotify) addTracks(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URIs []string `json:"uris"`
	}
	data, _ := io.ReadAll(r.Body)
	if err := json.Unmarshal(data, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f.mu.Lock()
	f.added = append(f.added, body.URIs)
	fail := f.FailAdd
	f.mu.Unlock()

	if fail {
		writeError(w, http.StatusInternalServerError, "cannot add tracks")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"snapshot_id": "snap-" + r.PathValue("id")})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": map[string]any{"status": status, "message": msg}})
}
