// Spotify Web API implementation of [Provider] and [Authenticator]
//
// Response types are based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jams/internal/models"
	"github.com/desertthunder/jams/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/spotify"
)

const (
	spotifyBaseURL     = "https://api.spotify.com/v1"
	spotifyPlaylistURL = "https://open.spotify.com/playlist/"

	// PlaylistDescription is attached to every playlist the app creates.
	PlaylistDescription = "Created by 8th Grade DJ App"
)

// Scopes requested during login.
var Scopes = []string{"user-read-private", "playlist-modify-public", "playlist-modify-private"}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	URI     string          `json:"uri"`
}

// SpotifyPlaylist represents the playlist object returned on creation.
type SpotifyPlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	URI         string `json:"uri"`
}

type searchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

type addTracksRequest struct {
	URIs []models.TrackReference `json:"uris"`
}

// ExchangeError is returned when the token endpoint rejects an authorization code.
type ExchangeError struct {
	Code       string // provider error code, e.g. invalid_grant
	StatusCode int
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%v: %s (status %d)", shared.ErrTokenExchange, e.Code, e.StatusCode)
}

func (e *ExchangeError) Unwrap() error {
	return shared.ErrTokenExchange
}

// PlaylistURL returns the public web URL for a playlist ID.
func PlaylistURL(id string) string {
	return spotifyPlaylistURL + id
}

// SpotifyService talks to the Spotify accounts service and Web API.
type SpotifyService struct {
	config     *oauth2.Config
	httpClient *http.Client
	baseURL    string
	logger     *log.Logger
}

// Option configures a [SpotifyService].
type Option func(*SpotifyService)

// WithHTTPClient sets the client used for API and token requests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *SpotifyService) { s.httpClient = c }
}

// WithBaseURL points Web API calls at another host.
func WithBaseURL(u string) Option {
	return func(s *SpotifyService) { s.baseURL = strings.TrimSuffix(u, "/") }
}

// WithTokenURL points the code exchange at another token endpoint.
func WithTokenURL(u string) Option {
	return func(s *SpotifyService) { s.config.Endpoint.TokenURL = u }
}

// WithLogger sets the logger used for provider diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(s *SpotifyService) { s.logger = l }
}

// NewSpotifyService creates a service for the given app credentials. redirectURI must match the one
// registered with Spotify and is sent on both the authorize and token requests.
func NewSpotifyService(creds shared.SpotifyConfig, redirectURI string, opts ...Option) (*SpotifyService, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}
	if redirectURI == "" {
		redirectURI = shared.DefaultBaseURL + shared.CallbackPath
	}

	endpoint := spotify.Endpoint
	endpoint.AuthStyle = oauth2.AuthStyleInHeader

	s := &SpotifyService{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  redirectURI,
			Scopes:       Scopes,
			Endpoint:     endpoint,
		},
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
		logger:     log.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetLogger swaps the diagnostics logger, e.g. when the TUI takes over the terminal.
func (s *SpotifyService) SetLogger(l *log.Logger) {
	s.logger = l
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// RedirectURI returns the callback URL sent to Spotify.
func (s *SpotifyService) RedirectURI() string {
	return s.config.RedirectURL
}

// AuthURL returns the authorization URL for user login.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for credentials. No retry is attempted.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (models.Credentials, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)

	tok, err := s.config.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			xe := &ExchangeError{Code: re.ErrorCode}
			if re.Response != nil {
				xe.StatusCode = re.Response.StatusCode
			}
			if xe.Code == "" {
				xe.Code = "unknown_error"
			}
			s.logger.Error("token exchange rejected", "status", xe.StatusCode, "code", xe.Code, "body", string(re.Body))
			return models.Credentials{}, xe
		}
		s.logger.Error("token exchange failed", "error", err)
		return models.Credentials{}, fmt.Errorf("%w: %v", shared.ErrTokenExchange, err)
	}

	expiresIn := int(tok.ExpiresIn)
	if expiresIn == 0 && !tok.Expiry.IsZero() {
		expiresIn = int(time.Until(tok.Expiry).Round(time.Second).Seconds())
	}

	return models.Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context, token string) *SpotifyUser {
	var user SpotifyUser
	if !s.call(ctx, http.MethodGet, "/me", token, nil, &user) || user.ID == "" {
		return nil
	}
	return &user
}

// SearchTrack returns the URI of the first track matching query.
func (s *SpotifyService) SearchTrack(ctx context.Context, query, token string) models.TrackReference {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", "1")

	var resp searchResponse
	if !s.call(ctx, http.MethodGet, "/search?"+params.Encode(), token, nil, &resp) {
		return ""
	}
	if len(resp.Tracks.Items) == 0 {
		return ""
	}
	return models.TrackReference(resp.Tracks.Items[0].URI)
}

// CreatePlaylist creates a private playlist owned by userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, token string) string {
	body := createPlaylistRequest{Name: name, Description: PlaylistDescription, Public: false}

	var playlist SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if !s.call(ctx, http.MethodPost, endpoint, token, body, &playlist) {
		return ""
	}
	return playlist.ID
}

// AddTracksToPlaylist adds uris to the playlist in one request.
func (s *SpotifyService) AddTracksToPlaylist(ctx context.Context, playlistID string, uris []models.TrackReference, token string) bool {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return s.call(ctx, http.MethodPost, endpoint, token, addTracksRequest{URIs: uris}, nil)
}

// call wraps [SpotifyService.doRequest], logging failures and reducing them to false.
func (s *SpotifyService) call(ctx context.Context, method, endpoint, token string, body, result any) bool {
	if err := s.doRequest(ctx, method, endpoint, token, body, result); err != nil {
		s.logger.Error("spotify request failed", "method", method, "endpoint", endpoint, "error", err)
		return false
	}
	return true
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint, token string, body, result any) error {
	if token == "" {
		return shared.ErrNotAuthenticated
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
