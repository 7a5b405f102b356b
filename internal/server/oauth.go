package server

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jams/internal/catalog"
	"github.com/desertthunder/jams/internal/models"
	"github.com/desertthunder/jams/internal/services"
	"github.com/desertthunder/jams/internal/shared"
)

const (
	StateCookie     = "spotify_auth_state"
	TokenCookie     = "spotify_access_token"
	BirthYearCookie = "birth_year"
)

// Callback failure kinds passed back to the presentation layer as ?error=.
const (
	ErrKindStateMismatch = "state_mismatch"
	ErrKindInvalidToken  = "invalid_token"
	ErrKindServerError   = "server_error"
)

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Credentials models.Credentials
	err         error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// CookiePolicy holds attributes shared by every cookie the service sets.
type CookiePolicy struct {
	Secure bool
}

func (p CookiePolicy) set(w http.ResponseWriter, name, value string, maxAge time.Duration, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: httpOnly,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (p CookiePolicy) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, Secure: p.Secure})
}

// LoginHandler starts the authorization-code flow by redirecting to the provider.
type LoginHandler struct {
	auth    services.Authenticator
	signer  *StateSigner
	cookies CookiePolicy
	verify  bool
	logger  *log.Logger
}

// Routes returns the HTTP routes this handler serves.
func (h *LoginHandler) Routes() []string {
	return []string{"GET /api/login"}
}

// ServeHTTP generates a fresh state, remembers it in a signed cookie and redirects with 302.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		http.Error(w, "Spotify is not configured", http.StatusServiceUnavailable)
		return
	}

	state, err := shared.GenerateState()
	if err != nil {
		h.logger.Error("failed to generate state", "error", err)
		http.Redirect(w, r, errorLocation(ErrKindServerError, ""), http.StatusFound)
		return
	}

	if h.verify {
		signed, err := h.signer.Sign(state)
		if err != nil {
			h.logger.Error("failed to sign state", "error", err)
			http.Redirect(w, r, errorLocation(ErrKindServerError, ""), http.StatusFound)
			return
		}
		h.cookies.set(w, StateCookie, signed, h.signer.TTL(), true)
	}

	if raw := r.URL.Query().Get("birthYear"); raw != "" {
		if year, err := catalog.ParseBirthYear(raw); err == nil {
			h.cookies.set(w, BirthYearCookie, strconv.Itoa(year), time.Hour, false)
		}
	}

	http.Redirect(w, r, h.auth.AuthURL(state), http.StatusFound)
}

// CallbackHandler completes the flow: it checks state, exchanges the code and stores the access token
// in a cookie readable by the presentation layer.
type CallbackHandler struct {
	auth    services.Authenticator
	signer  *StateSigner
	cookies CookiePolicy
	verify  bool
	baseURL string
	notify  chan<- OAuthResult
	logger  *log.Logger
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"GET " + shared.CallbackPath}
}

// ServeHTTP handles the OAuth callback request. Every outcome is a 302 redirect.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		http.Error(w, "Spotify is not configured", http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query()
	state := q.Get("state")
	if state == "" {
		h.fail(w, r, shared.ErrStateMismatch, ErrKindStateMismatch, "")
		return
	}

	if h.verify {
		var signed string
		if c, err := r.Cookie(StateCookie); err == nil {
			signed = c.Value
		}
		h.cookies.clear(w, StateCookie)
		if err := h.signer.Verify(signed, state); err != nil {
			h.fail(w, r, err, ErrKindStateMismatch, "")
			return
		}
	}

	code := q.Get("code")
	if code == "" {
		details := q.Get("error")
		if details == "" {
			details = "missing_code"
		}
		h.fail(w, r, shared.ErrAuthFailed, ErrKindInvalidToken, details)
		return
	}

	creds, err := h.auth.Exchange(r.Context(), code)
	if err != nil {
		var xe *services.ExchangeError
		if errors.As(err, &xe) {
			h.fail(w, r, err, ErrKindInvalidToken, xe.Code)
			return
		}
		h.fail(w, r, err, ErrKindServerError, "")
		return
	}

	h.cookies.set(w, TokenCookie, creds.AccessToken, time.Duration(creds.ExpiresIn)*time.Second, false)
	h.send(OAuthResult{Credentials: creds})

	h.logger.Info("spotify login complete", "expires_in", creds.ExpiresIn)
	http.Redirect(w, r, h.baseURL, http.StatusFound)
}

func (h *CallbackHandler) fail(w http.ResponseWriter, r *http.Request, err error, kind, details string) {
	h.logger.Warn("spotify callback failed", "kind", kind, "details", details, "error", err)
	h.send(OAuthResult{err: err})
	http.Redirect(w, r, errorLocation(kind, details), http.StatusFound)
}

// send delivers a result without blocking.
func (h *CallbackHandler) send(result OAuthResult) {
	if h.notify == nil {
		return
	}
	select {
	case h.notify <- result:
	default:
	}
}

// errorLocation builds /?error=<kind>[&details=<details>], keeping error first.
func errorLocation(kind, details string) string {
	loc := "/?error=" + url.QueryEscape(kind)
	if details != "" {
		loc += "&details=" + url.QueryEscape(details)
	}
	return loc
}
