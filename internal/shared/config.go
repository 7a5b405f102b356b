package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	// DefaultBaseURL is the loopback address used when no base URL is configured.
	DefaultBaseURL = "http://127.0.0.1:3000"
	// CallbackPath is the route the OAuth provider redirects back to.
	CallbackPath = "/api/callback"
	// ProductionEnv is the [AppConfig.Env] value that enables secure cookies.
	ProductionEnv = "production"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	App         AppConfig         `toml:"app"`
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Session     SessionConfig     `toml:"session"`
	Database    DatabaseConfig    `toml:"database"`
	Engine      EngineConfig      `toml:"engine"`
}

// AppConfig contains process-level settings.
type AppConfig struct {
	Env       string `toml:"env"`
	TokenPath string `toml:"token_path"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	BaseURL string `toml:"base_url"`
}

// SessionConfig controls the signed anti-forgery state cookie.
type SessionConfig struct {
	Secret      string `toml:"secret"`
	VerifyState bool   `toml:"verify_state"`
	StateTTL    int    `toml:"state_ttl"` // seconds
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// EngineConfig tunes track resolution in the playlist engine.
type EngineConfig struct {
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"` // searches per second, 0 for unlimited
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile writes the embedded example config to path.
// An existing file is left alone unless overwrite is set.
func CreateConfigFile(path string, overwrite bool) error {
	if path == "" {
		return fmt.Errorf("%w: config path", ErrMissingArgument)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("config file already exists at %s", path)
	} else if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(exampleConf); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveConfig writes the configuration to path as TOML.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// LoadEnvFiles loads KEY=VALUE pairs from the given dotenv files into the process environment.
//
// Missing files are skipped; variables already set in the environment are not overwritten.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides configuration values from environment variables using lookup.
//
// A nil lookup reads from [os.LookupEnv].
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup("SPOTIFY_CLIENT_ID"); ok && v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v, ok := lookup("SPOTIFY_CLIENT_SECRET"); ok && v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v, ok := lookup("BASE_URL"); ok && v != "" {
		c.Server.BaseURL = v
	}
	if v, ok := lookup("APP_ENV"); ok && v != "" {
		c.App.Env = v
	}
	if v, ok := lookup("SESSION_SECRET"); ok && v != "" {
		c.Session.Secret = v
	}
}

// Validate reports whether the Spotify client credentials are usable.
func (c *Config) Validate() error {
	s := c.Credentials.Spotify
	if s.ClientID == "" || s.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set", ErrMissingCredentials)
	}
	if s.ClientID == "your_spotify_client_id" || s.ClientSecret == "your_spotify_client_secret" {
		return fmt.Errorf("%w: spotify credentials still hold placeholder values", ErrInvalidConfig)
	}
	if s.RedirectURI != "" {
		u, err := url.Parse(s.RedirectURI)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: redirect_uri %q is not an absolute URL", ErrInvalidConfig, s.RedirectURI)
		}
		if u.Path != CallbackPath {
			return fmt.Errorf("%w: redirect_uri path must be %s, got %q", ErrInvalidConfig, CallbackPath, u.Path)
		}
	}
	return nil
}

// BaseURL returns the configured public base URL without a trailing slash.
func (c *Config) BaseURL() string {
	base := strings.TrimRight(c.Server.BaseURL, "/")
	if base == "" {
		return DefaultBaseURL
	}
	return base
}

// RedirectURI returns the OAuth redirect URI; it must match between login and token exchange.
func (c *Config) RedirectURI() string {
	if c.Credentials.Spotify.RedirectURI != "" {
		return c.Credentials.Spotify.RedirectURI
	}
	return c.BaseURL() + CallbackPath
}

// IsProduction reports whether cookies should carry the Secure attribute.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, ProductionEnv)
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// StateTTL returns the lifetime of the state cookie, defaulting to ten minutes.
func (c *Config) StateTTL() time.Duration {
	if c.Session.StateTTL <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.Session.StateTTL) * time.Second
}

// SessionSecret returns the key used to sign state cookies, falling back to the client secret.
func (c *Config) SessionSecret() []byte {
	if c.Session.Secret != "" {
		return []byte(c.Session.Secret)
	}
	return []byte(c.Credentials.Spotify.ClientSecret)
}

// TokenPath returns where the CLI persists credentials, defaulting to ~/.jams/token.json.
func (c *Config) TokenPath() string {
	if c.App.TokenPath != "" {
		return c.App.TokenPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".jams", "token.json")
	}
	return filepath.Join(home, ".jams", "token.json")
}
