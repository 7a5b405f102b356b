// package models defines the data model for the jams web service
package models

import (
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Song is a single entry of the static dataset.
type Song struct {
	Title  string `json:"title" yaml:"title"`
	Artist string `json:"artist" yaml:"artist"`
}

// Credentials is the token pair issued by the provider after a successful code exchange.
//
// Held by the caller (cookie or token file); never persisted server-side.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // seconds
}

// Valid reports whether an access token is present.
func (c Credentials) Valid() bool {
	return c.AccessToken != ""
}

// TrackReference is a provider track identifier (Spotify URI). The zero value means "not found".
type TrackReference string

// Playlist is the playlist created by a single orchestration run.
type Playlist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
