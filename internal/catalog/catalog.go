// package catalog resolves a birth year to the songs that were popular in that person's 8th grade year.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/desertthunder/jams/internal/models"
	"github.com/desertthunder/jams/internal/shared"
	"gopkg.in/yaml.v3"
)

//go:embed songs.yaml
var defaultSongs []byte

const (
	MinBirthYear = 1950
	MaxBirthYear = 2015
	GradeOffset  = 14 // years between birth and 8th grade
)

// NoDataError is returned when neither the target year nor its decade has songs.
type NoDataError struct {
	Year int
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("Sorry, we don't have song data for %d yet.", e.Year)
}

func (e *NoDataError) Unwrap() error {
	return shared.ErrNoSongData
}

// Resolution is the outcome of a successful lookup.
//
// Warning is set only when the songs come from the decade fallback.
type Resolution struct {
	BirthYear  int           `json:"birthYear"`
	TargetYear int           `json:"targetYear"`
	Songs      []models.Song `json:"songs"`
	Warning    string        `json:"warning,omitempty"`
}

// Fallback reports whether the songs come from the decade key instead of the target year.
func (r *Resolution) Fallback() bool {
	return r.Warning != ""
}

// Catalog is an immutable year → songs dataset.
type Catalog struct {
	years map[string][]models.Song
}

// New parses a YAML document mapping year keys to ordered song lists.
func New(data []byte) (*Catalog, error) {
	years := make(map[string][]models.Song)
	if err := yaml.Unmarshal(data, &years); err != nil {
		return nil, fmt.Errorf("failed to parse song data: %w", err)
	}

	for key := range years {
		if _, err := strconv.Atoi(key); err != nil {
			return nil, fmt.Errorf("%w: song data key %q is not a year", shared.ErrInvalidInput, key)
		}
	}
	return &Catalog{years: years}, nil
}

// FromMap builds a Catalog from an in-memory dataset. The map is copied.
func FromMap(years map[string][]models.Song) *Catalog {
	c := &Catalog{years: make(map[string][]models.Song, len(years))}
	for k, v := range years {
		c.years[k] = append([]models.Song(nil), v...)
	}
	return c
}

// Default returns the catalog built from the embedded dataset.
func Default() *Catalog {
	c, err := New(defaultSongs)
	if err != nil {
		panic(err)
	}
	return c
}

// Years returns the dataset keys in ascending order.
func (c *Catalog) Years() []int {
	out := make([]int, 0, len(c.years))
	for key := range c.years {
		y, _ := strconv.Atoi(key)
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

// ParseBirthYear accepts an integer or a numeric string and validates the range.
func ParseBirthYear(raw any) (int, error) {
	var year int
	switch v := raw.(type) {
	case int:
		year = v
	case int64:
		year = int(v)
	case float64:
		if v != float64(int(v)) {
			return 0, invalidYear(fmt.Sprint(v))
		}
		year = int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, invalidYear(v)
		}
		year = n
	default:
		return 0, invalidYear(fmt.Sprint(v))
	}

	if year < MinBirthYear || year > MaxBirthYear {
		return 0, invalidYear(strconv.Itoa(year))
	}
	return year, nil
}

func invalidYear(v string) error {
	return fmt.Errorf("%w %q: please enter a valid birth year between %d and %d",
		shared.ErrInvalidBirthYear, v, MinBirthYear, MaxBirthYear)
}

// TargetYear returns the approximate 8th grade year for a birth year.
func TargetYear(birthYear int) int {
	return birthYear + GradeOffset
}

// Resolve validates the birth year and returns the songs for its target year.
//
// Lookup tries the exact target year, then the decade it falls in. When neither exists the
// returned Resolution has no songs and the error is a [*NoDataError].
func (c *Catalog) Resolve(raw any) (*Resolution, error) {
	birthYear, err := ParseBirthYear(raw)
	if err != nil {
		return nil, err
	}

	target := TargetYear(birthYear)
	res := &Resolution{BirthYear: birthYear, TargetYear: target, Songs: []models.Song{}}

	if songs, ok := c.lookup(target); ok {
		res.Songs = songs
		return res, nil
	}

	decade := target / 10 * 10
	if songs, ok := c.lookup(decade); ok {
		res.Songs = songs
		res.Warning = fmt.Sprintf("Data for %d not found. Showing top songs from %ds instead.", target, decade)
		return res, nil
	}

	return res, &NoDataError{Year: target}
}

func (c *Catalog) lookup(year int) ([]models.Song, bool) {
	songs, ok := c.years[strconv.Itoa(year)]
	if !ok || len(songs) == 0 {
		return nil, false
	}
	return append([]models.Song(nil), songs...), true
}
