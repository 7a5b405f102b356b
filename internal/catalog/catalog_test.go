package catalog

import (
	"errors"
	"testing"

	"github.com/desertthunder/jams/internal/models"
	"github.com/desertthunder/jams/internal/shared"
)

func fixture() *Catalog {
	return FromMap(map[string][]models.Song{
		"2000": {{Title: "Breathe", Artist: "Faith Hill"}, {Title: "Smooth", Artist: "Santana"}},
		"2003": {{Title: "In da Club", Artist: "50 Cent"}},
		"2010": {{Title: "Tik Tok", Artist: "Kesha"}},
	})
}

func TestParseBirthYear(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    int
		wantErr bool
	}{
		{name: "int", input: 1990, want: 1990},
		{name: "numeric string", input: "1989", want: 1989},
		{name: "padded string", input: " 2001 ", want: 2001},
		{name: "lower bound", input: 1950, want: 1950},
		{name: "upper bound", input: "2015", want: 2015},
		{name: "whole float", input: float64(1999), want: 1999},
		{name: "too early", input: 1800, wantErr: true},
		{name: "too late", input: 2016, wantErr: true},
		{name: "just below", input: 1949, wantErr: true},
		{name: "not a number", input: "nineteen", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "fractional", input: 1990.5, wantErr: true},
		{name: "nil", input: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBirthYear(tt.input)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidBirthYear) {
					t.Fatalf("expected ErrInvalidBirthYear, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	c := fixture()

	t.Run("exact year", func(t *testing.T) {
		res, err := c.Resolve(1989)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.TargetYear != 2003 {
			t.Errorf("expected target 2003, got %d", res.TargetYear)
		}
		if len(res.Songs) != 1 || res.Songs[0].Title != "In da Club" {
			t.Errorf("unexpected songs: %+v", res.Songs)
		}
		if res.Warning != "" || res.Fallback() {
			t.Errorf("expected no warning, got %q", res.Warning)
		}
	})

	t.Run("decade fallback", func(t *testing.T) {
		res, err := c.Resolve(1990)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.TargetYear != 2004 {
			t.Errorf("expected target 2004, got %d", res.TargetYear)
		}
		if len(res.Songs) != 2 || res.Songs[0].Title != "Breathe" {
			t.Errorf("expected 2000 list, got %+v", res.Songs)
		}
		want := "Data for 2004 not found. Showing top songs from 2000s instead."
		if res.Warning != want {
			t.Errorf("got warning %q, want %q", res.Warning, want)
		}
	})

	t.Run("string input", func(t *testing.T) {
		res, err := c.Resolve("1996")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.TargetYear != 2010 || res.Warning != "" {
			t.Errorf("unexpected resolution: %+v", res)
		}
	})

	t.Run("no data", func(t *testing.T) {
		res, err := c.Resolve(1960)
		if !errors.Is(err, shared.ErrNoSongData) {
			t.Fatalf("expected ErrNoSongData, got %v", err)
		}
		var nd *NoDataError
		if !errors.As(err, &nd) || nd.Year != 1974 {
			t.Fatalf("expected NoDataError for 1974, got %v", err)
		}
		if err.Error() != "Sorry, we don't have song data for 1974 yet." {
			t.Errorf("unexpected message: %q", err.Error())
		}
		if res == nil || len(res.Songs) != 0 {
			t.Errorf("expected empty resolution, got %+v", res)
		}
	})

	t.Run("out of range is rejected before lookup", func(t *testing.T) {
		res, err := c.Resolve(1800)
		if !errors.Is(err, shared.ErrInvalidBirthYear) {
			t.Fatalf("expected ErrInvalidBirthYear, got %v", err)
		}
		if res != nil {
			t.Errorf("expected nil resolution, got %+v", res)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		a, _ := c.Resolve(1990)
		b, _ := c.Resolve(1990)
		if a.Warning != b.Warning || len(a.Songs) != len(b.Songs) {
			t.Fatal("expected identical resolutions")
		}
		for i := range a.Songs {
			if a.Songs[i] != b.Songs[i] {
				t.Errorf("song %d differs: %+v vs %+v", i, a.Songs[i], b.Songs[i])
			}
		}
	})

	t.Run("results do not alias the dataset", func(t *testing.T) {
		a, _ := c.Resolve(1989)
		a.Songs[0].Title = "changed"
		b, _ := c.Resolve(1989)
		if b.Songs[0].Title != "In da Club" {
			t.Errorf("dataset was mutated: %+v", b.Songs)
		}
	})
}

func TestNew(t *testing.T) {
	t.Run("parses yaml", func(t *testing.T) {
		c, err := New([]byte(`"1999":
  - title: Believe
    artist: Cher
`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if years := c.Years(); len(years) != 1 || years[0] != 1999 {
			t.Errorf("unexpected years: %v", years)
		}
	})

	t.Run("rejects non-year keys", func(t *testing.T) {
		_, err := New([]byte("eighties:\n  - title: x\n    artist: y\n"))
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		if _, err := New([]byte("[")); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestDefault(t *testing.T) {
	c := Default()

	t.Run("every in-range year resolves or reports no data", func(t *testing.T) {
		for y := MinBirthYear; y <= MaxBirthYear; y++ {
			res, err := c.Resolve(y)
			if err != nil {
				if !errors.Is(err, shared.ErrNoSongData) {
					t.Errorf("%d: unexpected error %v", y, err)
				}
				continue
			}
			if len(res.Songs) == 0 {
				t.Errorf("%d: empty list without error", y)
			}
		}
	})

	t.Run("1990 falls back to the 2000s", func(t *testing.T) {
		res, err := c.Resolve(1990)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Fallback() {
			t.Errorf("expected fallback for 2004, got %+v", res)
		}
	})

	t.Run("sorted years", func(t *testing.T) {
		years := c.Years()
		for i := 1; i < len(years); i++ {
			if years[i-1] >= years[i] {
				t.Fatalf("years not sorted: %v", years)
			}
		}
	})
}
