// package formatter renders song lists and run history as CSV, Markdown, JSON or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/jams/internal/catalog"
	"github.com/desertthunder/jams/internal/models"
	"github.com/desertthunder/jams/internal/shared"
)

// Supported output formats.
const (
	FormatText     = "txt"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

// Formats lists the accepted format names.
var Formats = []string{FormatText, FormatMarkdown, FormatCSV, FormatJSON}

func title(res *catalog.Resolution) string {
	return fmt.Sprintf("8th Grade Jams (%d)", res.TargetYear)
}

// SongsToCSV converts a resolution to CSV format with columns: Position, Title, Artist
func SongsToCSV(res *catalog.Resolution) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Position", "Title", "Artist"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, song := range res.Songs {
		if err := writer.Write([]string{strconv.Itoa(i + 1), song.Title, song.Artist}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// SongsToMarkdown converts a resolution to Markdown, quoting the fallback warning when present
func SongsToMarkdown(res *catalog.Resolution) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title(res))
	fmt.Fprintf(&buf, "**Birth year**: %d\n", res.BirthYear)
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(res.Songs))

	if res.Warning != "" {
		fmt.Fprintf(&buf, "> %s\n\n", res.Warning)
	}

	buf.WriteString("## Tracks\n\n")
	for i, song := range res.Songs {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, song.Artist, song.Title)
	}

	return buf.Bytes(), nil
}

// SongsToText converts a resolution to plain text format
func SongsToText(res *catalog.Resolution) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", title(res))
	if res.Warning != "" {
		fmt.Fprintf(&buf, "Note: %s\n", res.Warning)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(res.Songs))

	for i, song := range res.Songs {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, song.Artist, song.Title)
	}

	return buf.Bytes(), nil
}

// SongsToJSON converts a resolution to indented JSON
func SongsToJSON(res *catalog.Resolution) ([]byte, error) {
	return shared.MarshalJSON(res, true)
}

// FormatSongs renders a resolution in the named format.
func FormatSongs(res *catalog.Resolution, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatText, "", "text":
		return SongsToText(res)
	case FormatMarkdown, "md":
		return SongsToMarkdown(res)
	case FormatCSV:
		return SongsToCSV(res)
	case FormatJSON:
		return SongsToJSON(res)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (expected one of %s)",
			shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// Extension returns the file extension for a format.
func Extension(format string) string {
	switch strings.ToLower(format) {
	case FormatMarkdown, "md":
		return ".md"
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

// WriteSongs writes a resolution to path, creating parent directories.
//
// Defaults to jams_{targetYear}{ext} in the working directory.
func WriteSongs(res *catalog.Resolution, format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("jams_%d%s", res.TargetYear, Extension(format))
	}

	data, err := FormatSongs(res, format)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return path, nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// RunsTable renders run history as a bordered table, newest first as given.
func RunsTable(runs []*models.Run) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "BIRTH", "YEAR", "STATE", "TRACKS", "PLAYLIST", "CREATED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, r := range runs {
		playlist := r.PlaylistURL()
		if playlist == "" {
			playlist = r.PlaylistID()
		}
		state := string(r.State())
		if r.Message() != "" {
			state += ": " + r.Message()
		}
		t.Row(
			strconv.Itoa(r.Sequence()),
			strconv.Itoa(r.BirthYear()),
			strconv.Itoa(r.TargetYear()),
			state,
			fmt.Sprintf("%d/%d", r.Resolved(), r.Resolved()+r.Missing()),
			playlist,
			r.CreatedAt().Format("2006-01-02 15:04"),
		)
	}

	return t.String()
}
