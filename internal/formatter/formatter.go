// package formatter provides functions to export an opened card's playlist to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/desertthunder/arcana/internal/models"
)

// Formats accepted by [Render].
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

// ExportToCSV converts a PlaylistView to CSV format with columns: Position, Name, Artist, URI, AlbumCover
func ExportToCSV(view *models.PlaylistView) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Name", "Artist", "URI", "AlbumCover"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range view.Tracks {
		record := []string{
			strconv.Itoa(i + 1),
			track.Name,
			track.Artist,
			track.URI,
			track.AlbumCover,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a PlaylistView to Markdown format with optional cover image
func ExportToMarkdown(view *models.PlaylistView, card *models.Card, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	if card != nil {
		fmt.Fprintf(&buf, "# %s\n\n", card.Title())
		fmt.Fprintf(&buf, "**Playlist**: %s\n\n", view.Playlist.Name)
	} else {
		fmt.Fprintf(&buf, "# %s\n\n", view.Playlist.Name)
	}

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	if view.Playlist.SpotifyURL != "" {
		fmt.Fprintf(&buf, "[Open in Spotify](%s)\n\n", view.Playlist.SpotifyURL)
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(view.Tracks))

	buf.WriteString("## Tracks\n\n")
	for i, track := range view.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.Artist, track.Name)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a PlaylistView to plain text format
func ExportToText(view *models.PlaylistView) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", view.Playlist.Name)
	if view.Playlist.SpotifyURL != "" {
		fmt.Fprintf(&buf, "Spotify: %s\n", view.Playlist.SpotifyURL)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(view.Tracks))

	for i, track := range view.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.Artist, track.Name)
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders the view as indented JSON.
func ExportToJSON(view *models.PlaylistView) ([]byte, error) {
	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal playlist: %w", err)
	}
	return append(data, '\n'), nil
}

// Render formats the view without touching the filesystem. Markdown carries no cover image.
func Render(view *models.PlaylistView, card *models.Card, format string) ([]byte, error) {
	switch format {
	case "", FormatText:
		return ExportToText(view)
	case FormatMarkdown, "md":
		return ExportToMarkdown(view, card, "")
	case FormatCSV:
		return ExportToCSV(view)
	case FormatJSON:
		return ExportToJSON(view)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports a card's playlist to Markdown format in a dedicated directory.
//
// Directory name defaults to the card key, then the playlist ID.
// If the playlist has an image it is downloaded next to the README; download failures only skip the cover.
// Creates a directory structure: {dir}/README.md and optionally {dir}/cover.jpg
func WriteMarkdownExport(client *http.Client, view *models.PlaylistView, card *models.Card, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = view.Playlist.ID
		if card != nil {
			outputDir = card.Key
		}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if view.Playlist.Image != "" {
		if imageData, err := DownloadImage(client, view.Playlist.Image); err == nil {
			coverImagePath := filepath.Join(outputDir, "cover.jpg")
			if err := os.WriteFile(coverImagePath, imageData, 0644); err == nil {
				coverImageFilename = "cover.jpg"
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(view, card, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteExport renders the view in format and writes it to path.
func WriteExport(view *models.PlaylistView, card *models.Card, format, path string) error {
	data, err := Render(view, card, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return nil
}
