// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/arcana/internal/models"
	"github.com/desertthunder/arcana/internal/shared"
)

// MockCatalog is a test double for [services.Catalog]
type MockCatalog struct {
	Views map[string]*models.PlaylistView
	Top   []models.Track
	Err   error
}

func (m *MockCatalog) Profile(ctx context.Context) (*models.Profile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &models.Profile{ID: "mock", DisplayName: "Mock User", Product: "premium"}, nil
}

func (m *MockCatalog) TopTracks(ctx context.Context, timeRange models.TimeRange, limit int) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Top, nil
}

func (m *MockCatalog) Playlist(ctx context.Context, playlistID string) (*models.PlaylistView, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	view, ok := m.Views[playlistID]
	if !ok {
		return nil, shared.ErrPlaylistNotFound
	}
	return view, nil
}

// SampleView returns a two-track playlist view.
func SampleView() *models.PlaylistView {
	return &models.PlaylistView{
		Playlist: models.Playlist{ID: "pl1", Name: "Magician", SpotifyURL: "https://open.spotify.com/playlist/pl1"},
		Tracks: []models.Track{
			{Name: "Beneath the Mask", Artist: "Lyn", URI: "spotify:track:1"},
			{Name: "Wake Up, Get Up, Get Out There", Artist: "Lyn, Shoji Meguro", URI: "spotify:track:2"},
		},
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
