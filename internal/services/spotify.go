// Spotify API implementation of [Catalog] and the playback surface
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/arcana/internal/models"
	"github.com/desertthunder/arcana/internal/shared"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

const (
	spotifyBaseURL  = "https://api.spotify.com/v1/"
	defaultTopLimit = 20
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
// Track is nil for items Spotify can no longer resolve.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

type playlistTracks struct {
	Total int                    `json:"total"`
	Items []SpotifyPlaylistTrack `json:"items"`
}

// SpotifyPlaylist represents a Spotify playlist as returned by the playlist proxy.
type SpotifyPlaylist struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Tracks       playlistTracks `json:"tracks"`
	Images       []SpotifyImage `json:"images"`
	ExternalURLs externalURLs   `json:"external_urls"`
	URI          string         `json:"uri"`
}

// SpotifyService reads profile, top tracks and playlists.
//
// Profile and top tracks go to the Web API with the user's token through [spotify.Client].
// Playlists go through the arcana playlist proxy, which holds an app token.
type SpotifyService struct {
	token      TokenFunc
	baseURL    string
	httpClient *http.Client
	proxy      *APIService
}

// SpotifyOption configures a [SpotifyService] or [PlaybackService].
type SpotifyOption func(*spotifyOptions)

type spotifyOptions struct {
	baseURL    string
	httpClient *http.Client
}

// WithBaseURL points the Web API client at another host. Used by tests.
func WithBaseURL(u string) SpotifyOption {
	return func(o *spotifyOptions) { o.baseURL = u }
}

// WithHTTPClient sets the base HTTP client that bearer auth is layered on.
func WithHTTPClient(c *http.Client) SpotifyOption {
	return func(o *spotifyOptions) { o.httpClient = c }
}

func buildOptions(opts []SpotifyOption) spotifyOptions {
	o := spotifyOptions{baseURL: spotifyBaseURL, httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(&o)
	}
	if !strings.HasSuffix(o.baseURL, "/") {
		o.baseURL += "/"
	}
	return o
}

// NewSpotifyService creates a SpotifyService. proxy may be nil when playlists are not needed.
func NewSpotifyService(token TokenFunc, proxy *APIService, opts ...SpotifyOption) *SpotifyService {
	o := buildOptions(opts)
	return &SpotifyService{token: token, baseURL: o.baseURL, httpClient: o.httpClient, proxy: proxy}
}

// newClient builds a Web API client that sends token as a bearer.
func newClient(ctx context.Context, base *http.Client, baseURL, token string) *spotify.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return spotify.New(oauth2.NewClient(ctx, src), spotify.WithBaseURL(baseURL))
}

func (s *SpotifyService) client(ctx context.Context) (*spotify.Client, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}
	return newClient(ctx, s.httpClient, s.baseURL, token), nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Profile retrieves the current authenticated user's profile.
func (s *SpotifyService) Profile(ctx context.Context) (*models.Profile, error) {
	c, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	user, err := c.CurrentUser(ctx)
	if err != nil {
		return nil, readError("profile", err)
	}

	p := &models.Profile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Product:     user.Product,
	}
	if len(user.Images) > 0 {
		p.Image = user.Images[0].URL
	}
	return p, nil
}

// TopTracks retrieves the user's top tracks for timeRange.
func (s *SpotifyService) TopTracks(ctx context.Context, timeRange models.TimeRange, limit int) ([]models.Track, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > 50 {
		limit = 50
	}
	if timeRange == "" {
		timeRange = models.ShortTerm
	}

	c, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	page, err := c.CurrentUsersTopTracks(ctx, spotify.Timerange(spotify.Range(timeRange)), spotify.Limit(limit))
	if err != nil {
		return nil, readError("top tracks", err)
	}

	tracks := make([]models.Track, 0, len(page.Tracks))
	for _, t := range page.Tracks {
		track := models.Track{Name: t.Name, URI: string(t.URI)}
		names := make([]string, 0, len(t.Artists))
		for _, a := range t.Artists {
			names = append(names, a.Name)
		}
		track.Artist = strings.Join(names, ", ")
		if len(t.Album.Images) > 0 {
			track.AlbumCover = t.Album.Images[0].URL
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// TopSongs builds the Fool card view from the user's top tracks.
func (s *SpotifyService) TopSongs(ctx context.Context, timeRange models.TimeRange, limit int) (*models.PlaylistView, error) {
	return TopSongs(ctx, s, timeRange, limit)
}

// Playlist retrieves a playlist by ID through the playlist proxy.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*models.PlaylistView, error) {
	if s.proxy == nil {
		return nil, fmt.Errorf("%w: no playlist proxy configured", shared.ErrServiceUnavailable)
	}
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	resp, err := s.proxy.Get(ctx, "/api/playlist/"+url.PathEscape(playlistID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	case !resp.OK():
		return nil, fmt.Errorf("%w: playlist proxy returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var sp SpotifyPlaylist
	if err := resp.Decode(&sp); err != nil {
		return nil, fmt.Errorf("%w: playlist: %v", shared.ErrAPIRequest, err)
	}

	view := PlaylistView(sp)
	if len(view.Tracks) == 0 {
		return nil, fmt.Errorf("%w: playlist %s is empty", shared.ErrPlaylistNotFound, playlistID)
	}
	return view, nil
}

// PlaylistView converts a proxy playlist into the view model.
func PlaylistView(sp SpotifyPlaylist) *models.PlaylistView {
	view := &models.PlaylistView{
		Playlist: models.Playlist{
			ID:         sp.ID,
			Name:       sp.Name,
			SpotifyURL: sp.ExternalURLs.Spotify,
		},
	}
	if len(sp.Images) > 0 {
		view.Playlist.Image = sp.Images[0].URL
	}

	for _, item := range sp.Tracks.Items {
		if item.Track == nil || item.Track.URI == "" {
			continue
		}

		names := make([]string, 0, len(item.Track.Artists))
		for _, a := range item.Track.Artists {
			names = append(names, a.Name)
		}

		track := models.Track{
			Name:   item.Track.Name,
			Artist: strings.Join(names, ", "),
			URI:    item.Track.URI,
		}
		if len(item.Track.Album.Images) > 0 {
			track.AlbumCover = item.Track.Album.Images[0].URL
		}
		view.Tracks = append(view.Tracks, track)
	}
	return view
}

// OpenCard loads the view for a card. See [OpenCard].
func (s *SpotifyService) OpenCard(ctx context.Context, card models.Card, timeRange models.TimeRange) (*models.PlaylistView, error) {
	return OpenCard(ctx, s, card, timeRange)
}
