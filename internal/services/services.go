// package services defines the read and playback surfaces of the Spotify Web API used by arcana
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/arcana/internal/models"
	"github.com/desertthunder/arcana/internal/shared"
)

// TokenFunc returns the access token to send with a request.
type TokenFunc func(ctx context.Context) (string, error)

// Catalog reads the data a card opens.
type Catalog interface {
	// Profile returns the current user's profile.
	Profile(ctx context.Context) (*models.Profile, error)

	// TopTracks returns the current user's top tracks for a time range.
	TopTracks(ctx context.Context, timeRange models.TimeRange, limit int) ([]models.Track, error)

	// Playlist returns a playlist and its tracks through the playlist proxy.
	Playlist(ctx context.Context, playlistID string) (*models.PlaylistView, error)
}

// TopSongs builds the Fool card view: the user's top tracks headed by their profile image.
func TopSongs(ctx context.Context, c Catalog, timeRange models.TimeRange, limit int) (*models.PlaylistView, error) {
	tracks, err := c.TopTracks(ctx, timeRange, limit)
	if err != nil {
		return nil, err
	}

	view := &models.PlaylistView{
		Playlist: models.Playlist{Name: "Your Top Songs", IsTopSongs: true},
		Tracks:   tracks,
	}

	// Missing profile image is cosmetic.
	if p, err := c.Profile(ctx); err == nil {
		view.Playlist.Image = p.Image
	}
	return view, nil
}

// OpenCard loads the view for a card: top songs for the Fool, the playlist otherwise.
func OpenCard(ctx context.Context, c Catalog, card models.Card, timeRange models.TimeRange) (*models.PlaylistView, error) {
	if card.TopSongs {
		if timeRange == "" {
			timeRange = models.ShortTerm
		}
		return TopSongs(ctx, c, timeRange, defaultTopLimit)
	}
	if card.PlaylistID == "" {
		return nil, fmt.Errorf("%w: card %s has no playlist", shared.ErrInvalidConfig, card.Key)
	}
	return c.Playlist(ctx, card.PlaylistID)
}
