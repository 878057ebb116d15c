package models

// Playlist is the header of an opened card.
type Playlist struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	Image      string `json:"image,omitempty"`
	SpotifyURL string `json:"spotify_url,omitempty"`
	IsTopSongs bool   `json:"is_top_songs,omitempty"`
}

// Track is a playable entry in a playlist view.
type Track struct {
	Name       string `json:"name"`
	Artist     string `json:"artist"` // comma-joined artist names
	AlbumCover string `json:"album_cover,omitempty"`
	URI        string `json:"uri"`
}

// PlaylistView is everything the view layer renders for one card.
type PlaylistView struct {
	Playlist Playlist `json:"playlist"`
	Tracks   []Track  `json:"tracks"`
}
