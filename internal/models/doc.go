// Package models defines the data carried between arcana's auth, player, and view layers.
//
// The package contains three groups of types:
//
// 1. Credentials
//   - [TokenBundle] : Access/refresh token pair with the moment it was persisted
//
// 2. Playback
//   - [PlayerSession] : Device and current-track state reported by the player
//   - [Device] : A Spotify Connect device
//   - [PlaybackState] : Account-wide playback snapshot from the Web API
//
// 3. View data
//   - [Card] : One tarot card and the playlist (or top songs) it opens
//   - [Playlist] : Playlist header shown when a card is opened
//   - [Track] : A playable track with its Spotify URI
//   - [PlaylistView] : Playlist plus its tracks
//   - [Profile] : The logged-in user's display name, product and avatar
//   - [TimeRange] : Window for the top songs view
//
// None of these types are persisted except [TokenBundle], which the token store serializes as JSON.
package models
