// Package services wraps the Spotify Web API and the arcana server for the view and player layers.
//
// # Catalog
//
// [SpotifyService] implements [Catalog]. Profile and top tracks use [spotify.Client] with the
// user's bearer token. Playlists are fetched through the arcana playlist proxy with [APIService],
// so a card opens even before the user logs in.
//
// # Playback
//
// [PlaybackService] issues play, pause, seek, volume, transfer and device/state reads. It takes the
// token per call so the player can retry once with a refreshed token.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrPlaybackAuth] : 401 from a playback endpoint
//   - [shared.ErrPlaybackForbidden] : 403, usually a non-Premium account
//   - [shared.ErrDeviceUnavailable] : 404, no active device
//   - [shared.ErrNotAuthenticated] : no token or 401 on a read endpoint
//   - [shared.ErrPlaylistNotFound] : playlist ID not found or empty
//   - [shared.ErrAPIRequest] : any other failed request
//
// # API Mappings
//
// Both read paths produce [models.PlaylistView]: artists are comma-joined and the first image is
// used for covers. Playlist items whose track is null are skipped.
package services
