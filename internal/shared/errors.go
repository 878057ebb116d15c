package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrConfiguration = fmt.Errorf("missing client id or redirect uri")

	// Authentication errors
	ErrAuthDenied            = fmt.Errorf("authorization denied by provider")
	ErrReplayOrStaleCallback = fmt.Errorf("no pkce verifier for callback")
	ErrExchangeFailed        = fmt.Errorf("token exchange failed")
	ErrRefreshFailed         = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken        = fmt.Errorf("no refresh token available")
	ErrNotAuthenticated      = fmt.Errorf("not authenticated")
	ErrTimeout               = fmt.Errorf("operation timed out")

	// Playback errors
	ErrPlaybackAuth      = fmt.Errorf("playback token rejected")
	ErrPlaybackForbidden = fmt.Errorf("playback forbidden for account")
	ErrDeviceUnavailable = fmt.Errorf("no active playback device")
	ErrTransportBlocked  = fmt.Errorf("player could not connect")
	ErrPlayerNotReady    = fmt.Errorf("player not ready")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrCardNotFound       = fmt.Errorf("card not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

var userMessages = []struct {
	err error
	msg string
}{
	{ErrConfiguration, "Spotify client id and redirect uri must be configured before logging in."},
	{ErrAuthDenied, "Spotify login was cancelled or denied. Try logging in again."},
	{ErrReplayOrStaleCallback, "This login link has already been used. Start a new login."},
	{ErrExchangeFailed, "Spotify rejected the login. Try logging in again."},
	{ErrRefreshFailed, "Your Spotify session expired. Log in again."},
	{ErrNotAuthenticated, "Log in with Spotify to play tracks."},
	{ErrPlaybackForbidden, "Spotify Premium is required to play."},
	{ErrDeviceUnavailable, "No active device found. Wait for the player to become ready."},
	{ErrTransportBlocked, "The player could not reach Spotify. Check that nothing is blocking the connection."},
	{ErrPlaybackAuth, "Spotify rejected the access token. Log in again."},
	{ErrPlayerNotReady, "Player is not ready yet. One sec…"},
}

// UserMessage returns the user-facing sentence for a known error, falling back to the error text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return err.Error()
}
