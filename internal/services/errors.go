package services

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/desertthunder/arcana/internal/shared"
	"github.com/zmb3/spotify/v2"
)

var statusPattern = regexp.MustCompile(`HTTP (\d{3})`)

// StatusOf extracts the HTTP status from a Spotify client error, or 0.
func StatusOf(err error) int {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	var apiErrPtr *spotify.Error
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Status
	}
	if err != nil {
		if m := statusPattern.FindStringSubmatch(err.Error()); m != nil {
			status, _ := strconv.Atoi(m[1])
			return status
		}
	}
	return 0
}

// playbackError maps a playback failure onto the shared sentinels.
func playbackError(op string, err error) error {
	if err == nil {
		return nil
	}

	switch StatusOf(err) {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s: %v", shared.ErrPlaybackAuth, op, err)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s: %v", shared.ErrPlaybackForbidden, op, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s: %v", shared.ErrDeviceUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, op, err)
}

// readError maps a read failure onto the shared sentinels.
func readError(op string, err error) error {
	if err == nil {
		return nil
	}

	switch StatusOf(err) {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s: %v", shared.ErrNotAuthenticated, op, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s: %v", shared.ErrPlaylistNotFound, op, err)
	}
	return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, op, err)
}
