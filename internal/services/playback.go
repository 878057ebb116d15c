package services

import (
	"context"
	"net/http"

	"github.com/desertthunder/arcana/internal/models"
	"github.com/zmb3/spotify/v2"
)

// PlaybackService issues playback commands with an explicit token per call.
//
// Taking the token per call lets the player retry a 401 with a refreshed token.
// Every error is mapped with [playbackError]:
//   - 401 wraps [shared.ErrPlaybackAuth]
//   - 403 wraps [shared.ErrPlaybackForbidden]
//   - 404 wraps [shared.ErrDeviceUnavailable]
type PlaybackService struct {
	baseURL    string
	httpClient *http.Client
}

// NewPlaybackService creates a PlaybackService against the Spotify Web API.
func NewPlaybackService(opts ...SpotifyOption) *PlaybackService {
	o := buildOptions(opts)
	return &PlaybackService{baseURL: o.baseURL, httpClient: o.httpClient}
}

func (p *PlaybackService) client(ctx context.Context, token string) *spotify.Client {
	return newClient(ctx, p.httpClient, p.baseURL, token)
}

func deviceOpt(deviceID string) *spotify.PlayOptions {
	if deviceID == "" {
		return nil
	}
	id := spotify.ID(deviceID)
	return &spotify.PlayOptions{DeviceID: &id}
}

// Play starts uri on deviceID.
func (p *PlaybackService) Play(ctx context.Context, token, deviceID, uri string) error {
	opt := deviceOpt(deviceID)
	if opt == nil {
		opt = &spotify.PlayOptions{}
	}
	opt.URIs = []spotify.URI{spotify.URI(uri)}
	return playbackError("play", p.client(ctx, token).PlayOpt(ctx, opt))
}

// Transfer makes deviceID the active device without starting playback.
func (p *PlaybackService) Transfer(ctx context.Context, token, deviceID string) error {
	return playbackError("transfer", p.client(ctx, token).TransferPlayback(ctx, spotify.ID(deviceID), false))
}

// Devices lists the account's Connect devices.
func (p *PlaybackService) Devices(ctx context.Context, token string) ([]models.Device, error) {
	devices, err := p.client(ctx, token).PlayerDevices(ctx)
	if err != nil {
		return nil, playbackError("devices", err)
	}

	out := make([]models.Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, models.Device{
			ID:         d.ID.String(),
			Name:       d.Name,
			Type:       d.Type,
			Active:     d.Active,
			Restricted: d.Restricted,
			Volume:     int(d.Volume),
		})
	}
	return out, nil
}

// State returns the account's current playback. Nothing playing yields a zero state.
func (p *PlaybackService) State(ctx context.Context, token string) (models.PlaybackState, error) {
	state, err := p.client(ctx, token).PlayerState(ctx)
	if err != nil {
		return models.PlaybackState{}, playbackError("state", err)
	}
	if state == nil {
		return models.PlaybackState{}, nil
	}

	out := models.PlaybackState{
		DeviceID:   state.Device.ID.String(),
		Playing:    state.Playing,
		ProgressMS: int(state.Progress),
	}
	if state.Item != nil {
		out.TrackURI = string(state.Item.URI)
	}
	return out, nil
}

// Pause pauses playback on deviceID.
func (p *PlaybackService) Pause(ctx context.Context, token, deviceID string) error {
	return playbackError("pause", p.client(ctx, token).PauseOpt(ctx, deviceOpt(deviceID)))
}

// Resume resumes playback on deviceID.
func (p *PlaybackService) Resume(ctx context.Context, token, deviceID string) error {
	return playbackError("resume", p.client(ctx, token).PlayOpt(ctx, deviceOpt(deviceID)))
}

// Seek moves playback on deviceID to positionMS.
func (p *PlaybackService) Seek(ctx context.Context, token, deviceID string, positionMS int) error {
	return playbackError("seek", p.client(ctx, token).SeekOpt(ctx, positionMS, deviceOpt(deviceID)))
}

// Volume sets the volume of deviceID in percent.
func (p *PlaybackService) Volume(ctx context.Context, token, deviceID string, percent int) error {
	return playbackError("volume", p.client(ctx, token).VolumeOpt(ctx, percent, deviceOpt(deviceID)))
}
