package player

import (
	"context"

	"github.com/desertthunder/arcana/internal/models"
)

// EventKind names an event emitted by a [Player].
type EventKind string

const (
	EventReady        EventKind = "ready"
	EventNotReady     EventKind = "not_ready"
	EventStateChanged EventKind = "player_state_changed"
	EventAccountError EventKind = "account_error"
	EventAuthError    EventKind = "authentication_error"
	EventInitError    EventKind = "initialization_error"
)

// Event is a notification from a [Player].
type Event struct {
	Kind     EventKind
	DeviceID string
	TrackURI string
	Paused   bool
	Message  string
}

// TokenFunc returns the current access token. Players call it before every request.
type TokenFunc func(ctx context.Context) (string, error)

// PlayerOptions configures a [Player].
type PlayerOptions struct {
	Name          string
	Volume        float64 // 0..1
	GetOAuthToken TokenFunc
	OnEvent       func(Event)
}

// Player is one playback device connection.
type Player interface {
	Connect(ctx context.Context) error
	Disconnect()
	TogglePlay(ctx context.Context) error
	Seek(ctx context.Context, positionMS int) error
}

// SDK creates players.
type SDK interface {
	NewPlayer(opts PlayerOptions) (Player, error)
}

// PlaybackAPI issues account-level playback commands against a device.
type PlaybackAPI interface {
	Play(ctx context.Context, token, deviceID, uri string) error
	Transfer(ctx context.Context, token, deviceID string) error
}

// DeviceAPI is the Web API surface used by [ConnectPlayer].
type DeviceAPI interface {
	Devices(ctx context.Context, token string) ([]models.Device, error)
	State(ctx context.Context, token string) (models.PlaybackState, error)
	Pause(ctx context.Context, token, deviceID string) error
	Resume(ctx context.Context, token, deviceID string) error
	Seek(ctx context.Context, token, deviceID string, positionMS int) error
	Volume(ctx context.Context, token, deviceID string, percent int) error
}
