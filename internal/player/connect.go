package player

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/arcana/internal/models"
	"github.com/desertthunder/arcana/internal/shared"
)

// DefaultPollInterval is how often a [ConnectPlayer] reads playback state.
const DefaultPollInterval = time.Second

// ConnectSDK builds players that control an existing Spotify Connect device.
type ConnectSDK struct {
	api          DeviceAPI
	deviceName   string
	pollInterval time.Duration
	logger       *log.Logger
}

// NewConnectSDK creates a ConnectSDK. An empty deviceName picks the active device, or the first one.
func NewConnectSDK(api DeviceAPI, deviceName string, pollInterval time.Duration, logger *log.Logger) *ConnectSDK {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ConnectSDK{api: api, deviceName: deviceName, pollInterval: pollInterval, logger: logger}
}

// Loader returns a [Loader] that yields this SDK.
func (s *ConnectSDK) Loader() Loader {
	return func(context.Context) (SDK, error) { return s, nil }
}

func (s *ConnectSDK) NewPlayer(opts PlayerOptions) (Player, error) {
	if opts.GetOAuthToken == nil {
		return nil, errors.New("player requires a token callback")
	}
	if opts.OnEvent == nil {
		opts.OnEvent = func(Event) {}
	}
	return &ConnectPlayer{
		sdk:    s,
		opts:   opts,
		logger: shared.WithPrefix(s.logger, "connect"),
	}, nil
}

// ConnectPlayer is a [Player] bound to one Connect device.
type ConnectPlayer struct {
	sdk    *ConnectSDK
	opts   PlayerOptions
	logger *log.Logger

	mu       sync.Mutex
	deviceID string
	ready    bool
	last     models.PlaybackState
	cancel   context.CancelFunc
	done     chan struct{}
}

// Connect finds the target device, emits ready when it is present, and starts polling.
func (p *ConnectPlayer) Connect(ctx context.Context) error {
	if err := p.poll(ctx); err != nil {
		return err
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go p.loop(pollCtx, done)
	return nil
}

func (p *ConnectPlayer) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.sdk.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.poll(ctx); err != nil && ctx.Err() == nil {
				p.logger.Debug("poll failed", "error", err)
			}
		}
	}
}

// poll refreshes device presence and playback state, emitting events on change.
func (p *ConnectPlayer) poll(ctx context.Context) error {
	token, err := p.opts.GetOAuthToken(ctx)
	if err != nil {
		p.emitError(err)
		return err
	}

	devices, err := p.sdk.api.Devices(ctx, token)
	if err != nil {
		p.emitError(err)
		return err
	}

	device, found := p.pick(devices)

	p.mu.Lock()
	wasReady, prevID := p.ready, p.deviceID
	p.ready = found
	if found {
		p.deviceID = device.ID
	}
	p.mu.Unlock()

	switch {
	case found && (!wasReady || prevID != device.ID):
		p.logger.Info("device available", "name", device.Name)
		p.applyVolume(ctx, token, device.ID)
		p.opts.OnEvent(Event{Kind: EventReady, DeviceID: device.ID})
	case !found && wasReady:
		p.opts.OnEvent(Event{Kind: EventNotReady, DeviceID: prevID})
		return nil
	case !found:
		return nil
	}

	state, err := p.sdk.api.State(ctx, token)
	if err != nil {
		p.emitError(err)
		return err
	}
	if state.DeviceID != device.ID {
		return nil
	}

	p.mu.Lock()
	changed := state.TrackURI != p.last.TrackURI || state.Playing != p.last.Playing
	p.last = state
	p.mu.Unlock()

	if changed {
		p.opts.OnEvent(Event{Kind: EventStateChanged, DeviceID: device.ID, TrackURI: state.TrackURI, Paused: !state.Playing})
	}
	return nil
}

func (p *ConnectPlayer) pick(devices []models.Device) (models.Device, bool) {
	name := p.sdk.deviceName
	if name != "" {
		for _, d := range devices {
			if strings.EqualFold(d.Name, name) {
				return d, true
			}
		}
		return models.Device{}, false
	}

	for _, d := range devices {
		if d.Active && !d.Restricted {
			return d, true
		}
	}
	for _, d := range devices {
		if !d.Restricted {
			return d, true
		}
	}
	return models.Device{}, false
}

func (p *ConnectPlayer) applyVolume(ctx context.Context, token, deviceID string) {
	percent := int(p.opts.Volume * 100)
	if percent <= 0 {
		return
	}
	if err := p.sdk.api.Volume(ctx, token, deviceID, percent); err != nil {
		p.logger.Debug("could not set volume", "error", err)
	}
}

func (p *ConnectPlayer) emitError(err error) {
	switch {
	case errors.Is(err, shared.ErrPlaybackAuth):
		p.opts.OnEvent(Event{Kind: EventAuthError, Message: err.Error()})
	case errors.Is(err, shared.ErrPlaybackForbidden):
		p.opts.OnEvent(Event{Kind: EventAccountError, Message: err.Error()})
	}
}

func (p *ConnectPlayer) device() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		return "", shared.ErrDeviceUnavailable
	}
	return p.deviceID, nil
}

// TogglePlay pauses when the device is playing and resumes otherwise.
func (p *ConnectPlayer) TogglePlay(ctx context.Context) error {
	deviceID, err := p.device()
	if err != nil {
		return err
	}
	token, err := p.opts.GetOAuthToken(ctx)
	if err != nil {
		return err
	}

	state, err := p.sdk.api.State(ctx, token)
	if err != nil {
		return err
	}

	if state.Playing && state.DeviceID == deviceID {
		err = p.sdk.api.Pause(ctx, token, deviceID)
	} else {
		err = p.sdk.api.Resume(ctx, token, deviceID)
	}
	if err != nil {
		return err
	}

	state.Playing = !state.Playing
	p.mu.Lock()
	p.last = state
	p.mu.Unlock()
	return nil
}

func (p *ConnectPlayer) Seek(ctx context.Context, positionMS int) error {
	deviceID, err := p.device()
	if err != nil {
		return err
	}
	token, err := p.opts.GetOAuthToken(ctx)
	if err != nil {
		return err
	}
	return p.sdk.api.Seek(ctx, token, deviceID, positionMS)
}

// Disconnect stops polling. It is safe to call more than once.
func (p *ConnectPlayer) Disconnect() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.ready = false
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
