package player

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/arcana/internal/models"
	"github.com/desertthunder/arcana/internal/shared"
)

// State is the controller's connection state.
type State int

const (
	Uninitialized State = iota
	Connecting
	Ready
	NotReady
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	case NotReady:
		return "not_ready"
	default:
		return "uninitialized"
	}
}

// TokenSource supplies access tokens. [auth.Orchestrator] satisfies it.
type TokenSource interface {
	GetValidAccessToken(ctx context.Context) (string, bool)
	RefreshAccessToken(ctx context.Context) (string, bool)
}

// Watcher notifies on login state changes. [auth.Orchestrator] satisfies it.
type Watcher interface {
	Watch(fn func(loggedIn bool)) (cancel func())
}

// Options configures a [Controller].
type Options struct {
	Tokens   TokenSource
	API      PlaybackAPI
	Registry *Registry
	Loader   Loader
	Name     string
	Volume   float64
	Logger   *log.Logger

	// Diagnostics receives user-facing playback errors.
	Diagnostics func(err error)
}

// Controller owns one [Player] and the session it reports.
type Controller struct {
	tokens      TokenSource
	api         PlaybackAPI
	registry    *Registry
	loader      Loader
	name        string
	volume      float64
	logger      *log.Logger
	diagnostics func(error)

	mu         sync.Mutex
	state      State
	session    models.PlayerSession
	player     Player
	generation uint64
}

// NewController creates a Controller in the Uninitialized state.
func NewController(opts Options) *Controller {
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry
	}
	if opts.Name == "" {
		opts.Name = "Tarot Terminal Player"
	}
	if opts.Volume <= 0 || opts.Volume > 1 {
		opts.Volume = 0.5
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Controller{
		tokens:      opts.Tokens,
		api:         opts.API,
		registry:    opts.Registry,
		loader:      opts.Loader,
		name:        opts.Name,
		volume:      opts.Volume,
		logger:      shared.WithPrefix(opts.Logger, "player"),
		diagnostics: opts.Diagnostics,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns a snapshot of the player session.
func (c *Controller) Session() models.PlayerSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Follow tears the controller down whenever w reports a logout.
func (c *Controller) Follow(w Watcher) (cancel func()) {
	return w.Watch(func(loggedIn bool) {
		if !loggedIn {
			c.Teardown()
		}
	})
}

// Start connects a player. It is a no-op when a player already exists.
func (c *Controller) Start(ctx context.Context) error {
	if _, ok := c.tokens.GetValidAccessToken(ctx); !ok {
		c.Teardown()
		return shared.ErrNotAuthenticated
	}

	c.mu.Lock()
	if c.state != Uninitialized {
		c.mu.Unlock()
		return nil
	}
	c.state = Connecting
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	sdk, err := c.registry.Load(ctx, c.loader)
	if err != nil {
		return c.failStart(gen, fmt.Errorf("%w: %v", shared.ErrTransportBlocked, err))
	}

	p, err := sdk.NewPlayer(PlayerOptions{
		Name:          c.name,
		Volume:        c.volume,
		GetOAuthToken: c.currentToken,
		OnEvent:       func(e Event) { c.handleEvent(gen, e) },
	})
	if err != nil {
		return c.failStart(gen, fmt.Errorf("%w: %v", shared.ErrTransportBlocked, err))
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return shared.ErrNotAuthenticated
	}
	c.player = p
	c.mu.Unlock()

	if err := p.Connect(ctx); err != nil {
		p.Disconnect()
		if !errors.Is(err, shared.ErrPlaybackAuth) {
			err = fmt.Errorf("%w: %v", shared.ErrTransportBlocked, err)
		}
		return c.failStart(gen, err)
	}

	c.logger.Info("player connected", "name", c.name)
	return nil
}

func (c *Controller) failStart(gen uint64, err error) error {
	c.mu.Lock()
	if gen == c.generation {
		c.state = Uninitialized
		c.player = nil
		c.session = models.PlayerSession{}
	}
	c.mu.Unlock()

	c.logger.Error("player failed to connect", "error", err)
	c.report(err)
	return err
}

// currentToken is handed to the player and asked on every request.
func (c *Controller) currentToken(ctx context.Context) (string, error) {
	token, ok := c.tokens.GetValidAccessToken(ctx)
	if !ok {
		return "", shared.ErrPlaybackAuth
	}
	return token, nil
}

func (c *Controller) handleEvent(gen uint64, e Event) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}

	switch e.Kind {
	case EventReady:
		c.session.DeviceID = e.DeviceID
		c.session.Ready = true
		c.state = Ready
		c.mu.Unlock()

		c.logger.Info("player ready", "device", e.DeviceID)
		c.transfer(e.DeviceID)
		return
	case EventNotReady:
		c.session.Ready = false
		c.state = NotReady
		c.mu.Unlock()
		c.logger.Warn("device went offline", "device", e.DeviceID)
		return
	case EventStateChanged:
		c.session.CurrentTrackURI = e.TrackURI
		c.session.Paused = e.Paused
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	switch e.Kind {
	case EventAccountError:
		c.logger.Error("account error", "message", e.Message)
		c.report(shared.ErrPlaybackForbidden)
	case EventAuthError:
		c.logger.Error("authentication error", "message", e.Message)
		c.report(shared.ErrPlaybackAuth)
		// Events arrive on the poll loop, which Disconnect waits for.
		go c.teardownSession(gen)
	case EventInitError:
		c.logger.Error("initialization error", "message", e.Message)
	}
}

// transfer makes deviceID the active device. Failures are logged only.
func (c *Controller) transfer(deviceID string) {
	ctx := context.Background()
	token, ok := c.tokens.GetValidAccessToken(ctx)
	if !ok {
		c.logger.Warn("skipping device transfer without a token")
		return
	}
	if err := c.api.Transfer(ctx, token, deviceID); err != nil {
		c.logger.Warn("error setting active device", "error", err)
	}
}

// ready returns the player and session when the controller is Ready.
func (c *Controller) ready() (Player, models.PlayerSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Ready || c.player == nil {
		return nil, c.session, shared.ErrPlayerNotReady
	}
	return c.player, c.session, nil
}

// Play toggles pause on the current track or starts uri on this device.
func (c *Controller) Play(ctx context.Context, uri string) error {
	p, session, err := c.ready()
	if err != nil {
		return err
	}

	token, ok := c.tokens.GetValidAccessToken(ctx)
	if !ok {
		c.Teardown()
		return c.report(shared.ErrNotAuthenticated)
	}

	if uri == session.CurrentTrackURI {
		if err := c.withRefresh(ctx, token, func(string) error { return p.TogglePlay(ctx) }); err != nil {
			return c.report(err)
		}
		c.mu.Lock()
		c.session.Paused = !c.session.Paused
		c.mu.Unlock()
		return nil
	}

	return c.playURI(ctx, token, session.DeviceID, uri)
}

// Restart seeks the current track to zero or starts uri from the beginning.
func (c *Controller) Restart(ctx context.Context, uri string) error {
	p, session, err := c.ready()
	if err != nil {
		return err
	}

	token, ok := c.tokens.GetValidAccessToken(ctx)
	if !ok {
		c.Teardown()
		return c.report(shared.ErrNotAuthenticated)
	}

	if uri == session.CurrentTrackURI {
		if err := c.withRefresh(ctx, token, func(string) error { return p.Seek(ctx, 0) }); err != nil {
			return c.report(err)
		}
		return nil
	}

	return c.playURI(ctx, token, session.DeviceID, uri)
}

// Pause pauses the current track when it is playing.
func (c *Controller) Pause(ctx context.Context) error {
	p, session, err := c.ready()
	if err != nil {
		return err
	}
	if session.CurrentTrackURI == "" || session.Paused {
		return nil
	}

	token, ok := c.tokens.GetValidAccessToken(ctx)
	if !ok {
		c.Teardown()
		return c.report(shared.ErrNotAuthenticated)
	}
	if err := c.withRefresh(ctx, token, func(string) error { return p.TogglePlay(ctx) }); err != nil {
		return c.report(err)
	}
	c.mu.Lock()
	c.session.Paused = true
	c.mu.Unlock()
	return nil
}

// Seek moves the current track to positionMS.
func (c *Controller) Seek(ctx context.Context, positionMS int) error {
	p, _, err := c.ready()
	if err != nil {
		return err
	}

	token, ok := c.tokens.GetValidAccessToken(ctx)
	if !ok {
		c.Teardown()
		return c.report(shared.ErrNotAuthenticated)
	}
	if err := c.withRefresh(ctx, token, func(string) error { return p.Seek(ctx, positionMS) }); err != nil {
		return c.report(err)
	}
	return nil
}

// withRefresh runs call with token and, on a 401, once more with a refreshed token.
// A failed refresh means the token is gone and the player is torn down.
func (c *Controller) withRefresh(ctx context.Context, token string, call func(token string) error) error {
	err := call(token)
	if !errors.Is(err, shared.ErrPlaybackAuth) {
		return err
	}

	refreshed, ok := c.tokens.RefreshAccessToken(ctx)
	if !ok {
		c.Teardown()
		return shared.ErrPlaybackAuth
	}
	return call(refreshed)
}

func (c *Controller) playURI(ctx context.Context, token, deviceID, uri string) error {
	err := c.withRefresh(ctx, token, func(token string) error {
		return c.api.Play(ctx, token, deviceID, uri)
	})
	if err != nil {
		c.logger.Error("error playing track", "uri", uri, "error", err)
		return c.report(err)
	}

	c.mu.Lock()
	c.session.CurrentTrackURI = uri
	c.session.Paused = false
	c.mu.Unlock()
	return nil
}

// Teardown disconnects the player and resets to Uninitialized.
func (c *Controller) Teardown() {
	c.mu.Lock()
	c.teardownLocked()
}

// teardownSession tears down only while gen is still the current session.
func (c *Controller) teardownSession(gen uint64) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.teardownLocked()
}

// teardownLocked resets the session and releases c.mu before disconnecting.
func (c *Controller) teardownLocked() {
	p := c.player
	c.player = nil
	c.generation++
	c.session = models.PlayerSession{}
	c.state = Uninitialized
	c.mu.Unlock()

	if p != nil {
		p.Disconnect()
		c.logger.Info("player disconnected")
	}
}

func (c *Controller) report(err error) error {
	if err != nil && c.diagnostics != nil {
		c.diagnostics(err)
	}
	return err
}
