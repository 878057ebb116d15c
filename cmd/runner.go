package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/arcana/internal/auth"
	"github.com/desertthunder/arcana/internal/models"
	"github.com/desertthunder/arcana/internal/player"
	"github.com/desertthunder/arcana/internal/server"
	"github.com/desertthunder/arcana/internal/services"
	"github.com/desertthunder/arcana/internal/shared"
	"github.com/desertthunder/arcana/internal/store"
	"github.com/urfave/cli/v3"
)

// embeddedURL is the base URL handed to clients of the in-process endpoint.
const embeddedURL = "http://arcana.local"

// CardOpener loads the view behind a card. [services.SpotifyService] implements it.
type CardOpener interface {
	OpenCard(ctx context.Context, card models.Card, timeRange models.TimeRange) (*models.PlaylistView, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, orchestrator and Spotify clients are built on first use so that
// setup commands run without a configured account.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	navigator  auth.Navigator
	apiBase    string

	db         *sql.DB
	tokens     *store.TokenStore
	exchanger  auth.Exchanger
	auth       *auth.Orchestrator
	cards      CardOpener
	playback   *services.PlaybackService
	registry   *player.Registry
	controller *player.Controller
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Tokens, Exchanger, Cards, Playback and Registry replace the defaults built from Config. Tests use them.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Navigator  auth.Navigator
	APIBase    string

	Tokens    *store.TokenStore
	Exchanger auth.Exchanger
	Cards     CardOpener
	Playback  *services.PlaybackService
	Registry  *player.Registry
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Registry == nil {
		opts.Registry = player.DefaultRegistry
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		navigator:  opts.Navigator,
		apiBase:    opts.APIBase,
		tokens:     opts.Tokens,
		exchanger:  opts.Exchanger,
		cards:      opts.Cards,
		playback:   opts.Playback,
		registry:   opts.Registry,
	}
}

// SetLogger swaps the logger used by commands and by dependencies built afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, cardsCommand, playerCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Close releases the database when one was opened.
func (r *Runner) Close() error {
	if r.controller != nil {
		r.controller.Teardown()
	}
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// tokenStore opens the database on first use and picks the verifier medium from config.
func (r *Runner) tokenStore() (*store.TokenStore, error) {
	if r.tokens != nil {
		return r.tokens, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	r.db = db

	durable := store.NewSQLiteStorage(db)
	var verifier store.Storage = durable
	if r.config.Storage.Verifier == shared.StorageSession {
		verifier = store.NewMemoryStorage()
	}

	r.tokens = store.NewTokenStore(durable, verifier, r.logger)
	return r.tokens, nil
}

// serverClient returns the base URL and client for the exchange endpoint and playlist proxy.
//
// A configured exchange_url wins. Otherwise a client secret means the endpoint runs
// in-process, and without one the CLI expects `arcana serve` on the configured address.
func (r *Runner) serverClient() (string, *http.Client) {
	if u := r.config.Server.ExchangeURL; u != "" {
		return u, r.httpClient
	}
	if r.config.Credentials.Spotify.ClientSecret != "" {
		router := server.New(server.Options{
			Config:     r.config,
			Logger:     shared.WithPrefix(r.logger, "embedded"),
			HTTPClient: r.httpClient,
		})
		return embeddedURL, &http.Client{Transport: server.LocalTransport(router)}
	}
	return "http://" + r.config.Server.Addr(), r.httpClient
}

// orchestrator builds the auth orchestrator on first use.
func (r *Runner) orchestrator() (*auth.Orchestrator, error) {
	if r.auth != nil {
		return r.auth, nil
	}

	tokens, err := r.tokenStore()
	if err != nil {
		return nil, err
	}

	if r.exchanger == nil {
		base, client := r.serverClient()
		r.exchanger = auth.NewHTTPExchanger(base, client)
	}

	creds := r.config.Credentials.Spotify
	r.auth = auth.New(auth.Options{
		ClientID:    creds.ClientID,
		RedirectURI: creds.RedirectURI,
		Store:       tokens,
		Exchanger:   r.exchanger,
		Navigator:   r.navigator,
		Logger:      r.logger,
	})
	return r.auth, nil
}

// accessToken adapts the orchestrator to [services.TokenFunc].
func (r *Runner) accessToken(o *auth.Orchestrator) services.TokenFunc {
	return func(ctx context.Context) (string, error) {
		token, ok := o.GetValidAccessToken(ctx)
		if !ok {
			return "", shared.ErrNotAuthenticated
		}
		return token, nil
	}
}

func (r *Runner) spotifyOptions() []services.SpotifyOption {
	opts := []services.SpotifyOption{services.WithHTTPClient(r.httpClient)}
	if r.apiBase != "" {
		opts = append(opts, services.WithBaseURL(r.apiBase))
	}
	return opts
}

// cardOpener builds the read service on first use.
func (r *Runner) cardOpener() (CardOpener, error) {
	if r.cards != nil {
		return r.cards, nil
	}

	o, err := r.orchestrator()
	if err != nil {
		return nil, err
	}

	base, client := r.serverClient()
	r.cards = services.NewSpotifyService(r.accessToken(o), services.NewAPIService(base, client), r.spotifyOptions()...)
	return r.cards, nil
}

// playbackService builds the Web API playback client on first use.
func (r *Runner) playbackService() *services.PlaybackService {
	if r.playback == nil {
		r.playback = services.NewPlaybackService(r.spotifyOptions()...)
	}
	return r.playback
}

// playerController builds the session controller on first use. diagnostics may be nil.
func (r *Runner) playerController(diagnostics func(error)) (*player.Controller, error) {
	if r.controller != nil {
		return r.controller, nil
	}

	o, err := r.orchestrator()
	if err != nil {
		return nil, err
	}

	cfg := r.config.Player
	if cfg.Name == "" {
		cfg.Name = "arcana-" + shared.ShortID()
	}
	api := r.playbackService()
	sdk := player.NewConnectSDK(api, cfg.DeviceName, time.Duration(cfg.PollIntervalMS)*time.Millisecond, r.logger)

	r.registry.OnReady(func(player.SDK) { r.logger.Debug("playback sdk loaded", "device", cfg.DeviceName) })

	r.controller = player.NewController(player.Options{
		Tokens:      o,
		API:         api,
		Registry:    r.registry,
		Loader:      sdk.Loader(),
		Name:        cfg.Name,
		Volume:      float64(cfg.Volume) / 100,
		Logger:      r.logger,
		Diagnostics: diagnostics,
	})
	r.controller.Follow(o)
	return r.controller, nil
}

// startPlayer connects the controller and requires a ready device.
func (r *Runner) startPlayer(ctx context.Context) (*player.Controller, error) {
	c, err := r.playerController(nil)
	if err != nil {
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		return nil, err
	}
	if c.State() != player.Ready {
		return nil, shared.ErrDeviceUnavailable
	}
	return c, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
