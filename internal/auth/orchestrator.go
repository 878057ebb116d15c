package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/arcana/internal/models"
	"github.com/desertthunder/arcana/internal/pkce"
	"github.com/desertthunder/arcana/internal/shared"
	"github.com/desertthunder/arcana/internal/store"
	"golang.org/x/sync/singleflight"
)

// AuthorizeEndpoint is the provider's authorization page.
const AuthorizeEndpoint = "https://accounts.spotify.com/authorize"

// DefaultScopes are requested on every login.
var DefaultScopes = []string{
	"user-top-read",
	"streaming",
	"user-read-email",
	"user-read-private",
	"user-read-playback-state",
	"user-modify-playback-state",
	"app-remote-control",
}

// State is the orchestrator's login state.
type State int

const (
	LoggedOut State = iota
	AwaitingCallback
	LoggedIn
)

func (s State) String() string {
	switch s {
	case AwaitingCallback:
		return "awaiting_callback"
	case LoggedIn:
		return "logged_in"
	default:
		return "logged_out"
	}
}

// Options configures an [Orchestrator].
type Options struct {
	ClientID     string
	RedirectURI  string
	Scopes       []string
	AuthorizeURL string
	Store        *store.TokenStore
	Exchanger    Exchanger
	Navigator    Navigator
	Now          func() time.Time
	Logger       *log.Logger
}

// Orchestrator owns the login flow and the token lifecycle.
type Orchestrator struct {
	clientID     string
	redirectURI  string
	scopes       []string
	authorizeURL string
	store        *store.TokenStore
	exchanger    Exchanger
	navigator    Navigator
	now          func() time.Time
	logger       *log.Logger

	mu         sync.Mutex
	generation uint64
	flight     singleflight.Group

	watchMu  sync.Mutex
	watchers map[int]func(loggedIn bool)
	nextID   int
}

// New creates an Orchestrator. Store is required; the rest falls back to defaults.
func New(opts Options) *Orchestrator {
	if opts.Scopes == nil {
		opts.Scopes = DefaultScopes
	}
	if opts.AuthorizeURL == "" {
		opts.AuthorizeURL = AuthorizeEndpoint
	}
	if opts.Navigator == nil {
		opts.Navigator = BrowserNavigator
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Store == nil {
		opts.Store = store.NewTokenStore(store.NewMemoryStorage(), nil, opts.Logger)
	}

	return &Orchestrator{
		clientID:     opts.ClientID,
		redirectURI:  opts.RedirectURI,
		scopes:       opts.Scopes,
		authorizeURL: opts.AuthorizeURL,
		store:        opts.Store,
		exchanger:    opts.Exchanger,
		navigator:    opts.Navigator,
		now:          opts.Now,
		logger:       shared.WithPrefix(opts.Logger, "auth"),
		watchers:     make(map[int]func(bool)),
	}
}

// State derives the login state from storage.
func (o *Orchestrator) State() State {
	if b := o.store.Load(); b != nil && (b.Valid(o.now()) || b.Refreshable()) {
		return LoggedIn
	}
	if _, ok := o.store.LoadPkceVerifier(); ok {
		return AwaitingCallback
	}
	return LoggedOut
}

// AuthorizeURL builds the provider URL for the given S256 challenge.
func (o *Orchestrator) AuthorizeURL(challenge string) string {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", o.clientID)
	params.Set("scope", strings.Join(o.scopes, " "))
	params.Set("redirect_uri", o.redirectURI)
	params.Set("code_challenge_method", pkce.MethodS256)
	params.Set("code_challenge", challenge)
	params.Set("show_dialog", "true")
	return o.authorizeURL + "?" + params.Encode()
}

// PrepareLogin stores a fresh verifier and returns the authorize URL without navigating.
func (o *Orchestrator) PrepareLogin() (string, error) {
	if o.clientID == "" || o.redirectURI == "" {
		return "", shared.ErrConfiguration
	}

	pair, err := pkce.New(pkce.DefaultLength)
	if err != nil {
		return "", err
	}

	if err := o.store.SavePkceVerifier(pair.Verifier); err != nil {
		return "", fmt.Errorf("failed to store pkce verifier: %w", err)
	}

	return o.AuthorizeURL(pair.Challenge), nil
}

// StartLogin stores a fresh verifier and navigates to the authorize page.
// It returns [shared.ErrConfiguration] without navigating when client id or redirect uri is missing.
func (o *Orchestrator) StartLogin(ctx context.Context) error {
	target, err := o.PrepareLogin()
	if err != nil {
		if errors.Is(err, shared.ErrConfiguration) {
			o.logger.Error("cannot start login", "error", err)
		}
		return err
	}

	o.logger.Info("redirecting to spotify authorize page")
	return o.navigator.Navigate(ctx, target)
}

// HandleCallback processes the callback address and reports the resulting access token.
func (o *Orchestrator) HandleCallback(ctx context.Context, loc Location) (string, bool) {
	token, err := o.Callback(ctx, loc)
	if err != nil {
		return "", false
	}
	return token, token != ""
}

// Callback is [Orchestrator.HandleCallback] with the failure cause.
//
// It returns "" and a nil error when the address carries no callback parameters.
func (o *Orchestrator) Callback(ctx context.Context, loc Location) (string, error) {
	u := loc.URL()
	query := u.Query()

	if errParam := query.Get("error"); errParam != "" {
		loc.Replace(stripped(u))
		o.logger.Warn("authorization denied", "reason", errParam)
		return "", fmt.Errorf("%w: %s", shared.ErrAuthDenied, errParam)
	}

	if code := query.Get("code"); code != "" {
		loc.Replace(stripped(u))
		return o.exchangeCode(ctx, code)
	}

	if u.Fragment != "" {
		fragment, err := url.ParseQuery(u.Fragment)
		if err == nil && fragment.Get("access_token") != "" {
			loc.Replace(stripped(u))
			return o.acceptImplicit(fragment)
		}
	}

	return "", nil
}

func (o *Orchestrator) exchangeCode(ctx context.Context, code string) (string, error) {
	o.mu.Lock()
	verifier, ok := o.store.LoadPkceVerifier()
	if !ok {
		o.mu.Unlock()
		o.logger.Warn("callback has no pkce verifier, ignoring")
		return "", shared.ErrReplayOrStaleCallback
	}
	if err := o.store.ClearPkceVerifier(); err != nil {
		o.logger.Warn("failed to clear pkce verifier", "error", err)
	}
	gen := o.generation
	o.mu.Unlock()

	if o.exchanger == nil {
		return "", fmt.Errorf("%w: no exchanger configured", shared.ErrExchangeFailed)
	}

	bundle, err := o.exchanger.Exchange(ctx, code, o.redirectURI, verifier)
	if err != nil {
		var exErr *ExchangeError
		if errors.As(err, &exErr) {
			o.logger.Error("token exchange failed", "status", exErr.Status, "body", exErr.Body)
		} else {
			o.logger.Error("token exchange failed", "error", err)
		}
		return "", err
	}

	if err := o.persist(gen, bundle, true); err != nil {
		return "", err
	}

	o.logger.Info("logged in")
	o.notify(true)
	return bundle.AccessToken, nil
}

func (o *Orchestrator) acceptImplicit(fragment url.Values) (string, error) {
	expiresIn, err := strconv.ParseInt(fragment.Get("expires_in"), 10, 64)
	if err != nil || expiresIn < 0 {
		expiresIn = 0
	}

	bundle := models.TokenBundle{
		AccessToken: fragment.Get("access_token"),
		TokenType:   fragment.Get("token_type"),
		Scope:       fragment.Get("scope"),
		ExpiresIn:   expiresIn,
	}
	if bundle.TokenType == "" {
		bundle.TokenType = "Bearer"
	}

	o.mu.Lock()
	gen := o.generation
	o.mu.Unlock()

	if err := o.persist(gen, bundle, true); err != nil {
		return "", err
	}

	o.logger.Info("logged in from implicit grant")
	o.notify(true)
	return bundle.AccessToken, nil
}

// persist stamps and saves bundle unless a logout or another login happened since gen was read.
//
// A login starts a new session, so refreshes still in flight for the old bundle are discarded.
func (o *Orchestrator) persist(gen uint64, bundle models.TokenBundle, login bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.generation {
		o.logger.Warn("discarding token response from a previous session")
		return shared.ErrNotAuthenticated
	}
	if login {
		o.generation++
	}

	bundle.ObtainedAt = o.now().UnixMilli()
	if err := o.store.Save(bundle); err != nil {
		o.logger.Error("failed to persist tokens", "error", err)
		return err
	}
	return nil
}

// GetStoredAccessToken returns the stored token only while it is valid.
func (o *Orchestrator) GetStoredAccessToken() (string, bool) {
	b := o.store.Load()
	if !b.Valid(o.now()) {
		return "", false
	}
	return b.AccessToken, true
}

// RefreshAccessToken trades the stored refresh token for a new access token.
//
// A missing bundle or refresh token returns false without logging an error.
func (o *Orchestrator) RefreshAccessToken(ctx context.Context) (string, bool) {
	token, err := o.Refresh(ctx)
	if err != nil {
		return "", false
	}
	return token, true
}

// Refresh is [Orchestrator.RefreshAccessToken] with the failure cause.
// Concurrent callers share a single request.
func (o *Orchestrator) Refresh(ctx context.Context) (string, error) {
	v, err, _ := o.flight.Do("refresh", func() (any, error) {
		return o.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (o *Orchestrator) refresh(ctx context.Context) (string, error) {
	o.mu.Lock()
	current := o.store.Load()
	gen := o.generation
	o.mu.Unlock()

	if !current.Refreshable() {
		return "", shared.ErrNoRefreshToken
	}
	if o.exchanger == nil {
		return "", fmt.Errorf("%w: no exchanger configured", shared.ErrRefreshFailed)
	}

	next, err := o.exchanger.Refresh(ctx, current.RefreshToken)
	if err != nil {
		o.logger.Warn("token refresh failed", "error", err)
		return "", err
	}

	merged := current.Merge(next)
	if err := o.persist(gen, merged, false); err != nil {
		return "", err
	}

	o.logger.Debug("access token refreshed")
	o.notify(true)
	return merged.AccessToken, nil
}

// GetValidAccessToken returns the stored token when valid and refreshes otherwise.
func (o *Orchestrator) GetValidAccessToken(ctx context.Context) (string, bool) {
	if token, ok := o.GetStoredAccessToken(); ok {
		return token, true
	}
	return o.RefreshAccessToken(ctx)
}

// Logout clears the bundle and verifier and invalidates in-flight responses.
func (o *Orchestrator) Logout() error {
	o.mu.Lock()
	o.generation++
	errTokens := o.store.Clear()
	errVerifier := o.store.ClearPkceVerifier()
	o.mu.Unlock()

	o.logger.Info("logged out")
	o.notify(false)
	return errors.Join(errTokens, errVerifier)
}

// Watch registers fn to run after login, refresh and logout. The returned func unregisters it.
func (o *Orchestrator) Watch(fn func(loggedIn bool)) (cancel func()) {
	o.watchMu.Lock()
	defer o.watchMu.Unlock()

	id := o.nextID
	o.nextID++
	o.watchers[id] = fn

	return func() {
		o.watchMu.Lock()
		defer o.watchMu.Unlock()
		delete(o.watchers, id)
	}
}

func (o *Orchestrator) notify(loggedIn bool) {
	o.watchMu.Lock()
	fns := make([]func(bool), 0, len(o.watchers))
	for _, fn := range o.watchers {
		fns = append(fns, fn)
	}
	o.watchMu.Unlock()

	for _, fn := range fns {
		fn(loggedIn)
	}
}
