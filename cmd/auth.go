package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/desertthunder/arcana/internal/auth"
	"github.com/desertthunder/arcana/internal/server"
	"github.com/desertthunder/arcana/internal/shared"
	"github.com/urfave/cli/v3"
)

const loginTimeout = 2 * time.Minute

// authStatus is the `auth status` report.
type authStatus struct {
	State       string    `json:"state"`
	Valid       bool      `json:"valid"`
	Refreshable bool      `json:"refreshable"`
	Scope       string    `json:"scope,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitzero"`
}

// AuthLogin performs the PKCE login through a local callback server.
//
// The server listens on the redirect URI's address, the browser is sent to the authorize page,
// and the command returns once a callback logs in or the timeout passes.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	o, err := r.orchestrator()
	if err != nil {
		return err
	}

	target, err := o.PrepareLogin()
	if err != nil {
		return err
	}

	callbacks := server.NewCallbackHandler(o, r.logger)
	router := server.New(server.Options{
		Config:     r.config,
		Logger:     r.logger,
		Callback:   callbacks,
		Login:      o,
		HTTPClient: r.httpClient,
	})

	serveCtx, stop := context.WithCancel(ctx)
	defer stop()

	addr := r.callbackAddr()
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting callback server at %v", addr)
		serverErrors <- server.Serve(serveCtx, addr, router, r.logger)
	}()

	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL in your browser:\n%s\n\n", target)
	} else {
		r.writePlain("→ Opening browser for Spotify login...\n")
		if err := r.navigate(ctx, target); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", target)
		}
	}

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = loginTimeout
	}
	r.writePlain("→ Waiting for authorization (%v timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case result := <-callbacks.Result():
			if errors.Is(result.Err, shared.ErrInvalidInput) {
				continue
			}
			if result.Err != nil {
				return fmt.Errorf("authorization failed: %w", result.Err)
			}
			return r.reportLogin()
		case err := <-serverErrors:
			if err == nil {
				err = errors.New("server stopped")
			}
			return fmt.Errorf("callback server error: %w", err)
		case <-timer.C:
			return fmt.Errorf("%w: authorization timed out after %v", shared.ErrTimeout, timeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *Runner) reportLogin() error {
	r.writePlainln("✓ Logged in with Spotify")
	if b := r.tokens.Load(); b != nil {
		r.writePlain("  Token expires at %s\n", b.ExpiresAt().Local().Format(time.Kitchen))
	}
	r.writePlain("\nYou can now use: arcana tui\n")
	return nil
}

// callbackAddr is the listen address for the login server, taken from the redirect URI.
func (r *Runner) callbackAddr() string {
	u, err := url.Parse(r.config.Credentials.Spotify.RedirectURI)
	if err != nil || u.Host == "" || u.Port() == "" {
		return r.config.Server.Addr()
	}
	return u.Host
}

func (r *Runner) navigate(ctx context.Context, target string) error {
	nav := r.navigator
	if nav == nil {
		nav = auth.BrowserNavigator
	}
	return nav.Navigate(ctx, target)
}

// AuthStatus reports the derived login state and token expiry.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	o, err := r.orchestrator()
	if err != nil {
		return err
	}

	status := authStatus{State: o.State().String()}
	if b := r.tokens.Load(); b != nil {
		status.Valid = b.Valid(time.Now())
		status.Refreshable = b.Refreshable()
		status.Scope = b.Scope
		status.ExpiresAt = b.ExpiresAt()
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlainHeader("Spotify session")
	r.writePlain("State: %s\n", status.State)
	if status.ExpiresAt.IsZero() {
		return r.writePlain("Run 'arcana auth login' to log in.\n")
	}

	if status.Valid {
		r.writePlain("Access token: ✓ valid until %s\n", status.ExpiresAt.Local().Format(time.DateTime))
	} else {
		r.writePlain("Access token: ✗ expired at %s\n", status.ExpiresAt.Local().Format(time.DateTime))
	}
	if status.Refreshable {
		r.writePlain("Refresh token: ✓ stored\n")
	} else {
		r.writePlain("Refresh token: ✗ none\n")
	}
	if status.Scope != "" {
		r.writePlain("Scope: %s\n", status.Scope)
	}
	return nil
}

// AuthToken prints a valid access token, refreshing through the exchange endpoint when needed.
func (r *Runner) AuthToken(ctx context.Context, cmd *cli.Command) error {
	o, err := r.orchestrator()
	if err != nil {
		return err
	}

	if !cmd.Bool("refresh") {
		if token, ok := o.GetStoredAccessToken(); ok {
			return r.writePlain("%s\n", token)
		}
	}

	token, err := o.Refresh(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNoRefreshToken) {
			return fmt.Errorf("%w: run 'arcana auth login'", shared.ErrNotAuthenticated)
		}
		return err
	}
	return r.writePlain("%s\n", token)
}

// AuthLogout clears stored tokens and any pending verifier.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	o, err := r.orchestrator()
	if err != nil {
		return err
	}
	if err := o.Logout(); err != nil {
		return fmt.Errorf("failed to clear stored tokens: %w", err)
	}
	return r.writePlain("✓ Logged out\n")
}
