package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/arcana/internal/auth"
	"github.com/desertthunder/arcana/internal/models"
	"github.com/desertthunder/arcana/internal/player"
	"github.com/desertthunder/arcana/internal/shared"
	"github.com/desertthunder/arcana/internal/store"
	tu "github.com/desertthunder/arcana/internal/testing"
)

type fakeExchanger struct {
	exchanged int
	refreshed int
}

func (f *fakeExchanger) Exchange(_ context.Context, code, _, verifier string) (models.TokenBundle, error) {
	f.exchanged++
	if code != "good-code" || verifier == "" {
		return models.TokenBundle{}, fmt.Errorf("%w: invalid_grant", shared.ErrExchangeFailed)
	}
	return models.TokenBundle{AccessToken: "AT", TokenType: "Bearer", ExpiresIn: 3600, RefreshToken: "RT"}, nil
}

func (f *fakeExchanger) Refresh(_ context.Context, refreshToken string) (models.TokenBundle, error) {
	f.refreshed++
	if refreshToken != "RT" {
		return models.TokenBundle{}, fmt.Errorf("%w: revoked", shared.ErrRefreshFailed)
	}
	return models.TokenBundle{AccessToken: "AT2", TokenType: "Bearer", ExpiresIn: 3600}, nil
}

type fakeCards struct {
	opened []models.Card
	err    error
}

func (f *fakeCards) OpenCard(_ context.Context, card models.Card, _ models.TimeRange) (*models.PlaylistView, error) {
	f.opened = append(f.opened, card)
	if f.err != nil {
		return nil, f.err
	}
	return tu.SampleView(), nil
}

// newTestRunner writes cfg to a temp config file and returns a runner with in-memory tokens.
func newTestRunner(t *testing.T, cfg *shared.Config, opts RunnerOpts) (*Runner, *bytes.Buffer, string) {
	t.Helper()
	clearSpotifyEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := shared.SaveConfig(path, cfg); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	out := &bytes.Buffer{}
	opts.Output = out
	opts.Logger = shared.NewLogger(io.Discard)
	opts.Registry = player.NewRegistry()
	if opts.Tokens == nil {
		opts.Tokens = store.NewTokenStore(store.NewMemoryStorage(), nil, opts.Logger)
	}

	r := NewRunner(opts)
	t.Cleanup(func() { r.Close() })
	return r, out, path
}

func clearSpotifyEnv(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "")
	t.Setenv("SPOTIFY_REDIRECT_URI", "")
}

func runApp(r *Runner, path string, args ...string) error {
	return newApp(r).Run(context.Background(), append([]string{"arcana", "--config", path}, args...))
}

func validBundle(access string) models.TokenBundle {
	return models.TokenBundle{
		AccessToken:  access,
		TokenType:    "Bearer",
		Scope:        "streaming",
		ExpiresIn:    3600,
		RefreshToken: "RT",
		ObtainedAt:   time.Now().UnixMilli(),
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			cards := &fakeCards{}
			exchanger := &fakeExchanger{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Cards:      cards,
				Exchanger:  exchanger,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.cards != cards {
				t.Error("expected cards to be set")
			}
			if runner.exchanger != exchanger {
				t.Error("expected exchanger to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Logger: nil,
			})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil registry uses the process registry", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.registry != player.DefaultRegistry {
				t.Error("expected registry to default to player.DefaultRegistry")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				HTTPClient: nil,
			})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "auth", "cards", "player", "serve", "tui"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})

	t.Run("callbackAddr", func(t *testing.T) {
		tests := []struct {
			name     string
			redirect string
			want     string
		}{
			{"from redirect uri", "http://127.0.0.1:8888/callback", "127.0.0.1:8888"},
			{"no port falls back to server", "https://arcana.example.com/callback", "127.0.0.1:3000"},
			{"empty falls back to server", "", "127.0.0.1:3000"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				config := shared.DefaultConfig()
				config.Credentials.Spotify.RedirectURI = tt.redirect
				runner := NewRunner(RunnerOpts{Config: config})

				if got := runner.callbackAddr(); got != tt.want {
					t.Errorf("expected %s, got %s", tt.want, got)
				}
			})
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("Config", func(t *testing.T) {
		clearSpotifyEnv(t)
		path := filepath.Join(t.TempDir(), "config.toml")
		out := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: out, Logger: shared.NewLogger(io.Discard)})

		if err := runApp(runner, path, "setup", "config", "--client-id", "abc"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		config, err := shared.LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load written config: %v", err)
		}
		if config.Credentials.Spotify.ClientID != "abc" {
			t.Errorf("expected client id abc, got %s", config.Credentials.Spotify.ClientID)
		}

		err = runApp(runner, path, "setup", "config")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for existing file, got %v", err)
		}

		if err := runApp(runner, path, "setup", "config", "--force"); err != nil {
			t.Fatalf("expected overwrite to succeed, got %v", err)
		}
		if !strings.Contains(tu.MustReadFile(t, path), "# arcana configuration") {
			t.Error("expected the commented template")
		}
	})

	t.Run("Database", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(t.TempDir(), "arcana.db")
		runner, out, path := newTestRunner(t, config, RunnerOpts{})

		if err := runApp(runner, path, "setup", "database"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, config.Database.Path)
		if !strings.Contains(out.String(), "Database ready") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("Database Reset Discards Tokens", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(t.TempDir(), "arcana.db")

		seed := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard)})
		tokens, err := seed.tokenStore()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tokens.Save(validBundle("AT"))
		seed.Close()

		runner, _, path := newTestRunner(t, config, RunnerOpts{})
		if err := runApp(runner, path, "setup", "database", "--reset"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		check := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard)})
		defer check.Close()
		tokens, err = check.tokenStore()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tokens.Load() != nil {
			t.Error("expected stored tokens to be gone after reset")
		}
	})

	t.Run("Invalid Config Fails Before Commands", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Storage.Verifier = "cookie"
		runner, _, path := newTestRunner(t, config, RunnerOpts{})

		if err := runApp(runner, path, "cards", "list"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestTokenStorage(t *testing.T) {
	tests := []struct {
		medium  string
		durable bool
	}{
		{shared.StorageDurable, true},
		{shared.StorageSession, false},
	}

	for _, tt := range tests {
		t.Run(tt.medium, func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Database.Path = filepath.Join(t.TempDir(), "arcana.db")
			config.Storage.Verifier = tt.medium

			first := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard)})
			tokens, err := first.tokenStore()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if err := tokens.SavePkceVerifier("verifier"); err != nil {
				t.Fatalf("failed to save verifier: %v", err)
			}
			if err := tokens.Save(validBundle("AT")); err != nil {
				t.Fatalf("failed to save tokens: %v", err)
			}
			first.Close()

			second := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard)})
			defer second.Close()
			tokens, err = second.tokenStore()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if _, ok := tokens.LoadPkceVerifier(); ok != tt.durable {
				t.Errorf("expected verifier to survive restart: %v, got %v", tt.durable, ok)
			}
			if tokens.Load() == nil {
				t.Error("expected tokens to survive restart")
			}
		})
	}
}

func TestAuthCommands(t *testing.T) {
	t.Run("Status Logged Out", func(t *testing.T) {
		runner, out, path := newTestRunner(t, shared.DefaultConfig(), RunnerOpts{Exchanger: &fakeExchanger{}})

		if err := runApp(runner, path, "auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "State: logged_out") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("Status JSON", func(t *testing.T) {
		runner, out, path := newTestRunner(t, shared.DefaultConfig(), RunnerOpts{Exchanger: &fakeExchanger{}})
		runner.tokens.Save(validBundle("AT"))

		if err := runApp(runner, path, "auth", "status", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, want := range []string{`"state": "logged_in"`, `"valid": true`, `"refreshable": true`} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("expected %s in %q", want, out.String())
			}
		}
	})

	t.Run("Token Uses Stored Token", func(t *testing.T) {
		exchanger := &fakeExchanger{}
		runner, out, path := newTestRunner(t, shared.DefaultConfig(), RunnerOpts{Exchanger: exchanger})
		runner.tokens.Save(validBundle("AT"))

		if err := runApp(runner, path, "auth", "token"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out.String() != "AT\n" {
			t.Errorf("expected stored token, got %q", out.String())
		}
		if exchanger.refreshed != 0 {
			t.Error("expected no refresh")
		}
	})

	t.Run("Token Refreshes Expired Token", func(t *testing.T) {
		exchanger := &fakeExchanger{}
		runner, out, path := newTestRunner(t, shared.DefaultConfig(), RunnerOpts{Exchanger: exchanger})
		expired := validBundle("AT")
		expired.ObtainedAt = time.Now().Add(-2 * time.Hour).UnixMilli()
		runner.tokens.Save(expired)

		if err := runApp(runner, path, "auth", "token"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out.String() != "AT2\n" {
			t.Errorf("expected refreshed token, got %q", out.String())
		}
		if exchanger.refreshed != 1 {
			t.Errorf("expected one refresh, got %d", exchanger.refreshed)
		}
		if b := runner.tokens.Load(); b == nil || b.RefreshToken != "RT" {
			t.Error("expected refresh token to be kept")
		}
	})

	t.Run("Token Without Login", func(t *testing.T) {
		runner, _, path := newTestRunner(t, shared.DefaultConfig(), RunnerOpts{Exchanger: &fakeExchanger{}})

		if err := runApp(runner, path, "auth", "token"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Logout", func(t *testing.T) {
		runner, _, path := newTestRunner(t, shared.DefaultConfig(), RunnerOpts{Exchanger: &fakeExchanger{}})
		runner.tokens.Save(validBundle("AT"))
		runner.tokens.SavePkceVerifier("verifier")

		if err := runApp(runner, path, "auth", "logout"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if runner.tokens.Load() != nil {
			t.Error("expected tokens to be cleared")
		}
		if _, ok := runner.tokens.LoadPkceVerifier(); ok {
			t.Error("expected verifier to be cleared")
		}
	})

	t.Run("Login Through Callback Server", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Credentials.Spotify.ClientID = "client"
		config.Credentials.Spotify.RedirectURI = fmt.Sprintf("http://127.0.0.1:%d/callback", freePort(t))

		// The fake browser follows the authorize URL straight back to the callback.
		browser := auth.NavigatorFunc(func(ctx context.Context, target string) error {
			u, err := url.Parse(target)
			if err != nil {
				return err
			}
			callback := u.Query().Get("redirect_uri") + "?code=good-code"
			go func() {
				for range 100 {
					resp, err := http.Get(callback)
					if err == nil {
						resp.Body.Close()
						return
					}
					time.Sleep(20 * time.Millisecond)
				}
			}()
			return nil
		})

		exchanger := &fakeExchanger{}
		runner, out, path := newTestRunner(t, config, RunnerOpts{Exchanger: exchanger, Navigator: browser})

		if err := runApp(runner, path, "auth", "login", "--timeout", "5s"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "Logged in with Spotify") {
			t.Errorf("unexpected output %q", out.String())
		}
		if b := runner.tokens.Load(); b == nil || b.AccessToken != "AT" {
			t.Errorf("expected stored bundle, got %+v", b)
		}
		if _, ok := runner.tokens.LoadPkceVerifier(); ok {
			t.Error("expected verifier to be consumed")
		}
	})

	t.Run("Login Without Client ID", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Credentials.Spotify.ClientID = ""
		runner, _, path := newTestRunner(t, config, RunnerOpts{Exchanger: &fakeExchanger{}})

		if err := runApp(runner, path, "auth", "login"); !errors.Is(err, shared.ErrConfiguration) {
			t.Errorf("expected ErrConfiguration, got %v", err)
		}
	})
}

func TestCardsCommands(t *testing.T) {
	t.Run("List", func(t *testing.T) {
		runner, out, path := newTestRunner(t, shared.DefaultConfig(), RunnerOpts{})

		if err := runApp(runner, path, "cards", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "Magician · Morgana") {
			t.Errorf("expected deck in output, got %q", out.String())
		}
		if !strings.Contains(out.String(), "Your top songs") {
			t.Error("expected the Fool card to open top songs")
		}
	})

	t.Run("Open", func(t *testing.T) {
		cards := &fakeCards{}
		runner, out, path := newTestRunner(t, shared.DefaultConfig(), RunnerOpts{Cards: cards})

		if err := runApp(runner, path, "cards", "open", "--format", "csv", "card1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(out.String(), "Position,Name,Artist,URI,AlbumCover") {
			t.Errorf("expected CSV output, got %q", out.String())
		}
		if len(cards.opened) != 1 || cards.opened[0].Name != "Morgana" {
			t.Errorf("unexpected opened cards %+v", cards.opened)
		}
	})

	t.Run("Open To File", func(t *testing.T) {
		runner, _, path := newTestRunner(t, shared.DefaultConfig(), RunnerOpts{Cards: &fakeCards{}})
		file := filepath.Join(t.TempDir(), "magician.md")

		if err := runApp(runner, path, "cards", "open", "--format", "markdown", "--output", file, "card1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(tu.MustReadFile(t, file), "# Magician · Morgana") {
			t.Error("expected card title in the export")
		}
	})

	t.Run("Errors", func(t *testing.T) {
		tests := []struct {
			name    string
			args    []string
			openErr error
			want    error
		}{
			{"missing key", []string{"cards", "open"}, nil, shared.ErrMissingArgument},
			{"unknown card", []string{"cards", "open", "card99"}, nil, shared.ErrCardNotFound},
			{"unknown range", []string{"cards", "open", "--range", "forever", "fool"}, nil, shared.ErrInvalidArgument},
			{"unknown format", []string{"cards", "open", "--format", "xml", "card1"}, nil, shared.ErrInvalidArgument},
			{"open failure", []string{"cards", "open", "card2"}, shared.ErrPlaylistNotFound, shared.ErrPlaylistNotFound},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				cards := &fakeCards{err: tt.openErr}
				runner, _, path := newTestRunner(t, shared.DefaultConfig(), RunnerOpts{Cards: cards})

				if err := runApp(runner, path, tt.args...); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})

	t.Run("Export", func(t *testing.T) {
		runner, out, path := newTestRunner(t, shared.DefaultConfig(), RunnerOpts{Cards: &fakeCards{}})
		dir := filepath.Join(t.TempDir(), "magician")

		if err := runApp(runner, path, "cards", "export", "--dir", dir, "card1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "README.md"))
		if !strings.Contains(out.String(), "exported to "+dir) {
			t.Errorf("unexpected output %q", out.String())
		}
	})
}

// fakeWebAPI serves the playback endpoints for one active device.
func fakeWebAPI(t *testing.T, played *[]string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /me/player/devices", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer AT" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"devices":[{"id":"d1","name":"Desk","type":"Computer","is_active":true,"volume_percent":30}]}`)
	})
	mux.HandleFunc("GET /me/player", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"device":{"id":"d1","name":"Desk"},"is_playing":false,"progress_ms":0,"item":{"name":"Old","uri":"spotify:track:old"}}`)
	})
	mux.HandleFunc("PUT /me/player", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("PUT /me/player/volume", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("PUT /me/player/play", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*played = append(*played, string(body))
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPlayerCommands(t *testing.T) {
	t.Run("Devices", func(t *testing.T) {
		var played []string
		api := fakeWebAPI(t, &played)
		runner, out, path := newTestRunner(t, shared.DefaultConfig(), RunnerOpts{APIBase: api.URL, Exchanger: &fakeExchanger{}})
		runner.tokens.Save(validBundle("AT"))

		if err := runApp(runner, path, "player", "devices"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "● Desk (Computer)") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("Play", func(t *testing.T) {
		var played []string
		api := fakeWebAPI(t, &played)
		runner, out, path := newTestRunner(t, shared.DefaultConfig(), RunnerOpts{APIBase: api.URL, Exchanger: &fakeExchanger{}})
		runner.tokens.Save(validBundle("AT"))

		if err := runApp(runner, path, "player", "play", "spotify:track:1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(played) != 1 || !strings.Contains(played[0], "spotify:track:1") {
			t.Errorf("expected one play request for the track, got %v", played)
		}
		if !strings.Contains(out.String(), "Playing spotify:track:1") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("Requires Login", func(t *testing.T) {
		var played []string
		api := fakeWebAPI(t, &played)
		runner, _, path := newTestRunner(t, shared.DefaultConfig(), RunnerOpts{APIBase: api.URL, Exchanger: &fakeExchanger{}})

		if err := runApp(runner, path, "player", "play", "spotify:track:1"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Seek Rejects Bad Position", func(t *testing.T) {
		runner, _, path := newTestRunner(t, shared.DefaultConfig(), RunnerOpts{Exchanger: &fakeExchanger{}})

		if err := runApp(runner, path, "player", "seek", "soon"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
