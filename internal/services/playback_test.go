package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/arcana/internal/shared"
)

func TestPlaybackService(t *testing.T) {
	t.Run("Play Sends Device And URI", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut || r.URL.Path != "/me/player/play" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			if got := r.URL.Query().Get("device_id"); got != "dev" {
				t.Errorf("expected device_id dev, got %s", got)
			}

			var body struct {
				URIs []string `json:"uris"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("failed to decode body: %v", err)
			}
			if len(body.URIs) != 1 || body.URIs[0] != "spotify:track:1" {
				t.Errorf("unexpected uris %v", body.URIs)
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		p := NewPlaybackService(WithBaseURL(server.URL))
		if err := p.Play(context.Background(), "t", "dev", "spotify:track:1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("Status Mapping", func(t *testing.T) {
		tests := []struct {
			name   string
			status int
			want   error
		}{
			{"unauthorized", http.StatusUnauthorized, shared.ErrPlaybackAuth},
			{"forbidden", http.StatusForbidden, shared.ErrPlaybackForbidden},
			{"not found", http.StatusNotFound, shared.ErrDeviceUnavailable},
			{"server error", http.StatusInternalServerError, shared.ErrAPIRequest},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					writeJSON(t, w, tt.status, spotifyError(tt.status, "failed"))
				}))
				defer server.Close()

				p := NewPlaybackService(WithBaseURL(server.URL))
				err := p.Play(context.Background(), "t", "dev", "spotify:track:1")
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})

	t.Run("Empty Error Body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		err := NewPlaybackService(WithBaseURL(server.URL)).Pause(context.Background(), "t", "dev")
		if !errors.Is(err, shared.ErrPlaybackForbidden) {
			t.Errorf("expected ErrPlaybackForbidden, got %v", err)
		}
	})

	t.Run("Transfer", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut || r.URL.Path != "/me/player" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			var body struct {
				DeviceIDs []string `json:"device_ids"`
				Play      bool     `json:"play"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if len(body.DeviceIDs) != 1 || body.DeviceIDs[0] != "dev" || body.Play {
				t.Errorf("unexpected transfer body %+v", body)
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		if err := NewPlaybackService(WithBaseURL(server.URL)).Transfer(context.Background(), "t", "dev"); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("Devices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/player/devices" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			writeJSON(t, w, http.StatusOK, map[string]any{"devices": []map[string]any{
				{"id": "d1", "name": "Kitchen", "type": "Speaker", "is_active": true, "volume_percent": 40},
			}})
		}))
		defer server.Close()

		devices, err := NewPlaybackService(WithBaseURL(server.URL)).Devices(context.Background(), "t")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(devices) != 1 || devices[0].Name != "Kitchen" || !devices[0].Active || devices[0].Volume != 40 {
			t.Errorf("unexpected devices %+v", devices)
		}
	})

	t.Run("State", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]any{
				"device":      map[string]any{"id": "d1", "name": "Kitchen"},
				"is_playing":  true,
				"progress_ms": 1200,
				"item":        map[string]any{"name": "A", "uri": "spotify:track:a"},
			})
		}))
		defer server.Close()

		state, err := NewPlaybackService(WithBaseURL(server.URL)).State(context.Background(), "t")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if state.DeviceID != "d1" || state.TrackURI != "spotify:track:a" || !state.Playing || state.ProgressMS != 1200 {
			t.Errorf("unexpected state %+v", state)
		}
	})
}
