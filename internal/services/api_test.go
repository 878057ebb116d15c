package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	tu "github.com/desertthunder/arcana/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("Trims Trailing Slash", func(t *testing.T) {
			client := &http.Client{}
			srv := NewAPIService("http://127.0.0.1:3000/", client)

			if srv.baseURL != "http://127.0.0.1:3000" {
				t.Errorf("expected trimmed base URL, got %s", srv.baseURL)
			}
			if srv.httpClient != client {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("Defaults To Local Server", func(t *testing.T) {
			srv := NewAPIService("", nil)

			if srv.baseURL != DefaultServerURL {
				t.Errorf("expected %s, got %s", DefaultServerURL, srv.baseURL)
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("Token Exchange Body", func(t *testing.T) {
		var got map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/api/spotify-token" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected JSON content type, got %s", ct)
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("failed to decode body: %v", err)
			}
			w.Write([]byte(`{"access_token":"a","expires_in":3600}`))
		}))
		defer server.Close()

		body := struct {
			Code         string `json:"code"`
			RedirectURI  string `json:"redirectUri"`
			CodeVerifier string `json:"codeVerifier"`
		}{"c0de", "http://127.0.0.1:3000/callback", "v3rifier"}

		srv := NewAPIService(server.URL, server.Client())
		resp, err := srv.PostJSON(context.Background(), "/api/spotify-token", body)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := map[string]string{"code": "c0de", "redirectUri": "http://127.0.0.1:3000/callback", "codeVerifier": "v3rifier"}
		if len(got) != len(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
		for k, v := range want {
			if got[k] != v {
				t.Errorf("expected %s=%s, got %s", k, v, got[k])
			}
		}

		var bundle struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   int    `json:"expires_in"`
		}
		if !resp.OK() {
			t.Errorf("expected 2xx, got %d", resp.StatusCode)
		}
		if err := resp.Decode(&bundle); err != nil || bundle.AccessToken != "a" || bundle.ExpiresIn != 3600 {
			t.Errorf("unexpected bundle %+v (%v)", bundle, err)
		}
	})

	t.Run("Error Body Passes Through Verbatim", func(t *testing.T) {
		tests := []struct {
			name   string
			status int
			body   string
		}{
			{name: "Provider Rejection", status: http.StatusBadRequest, body: `{"error":"invalid_grant","error_description":"Invalid authorization code"}`},
			{name: "Missing Credentials", status: http.StatusInternalServerError, body: `{"error":"server_error","error_description":"client credentials are not configured"}`},
			{name: "Plain Text", status: http.StatusBadGateway, body: "upstream unavailable\n"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					w.Write([]byte(tt.body))
				}))
				defer server.Close()

				srv := NewAPIService(server.URL, server.Client())
				resp, err := srv.PostJSON(context.Background(), "/api/spotify-token", map[string]string{"code": "bad"})
				if err != nil {
					t.Fatalf("non-2xx must not be an error, got %v", err)
				}
				if resp.OK() {
					t.Errorf("expected status %d to be reported as failure", tt.status)
				}
				if resp.StatusCode != tt.status {
					t.Errorf("expected status %d, got %d", tt.status, resp.StatusCode)
				}
				if string(resp.Body) != tt.body {
					t.Errorf("expected body %q, got %q", tt.body, string(resp.Body))
				}
			})
		}
	})

	t.Run("Refresh Token Query Escaping", func(t *testing.T) {
		tokens := []string{"plain", "r+/=", "a b&c=d", "ünï"}

		for _, token := range tokens {
			t.Run(token, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					if r.Method != http.MethodGet || r.URL.Path != "/api/refresh-token" {
						t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
					}
					if got := r.URL.Query().Get("refresh_token"); got != token {
						t.Errorf("expected %q, got %q", token, got)
					}
					if len(r.URL.Query()) != 1 {
						t.Errorf("expected a single query parameter, got %v", r.URL.Query())
					}
					w.Write([]byte(`{"access_token":"b"}`))
				}))
				defer server.Close()

				srv := NewAPIService(server.URL+"/", server.Client())
				resp, err := srv.Get(context.Background(), "/api/refresh-token?refresh_token="+url.QueryEscape(token))
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !resp.OK() {
					t.Errorf("expected 2xx, got %d", resp.StatusCode)
				}
			})
		}
	})

	t.Run("Playlist Proxy Get Sends No Body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			if len(body) != 0 {
				t.Errorf("expected empty body, got %q", body)
			}
			if r.Header.Get("Content-Type") != "" {
				t.Errorf("expected no content type, got %s", r.Header.Get("Content-Type"))
			}
			if r.Header.Get("Accept") != "application/json" {
				t.Errorf("expected JSON accept header, got %s", r.Header.Get("Accept"))
			}
			w.Header().Set("X-Cache", "hit")
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, server.Client())
		resp, err := srv.Get(context.Background(), "/api/playlist/"+url.PathEscape("37i9dQZF1DX"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusNotFound || resp.OK() {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
		if resp.Headers.Get("X-Cache") != "hit" {
			t.Errorf("expected response headers to be kept, got %v", resp.Headers)
		}
	})

	t.Run("Decode", func(t *testing.T) {
		resp := &APIResponse{StatusCode: http.StatusOK, Body: []byte("<html>")}

		var v map[string]any
		err := resp.Decode(&v)
		if err == nil || !strings.Contains(err.Error(), "failed to decode response") {
			t.Errorf("expected decode error, got %v", err)
		}
	})

	t.Run("Transport Failures", func(t *testing.T) {
		tests := []struct {
			name      string
			transport http.RoundTripper
			path      string
			want      string
		}{
			{
				name:      "Connection Refused",
				transport: tu.NewMockRoundTripper(nil, errors.New("connection refused")),
				path:      "/api/refresh-token?refresh_token=r",
				want:      "request failed",
			},
			{
				name: "Truncated Body",
				transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil),
				path: "/api/spotify-token",
				want: "failed to read response",
			},
			{
				name:      "Invalid Path",
				transport: tu.NewMockRoundTripper(nil, nil),
				path:      "/api/playlist/\x00",
				want:      "failed to create request",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				srv := NewAPIService("http://127.0.0.1:3000", &http.Client{Transport: tt.transport})

				_, err := srv.PostJSON(context.Background(), tt.path, map[string]string{})
				if err == nil || !strings.Contains(err.Error(), tt.want) {
					t.Errorf("expected %q error, got %v", tt.want, err)
				}
			})
		}

		t.Run("Unencodable Body", func(t *testing.T) {
			srv := NewAPIService("", nil)

			_, err := srv.PostJSON(context.Background(), "/api/spotify-token", func() {})
			if err == nil || !strings.Contains(err.Error(), "failed to encode request") {
				t.Errorf("expected encode error, got %v", err)
			}
		})

		t.Run("Canceled Context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			srv := NewAPIService(server.URL, server.Client())
			if _, err := srv.Get(ctx, "/api/refresh-token?refresh_token=r"); !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		})
	})
}
