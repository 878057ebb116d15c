package server

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/arcana/internal/shared"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultAPIBase is the Spotify Web API root the playlist proxy reads from.
const DefaultAPIBase = "https://api.spotify.com/v1"

// PlaylistProxy serves GET /api/playlist/{id}.
//
// Requests carrying a bearer token are forwarded with it; others use an app token from the client credentials flow.
type PlaylistProxy struct {
	apiBase string
	client  *http.Client
	tokens  oauth2.TokenSource
	logger  *log.Logger
}

// NewPlaylistProxy creates the proxy. Without a client secret only bearer requests succeed.
func NewPlaylistProxy(creds shared.SpotifyConfig, apiBase, tokenURL string, client *http.Client, logger *log.Logger) *PlaylistProxy {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	p := &PlaylistProxy{
		apiBase: strings.TrimRight(apiBase, "/"),
		client:  client,
		logger:  shared.WithPrefix(logger, "playlist"),
	}

	if creds.ClientID != "" && creds.ClientSecret != "" {
		cc := &clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		p.tokens = cc.TokenSource(ctx)
	}
	return p
}

func (p *PlaylistProxy) Routes() []string {
	return []string{"GET /api/playlist/{id}"}
}

func (p *PlaylistProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing playlist id"})
		return
	}

	token, ok := bearer(r)
	if !ok {
		if p.tokens == nil {
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "missing Spotify API credentials"})
			return
		}
		t, err := p.tokens.Token()
		if err != nil {
			p.logger.Error("client credentials token failed", "req_id", RequestID(r.Context()), "error", err)
			writeJSON(w, http.StatusBadGateway, errorBody{Error: "failed to obtain app token"})
			return
		}
		token = t.AccessToken
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, p.apiBase+"/playlists/"+url.PathEscape(id), nil)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Error("playlist request failed", "req_id", RequestID(r.Context()), "id", id, "error", err)
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "failed to fetch playlist"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		p.logger.Warn("spotify rejected playlist request", "id", id, "status", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
