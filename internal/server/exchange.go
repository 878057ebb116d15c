package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/arcana/internal/auth"
	"github.com/desertthunder/arcana/internal/shared"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// TokenResponse is the body returned by a successful exchange or refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ExchangeHandler is the token exchange endpoint.
//
// It holds the client secret, trades authorization codes (with their PKCE verifier) for tokens and refreshes them.
// Provider error responses are passed through with their status and body.
type ExchangeHandler struct {
	config *oauth2.Config
	client *http.Client
	logger *log.Logger
}

// NewExchangeHandler creates the endpoint for creds. An empty tokenURL uses Spotify's accounts service.
func NewExchangeHandler(creds shared.SpotifyConfig, tokenURL string, client *http.Client, logger *log.Logger) *ExchangeHandler {
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}
	return &ExchangeHandler{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   spotifyauth.AuthURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		client: client,
		logger: shared.WithPrefix(logger, "exchange"),
	}
}

func (h *ExchangeHandler) Routes() []string {
	return []string{
		"POST /api/spotify-token",
		"GET /api/refresh-token",
		"POST /api/refresh-token",
	}
}

func (h *ExchangeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/spotify-token":
		h.exchange(w, r)
	case "/api/refresh-token":
		h.refresh(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *ExchangeHandler) clientContext(r *http.Request) context.Context {
	if h.client == nil {
		return r.Context()
	}
	return context.WithValue(r.Context(), oauth2.HTTPClient, h.client)
}

func (h *ExchangeHandler) exchange(w http.ResponseWriter, r *http.Request) {
	var req auth.ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if req.Code == "" || req.CodeVerifier == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing code or codeVerifier"})
		return
	}

	cfg := *h.config
	if req.RedirectURI != "" {
		cfg.RedirectURL = req.RedirectURI
	}

	token, err := cfg.Exchange(h.clientContext(r), req.Code, oauth2.VerifierOption(req.CodeVerifier))
	if err != nil {
		h.fail(w, r, "code exchange failed", err)
		return
	}

	h.logger.Info("exchanged authorization code", "req_id", RequestID(r.Context()))
	writeJSON(w, http.StatusOK, tokenResponse(token))
}

func (h *ExchangeHandler) refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := r.URL.Query().Get("refresh_token")
	if refreshToken == "" && r.Method == http.MethodPost {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}
	if refreshToken == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing refresh token"})
		return
	}

	token, err := h.config.TokenSource(h.clientContext(r), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		h.fail(w, r, "token refresh failed", err)
		return
	}

	h.logger.Info("refreshed access token", "req_id", RequestID(r.Context()))
	writeJSON(w, http.StatusOK, tokenResponse(token))
}

// fail passes a provider error response through unchanged; anything else is a 500.
func (h *ExchangeHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, "req_id", RequestID(r.Context()), "error", err)

	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		contentType := re.Response.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/json"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(re.Response.StatusCode)
		_, _ = w.Write(re.Body)
		return
	}

	writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
}

func tokenResponse(t *oauth2.Token) TokenResponse {
	resp := TokenResponse{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		ExpiresIn:    t.ExpiresIn,
	}
	if scope, ok := t.Extra("scope").(string); ok {
		resp.Scope = scope
	}
	if resp.ExpiresIn == 0 && !t.Expiry.IsZero() {
		resp.ExpiresIn = int64(time.Until(t.Expiry).Round(time.Second).Seconds())
	}
	return resp
}
