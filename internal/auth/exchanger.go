package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/arcana/internal/models"
	"github.com/desertthunder/arcana/internal/services"
	"github.com/desertthunder/arcana/internal/shared"
)

// Exchanger trades authorization codes and refresh tokens for token bundles.
//
// Returned bundles carry no ObtainedAt; the caller stamps it.
type Exchanger interface {
	Exchange(ctx context.Context, code, redirectURI, verifier string) (models.TokenBundle, error)
	Refresh(ctx context.Context, refreshToken string) (models.TokenBundle, error)
}

// ExchangeError is a non-2xx answer from the token exchange endpoint.
//
// Body is the provider's response, passed through unchanged.
type ExchangeError struct {
	Status int
	Body   string
	kind   error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%v: status %d: %s", e.kind, e.Status, e.Body)
}

func (e *ExchangeError) Unwrap() error { return e.kind }

// ExchangeRequest is the JSON body of POST /api/spotify-token.
type ExchangeRequest struct {
	Code         string `json:"code"`
	RedirectURI  string `json:"redirectUri"`
	CodeVerifier string `json:"codeVerifier"`
}

// HTTPExchanger calls the token exchange endpoint over HTTP.
type HTTPExchanger struct {
	api *services.APIService
}

// NewHTTPExchanger creates an exchanger for the endpoint rooted at baseURL.
func NewHTTPExchanger(baseURL string, client *http.Client) *HTTPExchanger {
	return &HTTPExchanger{api: services.NewAPIService(baseURL, client)}
}

func (e *HTTPExchanger) Exchange(ctx context.Context, code, redirectURI, verifier string) (models.TokenBundle, error) {
	resp, err := e.api.PostJSON(ctx, "/api/spotify-token", ExchangeRequest{Code: code, RedirectURI: redirectURI, CodeVerifier: verifier})
	if err != nil {
		return models.TokenBundle{}, fmt.Errorf("%w: %v", shared.ErrExchangeFailed, err)
	}
	return decodeBundle(resp, shared.ErrExchangeFailed)
}

func (e *HTTPExchanger) Refresh(ctx context.Context, refreshToken string) (models.TokenBundle, error) {
	resp, err := e.api.Get(ctx, "/api/refresh-token?refresh_token="+url.QueryEscape(refreshToken))
	if err != nil {
		return models.TokenBundle{}, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	return decodeBundle(resp, shared.ErrRefreshFailed)
}

func decodeBundle(resp *services.APIResponse, kind error) (models.TokenBundle, error) {
	if !resp.OK() {
		return models.TokenBundle{}, &ExchangeError{Status: resp.StatusCode, Body: string(resp.Body), kind: kind}
	}

	var bundle models.TokenBundle
	if err := resp.Decode(&bundle); err != nil {
		return models.TokenBundle{}, fmt.Errorf("%w: %v", kind, err)
	}
	if bundle.AccessToken == "" {
		return models.TokenBundle{}, fmt.Errorf("%w: response has no access_token", kind)
	}
	bundle.ObtainedAt = 0
	return bundle, nil
}
