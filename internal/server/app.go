package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/arcana/internal/shared"
)

// Options configure [New].
type Options struct {
	Config *shared.Config
	Logger *log.Logger

	// Callback owns /callback when set.
	Callback *CallbackHandler
	// Login serves /login when set.
	Login LoginStarter

	// TokenURL and APIBase default to Spotify's accounts service and Web API.
	TokenURL   string
	APIBase    string
	HTTPClient *http.Client

	// Origins allowed to call the API cross-origin.
	Origins []string
}

// New assembles the router: health, exchange endpoint, playlist proxy and, when configured, the login routes.
//
// The exchange endpoint is only mounted when a client secret is configured.
func New(opts Options) *BasicRouter {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	creds := opts.Config.Credentials.Spotify

	router := NewBasicRouter()
	router.Use(
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(opts.Origins...),
		RateLimitMiddleware(opts.Config.RateLimit, logger),
	)

	router.Handle(http.MethodGet, "/health", http.HandlerFunc(health))

	if creds.ClientSecret != "" {
		router.Handler(NewExchangeHandler(creds, opts.TokenURL, opts.HTTPClient, logger))
	} else {
		logger.Warn("no client secret configured, token exchange endpoint disabled")
	}
	router.Handler(NewPlaylistProxy(creds, opts.APIBase, opts.TokenURL, opts.HTTPClient, logger))

	if opts.Callback != nil {
		router.Handler(opts.Callback)
	}
	if opts.Login != nil {
		router.Handler(NewLoginHandler(opts.Login, logger))
	}
	return router
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
