// Package server provides HTTP routing, middleware, the token exchange endpoint and the login callback.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// The [BasicRouter] implementation uses [http.ServeMux] patterns ("GET /api/playlist/{id}") and wraps the whole mux
// with [Middleware], so middleware also sees requests no route matches.
//
// Middleware shipped here:
//   - [RequestIDMiddleware] : reuses or generates X-Request-ID
//   - [LoggingMiddleware] : one log line per request
//   - [CORSMiddleware] : cross-origin headers and preflight answers
//   - [RateLimitMiddleware] : per-client token buckets, 429 with a JSON error
//
// # Token Exchange Endpoint
//
// [ExchangeHandler] is the only holder of the client secret.
//
//	POST /api/spotify-token       {code, redirectUri, codeVerifier}
//	GET|POST /api/refresh-token   ?refresh_token=
//
// Both answer {access_token, token_type, scope, expires_in, refresh_token?}. Errors returned by Spotify are
// passed through with their status and body; other failures are 500 {"error"}.
//
// [PlaylistProxy] serves GET /api/playlist/{id}, forwarding the caller's bearer token or an app token.
//
// # Login Callback
//
// [CallbackHandler] owns /callback. The three callback shapes are handed to [auth.Orchestrator.Callback]:
//
//	/callback?error=access_denied
//	/callback?code=…&state=…
//	/callback#access_token=…   (re-requested by the shim page as ?fragment=…)
//
// Each outcome is also published on [CallbackHandler.Result] so `arcana auth login` can wait for it.
package server
