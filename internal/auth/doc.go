// Package auth runs the Spotify PKCE login and keeps a valid access token available.
//
// # State Machine
//
// The [Orchestrator] moves between three states derived from storage:
//   - [LoggedOut] : no bundle and no verifier
//   - [AwaitingCallback] : a verifier is stored and the browser is at the provider
//   - [LoggedIn] : a token bundle is stored (it may be expired but refreshable)
//
// # Callbacks
//
// [Orchestrator.HandleCallback] accepts the three callback shapes: an error parameter,
// an authorization code, or an implicit-grant fragment. The callback URL is stripped before
// any other work so a reload never replays the code. The verifier is cleared under the lock
// before the exchange request, so a second callback with the same code fails closed.
//
// # Token Lifecycle
//
// Code exchange and refresh go through an [Exchanger]; [HTTPExchanger] talks to the token
// exchange endpoint that holds the client secret. Concurrent refreshes share one request.
// Logout bumps a generation counter and responses started under an older generation are
// discarded instead of written.
package auth
