// Package player controls a single playback device for the logged-in user.
//
// # SDK Boundary
//
// A [SDK] builds [Player] instances. The SDK is loaded once per process through a [Registry]
// and callers subscribe to it with [Registry.OnReady]. [ConnectSDK] is the implementation used
// by the CLI and TUI; it drives a Spotify Connect device over the Web API and polls for state.
//
// # Controller
//
// [Controller] moves through Uninitialized, Connecting, Ready and NotReady. It reacts to
// player [Event]s, issues play commands on its own device, and tears down when the token goes
// away. Playback errors map to sentinels in the shared package:
//   - 401: refresh once and retry once, then [shared.ErrPlaybackAuth]
//   - 403: [shared.ErrPlaybackForbidden], no retry
//   - 404: [shared.ErrDeviceUnavailable]
package player
