package models

// PlayerSession is the live state of one player connection. It is rebuilt on every connect.
type PlayerSession struct {
	DeviceID        string
	Ready           bool
	CurrentTrackURI string
	Paused          bool
}

// IsPlaying reports whether uri is the current track and is not paused.
func (s PlayerSession) IsPlaying(uri string) bool {
	return uri != "" && s.CurrentTrackURI == uri && !s.Paused
}

// Device is a Spotify Connect device visible to the account.
type Device struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Active     bool   `json:"is_active"`
	Restricted bool   `json:"is_restricted"`
	Volume     int    `json:"volume_percent"`
}

// PlaybackState is the account's current playback as reported by the Web API.
type PlaybackState struct {
	DeviceID   string
	TrackURI   string
	Playing    bool
	ProgressMS int
}
