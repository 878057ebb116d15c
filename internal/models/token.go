package models

import "time"

// ExpirySkew is the safety margin subtracted from a bundle's expiry when judging validity.
const ExpirySkew = 30 * time.Second

// TokenBundle is the persisted token set for one login.
//
// ObtainedAt is milliseconds since the epoch and is stamped by the orchestrator when the bundle is written,
// never read from a provider response.
type TokenBundle struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
	RefreshToken string `json:"refresh_token,omitempty"`
	ObtainedAt   int64  `json:"obtained_at"`
}

// ExpiresAt returns obtained_at + expires_in as a time.
func (b *TokenBundle) ExpiresAt() time.Time {
	return time.UnixMilli(b.ObtainedAt + b.ExpiresIn*1000)
}

// Valid reports whether the access token can still be used at now, allowing for [ExpirySkew].
func (b *TokenBundle) Valid(now time.Time) bool {
	if b == nil || b.AccessToken == "" {
		return false
	}
	return now.Before(b.ExpiresAt().Add(-ExpirySkew))
}

// Refreshable reports whether the bundle carries a refresh token.
func (b *TokenBundle) Refreshable() bool {
	return b != nil && b.RefreshToken != ""
}

// Merge overlays the fields of a refresh response onto the bundle.
// An empty refresh token in the response keeps the existing one.
func (b *TokenBundle) Merge(next TokenBundle) TokenBundle {
	merged := *b
	merged.AccessToken = next.AccessToken
	if next.TokenType != "" {
		merged.TokenType = next.TokenType
	}
	if next.Scope != "" {
		merged.Scope = next.Scope
	}
	merged.ExpiresIn = next.ExpiresIn
	if next.RefreshToken != "" {
		merged.RefreshToken = next.RefreshToken
	}
	return merged
}
