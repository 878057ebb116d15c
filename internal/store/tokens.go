package store

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/arcana/internal/models"
	"github.com/desertthunder/arcana/internal/shared"
)

// Storage slots shared with every client of the same store.
const (
	TokensKey   = "spotify_tokens"
	VerifierKey = "spotify_pkce_verifier"
)

// TokenStore reads and writes the token bundle and PKCE verifier.
//
// Tokens and the verifier may live in different media so the verifier can be
// session-scoped while tokens stay durable.
type TokenStore struct {
	tokens   Storage
	verifier Storage
	logger   *log.Logger
}

// NewTokenStore creates a TokenStore. A nil verifier storage reuses tokens storage.
func NewTokenStore(tokens, verifier Storage, logger *log.Logger) *TokenStore {
	if verifier == nil {
		verifier = tokens
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TokenStore{tokens: tokens, verifier: verifier, logger: shared.WithPrefix(logger, "store")}
}

// Save writes the bundle as JSON.
func (s *TokenStore) Save(bundle models.TokenBundle) error {
	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to encode token bundle: %w", err)
	}
	return s.tokens.SetItem(TokensKey, string(data))
}

// Load returns the stored bundle, or nil when it is absent or cannot be parsed.
func (s *TokenStore) Load() *models.TokenBundle {
	raw, ok, err := s.tokens.GetItem(TokensKey)
	if err != nil {
		s.logger.Warn("failed to read token bundle", "error", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var bundle models.TokenBundle
	if err := json.Unmarshal([]byte(raw), &bundle); err != nil {
		s.logger.Warn("discarding unparseable token bundle", "error", err)
		return nil
	}
	if bundle.AccessToken == "" {
		return nil
	}
	return &bundle
}

// Clear removes the bundle.
func (s *TokenStore) Clear() error {
	return s.tokens.RemoveItem(TokensKey)
}

func (s *TokenStore) SavePkceVerifier(v string) error {
	return s.verifier.SetItem(VerifierKey, v)
}

// LoadPkceVerifier returns the stored verifier. Read failures count as absent.
func (s *TokenStore) LoadPkceVerifier() (string, bool) {
	v, ok, err := s.verifier.GetItem(VerifierKey)
	if err != nil {
		s.logger.Warn("failed to read pkce verifier", "error", err)
		return "", false
	}
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (s *TokenStore) ClearPkceVerifier() error {
	return s.verifier.RemoveItem(VerifierKey)
}
