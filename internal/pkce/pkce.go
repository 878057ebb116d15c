// Package pkce generates PKCE code verifiers and their S256 challenges (RFC 7636).
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
)

const (
	MinLength     = 96
	MaxLength     = 128
	DefaultLength = MinLength

	// MethodS256 is the only challenge method sent to the provider.
	MethodS256 = "S256"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

// Largest multiple of len(alphabet) that fits in a byte. Bytes at or above it are rejected.
const rejectAbove = 256 - (256 % len(alphabet))

// randReader is swapped out in tests.
var randReader io.Reader = rand.Reader

// Pair holds a verifier and the challenge derived from it.
type Pair struct {
	Verifier  string
	Challenge string
	Method    string
}

// GenerateVerifier returns a random verifier drawn from the unreserved alphabet.
// Lengths outside [MinLength, MaxLength] are clamped.
func GenerateVerifier(length int) (string, error) {
	length = clamp(length)

	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := io.ReadFull(randReader, buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

// ComputeChallenge returns base64url(sha256(verifier)) without padding.
func ComputeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// New generates a verifier of the given length along with its S256 challenge.
func New(length int) (Pair, error) {
	v, err := GenerateVerifier(length)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Verifier: v, Challenge: ComputeChallenge(v), Method: MethodS256}, nil
}

func clamp(n int) int {
	switch {
	case n < MinLength:
		return MinLength
	case n > MaxLength:
		return MaxLength
	}
	return n
}
