package security

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ShareTokenLength yields roughly 256 bits of entropy in base62.
const ShareTokenLength = 43

// RandomToken returns a cryptographically secure base62 string of the given length.
func RandomToken(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid token length: %d", length)
	}

	// Rejection sampling to avoid modulo bias.
	// 248 is the largest multiple of 62 below 256.
	const maxRandomByte = 248

	token := make([]byte, length)
	buf := make([]byte, length*2)
	written := 0

	for written < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read secure random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= maxRandomByte {
				continue
			}
			token[written] = alphabet[int(b)%len(alphabet)]
			written++
			if written == length {
				break
			}
		}
	}

	return string(token), nil
}

// NewShareToken generates the credential that unlocks a certificate's owner view.
func NewShareToken() (string, error) {
	return RandomToken(ShareTokenLength)
}

// TokenMatches compares a presented token with the stored one in constant time.
// An empty presented or stored token never matches.
func TokenMatches(presented, stored string) bool {
	if presented == "" || stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) == 1
}
