package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var ErrMismatch = errors.New("checksum mismatch")

// Sum returns the hex SHA-256 of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Matcher verifies an uploaded file against the checksum the client sent.
type Matcher struct {
	expected string
}

func NewMatcher(expected string) *Matcher {
	return &Matcher{expected: strings.ToLower(strings.TrimSpace(expected))}
}

// Verify returns the checksum of data. An empty expected value only
// computes it; otherwise a different digest yields ErrMismatch.
func (m *Matcher) Verify(data []byte) (string, error) {
	sum := Sum(data)
	if m.expected != "" && sum != m.expected {
		return sum, ErrMismatch
	}
	return sum, nil
}
