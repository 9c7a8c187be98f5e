package session

import (
	"crypto/rand"
	"strings"
)

// Join codes are short case-insensitive tokens over a restricted
// alphabet, generated once at creation and handed around by players.
const codeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func generateJoinCode(length int) (string, error) {
	if length <= 0 {
		length = 5
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b), nil
}

func toLowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
