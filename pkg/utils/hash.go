package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashString returns a short stable fingerprint of input, used to correlate SMS
// texts in logs without writing the text itself.
func HashString(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:6])
}
