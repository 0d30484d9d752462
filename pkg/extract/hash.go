package extract

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the SHA-256 digest of raw document bytes as a hex
// string. It is an equality key for re-upload detection, nothing more.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
