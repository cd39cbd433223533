package helpers

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// shortHashLen is the number of hex characters used when a hash is shown to
// humans or embedded in a source URL.
const shortHashLen = 8

// SHA256Bytes returns the hex encoded SHA-256 of input.
func SHA256Bytes(input []byte) string {
	hash := sha256.Sum256(input)
	return hex.EncodeToString(hash[:])
}

// SHA256Reader returns the hex encoded SHA-256 of everything read from reader.
func SHA256Reader(reader io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, reader); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// ShortHash returns the first few characters of the SHA256 of the input.
func ShortHash(input []byte) string {
	return SHA256Bytes(input)[:shortHashLen]
}
