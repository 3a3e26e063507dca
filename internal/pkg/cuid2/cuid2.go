// Package cuid2 generates collision-resistant ids for request tracing.
package cuid2

import (
	crypto_rand "crypto/rand"
	"strings"
	"time"
)

// Base62 alphabet: 0-9, A-Z, a-z (62 characters)
const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const (
	timestampLength = 6
	randomLength    = 18
)

// encodeTimestamp encodes a Unix timestamp (seconds) as a 6-character
// base62 string, lexicographically sortable for any realistic timestamp.
func encodeTimestamp(seconds int64) string {
	n := seconds
	result := make([]byte, timestampLength)
	for i := timestampLength - 1; i >= 0; i-- {
		result[i] = base62Alphabet[n%62]
		n /= 62
	}
	return string(result)
}

// randomBase62 generates length uniform base62 characters. Extracts 6 bits
// at a time and rejects values >= 62 to keep the distribution uniform.
func randomBase62(length int) string {
	bytesNeeded := (length*6)/8 + 4
	bytes := make([]byte, bytesNeeded)
	if _, err := crypto_rand.Read(bytes); err != nil {
		panic("failed to read random bytes: " + err.Error())
	}

	var result strings.Builder
	bitBuffer := uint64(0)
	bitsInBuffer := uint(0)
	byteIndex := 0

	for result.Len() < length {
		for bitsInBuffer < 6 && byteIndex < len(bytes) {
			bitBuffer = (bitBuffer << 8) | uint64(bytes[byteIndex])
			bitsInBuffer += 8
			byteIndex++
		}

		value := (bitBuffer >> (bitsInBuffer - 6)) & 0x3f
		bitsInBuffer -= 6

		if value < 62 {
			result.WriteByte(base62Alphabet[value])
		}

		if byteIndex >= len(bytes) && result.Len() < length {
			if _, err := crypto_rand.Read(bytes); err != nil {
				panic("failed to read random bytes: " + err.Error())
			}
			byteIndex = 0
			bitBuffer = 0
			bitsInBuffer = 0
		}
	}

	return result.String()
}

// New generates a 24-character id with a time-sortable prefix, so ids from
// the same period cluster in logs and B-tree indexes.
func New() string {
	return encodeTimestamp(time.Now().Unix()) + randomBase62(randomLength)
}
