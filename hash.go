package lingo

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// HashContent computes the content fingerprint used as the cache key.
// The fingerprint is a 64-bit xxhash rendered as 16 hex digits.
func HashContent(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}

// CacheKey generates a flat cache key from a content hash and locale.
func CacheKey(hash, locale string) string {
	return hash + ":" + locale
}
