// Package hash provides the fast, deterministic content fingerprints used as
// cache keys by the build manifest.
//
// Hashes are xxhash64 digests rendered as 16 lowercase hex characters. They are
// stable across processes and platforms for identical input bytes. They are not
// a security primitive.
package hash

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// PartSeparator joins the parts hashed by MakeFromParts.
const PartSeparator = "|"

// Make returns the fingerprint of s.
func Make(s string) string {
	return format(xxhash.Sum64String(s))
}

// MakeBytes returns the fingerprint of b. It is equal to Make(string(b)).
func MakeBytes(b []byte) string {
	return format(xxhash.Sum64(b))
}

// MakeFromParts hashes the ordered parts joined by PartSeparator, so
// ("a", "b", "c") and ("a", "c", "b") produce different fingerprints.
func MakeFromParts(parts ...string) string {
	return Make(strings.Join(parts, PartSeparator))
}

func format(sum uint64) string {
	s := strconv.FormatUint(sum, 16)
	if len(s) < 16 {
		s = strings.Repeat("0", 16-len(s)) + s
	}
	return s
}
