package localcache

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// maxKeyLength is the longest key accepted by checkKey.
const maxKeyLength = 255

// checkKey validates a caller-supplied cache key. Keys must be non-empty,
// at most 255 characters (runes, not bytes, so multibyte keys are not
// penalized), and must not contain commas (commas separate keys in the
// textual restore-key lists callers typically pass around).
func checkKey(op, key string) error {
	if key == "" {
		return newError(KindValidation, op, "key must not be empty")
	}
	if utf8.RuneCountInString(key) > maxKeyLength {
		return newError(KindValidation, op, "key %q exceeds %d characters", truncateKey(key), maxKeyLength)
	}
	if strings.Contains(key, ",") {
		return newError(KindValidation, op, "key %q must not contain commas", key)
	}
	return nil
}

// checkPaths validates that at least one path spec was supplied.
func checkPaths(op string, paths []string) error {
	if len(paths) == 0 {
		return newError(KindValidation, op, "path list must not be empty")
	}
	return nil
}

// sanitizeKey maps an arbitrary key to a token safe to use as a filename
// component. Runes outside [A-Za-z0-9._-] are replaced with '-'; when any
// rune was replaced, an xxHash suffix of the original key is appended so
// distinct keys that collapse to the same base token still get distinct
// filenames. The mapping is deterministic: save and restore call it with the
// same key and agree on the stored filename.
func sanitizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	replaced := false
	for _, r := range key {
		if safeKeyRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
			replaced = true
		}
	}
	if !replaced {
		return b.String()
	}
	return fmt.Sprintf("%s-%08x", b.String(), uint32(xxhash.Sum64String(key)))
}

func safeKeyRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '_', r == '-':
		return true
	}
	return false
}

// truncateKey shortens very long keys for error messages.
func truncateKey(key string) string {
	if len(key) <= 64 {
		return key
	}
	return key[:61] + "..."
}
