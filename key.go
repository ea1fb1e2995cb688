package confopts

import (
	"fmt"
	"strconv"
	"strings"
)

// KeyDelimiter separates the segments of a configuration key.
const KeyDelimiter = "."

// JoinKey joins key segments with the delimiter. Empty segments are kept so
// that validation can reject them later.
func JoinKey(segments ...string) string {
	return strings.Join(segments, KeyDelimiter)
}

// SplitKey splits a key into its segments.
func SplitKey(key string) []string {
	return strings.Split(key, KeyDelimiter)
}

// ValidateKey checks that a key is well formed: non-empty, no leading or
// trailing delimiter, and every segment a valid bare identifier or numeric
// index. Violations are reported as ErrKeyFormat.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key is empty", ErrKeyFormat)
	}
	if strings.HasPrefix(key, KeyDelimiter) || strings.HasSuffix(key, KeyDelimiter) {
		return fmt.Errorf("%w: key %q has a leading or trailing delimiter", ErrKeyFormat, key)
	}
	for _, segment := range SplitKey(key) {
		if !isValidKeySegment(segment) {
			return fmt.Errorf("%w: invalid segment %q in key %q", ErrKeyFormat, segment, key)
		}
	}
	return nil
}

// isValidKeySegment checks if a single key segment is a valid bare key part:
// ASCII letters, digits, underscores, and dashes.
func isValidKeySegment(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !(isLetter || isDigit || r == '_' || r == '-') {
			return false
		}
	}
	return true
}

// normalizeKey produces the canonical form used for comparison and storage.
// Original casing is preserved separately for enumeration.
func normalizeKey(key string) string {
	return strings.ToLower(key)
}

// joinPrefix extends a subtree prefix with a key suffix.
func joinPrefix(prefix, suffix string) string {
	if prefix == "" {
		return suffix
	}
	if suffix == "" {
		return prefix
	}
	return prefix + KeyDelimiter + suffix
}

// indexedKey returns the key of the i-th element under an array base key.
func indexedKey(base string, i int) string {
	return base + KeyDelimiter + strconv.Itoa(i)
}

// isIndexSegment reports whether a segment is a numeric array index.
func isIndexSegment(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// arrayBases returns the base key of every indexed position in a normalized
// key, e.g. "servers.0.tags.1" yields ["servers", "servers.0.tags"].
func arrayBases(norm string) []string {
	segments := SplitKey(norm)
	var bases []string
	for i := 1; i < len(segments); i++ {
		if isIndexSegment(segments[i]) {
			bases = append(bases, JoinKey(segments[:i]...))
		}
	}
	return bases
}

// arrayClaims returns the base keys for which a normalized key defines index
// zero, i.e. the arrays this key anchors.
func arrayClaims(norm string) []string {
	segments := SplitKey(norm)
	var claims []string
	for i := 1; i < len(segments); i++ {
		if segments[i] == "0" {
			claims = append(claims, JoinKey(segments[:i]...))
		}
	}
	return claims
}
