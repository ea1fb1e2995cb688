package confopts

import (
	"sort"
	"strings"
)

// viewEntry keeps the original key casing alongside the value.
type viewEntry struct {
	key   string
	value string
}

// View is an immutable merged snapshot of all layers. Lookups are
// case-insensitive; enumeration returns the original casing of the winning
// layer. A View is never mutated after construction; rebuilds publish a new
// one.
type View struct {
	entries map[string]viewEntry
}

// Get returns the value for a key. A present empty string is distinct from an
// absent key.
func (v *View) Get(key string) (string, bool) {
	e, ok := v.entries[normalizeKey(key)]
	if !ok {
		return "", false
	}
	return e.value, true
}

// Has reports whether a key is defined.
func (v *View) Has(key string) bool {
	_, ok := v.entries[normalizeKey(key)]
	return ok
}

// Len returns the number of defined keys.
func (v *View) Len() int {
	return len(v.entries)
}

// Keys returns every defined key in original casing, sorted.
func (v *View) Keys() []string {
	keys := make([]string, 0, len(v.entries))
	for _, e := range v.entries {
		keys = append(keys, e.key)
	}
	sort.Strings(keys)
	return keys
}

// Children returns the distinct immediate child segments under a prefix, in
// original casing, sorted. An empty prefix enumerates the top level.
func (v *View) Children(prefix string) []string {
	norm := normalizeKey(prefix)
	if norm != "" {
		norm += KeyDelimiter
	}
	seen := make(map[string]string)
	for nk, e := range v.entries {
		if !strings.HasPrefix(nk, norm) {
			continue
		}
		rest := e.key[len(norm):]
		segment := rest
		if i := strings.Index(rest, KeyDelimiter); i >= 0 {
			segment = rest[:i]
		}
		if _, ok := seen[normalizeKey(segment)]; !ok {
			seen[normalizeKey(segment)] = segment
		}
	}
	children := make([]string, 0, len(seen))
	for _, s := range seen {
		children = append(children, s)
	}
	sort.Strings(children)
	return children
}

// hasPrefix reports whether any key is defined strictly below the prefix.
func (v *View) hasPrefix(prefix string) bool {
	norm := normalizeKey(prefix) + KeyDelimiter
	for nk := range v.entries {
		if strings.HasPrefix(nk, norm) {
			return true
		}
	}
	return false
}
