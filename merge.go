package confopts

import (
	"fmt"
	"sort"
)

// buildView merges the layers into one immutable view. Layers are processed
// from highest to lowest priority; the first layer to define a key wins.
// Arrays override wholesale: once a layer defines index zero of a base key,
// indexed children of that base from lower layers are discarded rather than
// merged element by element.
//
// buildView is a pure function of the layer snapshots. Any snapshot failure
// or malformed key aborts the build so precedence is never computed from
// partial data.
func buildView(layers []Layer) (*View, error) {
	ordered := make([]Layer, len(layers))
	copy(ordered, layers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	entries := make(map[string]viewEntry)
	claimed := make(map[string]int) // array base -> index of claiming layer

	for li, layer := range ordered {
		snap, err := layer.Provider.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("%w: layer %q: %v", ErrProviderLoad, layer.Name, err)
		}

		for key, value := range snap {
			if err := ValidateKey(key); err != nil {
				return nil, fmt.Errorf("layer %q: %w", layer.Name, err)
			}
			norm := normalizeKey(key)
			if _, exists := entries[norm]; exists {
				continue
			}
			if blockedByClaim(norm, claimed, li) {
				continue
			}
			entries[norm] = viewEntry{key: key, value: value}
		}

		// Record the arrays this layer anchors, after its own keys have been
		// applied so a layer never masks itself.
		for key := range snap {
			for _, base := range arrayClaims(normalizeKey(key)) {
				if _, ok := claimed[base]; !ok {
					claimed[base] = li
				}
			}
		}
	}

	return &View{entries: entries}, nil
}

// blockedByClaim reports whether a key sits under an array base that a
// higher-priority layer has claimed.
func blockedByClaim(norm string, claimed map[string]int, layer int) bool {
	for _, base := range arrayBases(norm) {
		if owner, ok := claimed[base]; ok && owner != layer {
			return true
		}
	}
	return false
}
