package confopts

import (
	"sort"
	"strconv"
	"strings"
)

// setNestedValue sets a value in a nested map using a delimited path,
// creating intermediate maps as needed. A scalar in the way of a deeper path
// is replaced by a map.
func setNestedValue(nested map[string]any, path string, value any) {
	segments := SplitKey(path)
	current := nested

	for i := 0; i < len(segments)-1; i++ {
		segment := segments[i]
		next, exists := current[segment]
		if !exists {
			newMap := make(map[string]any)
			current[segment] = newMap
			current = newMap
			continue
		}
		if nextMap, isMap := next.(map[string]any); isMap {
			current = nextMap
			continue
		}
		newMap := make(map[string]any)
		current[segment] = newMap
		current = newMap
	}

	current[segments[len(segments)-1]] = value
}

// navigateToPath traverses a nested map case-insensitively to reach the
// given path, returning nil when the path does not exist.
func navigateToPath(nested map[string]any, path string) any {
	if path == "" {
		return nested
	}

	current := any(nested)
	for _, segment := range SplitKey(path) {
		currentMap, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		var value any
		found := false
		for k, v := range currentMap {
			if strings.EqualFold(k, segment) {
				value = v
				found = true
				break
			}
		}
		if !found {
			return nil
		}
		current = value
	}
	return current
}

// liftArrays rewrites maps whose keys are a contiguous zero-based index run
// into slices, restoring the arrays that flattening turned into indexed
// children.
func liftArrays(value any) any {
	m, ok := value.(map[string]any)
	if !ok {
		return value
	}

	for k, v := range m {
		m[k] = liftArrays(v)
	}

	if len(m) == 0 {
		return m
	}
	indexes := make([]int, 0, len(m))
	for k := range m {
		if !isIndexSegment(k) {
			return m
		}
		i, err := strconv.Atoi(k)
		if err != nil {
			return m
		}
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	for i, idx := range indexes {
		if i != idx {
			return m
		}
	}

	arr := make([]any, len(indexes))
	for i := range indexes {
		arr[i] = m[strconv.Itoa(i)]
	}
	return arr
}
