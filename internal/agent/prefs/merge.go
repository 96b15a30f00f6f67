// internal/agent/prefs/merge.go
package prefs

// Merge overlays message-extracted constraints on stored preferences.
// Explicit message data wins field-by-field, except set-valued fields where
// the merge is a union of both sides.
func Merge(messageConstraints, storedPreferences map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(storedPreferences)+len(messageConstraints))
	for k, v := range storedPreferences {
		merged[k] = v
	}

	for k, v := range messageConstraints {
		stored, exists := merged[k]
		if !exists {
			merged[k] = v
			continue
		}
		if union, ok := unionSlices(stored, v); ok {
			merged[k] = union
			continue
		}
		merged[k] = v
	}
	return merged
}

// unionSlices merges two slice values preserving stored-first order and
// dropping duplicates. Non-slice pairs report ok=false.
func unionSlices(stored, message interface{}) ([]interface{}, bool) {
	a, okA := toSlice(stored)
	b, okB := toSlice(message)
	if !okA || !okB {
		return nil, false
	}

	seen := make(map[interface{}]bool, len(a)+len(b))
	union := make([]interface{}, 0, len(a)+len(b))
	for _, list := range [][]interface{}{a, b} {
		for _, item := range list {
			if !isHashable(item) {
				union = append(union, item)
				continue
			}
			if !seen[item] {
				seen[item] = true
				union = append(union, item)
			}
		}
	}
	return union, true
}

func toSlice(v interface{}) ([]interface{}, bool) {
	switch s := v.(type) {
	case []interface{}:
		return s, true
	case []string:
		out := make([]interface{}, len(s))
		for i, item := range s {
			out[i] = item
		}
		return out, true
	default:
		return nil, false
	}
}

func isHashable(v interface{}) bool {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		return false
	default:
		return true
	}
}
