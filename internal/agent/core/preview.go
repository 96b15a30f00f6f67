// internal/agent/core/preview.go
package core

import "fmt"

const maxPreviewString = 80

// PreviewInput builds the redacted view of a tool input shown to the user
// while an action awaits confirmation. Top-level scalars are kept with long
// strings truncated; nested structures are summarized, never echoed.
func PreviewInput(input map[string]interface{}) map[string]interface{} {
	if input == nil {
		return nil
	}
	preview := make(map[string]interface{}, len(input))
	for k, v := range input {
		switch val := v.(type) {
		case string:
			if len(val) > maxPreviewString {
				preview[k] = val[:maxPreviewString] + "..."
			} else {
				preview[k] = val
			}
		case bool, int, int64, float64:
			preview[k] = val
		case []string:
			preview[k] = summarizeList(len(val))
		case []interface{}:
			preview[k] = summarizeList(len(val))
		default:
			preview[k] = "[redacted]"
		}
	}
	return preview
}

func summarizeList(n int) string {
	if n == 1 {
		return "[1 item]"
	}
	return fmt.Sprintf("[%d items]", n)
}
