// Package service implements business logic on top of ports.
package service

import "strings"

// extractJSONObject strips markdown code fences and surrounding prose from a
// model reply, returning the first top-level JSON object. Models frequently
// wrap structured output in ```json fences or add commentary around it.
func extractJSONObject(reply string) string {
	cleaned := stripFences(reply)
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return cleaned[start : end+1]
}

// extractJSONArray is the array counterpart of extractJSONObject.
func extractJSONArray(reply string) string {
	cleaned := stripFences(reply)
	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return cleaned[start : end+1]
}

func stripFences(s string) string {
	cleaned := strings.TrimSpace(s)
	if strings.HasPrefix(cleaned, "```") {
		if i := strings.Index(cleaned, "\n"); i != -1 {
			cleaned = cleaned[i+1:]
		} else {
			cleaned = strings.TrimPrefix(cleaned, "```")
		}
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}
