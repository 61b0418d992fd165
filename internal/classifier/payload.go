package classifier

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeOutput parses the raw model response into an Output.
// Confidence is clamped to [0.0, 1.0].
func decodeOutput(raw string) (Output, error) {
	clean := cleanModelJSON(raw)

	var out Output
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return Output{}, fmt.Errorf("decodeOutput: unmarshal JSON: %w", err)
	}

	if out.Confidence < 0 {
		out.Confidence = 0
	}
	if out.Confidence > 1 {
		out.Confidence = 1
	}

	return out, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk if the model
// ignored the raw-JSON instructions. The payload is a single JSON object,
// so everything outside the outermost braces is dropped.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			// Single-line weirdness; just return as-is.
			return s
		}
		s = strings.TrimSpace(s)
	}

	// Remove trailing ``` if present.
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Extra safety: if there's still junk around the JSON object,
	// keep only from the first '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
