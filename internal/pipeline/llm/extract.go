package llm

import (
	"regexp"
	"strings"
)

// Generative replies usually carry a JSON payload, but the wrapping varies:
// a fenced code block, a single backtick pair, or bare text.
var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractPayload strips incidental formatting from a raw reply and returns
// the normalized payload. Idempotent: extracting an already-clean payload is
// a no-op.
func ExtractPayload(raw string) string {
	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}

	trimmed := strings.TrimSpace(raw)
	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, "`") && strings.HasSuffix(trimmed, "`") &&
		!strings.Contains(trimmed[1:len(trimmed)-1], "`") {
		return strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	}

	return trimmed
}
