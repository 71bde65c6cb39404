package turtle

import "strings"

// StripFences removes markdown code-fence lines (``` or ~~~, with or without
// a language tag) from text. LLM extractors routinely wrap their output in a
// ```turtle block; the fences carry no triple content and are dropped
// verbatim before any scanning.
func StripFences(text string) string {
	if !strings.Contains(text, "```") && !strings.Contains(text, "~~~") {
		return text
	}

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if isCodeFence(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// isCodeFence checks if a line is a code fence (``` or ~~~).
func isCodeFence(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}
