package ai

import "strings"

const titleDelimiter = "**"

// ExtractTitle parses the title embedded in a generated description
// between double asterisks. It returns the title, the remaining text
// and whether a title was found. The description itself is never
// modified by the describer; parsing is the consumer's step.
func ExtractTitle(description string) (title, body string, ok bool) {
	start := strings.Index(description, titleDelimiter)
	if start < 0 {
		return "", description, false
	}
	rest := description[start+len(titleDelimiter):]
	end := strings.Index(rest, titleDelimiter)
	if end < 0 {
		return "", description, false
	}

	title = strings.TrimSpace(rest[:end])
	if title == "" {
		return "", description, false
	}

	body = strings.TrimSpace(description[:start] + rest[end+len(titleDelimiter):])
	return title, body, true
}
