package htmlformat

import "strings"

// textRun is a text node after whitespace normalization.
type textRun struct {
	content  string // Collapsed content, empty when the node was all whitespace
	leading  bool   // Whitespace was removed from the start
	trailing bool   // Whitespace was removed from the end
}

// normalizeText trims a text node and collapses every internal whitespace
// run to a single space.
func normalizeText(raw string) textRun {
	right := strings.TrimRight(raw, htmlSpace)
	run := textRun{trailing: len(right) < len(raw)}
	if right == "" {
		return run
	}
	content := strings.TrimLeft(right, htmlSpace)
	run.leading = len(content) < len(right)
	run.content = collapseSpaces(content)
	return run
}

// htmlSpace is the HTML whitespace set. U+00A0 is content, not whitespace.
const htmlSpace = " \t\n\r\f"

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}

// collapseSpaces collapses runs of whitespace into a single space.
func collapseSpaces(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	prevWasSpace := false
	for i := 0; i < len(s); i++ {
		if isSpace(s[i]) {
			if !prevWasSpace {
				result.WriteByte(' ')
				prevWasSpace = true
			}
			continue
		}
		result.WriteByte(s[i])
		prevWasSpace = false
	}
	return result.String()
}
