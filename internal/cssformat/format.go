// Package cssformat lays out CSS one declaration per line. It is used for
// the bodies of <style> elements when style formatting is enabled.
package cssformat

import (
	"strings"
)

// Format formats CSS using indent for each nesting level. Rules get their
// own lines, declarations one per line, and top-level rules are separated
// by a blank line. Strings and comments are copied as written.
func Format(input, indent string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}

	var result strings.Builder
	var depth int

	// Buffer for current line being built
	var line strings.Builder

	flush := func() {
		trimmed := strings.TrimSpace(line.String())
		if trimmed != "" && trimmed != ";" {
			result.WriteString(strings.Repeat(indent, depth))
			result.WriteString(trimmed)
			result.WriteByte('\n')
		}
		line.Reset()
	}

	for i := 0; i < len(input); i++ {
		ch := input[i]

		switch ch {
		case '"', '\'':
			end := skipString(input, i)
			line.WriteString(input[i:end])
			i = end - 1

		case '/':
			if i+1 < len(input) && input[i+1] == '*' {
				end := strings.Index(input[i+2:], "*/")
				if end < 0 {
					end = len(input)
				} else {
					end += i + 4
				}
				flush()
				result.WriteString(strings.Repeat(indent, depth))
				result.WriteString(input[i:end])
				result.WriteByte('\n')
				i = end - 1
				continue
			}
			line.WriteByte(ch)

		case '{':
			// Opening brace - start of declaration block
			selector := strings.TrimSpace(line.String())
			result.WriteString(strings.Repeat(indent, depth))
			if selector != "" {
				result.WriteString(selector)
				result.WriteByte(' ')
			}
			result.WriteByte(ch)
			result.WriteByte('\n')
			line.Reset()
			depth++

		case '}':
			// Closing brace - end of declaration block
			flush()
			depth--
			if depth < 0 {
				depth = 0 // Prevent negative depth from malformed CSS
			}
			result.WriteString(strings.Repeat(indent, depth))
			result.WriteByte(ch)
			result.WriteByte('\n')
			if depth == 0 {
				result.WriteByte('\n') // Blank line between top-level rules
			}

		case ';':
			// Semicolon - end of property declaration
			line.WriteByte(ch)
			flush()

		case '\n', '\r', '\t':
			// Existing layout is discarded; keep a word boundary
			line.WriteByte(' ')

		default:
			line.WriteByte(ch)
		}
	}

	// Flush any remaining content
	if line.Len() > 0 {
		trimmed := strings.TrimSpace(line.String())
		if trimmed != "" {
			result.WriteString(trimmed)
			result.WriteByte('\n')
		}
	}

	out := strings.TrimSpace(result.String())
	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return out + "\n"
}

// skipString returns the index just past the quoted string starting at i.
func skipString(s string, i int) int {
	quote := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		case '\n':
			return j
		}
	}
	return len(s)
}
