package htmlformat

import "strings"

// reindent re-margins the raw body of a script or style element. Leading and
// trailing blank lines are dropped, the smallest indentation shared by the
// non-blank lines is removed, and indent is prepended to every non-blank
// line. Tabs count as spacesPerTab columns; a tab straddling the cut is
// replaced by spaces for the columns that remain.
func reindent(raw, indent string, spacesPerTab int) string {
	lines := strings.Split(raw, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], htmlSpace)
	}

	start, end := 0, len(lines)
	for start < end && lines[start] == "" {
		start++
	}
	for end > start && lines[end-1] == "" {
		end--
	}
	lines = lines[start:end]
	if len(lines) == 0 {
		return ""
	}

	margin := -1
	for _, line := range lines {
		if line == "" {
			continue
		}
		if w := leadingWidth(line, spacesPerTab); margin < 0 || w < margin {
			margin = w
		}
	}

	for i, line := range lines {
		if line == "" {
			continue
		}
		lines[i] = indent + cutColumns(line, margin, spacesPerTab)
	}
	return strings.Join(lines, "\n")
}

// leadingWidth measures the indentation of line in columns.
func leadingWidth(line string, spacesPerTab int) int {
	w := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
			w++
		case '\t':
			w += spacesPerTab
		default:
			return w
		}
	}
	return w
}

// cutColumns removes n columns of leading indentation from line.
func cutColumns(line string, n, spacesPerTab int) string {
	col := 0
	i := 0
	for i < len(line) && col < n {
		switch line[i] {
		case ' ':
			col++
		case '\t':
			col += spacesPerTab
		default:
			return line[i:]
		}
		i++
	}
	if col > n {
		return strings.Repeat(" ", col-n) + line[i:]
	}
	return line[i:]
}
