package session

import "strings"

// Format transforms a logical block of captured lines into the lines actually
// submitted to a session. Formats must be pure: no side effects, and the same
// input always yields the same output.
type Format func(lines []string) []string

// FormatLines applies the definition's format rule to a copy of lines.
// A nil format passes the block through unchanged.
func FormatLines(def Definition, lines []string) []string {
	copied := make([]string, len(lines))
	copy(copied, lines)
	if def.Format == nil {
		return copied
	}
	return def.Format(copied)
}

// Passthrough returns the block unchanged.
func Passthrough(lines []string) []string {
	return lines
}

// JoinWith collapses a multi-line block into a single line using the given
// separator. Repls that treat a newline as "evaluate now" use this to submit
// a block as one unit.
func JoinWith(sep string) Format {
	return func(lines []string) []string {
		if len(lines) <= 1 {
			return lines
		}
		return []string{strings.Join(lines, sep)}
	}
}

// BracketedPaste wraps a multi-line block in bracketed-paste delimiters so
// the repl buffers the whole block before evaluating. Single lines pass
// through unframed.
func BracketedPaste(lines []string) []string {
	if len(lines) <= 1 {
		return lines
	}
	out := make([]string, 0, len(lines)+2)
	out = append(out, "\x1b[200~")
	out = append(out, lines...)
	out = append(out, "\x1b[201~")
	return out
}

// StripBlank drops empty and whitespace-only lines. Useful for repls that
// treat a blank line as end-of-block.
func StripBlank(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// Chain composes formats left to right.
func Chain(formats ...Format) Format {
	return func(lines []string) []string {
		for _, f := range formats {
			lines = f(lines)
		}
		return lines
	}
}
