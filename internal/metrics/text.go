// Package metrics provides cheap deterministic text measurements for
// telemetry events.
package metrics

import (
	"strings"
	"unicode/utf8"
)

// TextStats captures size features of one piece of conversational text.
type TextStats struct {
	Bytes int
	Runes int
	Words int
	Lines int
}

// CountText measures s. Words are fields split on Unicode whitespace;
// an empty string has zero lines, otherwise lines = '\n' count + 1.
func CountText(s string) TextStats {
	st := TextStats{
		Bytes: len(s),
		Runes: utf8.RuneCountInString(s),
		Words: len(strings.Fields(s)),
	}
	if s != "" {
		st.Lines = 1 + strings.Count(s, "\n")
	}
	return st
}

// Fields renders the stats as telemetry event fields.
func (t TextStats) Fields() map[string]any {
	return map[string]any{
		"bytes": t.Bytes,
		"runes": t.Runes,
		"words": t.Words,
		"lines": t.Lines,
	}
}
