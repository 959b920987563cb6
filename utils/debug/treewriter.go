// Package debug has helpers producing human readable dumps of internal
// structures.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

const indent = "  "

// TreeWriter accumulates indented lines.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

// Line writes formatted line at requested depth.
func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.w.WriteString(strings.Repeat(indent, depth))
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes label and quoted value, empty value is left as is.
func (tw TreeWriter) TextBlock(depth int, label, value string) {
	tw.w.WriteString(strings.Repeat(indent, depth))
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// LineBlock writes numbered quoted lines under label. When limit is positive
// only first limit lines are written followed by count of omitted ones.
func (tw TreeWriter) LineBlock(depth int, label string, lines []string, limit int) {
	tw.Line(depth, "%s (%d)", label, len(lines))
	shown := lines
	if limit > 0 && len(lines) > limit {
		shown = lines[:limit]
	}
	for i, l := range shown {
		tw.TextBlock(depth+1, strconv.Itoa(i), l)
	}
	if len(shown) < len(lines) {
		tw.Line(depth+1, "... %d more", len(lines)-len(shown))
	}
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
