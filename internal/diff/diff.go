// Package diff renders the content of diff-bound tabs.
package diff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// Mode selects how a diff tab presents its content.
const (
	ModeUnified    = "unified"
	ModeSideBySide = "side-by-side"
)

// ToggleMode returns the other view mode.
func ToggleMode(mode string) string {
	if mode == ModeSideBySide {
		return ModeUnified
	}
	return ModeSideBySide
}

// Unified computes a unified diff between two versions of a file.
func Unified(path, oldText, newText string) string {
	edits := myers.ComputeEdits(span.URIFromPath(path), oldText, newText)
	return fmt.Sprint(gotextdiff.ToUnified(path+" (old)", path+" (new)", oldText, edits))
}

// SideBySide renders a crude two-column view from a unified diff: removals
// on the left, additions on the right, context on both.
func SideBySide(path, oldText, newText string, width int) string {
	if width < 8 {
		width = 8
	}
	half := width / 2

	var b strings.Builder
	for _, line := range strings.Split(Unified(path, oldText, newText), "\n") {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "@@"):
			b.WriteString(line)
		case strings.HasPrefix(line, "-"):
			b.WriteString(pad(line[1:], half))
			b.WriteString("|")
		case strings.HasPrefix(line, "+"):
			b.WriteString(pad("", half))
			b.WriteString("|")
			b.WriteString(line[1:])
		default:
			text := strings.TrimPrefix(line, " ")
			b.WriteString(pad(text, half))
			b.WriteString("|")
			b.WriteString(text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func pad(s string, width int) string {
	if len(s) > width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// Highlight applies terminal syntax highlighting to diff or source text,
// picking a lexer from the file name. Falls back to the plain text on any
// highlighting failure.
func Highlight(source, filename string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		lexer = lexers.Fallback
	}

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return source
	}

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return source
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return source
	}
	return buf.String()
}
