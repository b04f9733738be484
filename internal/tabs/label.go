package tabs

import "github.com/mattn/go-runewidth"

// maxLabelWidth bounds tab labels in display cells.
const maxLabelWidth = 24

// FitLabel truncates a label to the tab bar's cell budget, accounting for
// wide runes.
func FitLabel(label string) string {
	if runewidth.StringWidth(label) <= maxLabelWidth {
		return label
	}
	return runewidth.Truncate(label, maxLabelWidth, "…")
}
