package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// visibleWidth counts terminal cells, skipping escape sequences, so wide
// glyphs and coloured text line up.
func visibleWidth(s string) int { return ansi.StringWidth(s) }

// ProgressBar renders a bar of width cells for done out of total, followed
// by a label.
func ProgressBar(done, total, width int, label string) string {
	if total <= 0 {
		total = 1
	}
	if width < 5 {
		width = 5
	}
	if done < 0 {
		done = 0
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	t := current
	bar := strings.Repeat(t.BarFull, filled) + strings.Repeat(t.BarEmpty, width-filled)
	return fmt.Sprintf("%s %s", bar, label)
}

// PageBar shows the position of page among totalPage pages.
func PageBar(page, totalPage, width int) string {
	if totalPage < 1 {
		totalPage = 1
	}
	if page < 1 {
		page = 1
	}
	return ProgressBar(page, totalPage, width, fmt.Sprintf("page %d/%d", page, totalPage))
}

// PanelString frames lines in a box drawn with the current theme.
func PanelString(lines []string) string {
	t := current
	maxw := 0
	for _, ln := range lines {
		if w := visibleWidth(ln); w > maxw {
			maxw = w
		}
	}
	var b strings.Builder
	b.WriteString(t.CornerTL + strings.Repeat(t.H, maxw+2) + t.CornerTR + "\n")
	for _, ln := range lines {
		pad := strings.Repeat(" ", maxw-visibleWidth(ln))
		b.WriteString(t.V + " " + ln + pad + " " + t.V + "\n")
	}
	b.WriteString(t.CornerBL + strings.Repeat(t.H, maxw+2) + t.CornerBR + "\n")
	return b.String()
}

// Panel prints PanelString(lines).
func Panel(lines []string) { fmt.Fprint(stdout, PanelString(lines)) }
