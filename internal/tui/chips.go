package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const maxChipLabel = 36

// chipRow is the row of example prompts under the transcript
type chipRow struct {
	items   []string
	cursor  int
	focused bool
}

func newChipRow(items []string) chipRow {
	return chipRow{items: append([]string(nil), items...)}
}

func (c chipRow) empty() bool {
	return len(c.items) == 0
}

func (c *chipRow) next() {
	if len(c.items) > 0 {
		c.cursor = (c.cursor + 1) % len(c.items)
	}
}

func (c *chipRow) prev() {
	if len(c.items) > 0 {
		c.cursor = (c.cursor - 1 + len(c.items)) % len(c.items)
	}
}

// selected returns the literal prompt under the cursor
func (c chipRow) selected() (string, bool) {
	if c.cursor < 0 || c.cursor >= len(c.items) {
		return "", false
	}
	return c.items[c.cursor], true
}

func chipLabel(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > maxChipLabel {
		return string(r[:maxChipLabel-1]) + "…"
	}
	return s
}

func (c chipRow) renderChip(i int) string {
	if c.focused && i == c.cursor {
		return chipSelectedStyle.Render(chipLabel(c.items[i]))
	}
	return chipStyle.Render(chipLabel(c.items[i]))
}

// view renders as many chips as fit in width, keeping the cursor visible
func (c chipRow) view(width int) string {
	if c.empty() {
		return ""
	}

	label := chipLabelStyle.Render("Try:")
	avail := width - lipgloss.Width(label)
	leftMark := hintStyle.Render("‹ ")
	rightMark := hintStyle.Render("›")
	last := len(c.items) - 1

	// room returns the width left for chips start..end once the scroll
	// markers that window needs are drawn
	room := func(start, end int) int {
		r := avail
		if start > 0 {
			r -= lipgloss.Width(leftMark)
		}
		if end < last {
			r -= lipgloss.Width(rightMark)
		}
		return r
	}

	start := 0
	for start < c.cursor && c.spanWidth(start, c.cursor) > room(start, c.cursor) {
		start++
	}

	parts := []string{label}
	if start > 0 {
		parts = append(parts, leftMark)
	}
	used := 0
	end := start
	for ; end <= last; end++ {
		w := lipgloss.Width(c.renderChip(end))
		if used+w > room(start, end) && end > start {
			break
		}
		parts = append(parts, c.renderChip(end))
		used += w
	}
	if end <= last {
		parts = append(parts, rightMark)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (c chipRow) spanWidth(from, to int) int {
	w := 0
	for i := from; i <= to; i++ {
		w += lipgloss.Width(c.renderChip(i))
	}
	return w
}
