package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

// Color palette
var (
	primary   = lipgloss.Color("#7c3aed") // Purple
	secondary = lipgloss.Color("#06b6d4") // Cyan
	accent    = lipgloss.Color("#10b981") // Emerald

	success = lipgloss.Color("#22c55e")
	warning = lipgloss.Color("#f59e0b")
	danger  = lipgloss.Color("#ef4444")
	info    = lipgloss.Color("#3b82f6")

	background = lipgloss.Color("#0f172a") // Slate-900
	surface    = lipgloss.Color("#1e293b") // Slate-800
	border     = lipgloss.Color("#334155") // Slate-700
	muted      = lipgloss.Color("#64748b") // Slate-500
	text       = lipgloss.Color("#f1f5f9") // Slate-100
	textMuted  = lipgloss.Color("#94a3b8") // Slate-400
)

// Chart colors, cycled per bar or slice.
var seriesColors = []lipgloss.Color{primary, secondary, accent, warning, info, danger, success}

var (
	headingStyle = lipgloss.NewStyle().
			Foreground(primary).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(textMuted)

	labelStyle = lipgloss.NewStyle().
			Foreground(textMuted).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(text).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(danger).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(success).
			Bold(true)

	accentStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(background).
			Background(secondary).
			Bold(true)
)

var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1)

	activeColumnStyle = columnStyle.
				BorderForeground(primary)

	inputStyle = lipgloss.NewStyle().
			Foreground(text).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1)

	inputFocusStyle = inputStyle.
			BorderForeground(primary)

	statsCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(1, 2).
			MarginRight(1).
			Width(24).
			Height(5)

	tooltipStyle = lipgloss.NewStyle().
			Foreground(text).
			Background(surface).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(warning).
			Padding(0, 1)
)

func renderTitle(title string) string {
	return headingStyle.Render(title)
}

func renderCard(title, value, subtitle string, color lipgloss.Color) string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		headingStyle.Foreground(color).Render(title),
		lipgloss.NewStyle().Foreground(color).Bold(true).Render(value),
		subtitleStyle.Render(subtitle),
	)
	return statsCardStyle.BorderForeground(color).Render(content)
}

func renderKeyHelp(keys []string) string {
	var parts []string
	for i, key := range keys {
		keyStyle := lipgloss.NewStyle().
			Background(seriesColors[i%4]).
			Foreground(background).
			Padding(0, 1).
			Bold(true).
			MarginRight(1)
		parts = append(parts, keyStyle.Render(key))
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, parts...)
}

func renderBorder(content string, title string, color lipgloss.Color) string {
	titleBar := lipgloss.NewStyle().
		Background(color).
		Foreground(background).
		Bold(true).
		Padding(0, 1).
		Render(fmt.Sprintf(" %s ", title))

	bordered := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1)

	return lipgloss.JoinVertical(lipgloss.Left, titleBar, bordered.Render(content))
}

// renderBar draws a horizontal bar of width cells scaled to value/peak.
func renderBar(value, peak float64, width int, color lipgloss.Color) string {
	if width <= 0 {
		width = 40
	}
	filled := 0
	if peak > 0 {
		filled = int(value / peak * float64(width))
	}
	if filled > width {
		filled = width
	}
	if value > 0 && filled == 0 {
		filled = 1
	}
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	rest := lipgloss.NewStyle().Foreground(muted).Render(strings.Repeat("░", width-filled))
	return bar + rest
}

// fit shortens s to width cells with an ellipsis.
func fit(s string, width int) string {
	if width <= 1 {
		return s
	}
	return truncate.StringWithTail(s, uint(width), "…")
}

func pathValidationIndicator(status pathStatus) string {
	switch status {
	case pathValid:
		return lipgloss.NewStyle().Foreground(success).Render("✓")
	case pathPartial:
		return lipgloss.NewStyle().Foreground(warning).Render("⚠")
	case pathInvalid:
		return lipgloss.NewStyle().Foreground(danger).Render("✗")
	default:
		return ""
	}
}
