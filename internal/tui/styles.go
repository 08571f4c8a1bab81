package tui

import (
	"github.com/charmbracelet/lipgloss"

	"fstodo/internal/prefs"
)

type palette struct {
	text   lipgloss.Color
	muted  lipgloss.Color
	accent lipgloss.Color
	bar    lipgloss.Color
	danger lipgloss.Color
}

var palettes = map[prefs.Theme]palette{
	prefs.Light: {text: "235", muted: "245", accent: "27", bar: "254", danger: "160"},
	prefs.Dark:  {text: "252", muted: "241", accent: "212", bar: "236", danger: "203"},
}

type styles struct {
	title    lipgloss.Style
	list     lipgloss.Style
	task     lipgloss.Style
	done     lipgloss.Style
	selected lipgloss.Style
	dialog   lipgloss.Style
	status   lipgloss.Style
	err      lipgloss.Style
}

func newStyles(t prefs.Theme) styles {
	p, ok := palettes[t]
	if !ok {
		p = palettes[prefs.Light]
	}
	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.accent).
			MarginBottom(1),
		list: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.text),
		task: lipgloss.NewStyle().
			Foreground(p.text),
		done: lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(p.muted),
		selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.accent),
		dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.accent).
			Padding(0, 1),
		status: lipgloss.NewStyle().
			Background(p.bar).
			Foreground(p.text).
			Padding(0, 1),
		err: lipgloss.NewStyle().
			Foreground(p.danger),
	}
}
