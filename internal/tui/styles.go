package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rpggio/taskboard/internal/domain/task"
)

var (
	colorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	colorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	colorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	colorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	colorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	colorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	colorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			Background(colorBlue).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Background(colorSubtle).
			Padding(0, 1)

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(0, 1)

	activeColumnStyle = columnStyle.BorderForeground(colorBlue)

	cardStyle = lipgloss.NewStyle().PaddingLeft(2)

	selectedCardStyle = lipgloss.NewStyle().
				PaddingLeft(1).
				Bold(true).
				Foreground(colorBlue).
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(colorBlue)

	pendingStyle = lipgloss.NewStyle().Foreground(colorGray).Italic(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)

	detailStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle)
)

func statusStyle(s task.Status) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch s {
	case task.StatusTodo:
		return base.Foreground(colorBlue)
	case task.StatusInProgress:
		return base.Foreground(colorYellow)
	case task.StatusDone:
		return base.Foreground(colorGreen)
	}
	return base.Foreground(colorGray)
}

func priorityStyle(p task.Priority) lipgloss.Style {
	switch p {
	case task.PriorityHigh:
		return lipgloss.NewStyle().Foreground(colorRed)
	case task.PriorityMedium:
		return lipgloss.NewStyle().Foreground(colorYellow)
	}
	return lipgloss.NewStyle().Foreground(colorGray)
}
