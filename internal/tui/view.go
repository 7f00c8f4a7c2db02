package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rpggio/taskboard/internal/board"
	"github.com/rpggio/taskboard/internal/domain/task"
)

// View renders the active view with a header and a status bar.
func (m Model) View() string {
	var body string
	switch m.view {
	case viewTaskForm:
		body = m.taskForm.View()
	case viewProjectForm:
		body = m.projectForm.View()
	case viewProjects:
		body = m.renderProjects()
	case viewDetail:
		body = m.renderDetail()
	default:
		body = m.renderBoard()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderStatusBar())
}

func (m Model) renderHeader() string {
	title := "taskboard"
	if m.board != nil {
		if p, ok := m.projects.Project(m.board.ProjectID()); ok {
			title += " · " + p.Name
		}
	}
	right := ""
	if m.pending > 0 {
		right = fmt.Sprintf("saving %d…", m.pending)
	}
	left := headerStyle.Render(title)
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 0)
	return left + strings.Repeat(" ", gap) + pendingStyle.Render(right)
}

func (m Model) renderStatusBar() string {
	line := m.status
	if m.err != nil {
		line = errorStyle.Render(m.err.Error())
	}
	return statusBarStyle.Width(m.width).Render(line) + "\n" + m.help.View(m.keys)
}

func (m Model) renderBoard() string {
	if m.board == nil {
		return detailStyle.Render("No project selected. Press p to pick or create one.")
	}
	width := max((m.width-6)/3, 20)
	cols := make([]string, 0, 3)
	for i, s := range task.Statuses() {
		cols = append(cols, m.renderColumn(i, s, width))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) renderColumn(idx int, status task.Status, width int) string {
	tasks := m.board.Bucket(status)
	var b strings.Builder
	b.WriteString(statusStyle(status).Render(fmt.Sprintf("%s (%d)", status.Label(), len(tasks))))
	b.WriteString("\n\n")
	for row, t := range tasks {
		card := m.renderCard(t)
		if idx == m.column && row == m.rows[idx] {
			b.WriteString(selectedCardStyle.Render(card))
		} else {
			b.WriteString(cardStyle.Render(card))
		}
		b.WriteString("\n")
	}
	style := columnStyle
	if idx == m.column {
		style = activeColumnStyle
	}
	return style.Width(width).Render(b.String())
}

func (m Model) renderCard(t task.Task) string {
	title := t.Title
	if board.IsPlaceholder(t.ID) {
		title = pendingStyle.Render(title + " (saving)")
	} else if m.board.Dirty(t.ID) {
		title += pendingStyle.Render(" (unsaved)")
	}
	lines := []string{title, priorityStyle(t.Priority).Render(strings.ToLower(string(t.Priority)))}
	if t.PlannedDate != nil {
		lines[1] += "  " + t.PlannedDate.Format("Jan 2")
	}
	if len(t.ChecklistItems) > 0 {
		lines = append(lines, fmt.Sprintf("%s %d%%", m.bar.ViewAs(float64(t.Progress())/100), t.Progress()))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderDetail() string {
	t, ok := m.board.Detail()
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(t.Title))
	b.WriteString("\n\n")
	if m.board.Dirty(t.ID) {
		b.WriteString(pendingStyle.Render("Unsaved checklist changes, press s to save") + "\n\n")
	}
	fmt.Fprintf(&b, "Status:   %s\n", statusStyle(t.Status).Render(t.Status.Label()))
	fmt.Fprintf(&b, "Priority: %s\n", priorityStyle(t.Priority).Render(string(t.Priority)))
	if t.PlannedDate != nil {
		fmt.Fprintf(&b, "Planned:  %s\n", t.PlannedDate.Format("2006-01-02"))
	}
	if t.Description != "" {
		b.WriteString("\n" + t.Description + "\n")
	}
	if len(t.ChecklistItems) > 0 {
		fmt.Fprintf(&b, "\nChecklist %s %d%%\n", m.bar.ViewAs(float64(t.Progress())/100), t.Progress())
		for i, item := range t.ChecklistItems {
			mark := "[ ]"
			if item.Completed {
				mark = "[x]"
			}
			line := mark + " " + item.Title
			if i == m.itemRow {
				line = selectedCardStyle.Render(line)
			} else {
				line = cardStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
	}
	return detailStyle.Width(max(m.width-4, 40)).Render(b.String())
}

func (m Model) renderProjects() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Projects"))
	b.WriteString("\n\n")
	list := m.projects.Projects()
	if len(list) == 0 {
		b.WriteString("No projects yet. Press n to create one.\n")
	}
	for i, p := range list {
		line := p.Name
		if p.IsMain {
			line += " ★"
		}
		line += pendingStyle.Render(fmt.Sprintf("  %d tasks", p.TaskCount))
		if i == m.projectRow {
			b.WriteString(selectedCardStyle.Render(line))
		} else {
			b.WriteString(cardStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return detailStyle.Width(max(m.width-4, 40)).Render(b.String())
}
