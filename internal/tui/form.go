package tui

import (
	"errors"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/forms"
)

// taskSubmittedMsg carries a saved task form.
type taskSubmittedMsg struct {
	draft *forms.TaskDraft
}

// projectSubmittedMsg carries a saved project form.
type projectSubmittedMsg struct {
	draft *forms.ProjectDraft
}

// formCancelMsg is sent when a form is aborted.
type formCancelMsg struct{}

// taskBindings holds the text-only fields on the heap so huh's Value
// pointers stay valid across model copies.
type taskBindings struct {
	plannedDate string
	checklist   string
}

type taskForm struct {
	form  *huh.Form
	draft *forms.TaskDraft
	fb    *taskBindings
}

func newTaskForm(draft *forms.TaskDraft, width int) taskForm {
	f := taskForm{draft: draft, fb: &taskBindings{}}
	if draft.PlannedDate != nil {
		f.fb.plannedDate = draft.PlannedDate.Format("2006-01-02")
	}
	f.fb.checklist = formatChecklist(draft.ChecklistItems)

	statusOpts := make([]huh.Option[task.Status], 0, 3)
	for _, s := range task.Statuses() {
		statusOpts = append(statusOpts, huh.NewOption(s.Label(), s))
	}

	f.form = huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Title").
			Placeholder("What needs to be done?").
			Value(&draft.Title).
			Validate(required("title")),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			Value(&draft.Description),
		huh.NewSelect[task.Status]().
			Title("Status").
			Options(statusOpts...).
			Value(&draft.Status),
		huh.NewSelect[task.Priority]().
			Title("Priority").
			Options(
				huh.NewOption("High", task.PriorityHigh),
				huh.NewOption("Medium", task.PriorityMedium),
				huh.NewOption("Low", task.PriorityLow),
			).
			Value(&draft.Priority),
		huh.NewInput().
			Title("Planned date").
			Placeholder("YYYY-MM-DD (optional)").
			Value(&f.fb.plannedDate).
			Validate(optionalDate),
		huh.NewText().
			Title("Checklist").
			Description("One item per line; start a line with [x] to mark it done.").
			Value(&f.fb.checklist),
	)).WithWidth(formWidth(width))
	return f
}

func (f taskForm) Init() tea.Cmd { return f.form.Init() }

func (f taskForm) Update(msg tea.Msg) (taskForm, tea.Cmd) {
	mdl, cmd := f.form.Update(msg)
	if form, ok := mdl.(*huh.Form); ok {
		f.form = form
	}
	switch f.form.State {
	case huh.StateCompleted:
		return f, f.submit()
	case huh.StateAborted:
		return f, func() tea.Msg { return formCancelMsg{} }
	}
	return f, cmd
}

func (f taskForm) View() string { return f.form.View() }

func (f taskForm) submit() tea.Cmd {
	d := f.draft
	d.SetPlannedDate(nil)
	if s := strings.TrimSpace(f.fb.plannedDate); s != "" {
		if date, err := task.ParseDate(s); err == nil {
			d.SetPlannedDate(&date)
		}
	}
	applyChecklist(d, f.fb.checklist)
	return func() tea.Msg { return taskSubmittedMsg{draft: d} }
}

type projectForm struct {
	form  *huh.Form
	draft *forms.ProjectDraft
}

func newProjectForm(draft *forms.ProjectDraft, width int) projectForm {
	f := projectForm{draft: draft}
	f.form = huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Name").
			Value(&draft.Name).
			Validate(required("name")),
		huh.NewText().
			Title("Description").
			Value(&draft.Description),
		huh.NewInput().
			Title("Logo").
			Placeholder("/default-logo.png").
			Value(&draft.Logo),
		huh.NewConfirm().
			Title("Main project?").
			Value(&draft.IsMain),
	)).WithWidth(formWidth(width))
	return f
}

func (f projectForm) Init() tea.Cmd { return f.form.Init() }

func (f projectForm) Update(msg tea.Msg) (projectForm, tea.Cmd) {
	mdl, cmd := f.form.Update(msg)
	if form, ok := mdl.(*huh.Form); ok {
		f.form = form
	}
	switch f.form.State {
	case huh.StateCompleted:
		d := f.draft
		return f, func() tea.Msg { return projectSubmittedMsg{draft: d} }
	case huh.StateAborted:
		return f, func() tea.Msg { return formCancelMsg{} }
	}
	return f, cmd
}

func (f projectForm) View() string { return f.form.View() }

const doneMarker = "[x] "

func formatChecklist(items []forms.ChecklistItemDraft) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		if item.Completed {
			lines = append(lines, doneMarker+item.Text)
		} else {
			lines = append(lines, item.Text)
		}
	}
	return strings.Join(lines, "\n")
}

// applyChecklist rebuilds the draft checklist from the edited text. Lines
// matching an existing item keep its ID.
func applyChecklist(d *forms.TaskDraft, text string) {
	prev := d.ChecklistItems
	d.ChecklistItems = nil
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		done := false
		if rest, ok := strings.CutPrefix(line, doneMarker); ok {
			line, done = strings.TrimSpace(rest), true
		} else if rest, ok := strings.CutPrefix(line, "[ ] "); ok {
			line = strings.TrimSpace(rest)
		}
		if line == "" {
			continue
		}
		if i := slices.IndexFunc(prev, func(c forms.ChecklistItemDraft) bool { return c.Text == line }); i >= 0 {
			item := prev[i]
			item.Completed = done
			d.ChecklistItems = append(d.ChecklistItems, item)
			prev = slices.Delete(prev, i, i+1)
			continue
		}
		if id := d.AddChecklistItem(line); id != "" && done {
			d.ToggleChecklistItem(id)
		}
	}
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

func optionalDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := task.ParseDate(strings.TrimSpace(s)); err != nil {
		return errors.New("invalid date, use YYYY-MM-DD")
	}
	return nil
}

func formWidth(width int) int {
	return min(max(width-4, 40), 100)
}
