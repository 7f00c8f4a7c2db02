// Package tui is the terminal board: three status columns for one project,
// a task detail view, and huh forms for editing. All changes go through the
// board view-models, so the screen updates before the server answers.
package tui

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rpggio/taskboard/internal/board"
	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/forms"
)

type viewState int

const (
	viewBoard viewState = iota
	viewDetail
	viewTaskForm
	viewProjects
	viewProjectForm
)

type projectsLoadedMsg struct{ err error }

type boardLoadedMsg struct {
	projectID string
	err       error
}

// opDoneMsg reports a settled optimistic operation.
type opDoneMsg struct {
	label string
	op    *board.Op
}

// Model is the root Bubble Tea model.
type Model struct {
	gw       board.Gateway
	logger   *slog.Logger
	projects *board.ProjectList
	board    *board.Board

	keys KeyMap
	help help.Model
	bar  progress.Model

	view        viewState
	prevView    viewState
	wantProject string
	column      int
	rows        [3]int
	itemRow     int
	projectRow  int
	taskForm    taskForm
	projectForm projectForm

	pending int
	status  string
	err     error
	width   int
	height  int
}

// Option configures a Model.
type Option func(*Model)

// WithProject opens projectID instead of the main project.
func WithProject(projectID string) Option {
	return func(m *Model) { m.wantProject = projectID }
}

// WithLogger sets the logger handed to the view-models.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) { m.logger = logger }
}

// New creates the board UI over gw.
func New(gw board.Gateway, opts ...Option) Model {
	m := Model{
		gw:     gw,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(16), progress.WithoutPercentage()),
		width:  80,
		height: 24,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	m.projects = board.NewProjectList(gw, board.WithLogger(m.logger))
	return m
}

// Init loads the project list.
func (m Model) Init() tea.Cmd {
	return loadProjects(m.projects)
}

func loadProjects(l *board.ProjectList) tea.Cmd {
	return func() tea.Msg {
		return projectsLoadedMsg{err: l.Load(context.Background())}
	}
}

func loadBoard(b *board.Board) tea.Cmd {
	return func() tea.Msg {
		return boardLoadedMsg{projectID: b.ProjectID(), err: b.Load(context.Background())}
	}
}

// await waits for op in the background. A nil op yields no message.
func await(label string, op *board.Op) tea.Cmd {
	if op == nil || op.State() == board.OpIdle {
		return nil
	}
	return func() tea.Msg {
		<-op.Done()
		return opDoneMsg{label: label, op: op}
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m.updateForm(msg)

	case projectsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		if m.board == nil {
			return m, m.openProject(m.initialProject())
		}
		return m, nil

	case boardLoadedMsg:
		if m.board == nil || msg.projectID != m.board.ProjectID() {
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
		}
		m.clampRows()
		return m, nil

	case opDoneMsg:
		m.pending--
		if msg.op.State() == board.OpRolledBack {
			m.err = fmt.Errorf("%s failed: %w", msg.label, msg.op.Err())
		} else {
			m.status = msg.label + " saved"
		}
		m.clampRows()
		return m, nil

	case taskSubmittedMsg:
		m.view = m.prevView
		return m.submitTask(msg.draft)

	case projectSubmittedMsg:
		m.view = viewProjects
		return m.submitProject(msg.draft)

	case formCancelMsg:
		if m.view == viewProjectForm {
			m.view = viewProjects
		} else {
			m.view = m.prevView
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m.updateForm(msg)
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case viewTaskForm:
		m.taskForm, cmd = m.taskForm.Update(msg)
	case viewProjectForm:
		m.projectForm, cmd = m.projectForm.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case viewTaskForm, viewProjectForm:
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg { return formCancelMsg{} }
		}
		return m.updateForm(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	switch m.view {
	case viewDetail:
		return m.detailKey(msg)
	case viewProjects:
		return m.projectsKey(msg)
	}
	return m.boardKey(msg)
}

func (m Model) boardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.board == nil {
		if key.Matches(msg, m.keys.Project) || key.Matches(msg, m.keys.New) {
			m.view = viewProjects
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.rows[m.column] > 0 {
			m.rows[m.column]--
		}
	case key.Matches(msg, m.keys.Down):
		m.rows[m.column]++
		m.clampRows()
	case key.Matches(msg, m.keys.Left):
		m.column = max(m.column-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.column = min(m.column+1, 2)
	case key.Matches(msg, m.keys.MoveLeft):
		return m.moveSelected(-1)
	case key.Matches(msg, m.keys.MoveRight):
		return m.moveSelected(1)
	case key.Matches(msg, m.keys.Open):
		if t, ok := m.selected(); ok && m.board.OpenDetail(t.ID) == nil {
			m.view = viewDetail
			m.itemRow = 0
		}
	case key.Matches(msg, m.keys.New):
		draft := forms.NewTaskDraft(m.board.ProjectID())
		draft.SetStatus(task.Statuses()[m.column])
		return m.openTaskForm(draft)
	case key.Matches(msg, m.keys.Edit):
		if t, ok := m.selected(); ok {
			return m.openTaskForm(forms.FromTask(t))
		}
	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selected(); ok {
			op, err := m.board.DeleteTask(context.Background(), t.ID)
			return m.track("delete", op, err)
		}
	case key.Matches(msg, m.keys.Save):
		if t, ok := m.selected(); ok {
			op, err := m.board.SaveChanges(context.Background(), t.ID)
			return m.track("save task", op, err)
		}
	case key.Matches(msg, m.keys.Project):
		m.view = viewProjects
	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(loadBoard(m.board), loadProjects(m.projects))
	}
	return m, nil
}

func (m Model) detailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t, ok := m.board.Detail()
	if !ok {
		m.view = viewBoard
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Back):
		m.board.CloseDetail()
		m.view = viewBoard
	case key.Matches(msg, m.keys.Up):
		m.itemRow = max(m.itemRow-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.itemRow = min(m.itemRow+1, max(len(t.ChecklistItems)-1, 0))
	case key.Matches(msg, m.keys.Toggle):
		if m.itemRow < len(t.ChecklistItems) {
			m.err = nil
			if err := m.board.ToggleChecklistItem(t.ID, t.ChecklistItems[m.itemRow].ID); err != nil {
				m.err = fmt.Errorf("checklist: %w", err)
			}
		}
	case key.Matches(msg, m.keys.Save):
		op, err := m.board.SaveChanges(context.Background(), t.ID)
		return m.track("save task", op, err)
	case key.Matches(msg, m.keys.Edit):
		return m.openTaskForm(forms.FromTask(t))
	case key.Matches(msg, m.keys.MoveLeft):
		return m.move(t, -1)
	case key.Matches(msg, m.keys.MoveRight):
		return m.move(t, 1)
	}
	return m, nil
}

func (m Model) projectsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.projects.Projects()
	var selected string
	if m.projectRow < len(list) {
		selected = list[m.projectRow].ID
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		if m.board != nil {
			m.view = viewBoard
		}
	case key.Matches(msg, m.keys.Up):
		m.projectRow = max(m.projectRow-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.projectRow = min(m.projectRow+1, max(len(list)-1, 0))
	case key.Matches(msg, m.keys.Open):
		if selected != "" && !board.IsPlaceholder(selected) {
			m.view = viewBoard
			return m, m.openProject(selected)
		}
	case key.Matches(msg, m.keys.Main):
		if selected != "" {
			op, err := m.projects.SetMain(context.Background(), selected)
			return m.track("main project", op, err)
		}
	case key.Matches(msg, m.keys.New):
		return m.openProjectForm(forms.NewProjectDraft())
	case key.Matches(msg, m.keys.Edit):
		if p, ok := m.projects.Project(selected); ok {
			return m.openProjectForm(forms.FromProject(p))
		}
	case key.Matches(msg, m.keys.Delete):
		if selected != "" {
			if m.board != nil && m.board.ProjectID() == selected {
				m.board = nil
			}
			op, err := m.projects.DeleteProject(context.Background(), selected)
			return m.track("delete project", op, err)
		}
	case key.Matches(msg, m.keys.Refresh):
		return m, loadProjects(m.projects)
	}
	return m, nil
}

func (m Model) moveSelected(delta int) (tea.Model, tea.Cmd) {
	t, ok := m.selected()
	if !ok {
		return m, nil
	}
	return m.move(t, delta)
}

func (m Model) move(t task.Task, delta int) (tea.Model, tea.Cmd) {
	statuses := task.Statuses()
	idx := 0
	for i, s := range statuses {
		if s == t.Status {
			idx = i
		}
	}
	next := idx + delta
	if next < 0 || next >= len(statuses) {
		return m, nil
	}
	op, err := m.board.MoveTask(context.Background(), t.ID, statuses[next])
	model, cmd := m.track("move", op, err)
	mm := model.(Model)
	if mm.view == viewBoard && err == nil {
		mm.column = next
		for i, bt := range mm.board.Bucket(statuses[next]) {
			if bt.ID == t.ID {
				mm.rows[next] = i
			}
		}
	}
	return mm, cmd
}

// track counts a started operation and waits for it to settle.
func (m Model) track(label string, op *board.Op, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		m.err = fmt.Errorf("%s: %w", label, err)
		return m, nil
	}
	m.err = nil
	cmd := await(label, op)
	if cmd != nil {
		m.pending++
	}
	m.clampRows()
	return m, cmd
}

func (m Model) openTaskForm(draft *forms.TaskDraft) (tea.Model, tea.Cmd) {
	if !draft.IsNew() && board.IsPlaceholder(draft.ID) {
		m.err = board.ErrPending
		return m, nil
	}
	if m.view != viewTaskForm {
		m.prevView = m.view
	}
	m.view = viewTaskForm
	m.taskForm = newTaskForm(draft, m.width)
	return m, m.taskForm.Init()
}

func (m Model) openProjectForm(draft *forms.ProjectDraft) (tea.Model, tea.Cmd) {
	m.view = viewProjectForm
	m.projectForm = newProjectForm(draft, m.width)
	return m, m.projectForm.Init()
}

func (m Model) submitTask(draft *forms.TaskDraft) (tea.Model, tea.Cmd) {
	if err := draft.Validate(); err != nil {
		m.err = err
		return m, nil
	}
	if m.board == nil {
		return m, nil
	}
	ctx := context.Background()
	if draft.IsNew() {
		op, err := m.board.CreateTask(ctx, draft.Task())
		return m.track("create task", op, err)
	}
	op, err := m.board.SaveTask(ctx, draft.Task())
	return m.track("save task", op, err)
}

func (m Model) submitProject(draft *forms.ProjectDraft) (tea.Model, tea.Cmd) {
	if err := draft.Validate(); err != nil {
		m.err = err
		return m, nil
	}
	ctx := context.Background()
	if draft.IsNew() {
		op, err := m.projects.CreateProject(ctx, draft.Project())
		return m.track("create project", op, err)
	}
	op, err := m.projects.UpdateProject(ctx, draft.Project())
	return m.track("save project", op, err)
}

// openProject switches the board to projectID and loads it.
func (m *Model) openProject(projectID string) tea.Cmd {
	if projectID == "" {
		m.board = nil
		m.view = viewProjects
		return nil
	}
	m.board = board.New(m.gw, projectID, board.WithLogger(m.logger))
	m.column = 0
	m.rows = [3]int{}
	return loadBoard(m.board)
}

func (m Model) initialProject() string {
	if m.wantProject != "" {
		if _, ok := m.projects.Project(m.wantProject); ok {
			return m.wantProject
		}
	}
	if p, ok := m.projects.Main(); ok {
		return p.ID
	}
	if list := m.projects.Projects(); len(list) > 0 {
		return list[0].ID
	}
	return ""
}

func (m Model) selected() (task.Task, bool) {
	if m.board == nil {
		return task.Task{}, false
	}
	bucket := m.board.Bucket(task.Statuses()[m.column])
	row := m.rows[m.column]
	if row < 0 || row >= len(bucket) {
		return task.Task{}, false
	}
	return bucket[row], true
}

func (m *Model) clampRows() {
	if n := len(m.projects.Projects()); m.projectRow >= n {
		m.projectRow = max(n-1, 0)
	}
	if m.board == nil {
		return
	}
	for i, s := range task.Statuses() {
		n := len(m.board.Bucket(s))
		m.rows[i] = min(max(m.rows[i], 0), max(n-1, 0))
	}
}
