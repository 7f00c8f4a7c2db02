package board

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/validation"
)

// ProjectList is the client-side list of projects.
type ProjectList struct {
	gw   ProjectGateway
	opts options

	mu       sync.RWMutex
	projects []project.Project
	rev      map[string]uint64
	// mainRev counts changes to the main flag across the whole list.
	mainRev uint64
	created map[string]string
}

// NewProjectList creates an empty list. Call Load to fill it.
func NewProjectList(gw ProjectGateway, opts ...Option) *ProjectList {
	return &ProjectList{
		gw:      gw,
		opts:    buildOptions(opts),
		rev:     make(map[string]uint64),
		created: make(map[string]string),
	}
}

// Load replaces the list with the server's projects.
func (l *ProjectList) Load(ctx context.Context) error {
	projects, err := l.gw.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("loading projects: %w", err)
	}
	l.mu.Lock()
	for _, p := range l.projects {
		l.rev[p.ID]++
	}
	l.projects = slices.Clone(projects)
	for _, p := range projects {
		l.rev[p.ID]++
	}
	l.mainRev++
	l.mu.Unlock()
	l.opts.onChange()
	return nil
}

// Projects returns a copy of the list.
func (l *ProjectList) Projects() []project.Project {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.projects)
}

// Project returns one project by ID.
func (l *ProjectList) Project(id string) (project.Project, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.indexLocked(id); i >= 0 {
		return l.projects[i], true
	}
	return project.Project{}, false
}

// Main returns the main project, if any.
func (l *ProjectList) Main() (project.Project, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, p := range l.projects {
		if p.IsMain {
			return p, true
		}
	}
	return project.Project{}, false
}

// Resolve maps the placeholder ID of a committed create to the server's ID.
func (l *ProjectList) Resolve(placeholder string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	id, ok := l.created[placeholder]
	return id, ok
}

// CreateProject shows draft under a placeholder ID until the server answers.
func (l *ProjectList) CreateProject(ctx context.Context, draft project.Project) (*Op, error) {
	if strings.TrimSpace(draft.Name) == "" {
		return nil, validation.Required("name")
	}
	now := time.Now().UTC()
	placeholder := PlaceholderPrefix + uuid.NewString()
	draft.ID = placeholder
	draft.Name = strings.TrimSpace(draft.Name)
	if draft.Logo == "" {
		draft.Logo = project.DefaultLogo
	}
	draft.TaskCount = 0
	draft.CreatedAt, draft.UpdatedAt = now, now

	l.mu.Lock()
	l.projects = append(l.projects, draft)
	l.rev[placeholder]++
	rev := l.rev[placeholder]
	mains, mainRev := l.applyMainLocked(draft)
	l.mu.Unlock()
	l.opts.onChange()

	var saved *project.Project
	return run(ctx, newOp(placeholder), func(ctx context.Context) error {
		var err error
		saved, err = l.gw.CreateProject(ctx, draft)
		return err
	}, func(err error) {
		l.mu.Lock()
		i := l.indexLocked(placeholder)
		if err != nil {
			l.opts.logger.Warn("project create failed, removing placeholder", "placeholder", placeholder, "error", err)
			if i >= 0 && l.rev[placeholder] == rev {
				l.projects = slices.Delete(l.projects, i, i+1)
			}
			l.restoreMainLocked(mains, mainRev)
		} else {
			l.created[placeholder] = saved.ID
			switch {
			case i >= 0:
				l.projects[i] = *saved
			case l.indexLocked(saved.ID) < 0:
				l.projects = append(l.projects, *saved)
			}
			l.rev[saved.ID]++
		}
		delete(l.rev, placeholder)
		l.mu.Unlock()
		l.opts.onChange()
	}), nil
}

// UpdateProject replaces the editable fields of a project.
func (l *ProjectList) UpdateProject(ctx context.Context, p project.Project) (*Op, error) {
	if IsPlaceholder(p.ID) {
		return nil, ErrPending
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, validation.Required("name")
	}

	l.mu.Lock()
	i := l.indexLocked(p.ID)
	if i < 0 {
		l.mu.Unlock()
		return nil, ErrUnknownProject
	}
	before := l.projects[i]
	after := p
	after.Name = strings.TrimSpace(p.Name)
	after.TaskCount = before.TaskCount
	after.CreatedAt = before.CreatedAt
	after.UpdatedAt = time.Now().UTC()
	l.projects[i] = after
	l.rev[p.ID]++
	rev := l.rev[p.ID]
	mains, mainRev := l.applyMainLocked(after)
	l.mu.Unlock()
	l.opts.onChange()

	var saved *project.Project
	return run(ctx, newOp(p.ID), func(ctx context.Context) error {
		var err error
		saved, err = l.gw.UpdateProject(ctx, after)
		return err
	}, func(err error) {
		l.mu.Lock()
		if err != nil {
			l.opts.logger.Warn("project update failed, rolling back", "project_id", p.ID, "error", err)
			l.settleLocked(p.ID, rev, before)
			l.restoreMainLocked(mains, mainRev)
		} else {
			l.settleLocked(p.ID, rev, *saved)
		}
		l.mu.Unlock()
		l.opts.onChange()
	}), nil
}

// DeleteProject removes a project locally and on the server, reloading the
// list when the server refuses.
func (l *ProjectList) DeleteProject(ctx context.Context, id string) (*Op, error) {
	if IsPlaceholder(id) {
		return nil, ErrPending
	}

	l.mu.Lock()
	i := l.indexLocked(id)
	if i < 0 {
		l.mu.Unlock()
		return nil, ErrUnknownProject
	}
	removed := l.projects[i]
	l.projects = slices.Delete(l.projects, i, i+1)
	l.rev[id]++
	l.mu.Unlock()
	l.opts.onChange()

	return run(ctx, newOp(id), func(ctx context.Context) error {
		return l.gw.DeleteProject(ctx, id)
	}, func(err error) {
		if err == nil {
			return
		}
		l.opts.logger.Warn("project delete failed, reloading list", "project_id", id, "error", err)
		if loadErr := l.Load(ctx); loadErr != nil {
			l.opts.logger.Warn("reload after failed delete failed", "error", loadErr)
			l.mu.Lock()
			if l.indexLocked(id) < 0 {
				l.projects = append(l.projects, removed)
			}
			l.mu.Unlock()
			l.opts.onChange()
		}
	}), nil
}

// SetMain makes id the only main project with one server call. A refusal
// restores every project's previous flag.
func (l *ProjectList) SetMain(ctx context.Context, id string) (*Op, error) {
	if IsPlaceholder(id) {
		return nil, ErrPending
	}

	l.mu.Lock()
	i := l.indexLocked(id)
	if i < 0 {
		l.mu.Unlock()
		return nil, ErrUnknownProject
	}
	if l.projects[i].IsMain && l.countMainLocked() == 1 {
		l.mu.Unlock()
		return idleOp(id), nil
	}
	target := l.projects[i]
	target.IsMain = true
	mains, mainRev := l.applyMainLocked(target)
	l.mu.Unlock()
	l.opts.onChange()

	return run(ctx, newOp(id), func(ctx context.Context) error {
		_, err := l.gw.SetMainProject(ctx, id)
		return err
	}, func(err error) {
		if err == nil {
			return
		}
		l.opts.logger.Warn("set main project failed, rolling back", "project_id", id, "error", err)
		l.mu.Lock()
		l.restoreMainLocked(mains, mainRev)
		l.mu.Unlock()
		l.opts.onChange()
	}), nil
}

// applyMainLocked makes p the only main project when p.IsMain is set. It
// returns the previous flags for restoreMainLocked, or nil when nothing
// changed.
func (l *ProjectList) applyMainLocked(p project.Project) (map[string]bool, uint64) {
	if !p.IsMain {
		return nil, l.mainRev
	}
	prev := make(map[string]bool, len(l.projects))
	for i := range l.projects {
		prev[l.projects[i].ID] = l.projects[i].IsMain
		l.projects[i].IsMain = l.projects[i].ID == p.ID
	}
	l.mainRev++
	return prev, l.mainRev
}

// restoreMainLocked puts back flags saved by applyMainLocked unless the main
// project changed again since.
func (l *ProjectList) restoreMainLocked(prev map[string]bool, rev uint64) {
	if prev == nil || l.mainRev != rev {
		return
	}
	for i := range l.projects {
		if was, ok := prev[l.projects[i].ID]; ok {
			l.projects[i].IsMain = was
		}
	}
	l.mainRev++
}

func (l *ProjectList) settleLocked(id string, rev uint64, p project.Project) {
	if l.rev[id] != rev {
		return
	}
	if i := l.indexLocked(id); i >= 0 {
		l.projects[i] = p
	}
}

func (l *ProjectList) countMainLocked() int {
	n := 0
	for _, p := range l.projects {
		if p.IsMain {
			n++
		}
	}
	return n
}

func (l *ProjectList) indexLocked(id string) int {
	return slices.IndexFunc(l.projects, func(p project.Project) bool { return p.ID == id })
}
