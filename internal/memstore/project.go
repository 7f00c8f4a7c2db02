package memstore

import (
	"context"
	"time"

	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/repository"
)

// ProjectRepository implements project.Repository on a Store.
type ProjectRepository struct {
	s *Store
}

func (r *ProjectRepository) List(_ context.Context) ([]project.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	snap := r.s.snapshotLocked()
	for i := range snap.Projects {
		snap.Projects[i].TaskCount = r.s.taskCountLocked(snap.Projects[i].ID)
	}
	return snap.Projects, nil
}

func (r *ProjectRepository) Get(_ context.Context, id string) (*project.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.TaskCount = r.s.taskCountLocked(id)
	return &p, nil
}

func (r *ProjectRepository) Create(_ context.Context, proj *project.Project) error {
	return r.s.mutate(func() error {
		p := *proj
		p.TaskCount = 0
		if p.IsMain {
			r.clearMainLocked(p.ID)
		}
		r.s.projects[p.ID] = p
		return nil
	})
}

func (r *ProjectRepository) Update(_ context.Context, proj *project.Project) error {
	return r.s.mutate(func() error {
		current, ok := r.s.projects[proj.ID]
		if !ok {
			return repository.ErrNotFound
		}
		p := *proj
		p.TaskCount = 0
		p.CreatedAt = current.CreatedAt
		if p.IsMain {
			r.clearMainLocked(p.ID)
		}
		r.s.projects[p.ID] = p
		return nil
	})
}

// clearMainLocked drops the main flag from every project but keep.
func (r *ProjectRepository) clearMainLocked(keep string) {
	for pid, p := range r.s.projects {
		if pid != keep && p.IsMain {
			p.IsMain = false
			r.s.projects[pid] = p
		}
	}
}

// Delete removes the project and every task that belongs to it.
func (r *ProjectRepository) Delete(_ context.Context, id string) error {
	return r.s.mutate(func() error {
		if _, ok := r.s.projects[id]; !ok {
			return repository.ErrNotFound
		}
		for taskID, t := range r.s.tasks {
			if t.ProjectID == id {
				delete(r.s.tasks, taskID)
			}
		}
		delete(r.s.projects, id)
		return nil
	})
}

func (r *ProjectRepository) SetMain(_ context.Context, id string) error {
	return r.s.mutate(func() error {
		if _, ok := r.s.projects[id]; !ok {
			return repository.ErrNotFound
		}
		now := time.Now().UTC()
		for pid, p := range r.s.projects {
			want := pid == id
			if p.IsMain == want {
				continue
			}
			p.IsMain = want
			if want {
				p.UpdatedAt = now
			}
			r.s.projects[pid] = p
		}
		return nil
	})
}
