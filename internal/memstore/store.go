// Package memstore keeps projects and tasks in process memory. Every value
// is copied on the way in and out so callers never share state with the store.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/repository"
)

// Snapshot is the full store contents, ordered by creation time.
type Snapshot struct {
	Projects []project.Project
	Tasks    []task.Task
}

// PersistFunc is called with the new contents after every mutation, while
// the store lock is held. A failure undoes the mutation.
type PersistFunc func(Snapshot) error

// Store is a mutex-guarded in-memory store.
type Store struct {
	mu       sync.RWMutex
	projects map[string]project.Project
	tasks    map[string]task.Task
	persist  PersistFunc
}

// New returns an empty store.
func New() *Store {
	return NewFromSnapshot(Snapshot{}, nil)
}

// NewFromSnapshot returns a store holding snap. persist may be nil.
func NewFromSnapshot(snap Snapshot, persist PersistFunc) *Store {
	s := &Store{persist: persist}
	s.restoreLocked(snap)
	return s
}

func (s *Store) Projects() project.Repository { return &ProjectRepository{s: s} }

func (s *Store) Tasks() task.Repository { return &TaskRepository{s: s} }

// Snapshot returns a deep copy of the current contents.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) Close() error { return nil }

// Ping always succeeds; the data lives in process memory.
func (s *Store) Ping(context.Context) error { return nil }

// SeedIfEmpty stores proj and t when no project exists yet.
func (s *Store) SeedIfEmpty(_ context.Context, proj *project.Project, t *task.Task) (bool, error) {
	seeded := false
	err := s.mutate(func() error {
		if len(s.projects) > 0 {
			return nil
		}
		p := *proj
		p.TaskCount = 0
		s.projects[p.ID] = p
		s.tasks[t.ID] = t.Clone()
		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return seeded, nil
}

// mutate runs fn under the write lock and persists the result. fn must leave
// the maps untouched when it returns an error.
func (s *Store) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var before Snapshot
	if s.persist != nil {
		before = s.snapshotLocked()
	}

	if err := fn(); err != nil {
		return err
	}

	if s.persist != nil {
		if err := s.persist(s.snapshotLocked()); err != nil {
			s.restoreLocked(before)
			return fmt.Errorf("%w: %w", repository.ErrStoreUnavailable, err)
		}
	}
	return nil
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Projects: make([]project.Project, 0, len(s.projects)),
		Tasks:    make([]task.Task, 0, len(s.tasks)),
	}
	for _, p := range s.projects {
		snap.Projects = append(snap.Projects, p)
	}
	for _, t := range s.tasks {
		snap.Tasks = append(snap.Tasks, t.Clone())
	}
	slices.SortFunc(snap.Projects, func(a, b project.Project) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	sortTasks(snap.Tasks)
	return snap
}

func (s *Store) restoreLocked(snap Snapshot) {
	s.projects = make(map[string]project.Project, len(snap.Projects))
	s.tasks = make(map[string]task.Task, len(snap.Tasks))
	for _, p := range snap.Projects {
		p.TaskCount = 0
		s.projects[p.ID] = p
	}
	for _, t := range snap.Tasks {
		s.tasks[t.ID] = t.Clone()
	}
}

func (s *Store) taskCountLocked(projectID string) int {
	n := 0
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			n++
		}
	}
	return n
}

func sortTasks(tasks []task.Task) {
	slices.SortFunc(tasks, func(a, b task.Task) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
}
