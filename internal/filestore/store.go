// Package filestore persists the in-memory store as two JSON documents,
// projects.json and tasks.json, rewritten in full after every change.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/memstore"
	"github.com/rpggio/taskboard/internal/repository"
)

const (
	ProjectsFile = "projects.json"
	TasksFile    = "tasks.json"
)

// Store is a memstore.Store whose every mutation is written to dir.
type Store struct {
	*memstore.Store
	dir    string
	logger *slog.Logger
}

// Open loads dir, creating it if needed. Elements that cannot be decoded are
// skipped with a warning.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w: %w", repository.ErrStoreUnavailable, err)
	}

	fsStore := &Store{dir: dir, logger: logger}
	snap, err := fsStore.load()
	if err != nil {
		return nil, err
	}
	fsStore.Store = memstore.NewFromSnapshot(snap, fsStore.write)
	return fsStore, nil
}

// Dir is the directory holding the JSON files.
func (s *Store) Dir() string {
	return s.dir
}

// Ping checks that the data directory is still there.
func (s *Store) Ping(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("checking data dir: %w: %w", repository.ErrStoreUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data dir %s is not a directory: %w", s.dir, repository.ErrStoreUnavailable)
	}
	return nil
}

func (s *Store) load() (memstore.Snapshot, error) {
	var snap memstore.Snapshot

	rawProjects, err := s.readArray(ProjectsFile)
	if err != nil {
		return snap, err
	}
	known := make(map[string]bool, len(rawProjects))
	for i, raw := range rawProjects {
		var p project.Project
		if err := json.Unmarshal(raw, &p); err != nil || p.ID == "" {
			s.logger.Warn("skipping unreadable project", "file", ProjectsFile, "index", i, "error", corrupt(err))
			continue
		}
		if p.Logo == "" {
			p.Logo = project.DefaultLogo
		}
		known[p.ID] = true
		snap.Projects = append(snap.Projects, p)
	}

	rawTasks, err := s.readArray(TasksFile)
	if err != nil {
		return snap, err
	}
	for i, raw := range rawTasks {
		var t task.Task
		if err := json.Unmarshal(raw, &t); err != nil || t.ID == "" || !t.Status.Valid() || !t.Priority.Valid() {
			s.logger.Warn("skipping unreadable task", "file", TasksFile, "index", i, "error", corrupt(err))
			continue
		}
		if !known[t.ProjectID] {
			s.logger.Warn("skipping task of unknown project", "task_id", t.ID, "project_id", t.ProjectID)
			continue
		}
		for j := range t.ChecklistItems {
			t.ChecklistItems[j].TaskID = t.ID
		}
		snap.Tasks = append(snap.Tasks, t)
	}
	return snap, nil
}

// readArray returns the elements of a JSON array file. A missing file reads
// as empty; a file that is not an array at all is treated as empty and
// logged.
func (s *Store) readArray(name string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w: %w", name, repository.ErrStoreUnavailable, err)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		s.logger.Warn("ignoring unreadable data file", "file", name, "error", corrupt(err))
		return nil, nil
	}
	return elems, nil
}

// write replaces both files. Both are staged as temp files before either is
// renamed into place; if the second rename fails, projects.json is put back
// to its previous contents so the files stay in step.
func (s *Store) write(snap memstore.Snapshot) error {
	projects := snap.Projects
	if projects == nil {
		projects = []project.Project{}
	}
	tasks := snap.Tasks
	if tasks == nil {
		tasks = []task.Task{}
	}

	projectsTmp, err := s.stage(ProjectsFile, projects)
	if err != nil {
		return err
	}
	defer os.Remove(projectsTmp)
	tasksTmp, err := s.stage(TasksFile, tasks)
	if err != nil {
		return err
	}
	defer os.Remove(tasksTmp)

	projectsPath := filepath.Join(s.dir, ProjectsFile)
	previous, err := os.ReadFile(projectsPath)
	existed := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", ProjectsFile, err)
	}

	if err := os.Rename(projectsTmp, projectsPath); err != nil {
		return fmt.Errorf("replacing %s: %w", ProjectsFile, err)
	}
	if err := os.Rename(tasksTmp, filepath.Join(s.dir, TasksFile)); err != nil {
		if restoreErr := s.restore(ProjectsFile, previous, existed); restoreErr != nil {
			s.logger.Error("restoring data file", "file", ProjectsFile, "error", restoreErr)
		}
		return fmt.Errorf("replacing %s: %w", TasksFile, err)
	}
	return nil
}

// restore puts name back to data, or removes it when it did not exist.
func (s *Store) restore(name string, data []byte, existed bool) error {
	path := filepath.Join(s.dir, name)
	if !existed {
		return os.Remove(path)
	}
	tmp, err := s.stageBytes(name, data)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)
	return os.Rename(tmp, path)
}

// stage encodes v into a synced temp file next to name and returns its path.
func (s *Store) stage(name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", name, err)
	}
	return s.stageBytes(name, data)
}

func (s *Store) stageBytes(name string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("syncing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("closing %s: %w", name, err)
	}
	return tmp.Name(), nil
}

func corrupt(err error) error {
	if err == nil {
		return repository.ErrCorruptData
	}
	return fmt.Errorf("%w: %w", repository.ErrCorruptData, err)
}
