package board

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/domain/task"
)

var errServer = errors.New("server unavailable")

// fakeGateway is an in-memory server. Calls block on gate when it is set and
// fail with fail when it is set.
type fakeGateway struct {
	mu       sync.Mutex
	tasks    []task.Task
	projects []project.Project
	fail     error
	failList error
	gate     chan struct{}
	calls    []string
	nextID   int
}

func (f *fakeGateway) enter(call string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail
}

func (f *fakeGateway) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeGateway) setFail(err error) {
	f.mu.Lock()
	f.fail = err
	f.mu.Unlock()
}

func (f *fakeGateway) ListTasks(_ context.Context, projectID string) ([]task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "ListTasks")
	if f.failList != nil {
		return nil, f.failList
	}
	var out []task.Task
	for _, t := range f.tasks {
		if projectID == "" || t.ProjectID == projectID {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (f *fakeGateway) CreateTask(_ context.Context, t task.Task) (*task.Task, error) {
	if err := f.enter("CreateTask"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t.ID = fmt.Sprintf("srv-%d", f.nextID)
	for i := range t.ChecklistItems {
		t.ChecklistItems[i].ID = fmt.Sprintf("%s-item-%d", t.ID, i)
		t.ChecklistItems[i].TaskID = t.ID
	}
	f.tasks = append(f.tasks, t.Clone())
	return &t, nil
}

func (f *fakeGateway) UpdateTask(_ context.Context, t task.Task) (*task.Task, error) {
	if err := f.enter("UpdateTask"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.tasks, func(x task.Task) bool { return x.ID == t.ID })
	if i < 0 {
		return nil, errors.New("not found")
	}
	f.tasks[i] = t.Clone()
	return &t, nil
}

func (f *fakeGateway) DeleteTask(_ context.Context, id string) error {
	if err := f.enter("DeleteTask"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = slices.DeleteFunc(f.tasks, func(x task.Task) bool { return x.ID == id })
	return nil
}

func (f *fakeGateway) ListProjects(context.Context) ([]project.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "ListProjects")
	if f.failList != nil {
		return nil, f.failList
	}
	return slices.Clone(f.projects), nil
}

func (f *fakeGateway) CreateProject(_ context.Context, p project.Project) (*project.Project, error) {
	if err := f.enter("CreateProject"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = fmt.Sprintf("proj-%d", f.nextID)
	f.projects = append(f.projects, p)
	return &p, nil
}

func (f *fakeGateway) UpdateProject(_ context.Context, p project.Project) (*project.Project, error) {
	if err := f.enter("UpdateProject"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.projects, func(x project.Project) bool { return x.ID == p.ID })
	if i < 0 {
		return nil, errors.New("not found")
	}
	f.projects[i] = p
	return &p, nil
}

func (f *fakeGateway) DeleteProject(_ context.Context, id string) error {
	if err := f.enter("DeleteProject"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects = slices.DeleteFunc(f.projects, func(x project.Project) bool { return x.ID == id })
	return nil
}

func (f *fakeGateway) SetMainProject(_ context.Context, id string) (*project.Project, error) {
	if err := f.enter("SetMainProject"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out *project.Project
	for i := range f.projects {
		f.projects[i].IsMain = f.projects[i].ID == id
		if f.projects[i].ID == id {
			p := f.projects[i]
			out = &p
		}
	}
	if out == nil {
		return nil, errors.New("not found")
	}
	return out, nil
}
