// Package client is a typed HTTP client for the taskboard REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/domain/task"
)

var (
	// ErrNotFound is matched by APIErrors with status 404.
	ErrNotFound = errors.New("not found")
	// ErrInvalid is matched by APIErrors with status 400.
	ErrInvalid = errors.New("invalid request")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Method  string
	Path    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

// Is lets callers test with errors.Is(err, client.ErrNotFound) or ErrInvalid.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrInvalid:
		return e.Status == http.StatusBadRequest
	}
	return false
}

// Client talks to one taskboard server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the server at baseURL (e.g. http://localhost:8080).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type projectBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
	IsMain      bool   `json:"isMain"`
	Viewed      bool   `json:"viewed"`
}

func newProjectBody(p project.Project) projectBody {
	return projectBody{Name: p.Name, Description: p.Description, Logo: p.Logo, IsMain: p.IsMain, Viewed: p.Viewed}
}

// ListProjects returns every project.
func (c *Client) ListProjects(ctx context.Context) ([]project.Project, error) {
	var out []project.Project
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProject fetches one project.
func (c *Client) GetProject(ctx context.Context, id string) (*project.Project, error) {
	var out project.Project
	if err := c.do(ctx, http.MethodGet, "/api/projects/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProject creates p; its ID is ignored and the server-issued one returned.
func (c *Client) CreateProject(ctx context.Context, p project.Project) (*project.Project, error) {
	var out project.Project
	if err := c.do(ctx, http.MethodPost, "/api/projects", newProjectBody(p), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProject replaces the editable fields of p.
func (c *Client) UpdateProject(ctx context.Context, p project.Project) (*project.Project, error) {
	var out project.Project
	if err := c.do(ctx, http.MethodPut, "/api/projects/"+url.PathEscape(p.ID), newProjectBody(p), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProject removes a project with its tasks.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/projects/"+url.PathEscape(id), nil, nil)
}

// SetMainProject makes id the only main project.
func (c *Client) SetMainProject(ctx context.Context, id string) (*project.Project, error) {
	var out project.Project
	if err := c.do(ctx, http.MethodPost, "/api/projects/"+url.PathEscape(id)+"/main", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProjectStats returns the per-status task counts of a project.
func (c *Client) ProjectStats(ctx context.Context, id string) (task.Summary, error) {
	var out task.Summary
	err := c.do(ctx, http.MethodGet, "/api/projects/"+url.PathEscape(id)+"/stats", nil, &out)
	return out, err
}

// ListTasks returns the tasks of a project, or all tasks when projectID is empty.
func (c *Client) ListTasks(ctx context.Context, projectID string) ([]task.Task, error) {
	path := "/api/tasks"
	if projectID != "" {
		path += "?" + url.Values{"projectId": {projectID}}.Encode()
	}
	var out []task.Task
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTask fetches one task.
func (c *Client) GetTask(ctx context.Context, id string) (*task.Task, error) {
	var out task.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTask creates t; its ID is ignored and the server-issued one returned.
func (c *Client) CreateTask(ctx context.Context, t task.Task) (*task.Task, error) {
	var out task.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTask replaces t on the server, checklist included.
func (c *Client) UpdateTask(ctx context.Context, t task.Task) (*task.Task, error) {
	if t.ChecklistItems == nil {
		t.ChecklistItems = []task.ChecklistItem{}
	}
	var out task.Task
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(t.ID), t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTask removes a task with its checklist.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
}

// SetChecklistItem stores the completion flag of one checklist item.
func (c *Client) SetChecklistItem(ctx context.Context, taskID, itemID string, completed bool) (*task.Task, error) {
	path := "/api/tasks/" + url.PathEscape(taskID) + "/checklist/" + url.PathEscape(itemID)
	var out task.Task
	if err := c.do(ctx, http.MethodPatch, path, map[string]bool{"completed": completed}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends one JSON request and decodes the JSON response into result when
// result is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Method: method, Path: path}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("decoding response of %s %s: %w", method, path, err)
	}
	return nil
}
