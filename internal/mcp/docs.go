package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `taskboard tracks Projects, each holding Tasks on a three-column board (TODO, IN_PROGRESS, DONE).

- Project: name, description, logo, viewed flag. At most one project is the main project.
- Task: title, description, status, priority (LOW, MEDIUM, HIGH), optional planned date, checklist.
- Deleting a project deletes its tasks and their checklists.

Workflow:
1) list_projects, then list_tasks with project_id to see a board.
2) create_task / update_task / move_task to change the board.
3) toggle_checklist_item to tick off checklist entries.

Docs: taskboard://docs/index`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "taskboard://docs/index",
		Name:        "docs_index",
		Title:       "taskboard tool guide",
		Description: "Tools, fields, and the rules the store enforces.",
		Content: `# taskboard tools

## Projects

- ` + "`list_projects`" + ` returns every project with its ` + "`taskCount`" + `.
- ` + "`create_project`" + ` requires ` + "`name`" + `. An empty logo becomes ` + "`/default-logo.png`" + `.
- ` + "`save_project`" + ` creates or fully replaces a project by ID.
- ` + "`set_main_project`" + ` makes one project main and clears the flag everywhere else.
- ` + "`delete_project`" + ` cascades to tasks and checklist items.
- ` + "`get_project_stats`" + ` counts tasks per column.

## Tasks

- ` + "`create_task`" + ` requires ` + "`project_id`" + ` and ` + "`title`" + `; status defaults to TODO and priority to MEDIUM.
- ` + "`update_task`" + ` changes only the fields you pass. Passing ` + "`checklist_items`" + ` replaces the checklist; items keep their IDs when you pass them back.
- ` + "`save_task`" + ` creates or fully replaces a task by ID.
- ` + "`move_task`" + ` changes only the status. Any column can move to any other.
- ` + "`toggle_checklist_item`" + ` sets or flips one checklist item.

## Errors

Tool errors carry a code: INVALID_INPUT, PROJECT_NOT_FOUND, TASK_NOT_FOUND, CHECKLIST_ITEM_NOT_FOUND or INTERNAL.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
