package forms

import (
	"strings"
	"time"

	"github.com/rpggio/taskboard/internal/domain/project"
	"github.com/rpggio/taskboard/internal/validation"
)

// ProjectDraft collects the fields of a project being created or edited.
type ProjectDraft struct {
	ID          string `json:"id"`
	Name        string `json:"name" validate:"nonblank"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
	IsMain      bool   `json:"isMain"`

	viewed    bool
	createdAt time.Time
}

// NewProjectDraft starts an empty project draft.
func NewProjectDraft() *ProjectDraft {
	return &ProjectDraft{}
}

// FromProject starts an edit draft holding p's editable fields.
func FromProject(p project.Project) *ProjectDraft {
	return &ProjectDraft{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Logo:        p.Logo,
		IsMain:      p.IsMain,
		viewed:      p.Viewed,
		createdAt:   p.CreatedAt,
	}
}

func (d *ProjectDraft) IsNew() bool                       { return d.ID == "" }
func (d *ProjectDraft) SetName(name string)               { d.Name = name }
func (d *ProjectDraft) SetDescription(description string) { d.Description = description }
func (d *ProjectDraft) SetLogo(logo string)               { d.Logo = logo }
func (d *ProjectDraft) SetMain(main bool)                 { d.IsMain = main }

// Validate reports the first field that blocks saving.
func (d *ProjectDraft) Validate() error {
	return validation.Struct(d)
}

// CanSave reports whether the save action should be enabled.
func (d *ProjectDraft) CanSave() bool {
	return d.Validate() == nil
}

// Project builds the entity handed to the project list. An empty logo gets
// the default.
func (d *ProjectDraft) Project() project.Project {
	p := project.Project{
		ID:          d.ID,
		Name:        strings.TrimSpace(d.Name),
		Description: strings.TrimSpace(d.Description),
		Logo:        strings.TrimSpace(d.Logo),
		IsMain:      d.IsMain,
		Viewed:      d.viewed,
		CreatedAt:   d.createdAt,
	}
	if p.Logo == "" {
		p.Logo = project.DefaultLogo
	}
	return p
}
