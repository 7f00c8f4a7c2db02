package project

import "time"

// DefaultLogo is used when a project is saved without a logo.
const DefaultLogo = "/default-logo.png"

// Project groups tasks on a board. At most one project is the main project.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Logo        string    `json:"logo"`
	IsMain      bool      `json:"isMain"`
	Viewed      bool      `json:"viewed"`
	TaskCount   int       `json:"taskCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
