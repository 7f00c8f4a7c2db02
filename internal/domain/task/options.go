package task

// ListOptions filters task listings. Empty fields match everything.
type ListOptions struct {
	ProjectID string
	Status    Status
}
