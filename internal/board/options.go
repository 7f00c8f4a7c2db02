package board

import (
	"errors"
	"log/slog"
	"strings"
)

// PlaceholderPrefix marks IDs the client invented for records the server has
// not confirmed yet.
const PlaceholderPrefix = "tmp-"

var (
	ErrUnknownTask          = errors.New("task not on board")
	ErrUnknownChecklistItem = errors.New("checklist item not on task")
	ErrUnknownProject       = errors.New("project not in list")
	ErrInvalidStatus        = errors.New("invalid status")
	// ErrPending rejects changes to a record whose create is still in flight.
	ErrPending = errors.New("record is still being created")
)

// IsPlaceholder reports whether id was issued locally by a pending create.
func IsPlaceholder(id string) bool {
	return strings.HasPrefix(id, PlaceholderPrefix)
}

// Option configures a Board or ProjectList.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	onChange func()
}

// WithLogger sets the logger used to report rollbacks.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithOnChange registers fn to run after every local state change, including
// the ones made when an operation settles. fn runs without locks held.
func WithOnChange(fn func()) Option {
	return func(o *options) { o.onChange = fn }
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.onChange == nil {
		o.onChange = func() {}
	}
	return o
}
