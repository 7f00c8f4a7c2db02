package board

import (
	"context"
	"sync"
)

// OpState is the lifecycle of one optimistic mutation.
type OpState int

const (
	// OpIdle is an operation that never needed the server.
	OpIdle OpState = iota
	// OpPending has been applied locally and awaits the server.
	OpPending
	// OpCommitted was confirmed by the server.
	OpCommitted
	// OpRolledBack failed on the server; local state was restored.
	OpRolledBack
)

func (s OpState) String() string {
	switch s {
	case OpIdle:
		return "idle"
	case OpPending:
		return "pending"
	case OpCommitted:
		return "committed"
	case OpRolledBack:
		return "rolled back"
	}
	return "unknown"
}

// Op tracks one optimistic mutation. The local change is already visible
// when the Op is returned; Done closes once the server has answered and the
// local state has been confirmed or restored.
type Op struct {
	id   string
	done chan struct{}

	mu    sync.Mutex
	state OpState
	err   error
}

func newOp(id string) *Op {
	return &Op{id: id, done: make(chan struct{}), state: OpPending}
}

// idleOp is returned for mutations that changed nothing.
func idleOp(id string) *Op {
	op := &Op{id: id, done: make(chan struct{}), state: OpIdle}
	close(op.done)
	return op
}

// ID is the correlation handle of the operation: the entity ID it acted on,
// or the placeholder ID of a create.
func (o *Op) ID() string { return o.id }

// Done is closed when the operation has settled.
func (o *Op) Done() <-chan struct{} { return o.done }

// State reports the current lifecycle state.
func (o *Op) State() OpState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Err is the server error of a rolled back operation.
func (o *Op) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// Wait blocks until the operation settles or ctx ends, returning the server
// error if it was rolled back.
func (o *Op) Wait(ctx context.Context) error {
	select {
	case <-o.done:
		return o.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Op) finish(err error) {
	o.mu.Lock()
	if err != nil {
		o.state = OpRolledBack
		o.err = err
	} else {
		o.state = OpCommitted
	}
	o.mu.Unlock()
	close(o.done)
}

// run persists in the background. settle runs before the Op is finished so
// that anyone woken by Done sees the settled local state.
func run(ctx context.Context, op *Op, persist func(context.Context) error, settle func(error)) *Op {
	go func() {
		err := persist(ctx)
		settle(err)
		op.finish(err)
	}()
	return op
}
