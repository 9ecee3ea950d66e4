package query

import (
	"context"
	"fmt"
	"sync"

	"github.com/idilsaglam/tada/internal/model"
)

// Status is the state of a list view.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// EmptyText is shown for a successful fetch without entries.
const EmptyText = "No todos found. Create your first todo!"

// Lister reads one page of todos.
type Lister interface {
	List(ctx context.Context, params model.QueryParams) (*model.Page[model.Todo], error)
}

// ListState is a point-in-time copy of a list view.
type ListState struct {
	Status Status
	Params model.QueryParams
	Page   *model.Page[model.Todo]
	Err    error
}

// Entries returns the entries of the last successful fetch.
func (s ListState) Entries() []model.Todo {
	if s.Page == nil {
		return nil
	}
	return s.Page.Entries
}

// Empty reports a successful fetch with no entries.
func (s ListState) Empty() bool {
	return s.Status == StatusSuccess && len(s.Entries()) == 0
}

// Summary is the "Showing X of Y todos" footer.
func (s ListState) Summary() string {
	if s.Page == nil {
		return ""
	}
	return fmt.Sprintf("Showing %d of %d todos", len(s.Page.Entries), s.Page.TotalData)
}

// ListView drives one todo list: idle -> loading -> success|error, back to
// loading whenever its parameters change or its family is invalidated.
// Results of superseded fetches are dropped so a slow old query cannot
// overwrite a newer one.
type ListView struct {
	client    *Client
	lister    Lister
	unobserve func()

	mu       sync.Mutex
	state    ListState
	seq      uint64
	onChange []func(ListState)
}

func NewListView(c *Client, l Lister, params model.QueryParams) *ListView {
	v := &ListView{
		client: c,
		lister: l,
		state:  ListState{Status: StatusIdle, Params: params},
	}
	v.unobserve = c.Observe(FamilyTodos, v)
	return v
}

// Close stops reacting to invalidations.
func (v *ListView) Close() { v.unobserve() }

// OnChange registers fn to receive every state transition.
func (v *ListView) OnChange(fn func(ListState)) {
	v.mu.Lock()
	v.onChange = append(v.onChange, fn)
	v.mu.Unlock()
}

func (v *ListView) Snapshot() ListState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Params returns the current query parameters.
func (v *ListView) Params() model.QueryParams {
	return v.Snapshot().Params
}

// SetParams switches to params and loads them.
func (v *ListView) SetParams(ctx context.Context, params model.QueryParams) error {
	v.mu.Lock()
	v.state.Params = params
	v.mu.Unlock()
	return v.Load(ctx)
}

// Refetch implements Refetcher.
func (v *ListView) Refetch(ctx context.Context) error { return v.Load(ctx) }

// Load fetches the current parameters, serving a cached page when one is
// held.
func (v *ListView) Load(ctx context.Context) error {
	v.mu.Lock()
	v.seq++
	seq := v.seq
	params := v.state.Params
	v.state.Status = StatusLoading
	v.state.Err = nil
	v.emitLocked()

	key := Key{Family: FamilyTodos, Params: params.CacheKey()}
	val, err := v.client.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return v.lister.List(ctx, params)
	})

	v.mu.Lock()
	if seq != v.seq {
		v.mu.Unlock()
		return err
	}
	if err != nil {
		v.state.Status = StatusError
		v.state.Err = err
	} else {
		v.state.Status = StatusSuccess
		v.state.Page = val.(*model.Page[model.Todo])
	}
	v.emitLocked()
	return err
}

// emitLocked unlocks v.mu and notifies listeners with the new state.
func (v *ListView) emitLocked() {
	st := v.state
	listeners := append([]func(ListState){}, v.onChange...)
	v.mu.Unlock()
	for _, fn := range listeners {
		fn(st)
	}
}
