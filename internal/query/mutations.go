package query

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/model"
)

// ErrEmptyItem rejects a create before it reaches the network.
var ErrEmptyItem = errors.New("todo text is empty")

type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeError
)

// Notice is a transient message for the user.
type Notice struct {
	Kind        NoticeKind
	Title       string
	Description string
}

type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a func to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Writer performs todo writes against the backend.
type Writer interface {
	Create(ctx context.Context, req model.CreateTodoRequest) (*model.Todo, error)
	Mark(ctx context.Context, id string, action model.MarkAction) (*model.Todo, error)
	Delete(ctx context.Context, id string) error
}

type copyText struct {
	title, success, failure string
}

var mutationCopy = map[MutationKind]copyText{
	MutationCreate: {"Todo created", "Your todo has been created successfully.", "Failed to create todo."},
	MutationMark:   {"Todo updated", "Todo status has been updated.", "Failed to update todo."},
	MutationDelete: {"Todo deleted", "Todo has been deleted successfully.", "Failed to delete todo."},
}

// Mutations runs writes. Each attempt emits exactly one notice; a success
// invalidates the families declared in Invalidations, a failure touches no
// cache entry. Overlapping mutations are not coordinated.
type Mutations struct {
	client *Client
	todos  Writer
	notify Notifier
	logger *log.Logger
}

func NewMutations(c *Client, w Writer, n Notifier, logger *log.Logger) *Mutations {
	if n == nil {
		n = NotifierFunc(func(Notice) {})
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Mutations{client: c, todos: w, notify: n, logger: logger}
}

// Create adds a todo. Blank text is rejected locally.
func (m *Mutations) Create(ctx context.Context, text string) (*model.Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		m.failed(MutationCreate, ErrEmptyItem)
		return nil, ErrEmptyItem
	}
	td, err := m.todos.Create(ctx, model.CreateTodoRequest{Item: text})
	if err != nil {
		m.failed(MutationCreate, err)
		return nil, err
	}
	m.succeeded(ctx, MutationCreate)
	return td, nil
}

// Toggle asks the backend to flip t. The displayed value is whatever the
// backend returns on the next fetch.
func (m *Mutations) Toggle(ctx context.Context, t model.Todo) (*model.Todo, error) {
	return m.Mark(ctx, t.ID, model.Toggle(t))
}

func (m *Mutations) Mark(ctx context.Context, id string, action model.MarkAction) (*model.Todo, error) {
	td, err := m.todos.Mark(ctx, id, action)
	if err != nil {
		m.failed(MutationMark, err)
		return nil, err
	}
	m.succeeded(ctx, MutationMark)
	return td, nil
}

func (m *Mutations) Delete(ctx context.Context, id string) error {
	if err := m.todos.Delete(ctx, id); err != nil {
		m.failed(MutationDelete, err)
		return err
	}
	m.succeeded(ctx, MutationDelete)
	return nil
}

func (m *Mutations) succeeded(ctx context.Context, kind MutationKind) {
	text := mutationCopy[kind]
	m.notify.Notify(Notice{Kind: NoticeSuccess, Title: text.title, Description: text.success})
	if err := m.client.Invalidate(ctx, InvalidatedBy(kind)...); err != nil {
		m.logger.Debug("refetch after mutation failed", "mutation", string(kind), "err", err)
	}
}

func (m *Mutations) failed(kind MutationKind, err error) {
	desc := mutationCopy[kind].failure
	if err != nil && err.Error() != "" {
		desc = err.Error()
	}
	m.logger.Debug("mutation failed", "mutation", string(kind), "err", err)
	m.notify.Notify(Notice{Kind: NoticeError, Title: "Error", Description: desc})
}
