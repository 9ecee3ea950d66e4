package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/idilsaglam/tada/internal/model"
)

// TodosAPI wraps the /todos endpoints.
type TodosAPI struct {
	c *Client
}

func NewTodosAPI(c *Client) *TodosAPI { return &TodosAPI{c: c} }

// List returns one page of todos for params.
func (t *TodosAPI) List(ctx context.Context, params model.QueryParams) (*model.Page[model.Todo], error) {
	query, err := params.Values()
	if err != nil {
		return nil, err
	}
	env, err := Get[model.Page[model.Todo]](ctx, t.c, "/todos", query)
	if err != nil {
		return nil, err
	}
	return &env.Content, nil
}

func (t *TodosAPI) Create(ctx context.Context, req model.CreateTodoRequest) (*model.Todo, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	env, err := Post[model.Todo](ctx, t.c, "/todos", req)
	if err != nil {
		return nil, err
	}
	return &env.Content, nil
}

// Mark sets the done state of id. The returned todo carries the value the
// backend stored.
func (t *TodosAPI) Mark(ctx context.Context, id string, action model.MarkAction) (*model.Todo, error) {
	p, err := todoPath(id, "mark")
	if err != nil {
		return nil, err
	}
	req := model.MarkTodoRequest{Action: action}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	env, err := Put[model.Todo](ctx, t.c, p, req)
	if err != nil {
		return nil, err
	}
	return &env.Content, nil
}

func (t *TodosAPI) Delete(ctx context.Context, id string) error {
	p, err := todoPath(id)
	if err != nil {
		return err
	}
	_, err = Delete[json.RawMessage](ctx, t.c, p)
	return err
}

func todoPath(id string, suffix ...string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", &model.ValidationError{Fields: map[string]string{"id": "is required"}}
	}
	p := fmt.Sprintf("/todos/%s", url.PathEscape(id))
	for _, s := range suffix {
		p += "/" + s
	}
	return p, nil
}
