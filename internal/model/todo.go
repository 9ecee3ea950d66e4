package model

import "time"

// Todo is a backend-owned todo record. The client only holds read-only
// copies; every change goes through the backend.
type Todo struct {
	ID        string    `json:"id"`
	Item      string    `json:"item"`
	UserID    string    `json:"userId"`
	IsDone    bool      `json:"isDone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MarkAction is the body of PUT /todos/{id}/mark.
type MarkAction string

const (
	ActionDone   MarkAction = "DONE"
	ActionUndone MarkAction = "UNDONE"
)

// Toggle returns the action that flips t at the backend.
func Toggle(t Todo) MarkAction {
	if t.IsDone {
		return ActionUndone
	}
	return ActionDone
}

// Status is the badge text shown next to an entry.
func (t Todo) Status() string {
	if t.IsDone {
		return "Success"
	}
	return "Pending"
}

type CreateTodoRequest struct {
	Item string `json:"item" validate:"required"`
}

type MarkTodoRequest struct {
	Action MarkAction `json:"action" validate:"required,oneof=DONE UNDONE"`
}
