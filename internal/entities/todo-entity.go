// File: internal/entities/todo-entity.go
package entities

import "time"

type Todo struct {
	ID        uint64    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Completed bool      `json:"completed" db:"completed"`
	UserID    uint64    `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// TodoChanges is a partial update; nil fields are left untouched.
type TodoChanges struct {
	Title     *string
	Completed *bool
}

func (c TodoChanges) Empty() bool {
	return c.Title == nil && c.Completed == nil
}

// Apply merges the changes into t and reports whether anything was set.
func (t *Todo) Apply(c TodoChanges, now time.Time) bool {
	if c.Empty() {
		return false
	}
	if c.Title != nil {
		t.Title = *c.Title
	}
	if c.Completed != nil {
		t.Completed = *c.Completed
	}
	t.UpdatedAt = now
	return true
}
