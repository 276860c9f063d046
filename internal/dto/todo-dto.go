package dto

import "time"

type TodoQueryDTO struct {
	Q string `query:"q"`
}

type CreateTodoDTO struct {
	Title     string `json:"title" validate:"required"`
	Completed *bool  `json:"completed" validate:"required"`
}

// UpdateTodoDTO is a partial update; absent fields stay unchanged.
type UpdateTodoDTO struct {
	Title     *string `json:"title" validate:"omitnil,min=1"`
	Completed *bool   `json:"completed"`
}

type TodoDTO struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	UserID    uint64    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
