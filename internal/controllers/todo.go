package controllers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"todo-api/internal/dto"
	"todo-api/internal/services"
	"todo-api/pkg/api"
	apperrors "todo-api/pkg/errors"
	"todo-api/pkg/utils"
)

const msgAllFieldsRequired = "all fields are required"

type TodoController struct {
	todoService services.TodoServiceInterface
	logger      *zap.Logger
}

func NewTodoController(todoService services.TodoServiceInterface, logger *zap.Logger) *TodoController {
	return &TodoController{todoService: todoService, logger: logger}
}

// unprocessable turns bind and validation failures into 422 responses.
func (ctrl *TodoController) unprocessable(c echo.Context, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return utils.ErrorResponse(c, apperrors.NewUnprocessableError(
			utils.ValidationMessage(validationErrors),
			utils.ValidationDetails(validationErrors),
		), ctrl.logger)
	}
	return utils.ErrorResponse(c, apperrors.NewUnprocessableError(msgAllFieldsRequired, nil), ctrl.logger)
}

func (ctrl *TodoController) GetTodos(c echo.Context) error {
	var query dto.TodoQueryDTO
	if err := c.Bind(&query); err != nil {
		return utils.ErrorResponse(c, apperrors.NewBadRequestError("invalid query"), ctrl.logger)
	}

	todos, err := ctrl.todoService.GetTodos(c.Request().Context(), query.Q)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessAll(c, "todos fetched", todos)
}

func (ctrl *TodoController) FindTodo(c echo.Context) error {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	todo, err := ctrl.todoService.FindTodo(c.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "todo fetched", todo)
}

func (ctrl *TodoController) CreateTodo(c echo.Context) error {
	var payload dto.CreateTodoDTO
	if err := c.Bind(&payload); err != nil {
		ctrl.logger.Debug("CreateTodo: bind failed", zap.Error(err))
		return ctrl.unprocessable(c, err)
	}
	if err := c.Validate(&payload); err != nil {
		return ctrl.unprocessable(c, err)
	}

	todo, err := ctrl.todoService.CreateTodo(c.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusCreated, "todos created", todo)
}

func (ctrl *TodoController) UpdateTodo(c echo.Context) error {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	var payload dto.UpdateTodoDTO
	if err := c.Bind(&payload); err != nil {
		ctrl.logger.Debug("UpdateTodo: bind failed", zap.Uint64("id", id), zap.Error(err))
		return ctrl.unprocessable(c, err)
	}
	if err := c.Validate(&payload); err != nil {
		return ctrl.unprocessable(c, err)
	}

	todo, err := ctrl.todoService.UpdateTodo(c.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "todo updated successfully", todo)
}

func (ctrl *TodoController) DeleteTodo(c echo.Context) error {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	if err := ctrl.todoService.DeleteTodo(c.Request().Context(), id); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, nil, "todo deletion successful", http.StatusOK)
}
