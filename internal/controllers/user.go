package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"todo-api/internal/dto"
	"todo-api/internal/services"
	"todo-api/pkg/api"
	apperrors "todo-api/pkg/errors"
	"todo-api/pkg/utils"
)

const (
	usersSheet   = "Users"
	xlsxMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var userExportHeaders = []interface{}{"ID", "Name", "Email", "Role", "Permissions", "Created At", "Updated At"}

type UserController struct {
	userService services.UserServiceInterface
	logger      *zap.Logger
}

func NewUserController(userService services.UserServiceInterface, logger *zap.Logger) *UserController {
	return &UserController{userService: userService, logger: logger}
}

func (ctrl *UserController) GetUsers(c echo.Context) error {
	filter := utils.ParseFilterFromQuery(c.QueryParams())

	users, total, err := ctrl.userService.GetUsers(c.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessList(c, "users fetched", users, total, filter.Page, filter.Limit)
}

// ExportUsers writes every user matching q as an xlsx workbook.
func (ctrl *UserController) ExportUsers(c echo.Context) error {
	filter := utils.ParseFilterFromQuery(c.QueryParams())
	filter.WithPagination = false

	users, _, err := ctrl.userService.GetUsers(c.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return ctrl.respondWithXLSX(c, users)
}

func (ctrl *UserController) FindUser(c echo.Context) error {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	user, err := ctrl.userService.FindUser(c.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "user fetched", user)
}

func (ctrl *UserController) CreateUser(c echo.Context) error {
	var payload dto.CreateUserDTO
	if err := c.Bind(&payload); err != nil {
		ctrl.logger.Debug("CreateUser: bind failed", zap.Error(err))
		return utils.ErrorResponse(c, apperrors.NewBadRequestError("Invalid user payload"), ctrl.logger)
	}
	if err := c.Validate(&payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	user, err := ctrl.userService.CreateUser(c.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusCreated, "User created successfully", user)
}

func (ctrl *UserController) UpdateUser(c echo.Context) error {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	var payload dto.UpdateUserDTO
	if err := c.Bind(&payload); err != nil {
		ctrl.logger.Debug("UpdateUser: bind failed", zap.Uint64("id", id), zap.Error(err))
		return utils.ErrorResponse(c, apperrors.NewBadRequestError("Invalid user payload"), ctrl.logger)
	}
	if err := c.Validate(&payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	user, err := ctrl.userService.UpdateUser(c.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusOK, "user updated successfully", user)
}

func (ctrl *UserController) DeleteUser(c echo.Context) error {
	id, err := utils.ParseIDParam(c, "id")
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	if err := ctrl.userService.DeleteUser(c.Request().Context(), id); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, nil, "user deletion successful", http.StatusOK)
}

func (ctrl *UserController) CreateRole(c echo.Context) error {
	var payload dto.CreateRoleDTO
	if err := c.Bind(&payload); err != nil {
		return utils.ErrorResponse(c, apperrors.NewBadRequestError("Invalid role payload"), ctrl.logger)
	}
	if err := c.Validate(&payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	role, err := ctrl.userService.CreateRole(c.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusCreated, "role assigned", role)
}

func (ctrl *UserController) CreatePermission(c echo.Context) error {
	var payload dto.CreatePermissionDTO
	if err := c.Bind(&payload); err != nil {
		return utils.ErrorResponse(c, apperrors.NewBadRequestError("Invalid permission payload"), ctrl.logger)
	}
	if err := c.Validate(&payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	permission, err := ctrl.userService.CreatePermission(c.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return api.SuccessOne(c, http.StatusCreated, "permission granted", permission)
}

func userRow(u dto.UserDTO) []interface{} {
	updated := ""
	if u.UpdatedAt != nil {
		updated = *u.UpdatedAt
	}
	return []interface{}{u.ID, u.Name, u.Email, u.Role, strings.Join(u.Permissions, ", "), u.CreatedAt, updated}
}

func (ctrl *UserController) respondWithXLSX(c echo.Context, users []dto.UserDTO) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			ctrl.logger.Warn("respondWithXLSX: close workbook", zap.Error(err))
		}
	}()

	if err := f.SetSheetName("Sheet1", usersSheet); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	if err := f.SetSheetRow(usersSheet, "A1", &userExportHeaders); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(usersSheet, "A1", "G1", style)
	}

	for i, u := range users {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return utils.ErrorResponse(c, err, ctrl.logger)
		}
		row := userRow(u)
		if err := f.SetSheetRow(usersSheet, cell, &row); err != nil {
			return utils.ErrorResponse(c, err, ctrl.logger)
		}
	}
	_ = f.SetColWidth(usersSheet, "B", "C", 30)
	_ = f.SetColWidth(usersSheet, "E", "E", 50)
	_ = f.SetColWidth(usersSheet, "F", "G", 25)

	buf, err := f.WriteToBuffer()
	if err != nil {
		ctrl.logger.Error("UserController: failed to render users workbook", zap.Error(err))
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	fileName := fmt.Sprintf("users_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+fileName)
	return c.Blob(http.StatusOK, xlsxMimeType, buf.Bytes())
}
