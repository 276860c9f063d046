package utils

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "todo-api/pkg/errors"
	"todo-api/pkg/types"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type HTTPResponse struct {
	Status  bool        `json:"status"`
	Body    interface{} `json:"body,omitempty"`
	Message string      `json:"message"`
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int) error {
	return ctx.JSON(code, &HTTPResponse{Status: true, Body: body, Message: message})
}

// ErrorResponse is the single place where errors become HTTP responses.
func ErrorResponse(c echo.Context, err error, logger *zap.Logger) error {
	if c.Response().Committed {
		return nil
	}

	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.Code >= http.StatusInternalServerError:
			logger.Error("HTTP Error",
				zap.Int("code", httpErr.Code),
				zap.String("message", httpErr.Message),
				zap.Error(httpErr.Err),
			)
		case httpErr.Err != nil:
			logger.Warn("HTTP Error",
				zap.Int("code", httpErr.Code),
				zap.String("message", httpErr.Message),
				zap.Error(httpErr.Err),
			)
		}
		response := map[string]interface{}{
			"status":  false,
			"message": httpErr.Message,
		}
		if httpErr.Details != nil {
			response["body"] = httpErr.Details
		}
		return c.JSON(httpErr.Code, response)
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  false,
			"message": ValidationMessage(validationErrors),
			"body":    ValidationDetails(validationErrors),
		})
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return c.JSON(echoErr.Code, map[string]interface{}{
			"status":  false,
			"message": fmt.Sprint(echoErr.Message),
		})
	}

	if code, ok := apperrors.StatusFor(err); ok {
		return c.JSON(code, map[string]interface{}{
			"status":  false,
			"message": err.Error(),
		})
	}

	logger.Error("Unexpected Error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"status":  false,
		"message": "Internal server error",
	})
}

// NewHTTPErrorHandler plugs ErrorResponse into echo so router errors share
// the same envelope.
func NewHTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if respErr := ErrorResponse(c, err, logger); respErr != nil {
			logger.Error("failed to write error response", zap.Error(respErr))
		}
	}
}

func ValidationMessage(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, fieldMessage(e))
	}
	return strings.Join(msgs, "; ")
}

func ValidationDetails(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, e := range errs {
		details[jsonField(e)] = fieldMessage(e)
	}
	return details
}

func jsonField(e validator.FieldError) string {
	name := e.Field()
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func fieldMessage(e validator.FieldError) string {
	field := jsonField(e)
	switch e.Tag() {
	case "required":
		if field == "completed" {
			return "completion status is required and should be boolean"
		}
		return field + " is required"
	case "email":
		return field + " should be in valid form"
	case "min":
		return fmt.Sprintf("%s should be minimum %s characters", field, e.Param())
	case "max":
		return fmt.Sprintf("%s should be maximum %s characters", field, e.Param())
	case "password_strength":
		return field + " needs at least one uppercase, one lowercase and one of !@#$% characters"
	case "user_role":
		return field + " must be either 'user' or 'superUser'"
	case "permission_tag":
		return field + " must be one of users.get, users.create, users.update, users.delete"
	default:
		return fmt.Sprintf("%s failed on '%s'", field, e.Tag())
	}
}

// ParseIDParam reads a positive numeric path parameter that fits a BIGINT.
func ParseIDParam(c echo.Context, name string) (uint64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 63)
	if err != nil || id == 0 {
		return 0, apperrors.NewBadRequestError(fmt.Sprintf("invalid %s: %q", name, raw))
	}
	return id, nil
}

// ParseFilterFromQuery reads q, page and size. Out of range values fall back
// to the defaults.
func ParseFilterFromQuery(values url.Values) types.Filter {
	filter := types.Filter{
		Limit:          DefaultLimit,
		Page:           1,
		WithPagination: true,
	}

	filter.Search = strings.TrimSpace(values.Get("q"))

	if sizeStr := values.Get("size"); sizeStr != "" {
		if l, err := strconv.Atoi(sizeStr); err == nil && l > 0 {
			filter.Limit = min(l, MaxLimit)
		}
	}
	if pageStr := values.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 && p-1 <= math.MaxInt/filter.Limit {
			filter.Page = p
		}
	}
	filter.Offset = (filter.Page - 1) * filter.Limit
	return filter
}
