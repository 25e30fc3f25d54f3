package http

import (
	"errors"
	"net/http"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// statusOfCode maps business outcomes to HTTP statuses: conflicts with the
// current state are 409, a constraint the request cannot meet is 422, and
// conditions that may clear on their own are 503.
var statusOfCode = map[errs.Code]int{
	errs.CodeAlreadyAssigned:          http.StatusConflict,
	errs.CodeAssignmentInProgress:     http.StatusConflict,
	errs.CodeTransactionStateConflict: http.StatusConflict,
	errs.CodeCourierIneligible:        http.StatusUnprocessableEntity,
	errs.CodeInsufficientCashBalance:  http.StatusUnprocessableEntity,
	errs.CodeNoCourierAvailable:       http.StatusServiceUnavailable,
	errs.CodeConfigurationError:       http.StatusServiceUnavailable,
}

// StatusOf returns the HTTP status for err.
func StatusOf(err error) int {
	if code, ok := errs.CodeOf(err); ok {
		if status, known := statusOfCode[code]; known {
			return status
		}
	}

	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrVersionIsInvalid):
		return http.StatusConflict
	case errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange),
		errors.Is(err, kernel.ErrUUIDIsNotConstructed),
		errors.Is(err, kernel.ErrGeoPointIsNotConstructed):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// StatusOfResult is the status for a typed use case result.
func StatusOfResult(success bool, code string) int {
	if success {
		return http.StatusOK
	}
	if status, ok := statusOfCode[errs.Code(code)]; ok {
		return status
	}
	return http.StatusUnprocessableEntity
}

func (s *Server) fail(ctx echo.Context, err error) error {
	status := StatusOf(err)
	body := Error{Code: status, Message: errs.ReasonOf(err)}
	if code, ok := errs.CodeOf(err); ok {
		body.ErrorCode = string(code)
	}
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(ctx.Request().Context(), "Request failed",
			"method", ctx.Request().Method,
			"path", ctx.Path(),
			"error", err)
		body.Message = http.StatusText(status)
	}
	return ctx.JSON(status, body)
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: message})
}
