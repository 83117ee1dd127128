package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"lightwatch/models"
	"lightwatch/utils"

	"github.com/labstack/echo/v4"
)

var errorLogger *slog.Logger

// SetErrorLogger sets the logger for error handling.
func SetErrorLogger(logger *slog.Logger) {
	errorLogger = logger.With("component", "error_handler")
}

// toAppError maps domain sentinels to HTTP-facing AppErrors. Anything
// unrecognized becomes a 500 with the original error kept for the log.
func toAppError(err error) *utils.AppError {
	switch {
	case errors.Is(err, models.ErrChannelNotFound):
		return utils.NewNotFoundError("Channel not found")
	case errors.Is(err, models.ErrChannelExists):
		return utils.NewConflictError("Channel already exists")
	case errors.Is(err, models.ErrDuplicateKey):
		return utils.NewConflictError("API key already in use")
	case errors.Is(err, models.ErrInvalidTimezone):
		return utils.NewBadRequestError("Invalid timezone")
	case errors.Is(err, models.ErrInvalidKey):
		return utils.NewBadRequestError("Invalid api key")
	case errors.Is(err, models.ErrUnknownKey):
		return utils.NewForbiddenError("Invalid key")
	default:
		return utils.NewInternalServerError("An unexpected internal error occurred.", err)
	}
}

// CustomHTTPErrorHandler is the central error handler for the Echo application.
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		c.JSON(echoErr.Code, utils.ErrorResponse(fmt.Sprintf("%v", echoErr.Message)))
		return
	}

	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		appErr = toAppError(err)
	}

	if internalErr := appErr.Unwrap(); internalErr != nil && errorLogger != nil {
		errorLogger.Error("Error handled",
			"status_code", appErr.Code,
			"error_message", appErr.Message,
			slog.Any("internal_error", internalErr))
	}

	c.JSON(appErr.Code, utils.ErrorResponse(appErr.Message))
}
