// Package handler holds the echo handlers of the storefront API and pages.
package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/payload"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/service"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// respondError maps service errors to a JSON error response. Unexpected
// errors are logged and hidden behind a generic message.
func respondError(c echo.Context, log *zap.Logger, err error, action string) error {
	switch {
	case errors.Is(err, payload.ErrInvalidPayload), errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}

	log.Error("Failed to "+action, zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to " + action})
}

// bindAndValidate decodes the body into req and runs the struct validator.
// Failures come back as *echo.HTTPError for ErrorHandler to write.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request data").SetInternal(err)
	}
	if err := c.Validate(req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// ErrorHandler writes errors returned by handlers and middleware as
// {"error": message}
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = fmt.Sprint(he.Message)
	} else {
		logger.FromContext(c).Error("Unhandled request error", zap.Error(err))
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(code)
	} else {
		werr = c.JSON(code, echo.Map{"error": message})
	}
	if werr != nil {
		logger.FromContext(c).Error("Failed to write error response", zap.Error(werr))
	}
}

// paramID reads the :id path parameter
func paramID(c echo.Context) (uint, error) {
	id, err := cast.ToUintE(c.Param("id"))
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: id must be a positive number", service.ErrInvalidInput)
	}
	return id, nil
}
