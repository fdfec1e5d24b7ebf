package devserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"teo-client-go/internal/models"
)

func ok(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, models.APIResponse{
		Success: false,
		Message: message,
		Error:   code,
	})
}

func internalError(c echo.Context, op string, err error) error {
	zap.L().Error("Request failed",
		zap.String("op", op),
		zap.String("path", c.Path()),
		zap.Error(err))
	return fail(c, http.StatusInternalServerError, models.CodeInternal, "Something went wrong. Please try again.")
}

// errorHandler renders router-level errors (unknown route, bad method) in the envelope.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := http.StatusText(status)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(status)
		}
	}

	code := models.CodeInternal
	switch status {
	case http.StatusNotFound:
		code = models.CodeNotFound
	case http.StatusUnauthorized:
		code = models.CodeUnauthorized
	case http.StatusBadRequest, http.StatusMethodNotAllowed:
		code = models.CodeBadRequest
	}

	if werr := fail(c, status, code, message); werr != nil {
		zap.L().Warn("Failed to write error response", zap.Error(werr))
	}
}
