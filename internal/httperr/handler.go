package httperr

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"postboard/internal/logging"
)

type response struct {
	Message   string `json:"message"`
	Code      string `json:"code"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
}

// EchoHandler is installed as e.HTTPErrorHandler. Errors outside the
// taxonomy are never leaked to the client.
func EchoHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	code := "INTERNAL"
	message := "internal server error"

	var appErr *Error
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		status = appErr.Status
		code = appErr.Code
		message = appErr.Message
	case errors.As(err, &echoErr):
		status = echoErr.Code
		code = http.StatusText(status)
		if m, ok := echoErr.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(status)
		}
	default:
		l := logging.FromContext(c.Request().Context())
		l.Error("unhandled_error", "path", c.Request().URL.Path, "error", err)
	}

	body := response{
		Message:   message,
		Code:      code,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Request().URL.Path,
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}
