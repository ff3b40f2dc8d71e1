package server

import (
	stderrors "errors"
	"net/http"

	"deckhand/internal/errors"
	"deckhand/internal/logger"

	"github.com/labstack/echo/v4"
)

// ErrorHandler writes every error as the structured JSON error body
func ErrorHandler(err error, c echo.Context) {
	status, body := errors.ToResponse(err)

	var he *echo.HTTPError
	if stderrors.As(err, &he) {
		status = he.Code
		switch msg := he.Message.(type) {
		case errors.HTTPErrorResponse:
			body = msg
		case string:
			body = errors.HTTPErrorResponse{Error: errors.ErrorInfo{Code: codeForStatus(status), Message: msg}}
		default:
			body = errors.HTTPErrorResponse{Error: errors.ErrorInfo{Code: codeForStatus(status), Message: http.StatusText(status)}}
		}
	}

	entry := logger.GetLogger(c).WithFields(logger.Fields{
		"status":     status,
		"error_code": string(body.Error.Code),
	})
	if status >= http.StatusInternalServerError {
		entry.WithError(err).Error("Request error")
	} else {
		entry.Debug("Request rejected")
	}

	if c.Response().Committed {
		return
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}

func codeForStatus(status int) errors.ErrorCode {
	switch {
	case status == http.StatusNotFound || status == http.StatusMethodNotAllowed:
		return errors.ErrNotFound
	case status == http.StatusUnauthorized:
		return errors.ErrUnauthorized
	case status >= http.StatusInternalServerError:
		return errors.ErrInternal
	default:
		return errors.ErrInvalidInput
	}
}
