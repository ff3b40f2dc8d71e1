package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HTTPErrorResponse represents the structure of error responses sent to clients
type HTTPErrorResponse struct {
	Success bool                   `json:"success"`
	Error   ErrorInfo              `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// ErrorInfo contains the core error information
type ErrorInfo struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Output  string    `json:"output,omitempty"`
}

// ToResponse builds the client-facing body and status for any error
func ToResponse(err error) (int, HTTPErrorResponse) {
	if de, ok := As(err); ok {
		return de.GetHTTPStatus(), HTTPErrorResponse{
			Error: ErrorInfo{
				Code:    de.Code,
				Message: de.Message,
				Details: de.Details,
				Output:  de.Output,
			},
			Context: de.Context,
		}
	}

	return http.StatusInternalServerError, HTTPErrorResponse{
		Error: ErrorInfo{
			Code:    ErrInternal,
			Message: "Internal server error",
			Details: err.Error(),
		},
	}
}

// ToHTTPError converts any error to an Echo HTTP error
func ToHTTPError(err error) error {
	status, body := ToResponse(err)
	return echo.NewHTTPError(status, body)
}

// BadRequest creates a 400 Bad Request error
func BadRequest(message, details string) error {
	return echo.NewHTTPError(http.StatusBadRequest, HTTPErrorResponse{
		Error: ErrorInfo{
			Code:    ErrInvalidInput,
			Message: message,
			Details: details,
		},
	})
}

// Unauthorized creates a 401 Unauthorized error
func Unauthorized(message string) error {
	return echo.NewHTTPError(http.StatusUnauthorized, HTTPErrorResponse{
		Error: ErrorInfo{
			Code:    ErrUnauthorized,
			Message: "Authentication required",
			Details: message,
		},
	})
}
