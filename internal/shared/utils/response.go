package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hrshiti/inplay-sub000/internal/shared/errors"
)

// APIResponse represents a standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorInfo represents error information in API response
type ErrorInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	// Context carries structured facts about the failure, e.g. the required access type.
	Context map[string]any `json:"context,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

func CreatedResponse(c *gin.Context, data interface{}, message ...string) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Message: "Resource created successfully",
	}
	if len(message) > 0 {
		response.Message = message[0]
	}
	c.JSON(http.StatusCreated, response)
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error:   &ErrorInfo{Type: "error", Message: message},
	})
}

// ErrorResponseWithInfo renders a fully populated ErrorInfo.
func ErrorResponseWithInfo(c *gin.Context, statusCode int, info ErrorInfo) {
	c.JSON(statusCode, APIResponse{Success: false, Error: &info})
}

// ErrorResponseWithError renders an AppError with its own status code.
// Any other error becomes an opaque 500.
func ErrorResponseWithError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	errorInfo := ErrorInfo{
		Type:    string(errors.ErrorTypeInternal),
		Message: "Internal server error occurred",
	}

	if appErr := errors.GetAppError(err); appErr != nil {
		statusCode = appErr.Code
		errorInfo = ErrorInfo{
			Type:    string(appErr.Type),
			Message: appErr.Message,
			Details: appErr.Details,
		}
	}

	c.JSON(statusCode, APIResponse{Success: false, Error: &errorInfo})
}
