package platformerrors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HTTPErrorResponse represents the standard error response format.
type HTTPErrorResponse struct {
	Error *HTTPErrorDetail `json:"error"`
}

// HTTPErrorDetail contains error details for HTTP responses.
type HTTPErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// WriteError writes a generic error as an HTTP response. PlatformErrors
// map through the taxonomy; anything else is treated as internal.
func WriteError(c *gin.Context, err error, log zerolog.Logger) {
	if err == nil {
		c.JSON(http.StatusInternalServerError, HTTPErrorResponse{
			Error: &HTTPErrorDetail{Message: "unknown error", Type: "internal_error"},
		})
		return
	}

	if platformErr := GetPlatformError(err); platformErr != nil {
		log.Error().Err(platformErr).Msg("request failed")
		c.JSON(ErrorTypeToHTTPStatus(platformErr.Type), HTTPErrorResponse{
			Error: &HTTPErrorDetail{
				Message: platformErr.Message,
				Type:    errorTypeToString(platformErr.Type),
			},
		})
		return
	}

	log.Error().Err(err).Msg("request failed")
	c.JSON(http.StatusInternalServerError, HTTPErrorResponse{
		Error: &HTTPErrorDetail{Message: err.Error(), Type: "internal_error"},
	})
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, HTTPErrorResponse{
		Error: &HTTPErrorDetail{Message: message, Type: "not_found_error"},
	})
}

// WriteValidationError writes a 400 Bad Request response.
func WriteValidationError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, HTTPErrorResponse{
		Error: &HTTPErrorDetail{Message: message, Type: "validation_error"},
	})
}

// WriteConflict writes a 409 Conflict response.
func WriteConflict(c *gin.Context, message string) {
	c.JSON(http.StatusConflict, HTTPErrorResponse{
		Error: &HTTPErrorDetail{Message: message, Type: "conflict_error"},
	})
}

// WriteExternalError writes a 502 Bad Gateway response.
func WriteExternalError(c *gin.Context, message string) {
	c.JSON(http.StatusBadGateway, HTTPErrorResponse{
		Error: &HTTPErrorDetail{Message: message, Type: "external_error"},
	})
}

// errorTypeToString converts an ErrorType to a snake_case string for API responses.
func errorTypeToString(t ErrorType) string {
	switch t {
	case ErrorTypeNotFound:
		return "not_found_error"
	case ErrorTypeValidation:
		return "validation_error"
	case ErrorTypeConflict:
		return "conflict_error"
	case ErrorTypeUnauthorized:
		return "unauthorized_error"
	case ErrorTypeForbidden:
		return "forbidden_error"
	case ErrorTypeRateLimited:
		return "rate_limited_error"
	case ErrorTypeTimeout:
		return "timeout_error"
	case ErrorTypeExternal:
		return "external_error"
	case ErrorTypeInternal:
		fallthrough
	default:
		return "internal_error"
	}
}
