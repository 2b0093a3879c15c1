// Package http exposes the brand intelligence engine over HTTP.
package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"brandintel_server/pkg/apperr"
	"brandintel_server/pkg/logger"
)

var ErrUnauthorized = errors.New("unauthorized")

// GetUserID safely extracts user_id from fiber context. Authentication
// happens upstream; the gateway injects the id into locals or the
// X-User-ID header.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	if userIDVal := c.Locals("user_id"); userIDVal != nil {
		if userID, ok := userIDVal.(uuid.UUID); ok {
			return userID, nil
		}
	}
	if header := c.Get("X-User-ID"); header != "" {
		if userID, err := uuid.Parse(header); err == nil {
			return userID, nil
		}
	}
	return uuid.Nil, ErrUnauthorized
}

// =============================================================================
// Standardized Response Helpers
// =============================================================================

// APIResponse represents a standard API response
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// APIError represents a standard API error
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse sends a standardized JSON success response.
func SuccessResponse(c *fiber.Ctx, data interface{}) error {
	return c.JSON(APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// ErrorResponse sends a standardized JSON error response.
func ErrorResponse(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(APIResponse{
		Success:   false,
		Error:     &APIError{Code: code, Message: message},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// ServiceError maps service-layer errors onto HTTP responses.
func ServiceError(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrUnauthorized) {
		return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	}

	appErr := apperr.AsAppError(err)
	if appErr.Status >= fiber.StatusInternalServerError {
		logger.WithError(err).Error("request failed: %s %s", c.Method(), c.Path())
	}
	return c.Status(appErr.HTTPStatus()).JSON(APIResponse{
		Success:   false,
		Error:     &APIError{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
