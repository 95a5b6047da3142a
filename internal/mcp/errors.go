package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/ganot/convlog/internal/domain/activity"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error(), RecoveryHint: "Check required ids and timestamp format"}
	case errors.Is(err, activity.ErrDeserialization):
		return &APIError{Code: "DESERIALIZATION_ERROR", Message: err.Error(), RecoveryHint: "A stored payload is corrupt; delete the conversation"}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &APIError{Code: "CANCELLED", Message: err.Error(), RecoveryHint: "Retry the call; a cancelled deletion is rolled back"}
	case errors.Is(err, activity.ErrStorage):
		return &APIError{Code: "STORAGE_ERROR", Message: err.Error(), RecoveryHint: "Retry later"}
	default:
		return nil
	}
}

func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
