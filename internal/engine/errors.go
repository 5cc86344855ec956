package engine

import (
	"errors"
	"fmt"

	"kairos-gateway/internal/frappe"
)

type AppError struct {
	Code    string        `json:"code"`
	Status  int           `json:"-"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

type ErrorResponse struct {
	Error *AppError `json:"error"`
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func NotFoundError(entity, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Status:  404,
		Message: fmt.Sprintf("%s with id %s not found", entity, id),
	}
}

func UnknownEntityError(name string) *AppError {
	return &AppError{
		Code:    "UNKNOWN_ENTITY",
		Status:  404,
		Message: fmt.Sprintf("Unknown entity: %s", name),
	}
}

func ValidationError(details []ErrorDetail) *AppError {
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Status:  422,
		Message: "Validation failed",
		Details: details,
	}
}

func InvalidPayloadError(msg string) *AppError {
	return &AppError{Code: "INVALID_PAYLOAD", Status: 400, Message: msg}
}

func UnauthorizedError(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Status: 401, Message: msg}
}

func ForbiddenError(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Status: 403, Message: msg}
}

// BackendError maps a frappe client error onto the error taxonomy.
// Transport failures become 502/504; backend-reported errors keep the
// backend's status and message verbatim. Other errors pass through.
func BackendError(err error) error {
	if err == nil {
		return nil
	}
	var te *frappe.TransportError
	if errors.As(err, &te) {
		if te.Timeout {
			return &AppError{Code: "BACKEND_TIMEOUT", Status: 504, Message: "The server took too long to respond. Please try again."}
		}
		return &AppError{Code: "BACKEND_UNAVAILABLE", Status: 502, Message: "The server could not be reached. Please try again."}
	}
	var be *frappe.Error
	if errors.As(err, &be) {
		status := be.Status
		if status < 400 || status > 599 {
			status = 502
		}
		code := "BACKEND_ERROR"
		switch {
		case errors.Is(be, frappe.ErrNotFound):
			code = "NOT_FOUND"
			status = 404
		case status == 401:
			code = "UNAUTHORIZED"
		case status == 403:
			code = "FORBIDDEN"
		}
		return &AppError{Code: code, Status: status, Message: be.Message}
	}
	return err
}
