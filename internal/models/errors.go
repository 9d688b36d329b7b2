package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Message codes returned in the "code" field of error responses.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInternal            = "INTERNAL_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeUsernameExisted     = "USERNAME_EXISTED"
	CodeUserMailExisted     = "USER_MAIL_EXISTED"
	CodeUserNotExisted      = "USER_NOT_EXISTED"
	CodePostNotExisted      = "POST_NOT_EXISTED"
	CodeCommentNotFound     = "COMMENT_NOT_FOUND"
	CodeNotOwnPost          = "NOT_OWN_POST"
	CodeNotOwnComment       = "NOT_OWN_COMMENT"
	CodeNotOwnCommentOrPost = "NOT_OWN_COMMENT_OR_POST"
	CodeAlreadyUpvoted      = "ALREADY_UPVOTED"
	CodeAlreadyDownvoted    = "ALREADY_DOWNVOTED"
	CodeNotUpvoteYet        = "NOT_UPVOTE_YET"
	CodeNotDownvoteYet      = "NOT_DOWNVOTE_YET"
	CodeRateLimited         = "RATE_LIMITED"
	CodeUnavailable         = "SERVICE_UNAVAILABLE"
)

var codeStatus = map[string]int{
	CodeValidation:          fiber.StatusBadRequest,
	CodeUnauthorized:        fiber.StatusUnauthorized,
	CodeInvalidCredentials:  fiber.StatusUnauthorized,
	CodeNotFound:            fiber.StatusNotFound,
	CodeUserNotExisted:      fiber.StatusNotFound,
	CodePostNotExisted:      fiber.StatusNotFound,
	CodeCommentNotFound:     fiber.StatusNotFound,
	CodeNotOwnPost:          fiber.StatusForbidden,
	CodeNotOwnComment:       fiber.StatusForbidden,
	CodeNotOwnCommentOrPost: fiber.StatusForbidden,
	CodeUsernameExisted:     fiber.StatusConflict,
	CodeUserMailExisted:     fiber.StatusConflict,
	CodeAlreadyUpvoted:      fiber.StatusBadRequest,
	CodeAlreadyDownvoted:    fiber.StatusBadRequest,
	CodeNotUpvoteYet:        fiber.StatusBadRequest,
	CodeNotDownvoteYet:      fiber.StatusBadRequest,
	CodeRateLimited:         fiber.StatusTooManyRequests,
	CodeUnavailable:         fiber.StatusServiceUnavailable,
	CodeInternal:            fiber.StatusInternalServerError,
}

// StatusForCode returns the HTTP status for an error code, 500 when unknown.
func StatusForCode(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
	// Fields carries per-field validation failures.
	Fields map[string]string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status is the HTTP status the error maps to.
func (e *AppError) Status() int {
	return StatusForCode(e.Code)
}

// NewAppError builds an error with an explicit code.
func NewAppError(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

var notFoundCodes = map[string]string{
	"User":    CodeUserNotExisted,
	"Post":    CodePostNotExisted,
	"Comment": CodeCommentNotFound,
}

// NewNotFoundError reports a missing resource. Users, posts and comments get
// their own message codes.
func NewNotFoundError(resource string, id interface{}) *AppError {
	code, ok := notFoundCodes[resource]
	if !ok {
		code = CodeNotFound
	}
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

// NewForbiddenError is returned when the principal does not own the target.
func NewForbiddenError(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// NewConflictError is returned when the request clashes with existing state.
func NewConflictError(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewFieldValidationError is a validation error with per-field details.
func NewFieldValidationError(fields map[string]string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: "Invalid request body",
		Fields:  fields,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// AsAppError unwraps err into an *AppError, wrapping unknown errors as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err)
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		switch {
		case len(appErr.Fields) > 0:
			response.Details = appErr.Fields
		case appErr.Err != nil && status < fiber.StatusInternalServerError:
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
