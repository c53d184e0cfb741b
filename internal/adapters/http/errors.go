package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/schoolfinder/internal/core/domain"
)

// APIError is a structured error response. Err is either a message string or,
// for validation failures, the list of field violations.
type APIError struct {
	Err       any    `json:"error"`
	Details   string `json:"details,omitempty"`
	Index     *int   `json:"index,omitempty"` // offending element of a batch
	Code      string `json:"code"`            // bad_request, validation_error, internal_error, etc.
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, body APIError) error {
	body.RequestID, _ = c.Locals("requestid").(string)
	return c.Status(status).JSON(body)
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, APIError{Err: msg, Code: "bad_request"})
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, APIError{Err: msg, Code: "unavailable"})
}

// writeError maps a service error onto the response.
func writeError(c *fiber.Ctx, err error) error {
	var (
		verr *domain.ValidationError
		merr *domain.MalformedRequestError
		perr *domain.PersistenceError
	)
	switch {
	case errors.As(err, &verr):
		return newError(c, fiber.StatusBadRequest, APIError{
			Err:   verr.Violations,
			Index: verr.Index,
			Code:  "validation_error",
		})
	case errors.As(err, &merr):
		return errBadRequest(c, merr.Message)
	case errors.As(err, &perr):
		LoggerFromCtx(c.UserContext()).Error("store failure", "op", perr.Op, "retryable", perr.Retryable, "error", perr.Err)
		return newError(c, fiber.StatusInternalServerError, APIError{
			Err:     "Database error",
			Details: perr.Error(),
			Code:    "internal_error",
		})
	default:
		LoggerFromCtx(c.UserContext()).Error("request failed", "error", err)
		return newError(c, fiber.StatusInternalServerError, APIError{
			Err:     "Internal server error",
			Details: err.Error(),
			Code:    "internal_error",
		})
	}
}

// ErrorHandler renders errors returned by handlers and middleware (404s,
// timeouts, body limit) in the same envelope as handler errors.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var ferr *fiber.Error
	if !errors.As(err, &ferr) {
		return writeError(c, err)
	}

	code := "internal_error"
	switch {
	case ferr.Code == fiber.StatusNotFound:
		code = "not_found"
	case ferr.Code == fiber.StatusRequestTimeout:
		code = "timeout"
	case ferr.Code == fiber.StatusTooManyRequests:
		code = "rate_limited"
	case ferr.Code < 500:
		code = "bad_request"
	}
	return newError(c, ferr.Code, APIError{Err: ferr.Message, Code: code})
}
