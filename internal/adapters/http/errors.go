package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/pkg/logging"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, not_found, upstream_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusUnauthorized, "unauthorized", msg)
}

// errUpstream returns a 502 error.
func errUpstream(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadGateway, "upstream_error", msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, "service_unavailable", msg)
}

// respondError maps a service error onto the API error envelope. Messages
// carried by domain.DetailError are shown verbatim; anything else is logged
// and replaced with a generic message.
func respondError(c *fiber.Ctx, err error) error {
	msg := err.Error()
	var detail *domain.DetailError
	if errors.As(err, &detail) {
		msg = detail.Detail
	}

	var upstream *domain.UpstreamError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return newError(c, fiber.StatusRequestTimeout, "timeout", "request timed out")
	case errors.Is(err, domain.ErrInvalidInput):
		return errBadRequest(c, msg)
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, msg)
	case errors.Is(err, domain.ErrUnauthorized):
		return errUnauthorized(c, msg)
	case errors.As(err, &upstream):
		return errUpstream(c, fmt.Sprintf("%s service returned status %d", upstream.Service, upstream.StatusCode))
	case errors.Is(err, domain.ErrServiceUnavailable), errors.Is(err, domain.ErrCacheUnavailable):
		return errUnavailable(c, msg)
	}

	logging.FromContext(c.UserContext()).Error("unhandled error", "path", c.Path(), "error", err)
	return errInternal(c, "internal server error")
}
