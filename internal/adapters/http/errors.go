package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried in APIError.Code.
const (
	codeBadRequest  = "bad_request"
	codeNotFound    = "not_found"
	codeInternal    = "internal_error"
	codeUnavailable = "unavailable"
	codeRateLimited = "rate_limited"
)

// APIError is the JSON body of every non-2xx response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func newError(c *fiber.Ctx, status int, code, message string) error {
	rid, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: rid,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, codeBadRequest, msg)
}

func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, codeNotFound, msg)
}

// errInternal logs err and answers with a generic message.
func errInternal(c *fiber.Ctx, err error) error {
	LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
	return newError(c, fiber.StatusInternalServerError, codeInternal, "internal server error")
}

func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, codeUnavailable, msg)
}

// codeForStatus maps a status raised outside the handlers (unknown routes,
// timeouts, oversized bodies) to an error code.
func codeForStatus(status int) string {
	switch {
	case status == fiber.StatusNotFound:
		return codeNotFound
	case status == fiber.StatusTooManyRequests:
		return codeRateLimited
	case status == fiber.StatusServiceUnavailable:
		return codeUnavailable
	case status >= fiber.StatusInternalServerError:
		return codeInternal
	default:
		return codeBadRequest
	}
}

// ErrorHandler renders errors that escape the handlers as APIError bodies.
// Use it as fiber.Config.ErrorHandler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if !errors.As(err, &fe) {
		return errInternal(c, err)
	}
	msg := fe.Message
	if fe.Code >= fiber.StatusInternalServerError {
		msg = "internal server error"
	}
	return newError(c, fe.Code, codeForStatus(fe.Code), msg)
}
