package v1

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tavolahq/tavola/internal/domain"
)

// domainError maps a domain sentinel to the matching HTTP problem. msg is
// the detail shown to the client; the wrapped error is kept for the log.
func domainError(err error, msg string) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return huma.Error400BadRequest(msg, err)
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(msg)
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict(msg, err)
	case errors.Is(err, domain.ErrPrecondition):
		return huma.Error412PreconditionFailed(msg, err)
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}
