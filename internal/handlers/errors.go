package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/short-links/internal/shortener"
	"go.uber.org/zap"
)

// httpError maps a core error to its huma status error.
func (h *LinkHandler) httpError(op string, code string, err error) error {
	switch {
	case errors.Is(err, shortener.ErrNotFound):
		return huma.Error404NotFound("short link not found")
	case errors.Is(err, shortener.ErrAliasTaken):
		return huma.Error409Conflict("alias already in use")
	case errors.Is(err, shortener.ErrInvalidAlias),
		errors.Is(err, shortener.ErrInvalidURL),
		errors.Is(err, shortener.ErrInvalidExpiry):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, shortener.ErrForbidden):
		return huma.Error403Forbidden("not the owner of this link")
	case errors.Is(err, shortener.ErrTimeout):
		h.logger.Warn("downstream timeout", zap.String("op", op), zap.String("code", code), zap.Error(err))

		return huma.Error504GatewayTimeout("storage timed out")
	case errors.Is(err, shortener.ErrConnection):
		h.logger.Error("downstream unavailable", zap.String("op", op), zap.String("code", code), zap.Error(err))

		return huma.Error503ServiceUnavailable("storage unavailable")
	case errors.Is(err, shortener.ErrCodeSpaceExhausted):
		return huma.Error500InternalServerError("could not allocate a short code")
	default:
		h.logger.Error("unexpected error", zap.String("op", op), zap.String("code", code), zap.Error(err))

		return huma.Error500InternalServerError("internal server error")
	}
}
