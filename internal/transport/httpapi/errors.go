package httpapi

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// toHTTPError переводит ошибку сервиса в ответ huma (application/problem+json).
func toHTTPError(logger *log.Entry, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrItemNotFound), domain.IsNotFound(err):
		return huma.Error404NotFound(err.Error())
	case domain.IsAlreadyExists(err):
		return huma.Error409Conflict(err.Error())
	case domain.IsValidationError(err):
		return huma.Error422UnprocessableEntity(err.Error())
	default:
		logger.WithError(err).Error("request failed")
		return huma.Error500InternalServerError("internal error")
	}
}
