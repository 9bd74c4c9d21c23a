package adaptor

import (
	"errors"
	"net/http"

	"slot-booking/internal/data/repository"
	"slot-booking/internal/usecase"
	"slot-booking/pkg/utils"

	"go.uber.org/zap"
)

// handleServiceError maps usecase errors onto the response envelope
func handleServiceError(log *zap.Logger, w http.ResponseWriter, err error, operation string) {
	errMsg := err.Error()

	switch {
	case errors.Is(err, usecase.ErrInvalidRequest):
		log.Warn("Invalid input for "+operation, zap.Error(err))
		utils.ResponseBadRequest(w, errMsg, nil)

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, errMsg)

	case errors.Is(err, usecase.ErrConflict):
		log.Info(operation+" failed - slot taken", zap.Error(err))
		utils.ResponseConflict(w, errMsg)

	case errors.Is(err, usecase.ErrAlreadyTerminal),
		errors.Is(err, usecase.ErrResourceInactive),
		errors.Is(err, usecase.ErrPaymentReferenceReused):
		log.Warn(operation+" failed - invalid state", zap.Error(err))
		utils.ResponseConflict(w, errMsg)

	case errors.Is(err, repository.ErrDuplicate):
		// constraint raced past the service checks; raw driver text stays in the log
		log.Warn(operation+" failed - constraint violation", zap.Error(err))
		utils.ResponseConflict(w, "Conflicting write, refresh and try again")

	case errors.Is(err, usecase.ErrExpired):
		log.Info(operation+" failed - hold expired", zap.Error(err))
		utils.ResponseGone(w, errMsg)

	case errors.Is(err, usecase.ErrLockTimeout):
		log.Warn(operation+" failed - resource busy", zap.Error(err))
		w.Header().Set("Retry-After", "1")
		utils.ResponseUnavailable(w, "Resource is busy, try again")

	default:
		log.Error("Internal error during "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
