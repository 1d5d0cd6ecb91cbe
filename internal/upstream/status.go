package upstream

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"storefront/pkg/kit"
)

// WriteError maps an upstream failure onto the response.
func WriteError(w http.ResponseWriter, r *http.Request, log *zap.Logger, what string, err error) {
	var rej *RejectedError

	switch {
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", nil)
		return
	case errors.As(err, &rej):
		kit.WriteError(w, r, http.StatusUnprocessableEntity, "rejected by upstream", map[string]any{"message": rej.Message})
		return
	}

	if log != nil {
		log.Warn(what+" failed", zap.Error(err))
	}

	switch {
	case errors.Is(err, ErrUnavailable):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "upstream unavailable", nil)
	case errors.Is(err, ErrBadStatus), errors.Is(err, ErrBadPayload):
		kit.WriteError(w, r, http.StatusBadGateway, "upstream error", nil)
	default:
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}
