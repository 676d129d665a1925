package api

import (
	"errors"
	"net/http"

	"github.com/plume-im/plume/internal/common"
)

// StatusFromError maps a service-layer sentinel error to an HTTP status.
// Unknown errors map to 500; raw error chains never cross the wire.
func StatusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case isAny(err, common.ErrorNotFound):
		return http.StatusNotFound
	case isAny(err, common.ErrorConflict):
		return http.StatusConflict
	case isAny(err, common.ErrorUnauthorized, common.ErrInvalidToken):
		return http.StatusUnauthorized
	case isAny(err, common.ErrorForbidden):
		return http.StatusForbidden
	case isAny(err, common.ErrorPreconditionFailed):
		return http.StatusPreconditionFailed
	case isAny(err, common.ErrorInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorFromStatus reconstructs the sentinel for an HTTP status, so client
// code can keep using errors.Is across the network boundary.
func ErrorFromStatus(status int) error {
	switch status {
	case http.StatusNotFound:
		return common.ErrorNotFound
	case http.StatusConflict:
		return common.ErrorConflict
	case http.StatusUnauthorized:
		return common.ErrorUnauthorized
	case http.StatusForbidden:
		return common.ErrorForbidden
	case http.StatusPreconditionFailed:
		return common.ErrorPreconditionFailed
	case http.StatusBadRequest:
		return common.ErrorInvalidInput
	default:
		return common.ErrorInternal
	}
}

func isAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
