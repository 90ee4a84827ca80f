package httpx

import (
	"errors"
	"net/http"

	apperrors "github.com/oakmont/portal-api/internal/errors"
	"github.com/oakmont/portal-api/internal/service"
)

// StatusForError maps a service-layer error to an HTTP status code using the
// application error taxonomy. Unknown errors map to 500.
func StatusForError(err error) int {
	if errors.Is(err, service.ErrSessionExpired) {
		return http.StatusUnauthorized
	}
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeConflict:
		return http.StatusConflict
	case apperrors.ErrCodeSilentAuthRequired:
		return http.StatusUnauthorized
	case apperrors.ErrCodeProvider, apperrors.ErrCodeDirectory:
		return http.StatusBadGateway
	case apperrors.ErrCodeInit:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WriteServiceError renders a service-layer error as a JSON error response.
// The wire error code is the app error code when present, otherwise a generic
// internal_error.
func WriteServiceError(w http.ResponseWriter, err error) {
	errCode := string(apperrors.GetCode(err))
	if errCode == "" {
		errCode = "internal_error"
	}
	if errors.Is(err, service.ErrSessionExpired) {
		errCode = "session_expired"
	}
	WriteError(w, ErrorParams{
		Code:    StatusForError(err),
		ErrCode: errCode,
		Err:     err,
	})
}
