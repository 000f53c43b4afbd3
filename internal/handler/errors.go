package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/ahmadqo/e-sertifikat/internal/response"
	"github.com/ahmadqo/e-sertifikat/internal/service"
)

// writeError memetakan error service ke status HTTP. Error yang tidak dikenal
// dicatat lengkap di log dan dibalas pesan generik.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *service.ValidationError
		rerr *service.RenderError
		derr *service.DeliveryError
	)

	switch {
	case errors.As(err, &verr):
		response.BadRequest(w, "Validasi gagal", map[string]string{verr.Field: verr.Message})
	case errors.Is(err, service.ErrInvalidID):
		response.BadRequest(w, err.Error(), nil)

	case errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrAttendanceNotFound),
		errors.Is(err, service.ErrAdminNotFound):
		response.NotFound(w, err.Error())

	case errors.Is(err, service.ErrEventNotActive),
		errors.Is(err, service.ErrDeadlinePassed),
		errors.Is(err, service.ErrAccessDenied),
		errors.Is(err, service.ErrAccountDisabled):
		response.Forbidden(w, err.Error())

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		response.Unauthorized(w, err.Error())

	case errors.Is(err, service.ErrDuplicateSubmission),
		errors.Is(err, service.ErrNomorSuratExists),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrNotGenerated),
		errors.Is(err, service.ErrDeliveryInProgress):
		response.Conflict(w, err.Error())

	case errors.As(err, &rerr), errors.As(err, &derr):
		response.BadGateway(w, err.Error(), nil)

	default:
		log.Printf("internal error: %s %s: %v", r.Method, r.URL.Path, err)
		response.InternalError(w, "Terjadi kesalahan server")
	}
}
