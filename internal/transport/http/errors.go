package http

import (
	"errors"
	"log/slog"
	"net/http"

	"ghonsi-proof/internal/domain"
	"ghonsi-proof/internal/httpx"
	obsmw "ghonsi-proof/internal/observability/middleware"
	"ghonsi-proof/internal/pipeline"
	"ghonsi-proof/internal/service/impl"
	"ghonsi-proof/internal/validate"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, impl.ErrInvalidRequest), errors.Is(err, validate.ErrInvalid), errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, impl.ErrUnauthorized), errors.Is(err, impl.ErrInvalidToken),
		errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrOTPExpired),
		errors.Is(err, domain.ErrOTPAttempts), errors.Is(err, domain.ErrSignatureReused):
		return http.StatusUnauthorized
	case errors.Is(err, impl.ErrForbidden), errors.Is(err, domain.ErrUserDisabled):
		return http.StatusForbidden
	case errors.Is(err, impl.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, impl.ErrConflict), errors.Is(err, domain.ErrLastWallet):
		return http.StatusConflict
	case errors.Is(err, impl.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	var se *pipeline.StepError
	if errors.As(err, &se) {
		switch se.Step {
		case pipeline.StepUpload, pipeline.StepPin, pipeline.StepMint:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", append(obsmw.LogAttrs(r.Context()), "path", r.URL.Path, "error", err)...)
		msg = "internal error"
	}
	httpx.WriteError(w, status, msg)
}
