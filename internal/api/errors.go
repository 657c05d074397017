package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/thebooksapp/thebooks-server/internal/errors"
	"github.com/thebooksapp/thebooks-server/internal/store"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses; the envelope transformer turns it
// into the wire shape.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status       int
	DomainStatus int               `json:"status"`
	Errors       map[string]string `json:"errors"`
	Message      string            `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
// In production the raw message of unexpected failures is withheld.
func RegisterErrorHandler(production bool, logger *slog.Logger) {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return fromDomainError(domainErr, production, logger)
			}

			// A bare store miss that escaped the service layer.
			if errors.Is(err, store.ErrNotFound) {
				return &APIError{
					status:       http.StatusNotFound,
					DomainStatus: domainerrors.DomainFailure,
					Errors:       map[string]string{"not_found": err.Error()},
					Message:      err.Error(),
				}
			}
		}

		if status >= http.StatusInternalServerError {
			if logger != nil {
				logger.Error("unexpected API failure", "status", status, "error", message)
			}
			if production {
				message = "internal server error"
			}
			return &APIError{
				status:       status,
				DomainStatus: domainerrors.DomainInternal,
				Errors:       map[string]string{"internal": message},
				Message:      message,
			}
		}

		return &APIError{
			status:       status,
			DomainStatus: domainerrors.DomainFailure,
			Errors:       map[string]string{"request": message},
			Message:      message,
		}
	}
}

// fromDomainError converts a domain error into an APIError, preserving the
// field error map when the service produced one.
func fromDomainError(derr *domainerrors.Error, production bool, logger *slog.Logger) *APIError {
	message := derr.Message
	if derr.Code == domainerrors.CodeInternal {
		if logger != nil {
			logger.Error("internal domain failure", "error", derr.Error())
		}
		if production {
			message = "internal server error"
		}
	}

	fields := derr.Fields
	if len(fields) == 0 {
		fields = map[string]string{strings.ToLower(string(derr.Code)): message}
	}

	return &APIError{
		status:       derr.HTTPStatus(),
		DomainStatus: derr.DomainCode(),
		Errors:       fields,
		Message:      message,
	}
}
