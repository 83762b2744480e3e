package travel

import (
	"TravelExpense/internal/access"
	"TravelExpense/pkg/response"
	"net/http"
)

var (
	ErrUnauthenticated = access.ErrUnauthenticated
	ErrForbidden       = access.ErrForbidden

	ErrTripNotFound    = response.NewError(http.StatusNotFound, "trip not found")
	ErrExpenseNotFound = response.NewError(http.StatusNotFound, "expense not found")

	ErrValidation = response.NewError(http.StatusBadRequest, "validation failed")

	ErrConsistencyFailure = response.NewError(http.StatusInternalServerError, "expense change could not be committed, retry the operation")
	ErrInternalServer     = response.NewError(http.StatusInternalServerError, "internal server error")

	ErrReceiptUpload       = response.NewError(http.StatusBadGateway, "failed to store receipt")
	ErrExtractionFailed    = response.NewError(http.StatusBadGateway, "could not read receipt")
	ErrExtractorNotEnabled = response.NewError(http.StatusServiceUnavailable, "receipt extraction is not configured")
)

// ErrInvalidField is a validation failure pinned to one request field.
func ErrInvalidField(field, rule, message string) error {
	return response.NewValidationError(ErrValidation, response.FieldError{
		Field:   field,
		Rule:    rule,
		Message: message,
	})
}
