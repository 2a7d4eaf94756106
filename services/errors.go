package services

import (
	"errors"
	"fmt"
	"net/http"

	"law_market_app_go/models"
)

// API error taxonomy. Handlers translate these into the uniform response
// envelope; anything unrecognized renders as a 500.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrExpired       = errors.New("consultation time has expired")
	ErrLimitExceeded = errors.New("maximum number of offers reached")
	ErrAuthorization = errors.New("not authorized")
	ErrConflict      = errors.New("conflicting operation")
)

// HTTPStatus maps a taxonomy error to its response status code
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrExpired), errors.Is(err, ErrLimitExceeded):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// mapStateError lifts a state-machine invariant violation into the taxonomy
func mapStateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrOfferNotActive):
		return fmt.Errorf("%w: %s", ErrNotFound, err)
	case errors.Is(err, models.ErrInvalidStatus):
		return fmt.Errorf("%w: %s", ErrValidation, err)
	case errors.Is(err, models.ErrAlreadySelected),
		errors.Is(err, models.ErrOfferSelected),
		errors.Is(err, models.ErrNegotiationClosed):
		return fmt.Errorf("%w: %s", ErrConflict, err)
	default:
		return err
	}
}
