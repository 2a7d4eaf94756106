package models

import "errors"

// Invariant violations raised by the consultation state machine. The service
// layer maps these onto the API error taxonomy.
var (
	ErrInvalidStatus     = errors.New("invalid consultation status")
	ErrNegotiationClosed = errors.New("consultation is closed")
	ErrOfferNotActive    = errors.New("offer is not active on this consultation")
	ErrAlreadySelected   = errors.New("another offer is already selected")
	ErrOfferSelected     = errors.New("the selected offer cannot be rejected")
)
