package services

import "time"

// OfferWindow is how long after creation a consultation keeps accepting and
// allowing edits to offers.
const OfferWindow = 60 * time.Minute

// WithinOfferWindow reports whether the given creation timestamp is still
// actionable for offers.
func WithinOfferWindow(createdAt time.Time) bool {
	return time.Since(createdAt) <= OfferWindow
}
