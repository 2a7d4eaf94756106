package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Offer state
const (
	OfferStateActive   = "active"
	OfferStateRejected = "rejected"
)

// MaxOffersPerLawyer caps how many offers one lawyer may record against a
// single consultation.
const MaxOffersPerLawyer = 3

// Offer is a lawyer's priced response to a consultation. Rejection flips the
// state to rejected but never deletes the row; the offer stays fetchable by id.
// The (consultation, lawyer, slot) unique index is what holds the per-lawyer
// cap under concurrent submissions.
type Offer struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	LawyerID string `gorm:"type:uuid;not null;index;uniqueIndex:idx_offer_slot" json:"lawyer_id"`
	Lawyer   *User  `gorm:"foreignKey:LawyerID" json:"lawyer,omitempty"`

	ConsultationID string        `gorm:"type:uuid;not null;index;uniqueIndex:idx_offer_slot" json:"consultation_id"`
	Consultation   *Consultation `gorm:"foreignKey:ConsultationID" json:"consultation,omitempty"`

	Slot int `gorm:"not null;uniqueIndex:idx_offer_slot" json:"-"`

	Price       float64 `gorm:"not null" json:"price"`
	Description string  `gorm:"type:text;not null" json:"description"`
	State       string  `gorm:"not null;default:active;index" json:"state"`
}

// BeforeCreate hook to generate UUID
func (o *Offer) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return nil
}

// IsActive reports whether the offer is still in the consultation's active list
func (o *Offer) IsActive() bool {
	return o.State == OfferStateActive
}

// TableName specifies the table name for Offer model
func (Offer) TableName() string {
	return "offers"
}
