package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Consultation status
const (
	ConsultationStatusPending    = "Pending"
	ConsultationStatusInProgress = "In Progress"
	ConsultationStatusResolved   = "Resolved"
	ConsultationStatusClosed     = "Closed"
)

const (
	// DescriptionMinLength is the minimum length for consultation and offer descriptions
	DescriptionMinLength = 10
	// DescriptionMaxLength is the maximum length for consultation and offer descriptions
	DescriptionMaxLength = 1000
	// MaxAttachedFiles caps the number of files on a single consultation
	MaxAttachedFiles = 10
)

// Consultation is the aggregate root of the offer negotiation. Offers reference
// it by id; selection and rejection are driven through the transition methods
// below rather than ad hoc field writes.
type Consultation struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CaseID string `gorm:"type:uuid;not null;index" json:"case_id"`
	Case   *Case  `gorm:"foreignKey:CaseID" json:"case,omitempty"`

	CaseTypeID string    `gorm:"type:uuid;not null;index" json:"case_type_id"`
	CaseType   *CaseType `gorm:"foreignKey:CaseTypeID" json:"case_type,omitempty"`

	Description   string   `gorm:"type:text;not null" json:"description"`
	AttachedFiles []string `gorm:"serializer:json" json:"attached_files"`
	Price         float64  `json:"price,omitempty"`

	Status        string         `gorm:"not null;default:Pending;index" json:"status"`
	StatusHistory []StatusChange `gorm:"foreignKey:ConsultationID" json:"status_history,omitempty"`

	// Negotiation bookkeeping. OfferCount is incremented atomically at
	// submission time; SelectedOfferID must refer to an offer that was (at
	// some point) recorded against this consultation.
	OfferCount       int     `gorm:"not null;default:0" json:"offer_count"`
	SelectedOfferID  *string `gorm:"type:uuid" json:"selected_offer_id,omitempty"`
	SelectedLawyerID *string `gorm:"type:uuid" json:"selected_lawyer_id,omitempty"`
	AppointmentID    *string `gorm:"type:uuid" json:"appointment_id,omitempty"`

	Offers []Offer `gorm:"foreignKey:ConsultationID" json:"offers,omitempty"`
}

// StatusChange is one append-only entry in a consultation's status history
type StatusChange struct {
	ID             string    `gorm:"type:uuid;primarykey" json:"id"`
	ConsultationID string    `gorm:"type:uuid;not null;index" json:"-"`
	Status         string    `gorm:"not null" json:"status"`
	ChangedAt      time.Time `json:"changed_at"`
}

// BeforeCreate hook to generate UUID
func (c *Consultation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// BeforeCreate hook to generate UUID
func (sc *StatusChange) BeforeCreate(tx *gorm.DB) error {
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Consultation model
func (Consultation) TableName() string {
	return "consultations"
}

// TableName specifies the table name for StatusChange model
func (StatusChange) TableName() string {
	return "consultation_status_changes"
}

// IsValidConsultationStatus checks if the status is valid
func IsValidConsultationStatus(status string) bool {
	switch status {
	case ConsultationStatusPending, ConsultationStatusInProgress,
		ConsultationStatusResolved, ConsultationStatusClosed:
		return true
	}
	return false
}

// SetStatus changes the status and appends to the status history. Rejects
// unknown status values; passing the current status is a no-op.
func (c *Consultation) SetStatus(status string) error {
	if !IsValidConsultationStatus(status) {
		return ErrInvalidStatus
	}
	if c.Status == status {
		return nil
	}
	c.Status = status
	c.StatusHistory = append(c.StatusHistory, StatusChange{
		ConsultationID: c.ID,
		Status:         status,
		ChangedAt:      time.Now().UTC(),
	})
	return nil
}

// HasSelection reports whether an offer has been selected
func (c *Consultation) HasSelection() bool {
	return c.SelectedOfferID != nil && *c.SelectedOfferID != ""
}

// IsClosed reports whether the negotiation has been closed
func (c *Consultation) IsClosed() bool {
	return c.Status == ConsultationStatusClosed
}

// Select transitions the consultation to the offer-selected state. The offer
// must be an active offer of this consultation; a consultation with a
// different offer already selected conflicts, as does a closed one.
// Re-selecting the same offer is a no-op.
func (c *Consultation) Select(offer *Offer) error {
	if c.IsClosed() {
		return ErrNegotiationClosed
	}
	if offer.ConsultationID != c.ID || !offer.IsActive() {
		return ErrOfferNotActive
	}
	if c.HasSelection() {
		if *c.SelectedOfferID == offer.ID {
			return nil
		}
		return ErrAlreadySelected
	}
	c.SelectedOfferID = &offer.ID
	c.SelectedLawyerID = &offer.LawyerID
	return c.SetStatus(ConsultationStatusInProgress)
}

// CanReject checks whether the given offer may be moved to the rejected list.
// The selected offer cannot be rejected; selection and rejection are mutually
// exclusive.
func (c *Consultation) CanReject(offer *Offer) error {
	if offer.ConsultationID != c.ID || !offer.IsActive() {
		return ErrOfferNotActive
	}
	if c.HasSelection() && *c.SelectedOfferID == offer.ID {
		return ErrOfferSelected
	}
	return nil
}

// ClearSelection reverts the consultation to an open Pending state. Rejected
// offers, the appointment linkage and the offer counter are left untouched;
// callers that need a full wipe must do so explicitly.
func (c *Consultation) ClearSelection() error {
	c.SelectedOfferID = nil
	c.SelectedLawyerID = nil
	return c.SetStatus(ConsultationStatusPending)
}
