package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Appointment status
const (
	AppointmentStatusScheduled = "SCHEDULED"
	AppointmentStatusCompleted = "COMPLETED"
	AppointmentStatusCancelled = "CANCELLED"
)

// Appointment is the scheduling record a selected offer is bridged into.
// Slot uniqueness is keyed on (lawyer, date, time): one booking per slot.
type Appointment struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	LawyerID string `gorm:"type:uuid;not null;index;uniqueIndex:idx_appointment_slot,where:status <> 'CANCELLED'" json:"lawyer_id"`
	Lawyer   *User  `gorm:"foreignKey:LawyerID" json:"lawyer,omitempty"`

	ClientID string `gorm:"type:uuid;not null;index" json:"client_id"`
	Client   *User  `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	Date string `gorm:"not null;uniqueIndex:idx_appointment_slot" json:"date"` // YYYY-MM-DD
	Time string `gorm:"not null;uniqueIndex:idx_appointment_slot" json:"time"` // HH:MM

	Price               float64 `json:"price,omitempty"`
	AdministrationPrice float64 `json:"administration_price,omitempty"`

	Status string `gorm:"not null;default:SCHEDULED;index" json:"status"`
}

// BeforeCreate hook to generate UUID
func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Appointment model
func (Appointment) TableName() string {
	return "appointments"
}

// IsValidAppointmentStatus checks if the status is valid
func IsValidAppointmentStatus(status string) bool {
	switch status {
	case AppointmentStatusScheduled, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}
