package services

import (
	"fmt"
	"time"

	"law_market_app_go/models"

	"gorm.io/gorm"
)

// AppointmentBooking carries the fields of a booking request
type AppointmentBooking struct {
	LawyerID            string
	ClientID            string
	Date                string // YYYY-MM-DD
	Time                string // HH:MM
	Price               float64
	AdministrationPrice float64
}

// BookAppointment creates an appointment for a lawyer's slot. Slot uniqueness
// is keyed on (lawyer, date, time); a taken slot is a conflict. The unique
// index backs up the pre-check so double booking cannot slip through
// concurrent requests.
func BookAppointment(db *gorm.DB, booking AppointmentBooking) (*models.Appointment, error) {
	if booking.LawyerID == "" || booking.ClientID == "" || booking.Date == "" || booking.Time == "" {
		return nil, fmt.Errorf("%w: lawyer, client, date and time are required", ErrValidation)
	}
	if _, err := time.Parse("2006-01-02", booking.Date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	if _, err := time.Parse("15:04", booking.Time); err != nil {
		return nil, fmt.Errorf("%w: time must be HH:MM", ErrValidation)
	}

	var lawyer models.User
	if err := db.First(&lawyer, "id = ? AND role = ?", booking.LawyerID, models.RoleLawyer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: lawyer not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up lawyer: %w", err)
	}

	var count int64
	err := db.Model(&models.Appointment{}).
		Where("lawyer_id = ? AND date = ? AND time = ? AND status <> ?",
			booking.LawyerID, booking.Date, booking.Time, models.AppointmentStatusCancelled).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check slot: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: this slot is already booked", ErrConflict)
	}

	appointment := models.Appointment{
		LawyerID:            booking.LawyerID,
		ClientID:            booking.ClientID,
		Date:                booking.Date,
		Time:                booking.Time,
		Price:               booking.Price,
		AdministrationPrice: booking.AdministrationPrice,
		Status:              models.AppointmentStatusScheduled,
	}
	if err := db.Create(&appointment).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: this slot is already booked", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	return &appointment, nil
}

// BookedSlot is one taken time on a lawyer's day
type BookedSlot struct {
	AppointmentID string `json:"appointment_id"`
	Time          string `json:"time"`
}

// ListBookedSlots returns the taken times for a lawyer on a given date
func ListBookedSlots(db *gorm.DB, lawyerID, date string) ([]BookedSlot, error) {
	if lawyerID == "" || date == "" {
		return nil, fmt.Errorf("%w: lawyerId and date are required", ErrValidation)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}

	var appointments []models.Appointment
	err := db.Where("lawyer_id = ? AND date = ? AND status <> ?",
		lawyerID, date, models.AppointmentStatusCancelled).
		Order("time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list booked slots: %w", err)
	}

	slots := make([]BookedSlot, 0, len(appointments))
	for _, a := range appointments {
		slots = append(slots, BookedSlot{AppointmentID: a.ID, Time: a.Time})
	}
	return slots, nil
}

// CancelAppointment marks an appointment cancelled, freeing its slot. Only a
// participant may cancel.
func CancelAppointment(db *gorm.DB, id string, requesterID string) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := db.First(&appointment, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: appointment not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load appointment: %w", err)
	}

	if appointment.ClientID != requesterID && appointment.LawyerID != requesterID {
		return nil, fmt.Errorf("%w: only a participant may cancel this appointment", ErrAuthorization)
	}

	if appointment.Status == models.AppointmentStatusCancelled {
		return &appointment, nil
	}

	appointment.Status = models.AppointmentStatusCancelled
	if err := db.Save(&appointment).Error; err != nil {
		return nil, fmt.Errorf("failed to cancel appointment: %w", err)
	}
	return &appointment, nil
}
