package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LawyerProfile carries the marketplace-facing data of a lawyer principal.
// Offer listings flatten these fields into the response.
type LawyerProfile struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Contact        string  `json:"contact,omitempty"`
	ProfilePicture string  `json:"profile_picture,omitempty"`
	BasePrice      float64 `json:"base_price,omitempty"`

	// Consultations are routed to lawyers by case type
	CaseTypeID *string   `gorm:"type:uuid;index" json:"case_type_id,omitempty"`
	CaseType   *CaseType `gorm:"foreignKey:CaseTypeID" json:"case_type,omitempty"`

	Expertise []ExpertiseEntry `gorm:"foreignKey:LawyerProfileID" json:"expertise,omitempty"`
}

// ExpertiseEntry is one field-of-law plus years of experience
type ExpertiseEntry struct {
	ID              string `gorm:"type:uuid;primarykey" json:"id"`
	LawyerProfileID string `gorm:"type:uuid;not null;index" json:"-"`
	Field           string `gorm:"not null" json:"field"`
	Years           int    `gorm:"not null" json:"years"`
}

// BeforeCreate hook to generate UUID
func (p *LawyerProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// BeforeCreate hook to generate UUID
func (e *ExpertiseEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// ExpertiseSummary renders expertise as "Family law: 5 years, Tax law: 3 years"
func (p *LawyerProfile) ExpertiseSummary() string {
	parts := make([]string, 0, len(p.Expertise))
	for _, e := range p.Expertise {
		parts = append(parts, fmt.Sprintf("%s: %d years", e.Field, e.Years))
	}
	return strings.Join(parts, ", ")
}

// TableName specifies the table name for LawyerProfile model
func (LawyerProfile) TableName() string {
	return "lawyer_profiles"
}

// TableName specifies the table name for ExpertiseEntry model
func (ExpertiseEntry) TableName() string {
	return "expertise_entries"
}
