package services

import (
	"testing"
	"time"

	"law_market_app_go/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.LawyerProfile{},
		&models.ExpertiseEntry{},
		&models.CaseType{},
		&models.Case{},
		&models.Consultation{},
		&models.StatusChange{},
		&models.Offer{},
		&models.Appointment{},
		&models.Chat{},
		&models.ChatMessage{},
		&models.Presence{},
	)
	assert.NoError(t, err)

	return db
}

// negotiationFixture seeds a client, a lawyer with profile, a case type, a
// case and one pending consultation.
type negotiationFixture struct {
	Client       *models.User
	Lawyer       *models.User
	CaseType     *models.CaseType
	Case         *models.Case
	Consultation *models.Consultation
}

func seedNegotiation(t *testing.T, db *gorm.DB) *negotiationFixture {
	// Suffix keeps seeded rows unique when a test seeds more than once
	suffix := uuid.New().String()[:8]

	caseType := &models.CaseType{Name: "Family law " + suffix}
	assert.NoError(t, db.Create(caseType).Error)

	client := &models.User{
		Name:     "Test Client",
		Email:    "client-" + suffix + "@test.com",
		Password: "hashed",
		Role:     models.RoleUser,
		IsActive: true,
	}
	assert.NoError(t, db.Create(client).Error)

	lawyer := &models.User{
		Name:     "Test Lawyer",
		Email:    "lawyer-" + suffix + "@test.com",
		Password: "hashed",
		Phone:    "555-0100",
		Role:     models.RoleLawyer,
		IsActive: true,
	}
	assert.NoError(t, db.Create(lawyer).Error)

	profile := &models.LawyerProfile{
		UserID:     lawyer.ID,
		Contact:    "lawyer@test.com",
		BasePrice:  300,
		CaseTypeID: &caseType.ID,
		Expertise: []models.ExpertiseEntry{
			{Field: "Family law", Years: 5},
		},
	}
	assert.NoError(t, db.Create(profile).Error)
	lawyer.LawyerProfile = profile

	caseRecord := &models.Case{
		UserID:      client.ID,
		Title:       "Custody dispute",
		Description: "Custody arrangements after separation",
		CaseTypeID:  &caseType.ID,
	}
	assert.NoError(t, db.Create(caseRecord).Error)

	consultation, err := CreateConsultation(db, ConsultationIntake{
		UserID:      client.ID,
		CaseID:      caseRecord.ID,
		CaseTypeID:  caseType.ID,
		Description: "I need advice on a custody dispute",
	})
	assert.NoError(t, err)

	return &negotiationFixture{
		Client:       client,
		Lawyer:       lawyer,
		CaseType:     caseType,
		Case:         caseRecord,
		Consultation: consultation,
	}
}

// seedLawyer creates an additional lawyer with a profile for the same case type
func seedLawyer(t *testing.T, db *gorm.DB, email string, caseTypeID string) *models.User {
	lawyer := &models.User{
		Name:     "Lawyer " + email,
		Email:    email,
		Password: "hashed",
		Role:     models.RoleLawyer,
		IsActive: true,
	}
	assert.NoError(t, db.Create(lawyer).Error)

	profile := &models.LawyerProfile{
		UserID:     lawyer.ID,
		CaseTypeID: &caseTypeID,
	}
	assert.NoError(t, db.Create(profile).Error)
	lawyer.LawyerProfile = profile
	return lawyer
}

// ageConsultation pushes a consultation's creation time into the past so the
// offer window gate trips
func ageConsultation(t *testing.T, db *gorm.DB, consultationID string, age time.Duration) {
	err := db.Model(&models.Consultation{}).
		Where("id = ?", consultationID).
		Update("created_at", time.Now().Add(-age)).Error
	assert.NoError(t, err)
}
