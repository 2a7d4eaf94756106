package services

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"law_market_app_go/models"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

// ConsultationIntake carries the fields of a new consultation request
type ConsultationIntake struct {
	UserID        string
	CaseID        string
	CaseTypeID    string
	Description   string
	AttachedFiles []string
}

// SanitizeText strips any markup from client- or lawyer-authored text
func SanitizeText(s string) string {
	return strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(s))
}

// validateDescription enforces the shared 10..1000 character bound
func validateDescription(desc string) error {
	n := utf8.RuneCountInString(desc)
	if n < models.DescriptionMinLength || n > models.DescriptionMaxLength {
		return fmt.Errorf("%w: description must be between %d and %d characters",
			ErrValidation, models.DescriptionMinLength, models.DescriptionMaxLength)
	}
	return nil
}

// CreateConsultation validates the intake, resolves the referenced client and
// case, and persists a new Pending consultation.
func CreateConsultation(db *gorm.DB, in ConsultationIntake) (*models.Consultation, error) {
	if in.UserID == "" || in.CaseID == "" || in.CaseTypeID == "" || in.Description == "" {
		return nil, fmt.Errorf("%w: userId, caseId, caseTypeId and description are required", ErrValidation)
	}
	if len(in.AttachedFiles) > models.MaxAttachedFiles {
		return nil, fmt.Errorf("%w: at most %d attached files are allowed", ErrValidation, models.MaxAttachedFiles)
	}

	description := SanitizeText(in.Description)
	if err := validateDescription(description); err != nil {
		return nil, err
	}

	var user models.User
	if err := db.First(&user, "id = ?", in.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: user not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	var caseRecord models.Case
	if err := db.First(&caseRecord, "id = ?", in.CaseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: case not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up case: %w", err)
	}

	consultation := models.Consultation{
		UserID:        in.UserID,
		CaseID:        in.CaseID,
		CaseTypeID:    in.CaseTypeID,
		Description:   description,
		AttachedFiles: in.AttachedFiles,
		Status:        models.ConsultationStatusPending,
	}
	consultation.StatusHistory = append(consultation.StatusHistory, models.StatusChange{
		Status: models.ConsultationStatusPending,
	})

	if err := db.Create(&consultation).Error; err != nil {
		return nil, fmt.Errorf("failed to create consultation: %w", err)
	}

	consultation.User = &user
	consultation.Case = &caseRecord
	return &consultation, nil
}

// GetConsultation loads a consultation with its client, case, case type and
// offer details populated.
func GetConsultation(db *gorm.DB, id string) (*models.Consultation, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: consultation id is required", ErrValidation)
	}

	var consultation models.Consultation
	err := db.Preload("User").Preload("Case").Preload("CaseType").
		Preload("Offers.Lawyer.LawyerProfile.Expertise").
		Preload("StatusHistory").
		First(&consultation, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: consultation not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load consultation: %w", err)
	}
	return &consultation, nil
}

// ListConsultationsForClient returns the client's consultations with offer and
// selection details flattened for comparison.
func ListConsultationsForClient(db *gorm.DB, userID string) ([]ConsultationView, error) {
	var consultations []models.Consultation
	err := db.Preload("User").Preload("Case").Preload("CaseType").
		Preload("Offers.Lawyer.LawyerProfile.Expertise").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&consultations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}

	views := make([]ConsultationView, 0, len(consultations))
	for i := range consultations {
		views = append(views, NewConsultationView(&consultations[i]))
	}
	return views, nil
}

// ListOpenConsultationsForLawyer returns consultations matching the lawyer's
// case type that are still inside the offer window and that the lawyer has not
// already offered on.
func ListOpenConsultationsForLawyer(db *gorm.DB, lawyer *models.User) ([]models.Consultation, error) {
	if lawyer.LawyerProfile == nil || lawyer.LawyerProfile.CaseTypeID == nil {
		return []models.Consultation{}, nil
	}

	var consultations []models.Consultation
	err := db.Preload("User").Preload("Case").Preload("CaseType").
		Where("case_type_id = ?", *lawyer.LawyerProfile.CaseTypeID).
		Find(&consultations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}

	// Consultations the lawyer already offered on are excluded regardless of
	// the offer's state
	var offered []string
	if err := db.Model(&models.Offer{}).
		Where("lawyer_id = ?", lawyer.ID).
		Distinct().Pluck("consultation_id", &offered).Error; err != nil {
		return nil, fmt.Errorf("failed to list existing offers: %w", err)
	}
	offeredSet := make(map[string]struct{}, len(offered))
	for _, id := range offered {
		offeredSet[id] = struct{}{}
	}

	open := make([]models.Consultation, 0, len(consultations))
	for _, c := range consultations {
		if _, ok := offeredSet[c.ID]; ok {
			continue
		}
		if !WithinOfferWindow(c.CreatedAt) {
			continue
		}
		open = append(open, c)
	}
	return open, nil
}

// ListConsultationHistory returns the client's consultations newest first,
// fully populated.
func ListConsultationHistory(db *gorm.DB, userID string) ([]models.Consultation, error) {
	var consultations []models.Consultation
	err := db.Preload("Case").Preload("CaseType").
		Preload("Offers.Lawyer.LawyerProfile.Expertise").
		Preload("StatusHistory").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&consultations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load consultation history: %w", err)
	}
	return consultations, nil
}

// PriceComparisonEntry is one offer in a cross-consultation price comparison
type PriceComparisonEntry struct {
	ConsultationID string    `json:"consultation_id"`
	Offer          OfferView `json:"offer"`
}

// ComparePrices returns all active offers across a case's consultations,
// sorted ascending by price.
func ComparePrices(db *gorm.DB, caseID string) ([]PriceComparisonEntry, error) {
	caseID = strings.TrimSpace(caseID)
	if _, err := uuid.Parse(caseID); err != nil {
		return nil, fmt.Errorf("%w: invalid caseId format", ErrValidation)
	}

	var consultations []models.Consultation
	err := db.Preload("Offers.Lawyer.LawyerProfile.Expertise").
		Where("case_id = ?", caseID).
		Find(&consultations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load consultations: %w", err)
	}
	if len(consultations) == 0 {
		return nil, fmt.Errorf("%w: no consultations found for the provided caseId", ErrNotFound)
	}

	entries := []PriceComparisonEntry{}
	for i := range consultations {
		for j := range consultations[i].Offers {
			offer := &consultations[i].Offers[j]
			if !offer.IsActive() {
				continue
			}
			entries = append(entries, PriceComparisonEntry{
				ConsultationID: consultations[i].ID,
				Offer:          NewOfferView(offer),
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Offer.OfferPrice < entries[j].Offer.OfferPrice
	})
	return entries, nil
}

// ResetConsultation clears the selection and returns the consultation to
// Pending. Rejected offers, the appointment linkage and the offer counter are
// intentionally preserved.
func ResetConsultation(db *gorm.DB, id string) (*models.Consultation, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: consultation id is required", ErrValidation)
	}

	var consultation models.Consultation
	if err := db.First(&consultation, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: consultation not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load consultation: %w", err)
	}

	if err := mapStateError(consultation.ClearSelection()); err != nil {
		return nil, err
	}

	// Explicit column update so clearing the nullable selection fields sticks
	err := db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"selected_offer_id":  nil,
			"selected_lawyer_id": nil,
			"status":             consultation.Status,
		}
		if err := tx.Model(&consultation).Updates(updates).Error; err != nil {
			return err
		}
		return persistNewStatusChanges(tx, &consultation)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reset consultation: %w", err)
	}
	return &consultation, nil
}
