package services

import (
	"errors"
	"fmt"
	"strings"

	"law_market_app_go/models"

	"gorm.io/gorm"
)

// SubmitOffer records a new offer against a consultation. The 60-minute gate
// is checked against the consultation's creation time, and the 3-offer cap is
// enforced through the (consultation, lawyer, slot) unique index so it holds
// under concurrent submissions. Returns the created offer and the consultation
// populated with client, case and offer details.
func SubmitOffer(db *gorm.DB, lawyer *models.User, consultationID string, price float64, description string) (*models.Offer, *models.Consultation, error) {
	if consultationID == "" || description == "" || price <= 0 {
		return nil, nil, fmt.Errorf("%w: consultationId, offerPrice and offerDesc are required", ErrValidation)
	}

	description = SanitizeText(description)
	if err := validateDescription(description); err != nil {
		return nil, nil, err
	}

	var consultation models.Consultation
	if err := db.First(&consultation, "id = ?", consultationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, fmt.Errorf("%w: consultation not found", ErrNotFound)
		}
		return nil, nil, fmt.Errorf("failed to load consultation: %w", err)
	}

	if !WithinOfferWindow(consultation.CreatedAt) {
		return nil, nil, fmt.Errorf("%w: consultation can no longer receive offers", ErrExpired)
	}

	offer := models.Offer{
		LawyerID:       lawyer.ID,
		ConsultationID: consultation.ID,
		Price:          price,
		Description:    description,
		State:          models.OfferStateActive,
	}

	// Count-then-insert races between two submissions from the same lawyer;
	// the slot unique index turns the loser's insert into a constraint error,
	// so retry with a recount until the cap genuinely holds.
	var created bool
	for attempt := 0; attempt < models.MaxOffersPerLawyer && !created; attempt++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.Offer{}).
				Where("consultation_id = ? AND lawyer_id = ?", consultation.ID, lawyer.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if count >= models.MaxOffersPerLawyer {
				return fmt.Errorf("%w: you have already made the maximum number of offers for this consultation", ErrLimitExceeded)
			}

			offer.ID = ""
			offer.Slot = int(count) + 1
			if err := tx.Create(&offer).Error; err != nil {
				return err
			}

			return tx.Model(&models.Consultation{}).
				Where("id = ?", consultation.ID).
				Update("offer_count", gorm.Expr("offer_count + 1")).Error
		})
		if err == nil {
			created = true
			break
		}
		if errors.Is(err, ErrLimitExceeded) {
			return nil, nil, err
		}
		if !isUniqueViolation(err) {
			return nil, nil, fmt.Errorf("failed to create offer: %w", err)
		}
		// Lost the slot race; recount and try the next slot
	}
	if !created {
		return nil, nil, fmt.Errorf("%w: you have already made the maximum number of offers for this consultation", ErrLimitExceeded)
	}

	populated, err := GetConsultation(db, consultation.ID)
	if err != nil {
		// The offer is already committed at this point
		return &offer, nil, fmt.Errorf("offer recorded but failed to reload consultation: %w", err)
	}
	return &offer, populated, nil
}

// isUniqueViolation detects a unique-constraint failure from the sqlite driver
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "constraint failed")
}

// GetOffer loads a single offer by id
func GetOffer(db *gorm.DB, id string) (*models.Offer, error) {
	var offer models.Offer
	if err := db.Preload("Lawyer.LawyerProfile.Expertise").First(&offer, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: offer not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load offer: %w", err)
	}
	return &offer, nil
}

// UpdateOffer edits the price and/or description of an offer. Only the owning
// lawyer may edit, and only while the parent consultation is inside the offer
// window.
func UpdateOffer(db *gorm.DB, lawyer *models.User, offerID string, price *float64, description *string) (*models.Offer, error) {
	offer, err := GetOffer(db, offerID)
	if err != nil {
		return nil, err
	}

	var consultation models.Consultation
	if err := db.First(&consultation, "id = ?", offer.ConsultationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: associated consultation not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load consultation: %w", err)
	}

	if !WithinOfferWindow(consultation.CreatedAt) {
		return nil, fmt.Errorf("%w: consultation time has expired and the offer cannot be updated", ErrExpired)
	}

	if offer.LawyerID != lawyer.ID {
		return nil, fmt.Errorf("%w: only the offer's owner may update it", ErrAuthorization)
	}

	if price != nil {
		if *price <= 0 {
			return nil, fmt.Errorf("%w: offerPrice must be positive", ErrValidation)
		}
		offer.Price = *price
	}
	if description != nil {
		sanitized := SanitizeText(*description)
		if err := validateDescription(sanitized); err != nil {
			return nil, err
		}
		offer.Description = sanitized
	}

	if err := db.Save(offer).Error; err != nil {
		return nil, fmt.Errorf("failed to update offer: %w", err)
	}
	return offer, nil
}

// LawyerOfferEntry is one of a lawyer's own offers with consultation context
type LawyerOfferEntry struct {
	Offer        models.Offer        `json:"offer"`
	Consultation models.Consultation `json:"consultation"`
}

// ListOffersByLawyer returns all offers the lawyer has submitted, populated
// with consultation, client and case-type context, filtered to offers whose
// parent consultation is still inside the offer window.
func ListOffersByLawyer(db *gorm.DB, lawyerID string) ([]LawyerOfferEntry, error) {
	var offers []models.Offer
	err := db.Preload("Consultation.User").Preload("Consultation.Case").Preload("Consultation.CaseType").
		Where("lawyer_id = ?", lawyerID).
		Order("created_at DESC").
		Find(&offers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}

	entries := []LawyerOfferEntry{}
	for _, offer := range offers {
		if offer.Consultation == nil || !WithinOfferWindow(offer.Consultation.CreatedAt) {
			continue
		}
		consultation := *offer.Consultation
		offer.Consultation = nil
		entries = append(entries, LawyerOfferEntry{Offer: offer, Consultation: consultation})
	}
	return entries, nil
}

// SelectionResult is the flattened payload returned after selecting an offer
type SelectionResult struct {
	UserID          string      `json:"user_id"`
	CaseID          string      `json:"case_id"`
	CaseTitle       string      `json:"case_title"`
	CaseDescription string      `json:"case_description"`
	Description     string      `json:"description"`
	AttachedFiles   []string    `json:"attached_files"`
	Price           float64     `json:"price"`
	Status          string      `json:"status"`
	LawyerOffers    []OfferView `json:"lawyer_offers"`
	SelectedOffer   OfferView   `json:"selected_offer"`
}

// SelectOffer records the client's choice. The offer must be in the
// consultation's active list; selecting while a different offer is already
// selected is a conflict.
func SelectOffer(db *gorm.DB, consultationID, offerID string) (*SelectionResult, error) {
	if consultationID == "" || offerID == "" {
		return nil, fmt.Errorf("%w: consultationId and offerId are required", ErrValidation)
	}

	consultation, err := GetConsultation(db, consultationID)
	if err != nil {
		return nil, err
	}

	offer := findOffer(consultation, offerID)
	if offer == nil || !offer.IsActive() {
		return nil, fmt.Errorf("%w: offer not found in this consultation", ErrNotFound)
	}

	if err := mapStateError(consultation.Select(offer)); err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"selected_offer_id":  consultation.SelectedOfferID,
			"selected_lawyer_id": consultation.SelectedLawyerID,
			"status":             consultation.Status,
		}
		// The in-memory check above ran against a snapshot; the write itself
		// must only land while no other offer has been selected in between.
		res := tx.Model(&models.Consultation{}).
			Where("id = ? AND (selected_offer_id IS NULL OR selected_offer_id = ?)", consultation.ID, offer.ID).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: a different offer has already been selected", ErrConflict)
		}
		return persistNewStatusChanges(tx, consultation)
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save selection: %w", err)
	}

	result := SelectionResult{
		UserID:        consultation.UserID,
		CaseID:        consultation.CaseID,
		Description:   consultation.Description,
		AttachedFiles: consultation.AttachedFiles,
		Price:         consultation.Price,
		Status:        consultation.Status,
		LawyerOffers:  []OfferView{},
		SelectedOffer: NewOfferView(offer),
	}
	if consultation.Case != nil {
		result.CaseTitle = consultation.Case.Title
		result.CaseDescription = consultation.Case.Description
	}
	for i := range consultation.Offers {
		if consultation.Offers[i].IsActive() {
			result.LawyerOffers = append(result.LawyerOffers, NewOfferView(&consultation.Offers[i]))
		}
	}
	return &result, nil
}

// RejectOffer moves an offer from the consultation's active list to the
// rejected list. The offer record itself is preserved. Rejecting the selected
// offer is a conflict.
func RejectOffer(db *gorm.DB, consultationID, offerID string) error {
	if consultationID == "" || offerID == "" {
		return fmt.Errorf("%w: consultationId and offerId are required", ErrValidation)
	}

	consultation, err := GetConsultation(db, consultationID)
	if err != nil {
		return err
	}

	offer := findOffer(consultation, offerID)
	if offer == nil || !offer.IsActive() {
		return fmt.Errorf("%w: offer not found in this consultation", ErrNotFound)
	}

	if err := mapStateError(consultation.CanReject(offer)); err != nil {
		return err
	}

	if err := db.Model(&models.Offer{}).Where("id = ?", offer.ID).
		Update("state", models.OfferStateRejected).Error; err != nil {
		return fmt.Errorf("failed to reject offer: %w", err)
	}
	return nil
}

// LinkAppointment stores an externally created appointment on the
// consultation and marks the offer as selected. Linking while a different
// offer is selected is a conflict.
func LinkAppointment(db *gorm.DB, consultationID, offerID, appointmentID string) (*models.Consultation, error) {
	if consultationID == "" || offerID == "" || appointmentID == "" {
		return nil, fmt.Errorf("%w: consultationId, offerId and appointmentId are required", ErrValidation)
	}

	consultation, err := GetConsultation(db, consultationID)
	if err != nil {
		return nil, err
	}

	offer := findOffer(consultation, offerID)
	if offer == nil || !offer.IsActive() {
		return nil, fmt.Errorf("%w: offer not found", ErrNotFound)
	}

	if err := mapStateError(consultation.Select(offer)); err != nil {
		return nil, err
	}
	consultation.AppointmentID = &appointmentID

	err = db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"selected_offer_id":  consultation.SelectedOfferID,
			"selected_lawyer_id": consultation.SelectedLawyerID,
			"appointment_id":     consultation.AppointmentID,
			"status":             consultation.Status,
		}
		res := tx.Model(&models.Consultation{}).
			Where("id = ? AND (selected_offer_id IS NULL OR selected_offer_id = ?)", consultation.ID, offer.ID).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: a different offer has already been selected", ErrConflict)
		}
		return persistNewStatusChanges(tx, consultation)
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to link appointment: %w", err)
	}
	return consultation, nil
}

// findOffer locates an offer by id within a consultation's loaded offer set
func findOffer(c *models.Consultation, offerID string) *models.Offer {
	for i := range c.Offers {
		if c.Offers[i].ID == offerID {
			return &c.Offers[i]
		}
	}
	return nil
}

// persistNewStatusChanges inserts status-history entries appended in memory
// but not yet written
func persistNewStatusChanges(tx *gorm.DB, c *models.Consultation) error {
	for i := range c.StatusHistory {
		if c.StatusHistory[i].ID == "" {
			entry := c.StatusHistory[i]
			entry.ConsultationID = c.ID
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
