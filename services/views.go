package services

import (
	"time"

	"law_market_app_go/models"
)

// OfferView flattens an offer with its lawyer's contact, expertise and
// pricing fields for client-facing comparison.
type OfferView struct {
	OfferID              string    `json:"offer_id"`
	LawyerID             string    `json:"lawyer_id"`
	LawyerName           string    `json:"lawyer_name"`
	LawyerPhone          string    `json:"lawyer_phone"`
	LawyerExpertise      string    `json:"lawyer_expertise"`
	LawyerContact        string    `json:"lawyer_contact"`
	LawyerProfilePicture string    `json:"lawyer_profile_picture"`
	OfferPrice           float64   `json:"offer_price"`
	OfferDesc            string    `json:"offer_desc"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// NewOfferView builds an OfferView; the offer's Lawyer (and profile) must be
// preloaded.
func NewOfferView(offer *models.Offer) OfferView {
	view := OfferView{
		OfferID:    offer.ID,
		LawyerID:   offer.LawyerID,
		OfferPrice: offer.Price,
		OfferDesc:  offer.Description,
		CreatedAt:  offer.CreatedAt,
		UpdatedAt:  offer.UpdatedAt,
	}
	if offer.Lawyer != nil {
		view.LawyerName = offer.Lawyer.Name
		view.LawyerPhone = offer.Lawyer.Phone
		if p := offer.Lawyer.LawyerProfile; p != nil {
			view.LawyerExpertise = p.ExpertiseSummary()
			view.LawyerContact = p.Contact
			view.LawyerProfilePicture = p.ProfilePicture
		}
	}
	return view
}

// ConsultationView is the client-facing shape of a consultation: offers and
// the selection flattened, rejected offers reduced to their ids.
type ConsultationView struct {
	ID               string           `json:"id"`
	CreatedAt        time.Time        `json:"created_at"`
	User             *models.User     `json:"user,omitempty"`
	Case             *models.Case     `json:"case,omitempty"`
	CaseType         *models.CaseType `json:"case_type,omitempty"`
	Description      string           `json:"description"`
	AttachedFiles    []string         `json:"attached_files"`
	Status           string           `json:"status"`
	OfferCount       int              `json:"offer_count"`
	LawyerOffers     []OfferView      `json:"lawyer_offers"`
	SelectedOffer    *OfferView       `json:"selected_offer,omitempty"`
	RejectedOfferIDs []string         `json:"rejected_offer_ids"`
	AppointmentID    *string          `json:"appointment_id,omitempty"`
}

// NewConsultationView builds a ConsultationView from a consultation with its
// offers (and their lawyers) preloaded.
func NewConsultationView(c *models.Consultation) ConsultationView {
	view := ConsultationView{
		ID:               c.ID,
		CreatedAt:        c.CreatedAt,
		User:             c.User,
		Case:             c.Case,
		CaseType:         c.CaseType,
		Description:      c.Description,
		AttachedFiles:    c.AttachedFiles,
		Status:           c.Status,
		OfferCount:       c.OfferCount,
		LawyerOffers:     []OfferView{},
		RejectedOfferIDs: []string{},
		AppointmentID:    c.AppointmentID,
	}

	for i := range c.Offers {
		offer := &c.Offers[i]
		if offer.IsActive() {
			view.LawyerOffers = append(view.LawyerOffers, NewOfferView(offer))
		} else {
			view.RejectedOfferIDs = append(view.RejectedOfferIDs, offer.ID)
		}
		if c.SelectedOfferID != nil && *c.SelectedOfferID == offer.ID {
			selected := NewOfferView(offer)
			view.SelectedOffer = &selected
		}
	}
	return view
}
