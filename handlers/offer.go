package handlers

import (
	"fmt"
	"net/http"

	"law_market_app_go/db"
	"law_market_app_go/middleware"
	"law_market_app_go/services"

	"github.com/labstack/echo/v4"
)

// OfferRequest is the payload for submitting an offer
type OfferRequest struct {
	ConsultationID string  `json:"consultationId"`
	OfferPrice     float64 `json:"offerPrice"`
	OfferDesc      string  `json:"offerDesc"`
}

// OfferRef identifies an offer within a consultation
type OfferRef struct {
	ConsultationID string `json:"consultationId"`
	OfferID        string `json:"offerId"`
}

// SendOfferHandler records a lawyer's offer and returns the consultation fully
// populated. The client is notified by email.
func SendOfferHandler(c echo.Context) error {
	lawyer := middleware.GetCurrentUser(c)
	if lawyer == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	var req OfferRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: invalid request body", services.ErrValidation))
	}

	offer, consultation, err := services.SubmitOffer(db.DB, lawyer, req.ConsultationID, req.OfferPrice, req.OfferDesc)
	if err != nil {
		return respondError(c, err)
	}

	if consultation != nil && consultation.User != nil {
		email := services.BuildOfferReceivedEmail(
			consultation.User.Email, consultation.User.Name, lawyer.Name, offer.Price)
		services.SendEmailAsync(currentConfig(c), email)
	}

	return respond(c, http.StatusCreated, "offer sent successfully", consultation)
}

// SubmitOfferHandler is the variant that returns the created offer instead of
// the populated consultation. Same gate and cap.
func SubmitOfferHandler(c echo.Context) error {
	lawyer := middleware.GetCurrentUser(c)
	if lawyer == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	var req OfferRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: invalid request body", services.ErrValidation))
	}

	offer, _, err := services.SubmitOffer(db.DB, lawyer, req.ConsultationID, req.OfferPrice, req.OfferDesc)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, "offer submitted successfully", offer)
}

// GetOffersByLawyerHandler lists the lawyer's offers with consultation context
func GetOffersByLawyerHandler(c echo.Context) error {
	lawyer := middleware.GetCurrentUser(c)
	if lawyer == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	entries, err := services.ListOffersByLawyer(db.DB, lawyer.ID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "offers retrieved successfully", entries)
}

// UpdateOfferHandler edits an offer's price and/or description
func UpdateOfferHandler(c echo.Context) error {
	lawyer := middleware.GetCurrentUser(c)
	if lawyer == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	var req struct {
		OfferPrice *float64 `json:"offerPrice"`
		OfferDesc  *string  `json:"offerDesc"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: invalid request body", services.ErrValidation))
	}
	if req.OfferPrice == nil && req.OfferDesc == nil {
		return respondError(c, fmt.Errorf("%w: offerPrice or offerDesc is required", services.ErrValidation))
	}

	offer, err := services.UpdateOffer(db.DB, lawyer, c.Param("offerId"), req.OfferPrice, req.OfferDesc)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "offer updated successfully", offer)
}

// SelectOfferHandler records the client's choice of offer and notifies the
// winning lawyer by email
func SelectOfferHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	var req OfferRef
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: invalid request body", services.ErrValidation))
	}

	result, err := services.SelectOffer(db.DB, req.ConsultationID, req.OfferID)
	if err != nil {
		return respondError(c, err)
	}

	if offer, err := services.GetOffer(db.DB, req.OfferID); err == nil && offer.Lawyer != nil {
		email := services.BuildOfferSelectedEmail(
			offer.Lawyer.Email, offer.Lawyer.Name, user.Name, offer.Price)
		services.SendEmailAsync(currentConfig(c), email)
	}

	return respond(c, http.StatusOK, "offer selected successfully", result)
}

// RejectOfferHandler moves an offer out of the consultation's active list.
// The record is kept and stays fetchable.
func RejectOfferHandler(c echo.Context) error {
	var req OfferRef
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: invalid request body", services.ErrValidation))
	}

	if err := services.RejectOffer(db.DB, req.ConsultationID, req.OfferID); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "offer rejected successfully", nil)
}

// SaveAppointmentDateHandler links an appointment to a consultation and marks
// the offer as selected
func SaveAppointmentDateHandler(c echo.Context) error {
	var req struct {
		ConsultationID string `json:"consultationId"`
		OfferID        string `json:"offerId"`
		AppointmentID  string `json:"appointmentId"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: invalid request body", services.ErrValidation))
	}

	consultation, err := services.LinkAppointment(db.DB, req.ConsultationID, req.OfferID, req.AppointmentID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "appointment saved successfully", consultation)
}
