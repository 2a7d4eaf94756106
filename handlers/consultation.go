package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"law_market_app_go/db"
	"law_market_app_go/middleware"
	"law_market_app_go/models"
	"law_market_app_go/services"

	"github.com/labstack/echo/v4"
)

// CreateConsultationHandler accepts a multipart form with the consultation
// fields plus up to MaxAttachedFiles attachments uploaded to storage.
func CreateConsultationHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	caseID := c.FormValue("caseId")
	caseTypeID := c.FormValue("caseTypeId")
	description := c.FormValue("description")

	intake := services.ConsultationIntake{
		UserID:      user.ID,
		CaseID:      caseID,
		CaseTypeID:  caseTypeID,
		Description: description,
	}

	form, err := c.MultipartForm()
	if err == nil && form != nil {
		files := form.File["attachedFiles"]
		if len(files) > models.MaxAttachedFiles {
			return respondError(c, fmt.Errorf("%w: at most %d attached files are allowed",
				services.ErrValidation, models.MaxAttachedFiles))
		}
		for _, file := range files {
			key := services.GenerateConsultationFileKey(user.ID, file.Filename)
			result, err := services.Storage.Upload(c.Request().Context(), file, key)
			if err != nil {
				return respondError(c, fmt.Errorf("failed to store attachment: %w", err))
			}
			intake.AttachedFiles = append(intake.AttachedFiles, result.Key)
		}
	}

	consultation, err := services.CreateConsultation(db.DB, intake)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, "consultation created successfully", consultation)
}

// GetConsultationsHandler returns the client's consultations with their offers
// and selection flattened for comparison
func GetConsultationsHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	views, err := services.ListConsultationsForClient(db.DB, user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "consultations retrieved successfully", views)
}

// GetConsultationsForLawyerHandler returns open consultations matching the
// lawyer's case type that the lawyer has not yet offered on
func GetConsultationsForLawyerHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	consultations, err := services.ListOpenConsultationsForLawyer(db.DB, user)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "consultations retrieved successfully", consultations)
}

// consultationRef is the id-only payload shared by several endpoints
type consultationRef struct {
	ConsultationID string `json:"consultationId"`
}

// GetConsultationDetailsHandler returns one consultation fully populated
func GetConsultationDetailsHandler(c echo.Context) error {
	var req consultationRef
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: invalid request body", services.ErrValidation))
	}
	if req.ConsultationID == "" {
		return respondError(c, fmt.Errorf("%w: consultationId is required", services.ErrValidation))
	}

	consultation, err := services.GetConsultation(db.DB, req.ConsultationID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "consultation details retrieved successfully", consultation)
}

// GetConsultationHistoryHandler returns a client's consultations newest first
func GetConsultationHistoryHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	consultations, err := services.ListConsultationHistory(db.DB, user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "consultation history retrieved successfully", consultations)
}

// ComparePricesHandler lists active offers across a case's consultations,
// cheapest first
func ComparePricesHandler(c echo.Context) error {
	entries, err := services.ComparePrices(db.DB, c.QueryParam("caseId"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "price comparison retrieved successfully", entries)
}

// ResetConsultationHandler clears the selection and returns the consultation
// to its initial state
func ResetConsultationHandler(c echo.Context) error {
	var req consultationRef
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: invalid request body", services.ErrValidation))
	}

	consultation, err := services.ResetConsultation(db.DB, req.ConsultationID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "consultation reset successfully", consultation)
}

// OfferCheckHandler returns a consultation where, once an offer is selected,
// lawyer details are surfaced only within the first hour after selection.
// Without a selection all offers are returned.
func OfferCheckHandler(c echo.Context) error {
	var req consultationRef
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: invalid request body", services.ErrValidation))
	}
	if req.ConsultationID == "" {
		return respondError(c, fmt.Errorf("%w: consultationId is required", services.ErrValidation))
	}

	consultation, err := services.GetConsultation(db.DB, req.ConsultationID)
	if err != nil {
		return respondError(c, err)
	}

	type offerCheckResponse struct {
		UserID        string               `json:"user_id"`
		CaseID        string               `json:"case_id"`
		Description   string               `json:"description"`
		AttachedFiles []string             `json:"attached_files"`
		Status        string               `json:"status"`
		LawyerOffers  []services.OfferView `json:"lawyer_offers"`
	}
	resp := offerCheckResponse{
		UserID:        consultation.UserID,
		CaseID:        consultation.CaseID,
		Description:   consultation.Description,
		AttachedFiles: consultation.AttachedFiles,
		Status:        consultation.Status,
		LawyerOffers:  []services.OfferView{},
	}

	if consultation.SelectedOfferID != nil {
		for i := range consultation.Offers {
			offer := &consultation.Offers[i]
			if offer.ID != *consultation.SelectedOfferID {
				continue
			}
			if time.Since(offer.CreatedAt) <= time.Hour {
				resp.LawyerOffers = append(resp.LawyerOffers, services.NewOfferView(offer))
			}
		}
	} else {
		for i := range consultation.Offers {
			resp.LawyerOffers = append(resp.LawyerOffers, services.NewOfferView(&consultation.Offers[i]))
		}
	}

	return respond(c, http.StatusOK, "consultation retrieved successfully", resp)
}

// DownloadConsultationFileHandler streams a stored attachment. Only the owning
// client may download, and the key must belong to the consultation.
func DownloadConsultationFileHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	key, err := url.PathUnescape(c.Param("key"))
	if err != nil {
		return respondError(c, fmt.Errorf("%w: invalid file key", services.ErrValidation))
	}

	consultation, err := services.GetConsultation(db.DB, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if consultation.UserID != user.ID {
		return respondError(c, fmt.Errorf("%w: only the consultation's owner may download its files", services.ErrAuthorization))
	}

	var found bool
	for _, f := range consultation.AttachedFiles {
		if f == key {
			found = true
			break
		}
	}
	if !found {
		return respondError(c, fmt.Errorf("%w: file not found on this consultation", services.ErrNotFound))
	}

	reader, contentType, err := services.Storage.Get(c.Request().Context(), key)
	if err != nil {
		return respondError(c, fmt.Errorf("%w: file not found", services.ErrNotFound))
	}
	defer reader.Close()

	return c.Stream(http.StatusOK, contentType, reader)
}

// ExportConsultationsHandler returns an xlsx report of the lawyer's offers
func ExportConsultationsHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	buf, err := services.ExportConsultationsReport(db.DB, user.ID)
	if err != nil {
		return respondError(c, err)
	}

	filename := fmt.Sprintf("consultations_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
