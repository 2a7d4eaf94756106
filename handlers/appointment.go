package handlers

import (
	"fmt"
	"net/http"

	"law_market_app_go/db"
	"law_market_app_go/middleware"
	"law_market_app_go/services"

	"github.com/labstack/echo/v4"
)

// BookAppointmentHandler books a lawyer's slot for the authenticated client
func BookAppointmentHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	var req struct {
		LawyerID            string  `json:"lawyerId"`
		Date                string  `json:"date"`
		Time                string  `json:"time"`
		Price               float64 `json:"price"`
		AdministrationPrice float64 `json:"administrationPrice"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: invalid request body", services.ErrValidation))
	}

	appointment, err := services.BookAppointment(db.DB, services.AppointmentBooking{
		LawyerID:            req.LawyerID,
		ClientID:            user.ID,
		Date:                req.Date,
		Time:                req.Time,
		Price:               req.Price,
		AdministrationPrice: req.AdministrationPrice,
	})
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, "appointment booked successfully", appointment)
}

// GetBookedSlotsHandler lists a lawyer's taken times for one date
func GetBookedSlotsHandler(c echo.Context) error {
	slots, err := services.ListBookedSlots(db.DB, c.Param("lawyerId"), c.Param("date"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "booked slots retrieved successfully", slots)
}

// CancelAppointmentHandler cancels an appointment, freeing its slot
func CancelAppointmentHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	appointment, err := services.CancelAppointment(db.DB, c.Param("id"), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "appointment cancelled successfully", appointment)
}
