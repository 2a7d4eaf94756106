package handlers

import (
	"net/http"

	"law_market_app_go/services"

	"github.com/labstack/echo/v4"
)

// Envelope is the JSON shape every endpoint responds with
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// respond writes a success envelope
func respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// respondError maps a service error onto an HTTP status and writes a
// failure envelope. Internal errors are masked with a generic message.
func respondError(c echo.Context, err error) error {
	status := services.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		c.Logger().Error(err)
		message = "internal server error"
	}
	return c.JSON(status, Envelope{Success: false, Message: message})
}
