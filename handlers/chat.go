package handlers

import (
	"fmt"
	"net/http"

	"law_market_app_go/db"
	"law_market_app_go/middleware"
	"law_market_app_go/services"

	"github.com/labstack/echo/v4"
)

// OpenChatHandler finds or creates the chat between the authenticated
// principal and another principal
func OpenChatHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	var req struct {
		ReceiverID string `json:"receiverId"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: invalid request body", services.ErrValidation))
	}

	chat, err := services.OpenChat(db.DB, user.ID, req.ReceiverID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "chat opened successfully", chat)
}

// ListChatsHandler lists the principal's chats, most recent activity first
func ListChatsHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	chats, err := services.ListChats(db.DB, user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "chats retrieved successfully", chats)
}

// SendMessageHandler appends a message to a chat the principal participates in
func SendMessageHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: invalid request body", services.ErrValidation))
	}

	message, err := services.SendMessage(db.DB, user, c.Param("id"), req.Message)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, "message sent successfully", message)
}

// ListMessagesHandler returns a chat's messages oldest first
func ListMessagesHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	messages, err := services.ListMessages(db.DB, user, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "messages retrieved successfully", messages)
}

// JoinPresenceHandler registers a connection for the principal
func JoinPresenceHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	var req struct {
		ConnectionID string `json:"connectionId"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: invalid request body", services.ErrValidation))
	}

	presence, err := services.JoinPresence(db.DB, user.ID, req.ConnectionID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "presence joined successfully", presence)
}

// LeavePresenceHandler removes a connection for the principal
func LeavePresenceHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	var req struct {
		ConnectionID string `json:"connectionId"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: invalid request body", services.ErrValidation))
	}

	if err := services.LeavePresence(db.DB, user.ID, req.ConnectionID); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "presence left successfully", nil)
}

// ListPresenceHandler returns the currently connected principals
func ListPresenceHandler(c echo.Context) error {
	entries, err := services.ListPresence(db.DB)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "presence retrieved successfully", entries)
}
