package services

import (
	"fmt"
	"time"

	"law_market_app_go/models"

	"gorm.io/gorm"
)

// PresenceTTL is how long a presence row survives without being refreshed.
// Rows older than this are treated as abandoned connections.
const PresenceTTL = 2 * time.Hour

// OpenChat finds or creates the chat between two principals. The pair is
// stored in a canonical order so both directions resolve to the same row.
func OpenChat(db *gorm.DB, senderID, receiverID string) (*models.Chat, error) {
	if senderID == "" || receiverID == "" {
		return nil, fmt.Errorf("%w: senderId and receiverId are required", ErrValidation)
	}
	if senderID == receiverID {
		return nil, fmt.Errorf("%w: cannot open a chat with yourself", ErrValidation)
	}

	var receiver models.User
	if err := db.First(&receiver, "id = ?", receiverID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: receiver not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up receiver: %w", err)
	}

	a, b := senderID, receiverID
	if b < a {
		a, b = b, a
	}

	var chat models.Chat
	err := db.Preload("Sender").Preload("Receiver").
		Where("sender_id = ? AND receiver_id = ?", a, b).
		First(&chat).Error
	if err == nil {
		return &chat, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to look up chat: %w", err)
	}

	chat = models.Chat{SenderID: a, ReceiverID: b}
	if err := db.Create(&chat).Error; err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return &chat, nil
}

// ListChats returns all chats a principal participates in, most recently
// active first.
func ListChats(db *gorm.DB, userID string) ([]models.Chat, error) {
	var chats []models.Chat
	err := db.Preload("Sender").Preload("Receiver").Preload("LastMessage").
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("last_message_date DESC").
		Find(&chats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	return chats, nil
}

// SendMessage persists a message and updates the chat's last-message marker.
// Only a participant of the chat may send.
func SendMessage(db *gorm.DB, sender *models.User, chatID, body string) (*models.ChatMessage, error) {
	body = SanitizeText(body)
	if chatID == "" || body == "" {
		return nil, fmt.Errorf("%w: chatId and message body are required", ErrValidation)
	}

	var chat models.Chat
	if err := db.First(&chat, "id = ?", chatID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: chat not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}

	if chat.SenderID != sender.ID && chat.ReceiverID != sender.ID {
		return nil, fmt.Errorf("%w: not a participant of this chat", ErrAuthorization)
	}

	message := models.ChatMessage{
		ChatID:     chat.ID,
		SenderID:   sender.ID,
		SenderRole: sender.Role,
		Body:       body,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		return tx.Model(&chat).Updates(map[string]interface{}{
			"last_message_id":   message.ID,
			"last_message_date": now,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return &message, nil
}

// ListMessages returns a chat's messages in send order. Only a participant
// may read.
func ListMessages(db *gorm.DB, user *models.User, chatID string) ([]models.ChatMessage, error) {
	var chat models.Chat
	if err := db.First(&chat, "id = ?", chatID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: chat not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}

	if chat.SenderID != user.ID && chat.ReceiverID != user.ID {
		return nil, fmt.Errorf("%w: not a participant of this chat", ErrAuthorization)
	}

	var messages []models.ChatMessage
	err := db.Where("chat_id = ?", chatID).Order("created_at ASC").Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// JoinPresence records a live connection for the principal in the shared
// store. Idempotent per connection id.
func JoinPresence(db *gorm.DB, userID, connectionID string) (*models.Presence, error) {
	if connectionID == "" {
		return nil, fmt.Errorf("%w: connectionId is required", ErrValidation)
	}

	var existing models.Presence
	err := db.Where("connection_id = ?", connectionID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to look up presence: %w", err)
	}

	presence := models.Presence{
		UserID:       userID,
		ConnectionID: connectionID,
		JoinedAt:     time.Now().UTC(),
	}
	if err := db.Create(&presence).Error; err != nil {
		return nil, fmt.Errorf("failed to record presence: %w", err)
	}
	return &presence, nil
}

// LeavePresence removes a connection from the roster
func LeavePresence(db *gorm.DB, userID, connectionID string) error {
	result := db.Where("user_id = ? AND connection_id = ?", userID, connectionID).
		Delete(&models.Presence{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove presence: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: connection not found", ErrNotFound)
	}
	return nil
}

// ListPresence returns the currently connected principals, ignoring rows
// older than the TTL.
func ListPresence(db *gorm.DB) ([]models.Presence, error) {
	cutoff := time.Now().UTC().Add(-PresenceTTL)
	var rows []models.Presence
	err := db.Where("joined_at > ?", cutoff).Order("joined_at ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list presence: %w", err)
	}
	return rows, nil
}

// CleanupStalePresence deletes presence rows older than the TTL
func CleanupStalePresence(db *gorm.DB) error {
	cutoff := time.Now().UTC().Add(-PresenceTTL)
	if err := db.Where("joined_at <= ?", cutoff).Delete(&models.Presence{}).Error; err != nil {
		return fmt.Errorf("failed to cleanup presence: %w", err)
	}
	return nil
}
