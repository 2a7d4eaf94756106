package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chat links two principals (typically a client and a lawyer) and tracks the
// most recent message for inbox ordering.
type Chat struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	SenderID string `gorm:"type:uuid;not null;index;uniqueIndex:idx_chat_pair" json:"sender_id"`
	Sender   *User  `gorm:"foreignKey:SenderID" json:"sender,omitempty"`

	ReceiverID string `gorm:"type:uuid;not null;index;uniqueIndex:idx_chat_pair" json:"receiver_id"`
	Receiver   *User  `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`

	LastMessageID   *string      `gorm:"type:uuid" json:"last_message_id,omitempty"`
	LastMessage     *ChatMessage `gorm:"foreignKey:LastMessageID" json:"last_message,omitempty"`
	LastMessageDate *time.Time   `json:"last_message_date,omitempty"`
}

// ChatMessage is one persisted message within a chat
type ChatMessage struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ChatID string `gorm:"type:uuid;not null;index" json:"chat_id"`
	Chat   *Chat  `gorm:"foreignKey:ChatID" json:"-"`

	SenderID   string `gorm:"type:uuid;not null;index" json:"sender_id"`
	SenderRole string `gorm:"not null" json:"sender_role"` // user, lawyer

	Body string `gorm:"type:text;not null" json:"body"`
}

// Presence is one live connection of a principal, kept in the shared store so
// every instance sees the same roster. Rows are written on join and removed
// on leave; stale rows are swept by age.
type Presence struct {
	ID           string    `gorm:"type:uuid;primarykey" json:"id"`
	UserID       string    `gorm:"type:uuid;not null;index" json:"user_id"`
	ConnectionID string    `gorm:"uniqueIndex;not null" json:"connection_id"`
	JoinedAt     time.Time `json:"joined_at"`
}

// BeforeCreate hook to generate UUID
func (c *Chat) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// BeforeCreate hook to generate UUID
func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// BeforeCreate hook to generate UUID
func (p *Presence) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Chat model
func (Chat) TableName() string {
	return "chats"
}

// TableName specifies the table name for ChatMessage model
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// TableName specifies the table name for Presence model
func (Presence) TableName() string {
	return "presence"
}
