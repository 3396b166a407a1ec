package dbmysql

import (
	"time"
)

type ConversationType string

const (
	ConversationDirect ConversationType = "DIRECT"
	ConversationGroup  ConversationType = "GROUP"
)

// Conversation caches a pointer to its most recent non-deleted message.
// LastMessageID is repaired after deletes and may briefly lag behind the
// message log; readers fall back to a direct lookup when it does.
type Conversation struct {
	ID             string           `gorm:"primaryKey;size:36" json:"id"`
	Title          string           `gorm:"size:255" json:"title"`
	Type           ConversationType `gorm:"size:10;index" json:"type"`
	LastMessageID  *uint64          `gorm:"index" json:"last_message_id"`
	LastMessage    *Message         `gorm:"foreignKey:LastMessageID" json:"last_message,omitempty"`
	LastActivityAt time.Time        `gorm:"index" json:"last_activity_at"`
	Participants   []Participant    `gorm:"foreignKey:ConversationID" json:"participants,omitempty"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}
