package dbmysql

import (
	"time"
)

// Participant is the access-control set for a conversation: every message
// read or write requires a row here for the caller.
type Participant struct {
	ConversationID string    `gorm:"primaryKey;size:36" json:"conversation_id"`
	UserID         string    `gorm:"primaryKey;size:36" json:"user_id"`
	User           User      `gorm:"foreignKey:UserID" json:"user"`
	JoinedAt       time.Time `gorm:"autoCreateTime" json:"joined_at"`
}
