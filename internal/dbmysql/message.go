package dbmysql

import (
	"time"
)

// Message rows are immutable once created; deletion is a hard delete.
// The auto-increment ID doubles as the ordering tie-break: (created_at, id)
// is a total order per conversation.
type Message struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID string    `gorm:"size:36;not null;index:idx_messages_conv_created,priority:1" json:"conversation_id"`
	SenderID       string    `gorm:"size:36;not null;index" json:"sender_id"`
	Sender         User      `gorm:"foreignKey:SenderID" json:"sender"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"index:idx_messages_conv_created,priority:2" json:"created_at"`
}
