package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"leafchat/internal/dbmysql"
)

// MessageRepository is the append-mostly message log, scoped per
// conversation, with hard-delete support.
type MessageRepository interface {
	// Append inserts the message with a server-assigned timestamp and
	// resolves the sender on the returned value.
	Append(ctx context.Context, msg *dbmysql.Message) error

	Get(ctx context.Context, messageID uint64) (*dbmysql.Message, error)

	// List returns all messages of the conversation in ascending
	// (created_at, id) order with senders resolved.
	List(ctx context.Context, conversationID string) ([]*dbmysql.Message, error)

	// Delete removes the message in a single statement; a concurrent List
	// sees the row either fully present or fully gone.
	Delete(ctx context.Context, messageID uint64) error

	// Latest returns the message with the maximum (created_at, id) for the
	// conversation, or nil when none remain. It is the recompute step of
	// pointer repair and the fallback for stale pointers.
	Latest(ctx context.Context, conversationID string) (*dbmysql.Message, error)
}

type messageRepo struct {
	db *gorm.DB

	// guards lastStamp; timestamps assigned by this store instance are
	// monotonically non-decreasing even if the wall clock steps backwards
	mu        sync.Mutex
	lastStamp time.Time
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) stamp() time.Time {
	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	if now.Before(r.lastStamp) {
		now = r.lastStamp
	}
	r.lastStamp = now
	return now
}

func (r *messageRepo) Append(ctx context.Context, msg *dbmysql.Message) error {
	msg.CreatedAt = r.stamp()
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).First(&msg.Sender, "id = ?", msg.SenderID).Error
}

func (r *messageRepo) Get(ctx context.Context, messageID uint64) (*dbmysql.Message, error) {
	var msg dbmysql.Message
	err := r.db.WithContext(ctx).Preload("Sender").First(&msg, "id = ?", messageID).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepo) List(ctx context.Context, conversationID string) ([]*dbmysql.Message, error) {
	var messages []*dbmysql.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Preload("Sender").
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepo) Delete(ctx context.Context, messageID uint64) error {
	return r.db.WithContext(ctx).Delete(&dbmysql.Message{}, "id = ?", messageID).Error
}

func (r *messageRepo) Latest(ctx context.Context, conversationID string) (*dbmysql.Message, error) {
	var msg dbmysql.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
