package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"leafchat/internal/dbmysql"
)

// ConversationRepository is the durable record of conversations, their
// participants, and the cached last-message pointer.
type ConversationRepository interface {
	// Create stores the conversation and one participant row per user id.
	// Duplicate ids are collapsed; the caller is expected to include the
	// creator. DIRECT conversations between the same pair are intentionally
	// not deduplicated: two creates yield two distinct conversations.
	Create(ctx context.Context, conv *dbmysql.Conversation, participantIDs []string) error

	Get(ctx context.Context, conversationID string) (*dbmysql.Conversation, error)

	// ListForUser returns the conversations the user participates in,
	// with participants and last message resolved, most recent activity first.
	ListForUser(ctx context.Context, userID string) ([]*dbmysql.Conversation, error)

	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)

	// Touch advances the last-message pointer and activity timestamp.
	// It is a compare-and-set on the (activity timestamp, message id) pair:
	// a touch ordered at or below the stored pointer is a no-op, so
	// concurrent sends can never move the pointer backwards, timestamp ties
	// included. Touch is idempotent and safe to retry with the same
	// arguments.
	Touch(ctx context.Context, conversationID string, lastMessageID uint64, activityAt time.Time) error

	// SetLastMessage is the pointer-repair write used after deletes. Unlike
	// Touch it may legitimately move the pointer to an older message (or to
	// null when no messages remain), so it writes unconditionally.
	SetLastMessage(ctx context.Context, conversationID string, lastMessageID *uint64, activityAt time.Time) error
}

type conversationRepo struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) Create(ctx context.Context, conv *dbmysql.Conversation, participantIDs []string) error {
	seen := make(map[string]bool, len(participantIDs))
	participants := make([]dbmysql.Participant, 0, len(participantIDs))
	for _, id := range participantIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		participants = append(participants, dbmysql.Participant{
			ConversationID: conv.ID,
			UserID:         id,
		})
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		if len(participants) == 0 {
			return nil
		}
		return tx.Create(&participants).Error
	})
}

func (r *conversationRepo) Get(ctx context.Context, conversationID string) (*dbmysql.Conversation, error) {
	var conv dbmysql.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants.User").
		First(&conv, "id = ?", conversationID).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepo) ListForUser(ctx context.Context, userID string) ([]*dbmysql.Conversation, error) {
	var convs []*dbmysql.Conversation
	err := r.db.WithContext(ctx).
		Select("conversations.*").
		Joins("JOIN participants ON participants.conversation_id = conversations.id").
		Where("participants.user_id = ?", userID).
		Preload("Participants.User").
		Preload("LastMessage").
		Preload("LastMessage.Sender").
		Order("conversations.last_activity_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

func (r *conversationRepo) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&dbmysql.Participant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *conversationRepo) Touch(ctx context.Context, conversationID string, lastMessageID uint64, activityAt time.Time) error {
	// Equal timestamps happen: the message store clamps to the last stamp
	// when the clock steps backwards, and datetime precision can collide on
	// concurrent sends. The identifier breaks the tie, so the guard is the
	// full (last_activity_at, last_message_id) order. Zero rows affected
	// means a newer touch already landed; that is not an error, the pointer
	// is at least as fresh as the one we carry.
	return r.db.WithContext(ctx).Model(&dbmysql.Conversation{}).
		Where("id = ? AND (last_activity_at < ? OR (last_activity_at = ? AND (last_message_id IS NULL OR last_message_id <= ?)))",
			conversationID, activityAt, activityAt, lastMessageID).
		Updates(map[string]interface{}{
			"last_message_id":  lastMessageID,
			"last_activity_at": activityAt,
		}).Error
}

func (r *conversationRepo) SetLastMessage(ctx context.Context, conversationID string, lastMessageID *uint64, activityAt time.Time) error {
	return r.db.WithContext(ctx).Model(&dbmysql.Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]interface{}{
			"last_message_id":  lastMessageID,
			"last_activity_at": activityAt,
		}).Error
}
