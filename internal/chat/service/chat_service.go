package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"leafchat/internal/chat/repository"
	"leafchat/internal/common"
	"leafchat/internal/dbmysql"
)

// ChatService sequences the two-store operations into atomic-appearing
// units and enforces the authorization invariants. Clients observe its
// effects through the polling read model: every list call returns the full
// ordered state, never a delta.
type ChatService interface {
	ListConversations(ctx context.Context, userID string) ([]*dbmysql.Conversation, error)
	CreateConversation(ctx context.Context, creatorID, title string, convType dbmysql.ConversationType, participantIDs []string) (*dbmysql.Conversation, error)
	ListMessages(ctx context.Context, userID, conversationID string) ([]*dbmysql.Message, error)
	SendMessage(ctx context.Context, userID, conversationID, content string) (*dbmysql.Message, error)
	DeleteMessage(ctx context.Context, userID string, messageID uint64) error
}

type chatService struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
}

// Constructor used in DI/wire
func NewChatService(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository) ChatService {
	return &chatService{convRepo: convRepo, msgRepo: msgRepo}
}

func (s *chatService) ListConversations(ctx context.Context, userID string) ([]*dbmysql.Conversation, error) {
	if userID == "" {
		return nil, common.ErrUnauthorized
	}

	convs, err := s.convRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, common.StoreError(err)
	}

	// A pointer left stale by a failed repair references a deleted message
	// and resolves to nothing. That must never surface as an error: fall
	// back to a direct lookup of the true latest message.
	for _, conv := range convs {
		if conv.LastMessageID != nil && conv.LastMessage == nil {
			latest, err := s.msgRepo.Latest(ctx, conv.ID)
			if err != nil {
				log.Printf("stale pointer fallback failed for conversation %s: %v", conv.ID, err)
				conv.LastMessageID = nil
				continue
			}
			if latest == nil {
				conv.LastMessageID = nil
			} else {
				conv.LastMessageID = &latest.ID
				conv.LastMessage = latest
			}
		}
	}

	return convs, nil
}

func (s *chatService) CreateConversation(ctx context.Context, creatorID, title string, convType dbmysql.ConversationType, participantIDs []string) (*dbmysql.Conversation, error) {
	if creatorID == "" {
		return nil, common.ErrUnauthorized
	}
	if len(participantIDs) == 0 {
		return nil, common.ValidationError("at least one participant is required")
	}
	if convType != dbmysql.ConversationDirect && convType != dbmysql.ConversationGroup {
		return nil, common.ValidationError("type must be DIRECT or GROUP")
	}

	conv := &dbmysql.Conversation{
		ID:             uuid.NewString(),
		Title:          strings.TrimSpace(title),
		Type:           convType,
		LastActivityAt: time.Now().UTC(),
	}

	// The creator always holds a participant row, whether or not the
	// caller listed them.
	ids := append([]string{creatorID}, participantIDs...)

	if err := s.convRepo.Create(ctx, conv, ids); err != nil {
		return nil, common.StoreError(err)
	}

	created, err := s.convRepo.Get(ctx, conv.ID)
	if err != nil {
		// conversation exists; return what we have
		return conv, nil
	}
	return created, nil
}

func (s *chatService) ListMessages(ctx context.Context, userID, conversationID string) ([]*dbmysql.Message, error) {
	if userID == "" {
		return nil, common.ErrUnauthorized
	}
	if conversationID == "" {
		return nil, common.ValidationError("conversationId is required")
	}

	if err := s.authorizeParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	messages, err := s.msgRepo.List(ctx, conversationID)
	if err != nil {
		return nil, common.StoreError(err)
	}
	return messages, nil
}

func (s *chatService) SendMessage(ctx context.Context, userID, conversationID, content string) (*dbmysql.Message, error) {
	if userID == "" {
		return nil, common.ErrUnauthorized
	}
	if conversationID == "" {
		return nil, common.ValidationError("conversationId is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, common.ValidationError("content is required")
	}

	// Authorization failure aborts before any write.
	if err := s.authorizeParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	msg := &dbmysql.Message{
		ConversationID: conversationID,
		SenderID:       userID,
		Content:        content,
	}
	if err := s.msgRepo.Append(ctx, msg); err != nil {
		return nil, common.StoreError(err)
	}

	// Append and touch are not atomic across the two stores. If the touch
	// fails the message still exists, only the cached pointer lags; retry
	// once (Touch is an idempotent compare-and-set) and otherwise leave it
	// for the next repair.
	if err := s.convRepo.Touch(ctx, conversationID, msg.ID, msg.CreatedAt); err != nil {
		log.Printf("pointer update failed for conversation %s, retrying: %v", conversationID, err)
		if err := s.convRepo.Touch(ctx, conversationID, msg.ID, msg.CreatedAt); err != nil {
			log.Printf("pointer update retry failed for conversation %s, left for next repair: %v", conversationID, err)
		}
	}

	return msg, nil
}

func (s *chatService) DeleteMessage(ctx context.Context, userID string, messageID uint64) error {
	if userID == "" {
		return common.ErrUnauthorized
	}

	msg, err := s.msgRepo.Get(ctx, messageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.ErrNotFound
	}
	if err != nil {
		return common.StoreError(err)
	}

	// Sender identity alone is not enough: a sender who has since left the
	// conversation may no longer delete their messages.
	if msg.SenderID != userID {
		return fmt.Errorf("%w: only the sender can delete a message", common.ErrForbidden)
	}
	if err := s.authorizeParticipant(ctx, msg.ConversationID, userID); err != nil {
		return err
	}

	if err := s.msgRepo.Delete(ctx, messageID); err != nil {
		return common.StoreError(err)
	}

	// Repair the conversation pointer: recompute the most recent remaining
	// message. On failure retry once with a freshly recomputed value; a
	// still-stale pointer is corrected by the next repair or read fallback.
	if err := s.repairLastMessage(ctx, msg.ConversationID); err != nil {
		log.Printf("pointer repair failed for conversation %s, retrying: %v", msg.ConversationID, err)
		if err := s.repairLastMessage(ctx, msg.ConversationID); err != nil {
			log.Printf("pointer repair retry failed for conversation %s, left stale: %v", msg.ConversationID, err)
		}
	}

	return nil
}

func (s *chatService) repairLastMessage(ctx context.Context, conversationID string) error {
	// A send landing between this Latest read and the write below leaves
	// the pointer on an older live message until that send's touch or the
	// next repair runs. The pointer stays valid, only briefly behind.
	latest, err := s.msgRepo.Latest(ctx, conversationID)
	if err != nil {
		return err
	}
	var lastID *uint64
	if latest != nil {
		lastID = &latest.ID
	}
	return s.convRepo.SetLastMessage(ctx, conversationID, lastID, time.Now().UTC())
}

func (s *chatService) authorizeParticipant(ctx context.Context, conversationID, userID string) error {
	if _, err := s.convRepo.Get(ctx, conversationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.ErrNotFound
		}
		return common.StoreError(err)
	}

	ok, err := s.convRepo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return common.StoreError(err)
	}
	if !ok {
		return fmt.Errorf("%w: not a participant of this conversation", common.ErrForbidden)
	}
	return nil
}
