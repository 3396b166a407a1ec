package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"leafchat/internal/chat/repository"
	"leafchat/internal/common"
	"leafchat/internal/dbmysql"
)

// End-to-end checks of send/delete/pointer behavior against real stores.

func setupScenario(t *testing.T) (ChatService, repository.ConversationRepository, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "scenario.db")), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&dbmysql.User{},
		&dbmysql.Conversation{},
		&dbmysql.Participant{},
		&dbmysql.Message{},
	))

	for _, u := range []struct{ id, name string }{{"user-a", "Ada"}, {"user-b", "Ben"}, {"user-x", "Xan"}} {
		require.NoError(t, db.Create(&dbmysql.User{
			ID: u.id, Name: u.name, Email: u.id + "@example.com", PasswordHash: "x",
		}).Error)
	}

	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	return NewChatService(convRepo, msgRepo), convRepo, db
}

func TestSendDeleteRepairScenario(t *testing.T) {
	svc, convRepo, _ := setupScenario(t)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, "user-a", "", dbmysql.ConversationDirect, []string{"user-b"})
	require.NoError(t, err)

	// A sends "hi": pointer follows
	m1, err := svc.SendMessage(ctx, "user-a", conv.ID, "hi")
	require.NoError(t, err)

	stored, err := convRepo.Get(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastMessageID)
	assert.Equal(t, m1.ID, *stored.LastMessageID)

	// B sends "yo": pointer advances
	m2, err := svc.SendMessage(ctx, "user-b", conv.ID, "yo")
	require.NoError(t, err)

	stored, err = convRepo.Get(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastMessageID)
	assert.Equal(t, m2.ID, *stored.LastMessageID)

	messages, err := svc.ListMessages(ctx, "user-a", conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "hi", messages[0].Content)
	assert.Equal(t, "yo", messages[1].Content)

	// B deletes m2: pointer is repaired back to m1
	require.NoError(t, svc.DeleteMessage(ctx, "user-b", m2.ID))

	stored, err = convRepo.Get(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastMessageID)
	assert.Equal(t, m1.ID, *stored.LastMessageID)

	messages, err = svc.ListMessages(ctx, "user-a", conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "hi", messages[0].Content)

	// B is not the sender of m1
	err = svc.DeleteMessage(ctx, "user-b", m1.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	// deleting the last remaining message returns the conversation to empty
	require.NoError(t, svc.DeleteMessage(ctx, "user-a", m1.ID))

	stored, err = convRepo.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LastMessageID)
}

func TestSendOrderingProperty(t *testing.T) {
	svc, _, _ := setupScenario(t)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, "user-a", "ordering", dbmysql.ConversationGroup, []string{"user-b"})
	require.NoError(t, err)

	const n = 25
	for i := 0; i < n; i++ {
		sender := "user-a"
		if i%2 == 1 {
			sender = "user-b"
		}
		_, err := svc.SendMessage(ctx, sender, conv.ID, fmt.Sprintf("m%d", i))
		require.NoError(t, err)
	}

	messages, err := svc.ListMessages(ctx, "user-a", conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, n)

	for i := 0; i < n; i++ {
		assert.Equal(t, fmt.Sprintf("m%d", i), messages[i].Content)
		if i > 0 {
			assert.False(t, messages[i].CreatedAt.Before(messages[i-1].CreatedAt))
			assert.Greater(t, messages[i].ID, messages[i-1].ID)
		}
	}
}

func TestConcurrentSendsAllSurvive(t *testing.T) {
	svc, convRepo, db := setupScenario(t)
	ctx := context.Background()

	// a single pooled connection serializes the sqlite writers; the race
	// under test is in the service and pointer CAS, not the driver
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	conv, err := svc.CreateConversation(ctx, "user-a", "burst", dbmysql.ConversationGroup, []string{"user-b"})
	require.NoError(t, err)

	const senders = 4
	const perSender = 5

	var wg sync.WaitGroup
	errs := make(chan error, senders*perSender)
	for i := 0; i < senders; i++ {
		sender := "user-a"
		if i%2 == 1 {
			sender = "user-b"
		}
		wg.Add(1)
		go func(sender string) {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				if _, err := svc.SendMessage(ctx, sender, conv.ID, "burst"); err != nil {
					errs <- err
				}
			}
		}(sender)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// every send survived and the next poll sees them all, totally ordered
	messages, err := svc.ListMessages(ctx, "user-a", conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, senders*perSender)

	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i].CreatedAt.Before(messages[i-1].CreatedAt))
		assert.Greater(t, messages[i].ID, messages[i-1].ID)
	}

	// the pointer settled on the maximum (created_at, id) no matter which
	// touch landed last
	stored, err := convRepo.Get(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastMessageID)
	assert.Equal(t, messages[len(messages)-1].ID, *stored.LastMessageID)
}

func TestNonParticipantIsRejectedEverywhere(t *testing.T) {
	svc, _, _ := setupScenario(t)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, "user-a", "", dbmysql.ConversationDirect, []string{"user-b"})
	require.NoError(t, err)

	msg, err := svc.SendMessage(ctx, "user-a", conv.ID, "secret")
	require.NoError(t, err)

	_, err = svc.ListMessages(ctx, "user-x", conv.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = svc.SendMessage(ctx, "user-x", conv.ID, "let me in")
	assert.ErrorIs(t, err, common.ErrForbidden)

	err = svc.DeleteMessage(ctx, "user-x", msg.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	// non-participants never see the conversation either
	convs, err := svc.ListConversations(ctx, "user-x")
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestConversationListOrderedByActivity(t *testing.T) {
	svc, _, _ := setupScenario(t)
	ctx := context.Background()

	first, err := svc.CreateConversation(ctx, "user-a", "first", dbmysql.ConversationGroup, []string{"user-b"})
	require.NoError(t, err)
	second, err := svc.CreateConversation(ctx, "user-a", "second", dbmysql.ConversationGroup, []string{"user-b"})
	require.NoError(t, err)

	// activity in the first conversation bumps it to the top
	_, err = svc.SendMessage(ctx, "user-b", first.ID, "bump")
	require.NoError(t, err)

	convs, err := svc.ListConversations(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, first.ID, convs[0].ID)
	assert.Equal(t, second.ID, convs[1].ID)
	require.NotNil(t, convs[0].LastMessage)
	assert.Equal(t, "bump", convs[0].LastMessage.Content)
}
