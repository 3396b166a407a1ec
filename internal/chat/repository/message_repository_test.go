package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"leafchat/internal/dbmysql"
)

func TestMessageRepository_Append_StampsServerTimestamp(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "user-a", "Ada")

	before := time.Now().UTC()
	msg := &dbmysql.Message{ConversationID: "conv-1", SenderID: "user-a", Content: "hi"}
	require.NoError(t, repo.Append(ctx, msg))

	assert.NotZero(t, msg.ID)
	assert.False(t, msg.CreatedAt.Before(before))
	assert.Equal(t, "Ada", msg.Sender.Name)
}

func TestMessageRepository_Append_TimestampsNonDecreasing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "user-a", "Ada")

	var prev time.Time
	for i := 0; i < 20; i++ {
		msg := &dbmysql.Message{ConversationID: "conv-1", SenderID: "user-a", Content: fmt.Sprintf("m%d", i)}
		require.NoError(t, repo.Append(ctx, msg))
		assert.False(t, msg.CreatedAt.Before(prev), "timestamp went backwards at message %d", i)
		prev = msg.CreatedAt
	}
}

func TestMessageRepository_List_AscendingOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "user-a", "Ada")
	createTestUser(t, db, "user-b", "Ben")

	for i, sender := range []string{"user-a", "user-b", "user-a"} {
		msg := &dbmysql.Message{ConversationID: "conv-1", SenderID: sender, Content: fmt.Sprintf("m%d", i)}
		require.NoError(t, repo.Append(ctx, msg))
	}
	// another conversation must not leak in
	require.NoError(t, repo.Append(ctx, &dbmysql.Message{ConversationID: "conv-2", SenderID: "user-a", Content: "other"}))

	messages, err := repo.List(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, messages, 3)

	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i].CreatedAt.Before(messages[i-1].CreatedAt))
		assert.Greater(t, messages[i].ID, messages[i-1].ID)
	}
	assert.Equal(t, "m0", messages[0].Content)
	assert.Equal(t, "Ada", messages[0].Sender.Name)
	assert.Equal(t, "Ben", messages[1].Sender.Name)
}

func TestMessageRepository_List_TieBreakByIdentifier(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "user-a", "Ada")

	// identical timestamps: insertion (identifier) order decides
	ts := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&dbmysql.Message{
			ConversationID: "conv-1",
			SenderID:       "user-a",
			Content:        fmt.Sprintf("m%d", i),
			CreatedAt:      ts,
		}).Error)
	}

	messages, err := repo.List(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "m0", messages[0].Content)
	assert.Equal(t, "m1", messages[1].Content)
	assert.Equal(t, "m2", messages[2].Content)
}

func TestMessageRepository_Latest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "user-a", "Ada")

	latest, err := repo.Latest(ctx, "conv-1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	first := &dbmysql.Message{ConversationID: "conv-1", SenderID: "user-a", Content: "first"}
	require.NoError(t, repo.Append(ctx, first))
	second := &dbmysql.Message{ConversationID: "conv-1", SenderID: "user-a", Content: "second"}
	require.NoError(t, repo.Append(ctx, second))

	latest, err = repo.Latest(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)

	require.NoError(t, repo.Delete(ctx, second.ID))

	latest, err = repo.Latest(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, first.ID, latest.ID)
}

func TestMessageRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "user-a", "Ada")

	msg := &dbmysql.Message{ConversationID: "conv-1", SenderID: "user-a", Content: "bye"}
	require.NoError(t, repo.Append(ctx, msg))

	require.NoError(t, repo.Delete(ctx, msg.ID))

	_, err := repo.Get(ctx, msg.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	messages, err := repo.List(ctx, "conv-1")
	require.NoError(t, err)
	assert.Empty(t, messages)
}
