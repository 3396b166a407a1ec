package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leafchat/internal/dbmysql"
)

func msgs(ids ...uint64) []*dbmysql.Message {
	out := make([]*dbmysql.Message, 0, len(ids))
	for _, id := range ids {
		out = append(out, &dbmysql.Message{ID: id, Content: "m"})
	}
	return out
}

func viewIDs(v *View) []uint64 {
	messages := v.Messages()
	ids := make([]uint64, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestView_ApplyIsIdempotent(t *testing.T) {
	v := NewView()

	result := msgs(1, 2, 3)
	v.Apply(result)
	first := viewIDs(v)

	// applying the same poll result again produces identical state
	v.Apply(result)
	assert.Equal(t, first, viewIDs(v))
	assert.Equal(t, 3, v.Len())
}

func TestView_ApplyDropsDeletedMessages(t *testing.T) {
	v := NewView()

	v.Apply(msgs(1, 2, 3))
	require.Equal(t, 3, v.Len())

	// m2 was deleted server-side; the next full fetch omits it
	v.Apply(msgs(1, 3))
	assert.Equal(t, []uint64{1, 3}, viewIDs(v))
}

func TestView_ApplyCollapsesDuplicates(t *testing.T) {
	v := NewView()

	// a corrupt or overlapping result never creates visual duplicates
	v.Apply([]*dbmysql.Message{
		{ID: 1, Content: "hi"},
		{ID: 2, Content: "yo"},
		{ID: 1, Content: "hi"},
	})
	assert.Equal(t, []uint64{1, 2}, viewIDs(v))
}

func TestView_OutOfOrderArrival(t *testing.T) {
	v := NewView()

	// a late poll result replaces state wholesale: no lost deletions,
	// no appends of already-seen messages
	v.Apply(msgs(1, 2, 3))
	v.Apply(msgs(1, 2))
	v.Apply(msgs(1, 2, 3))
	assert.Equal(t, []uint64{1, 2, 3}, viewIDs(v))
}

func TestPoller_RunPollsOnInterval(t *testing.T) {
	var calls atomic.Int64
	fetch := func(ctx context.Context, conversationID string) ([]*dbmysql.Message, error) {
		n := calls.Add(1)
		if n >= 3 {
			return msgs(1, 2), nil
		}
		return msgs(1), nil
	}

	p := New("conv-1", 10*time.Millisecond, fetch)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.GreaterOrEqual(t, calls.Load(), int64(3))
	assert.Equal(t, []uint64{1, 2}, viewIDs(p.View()))
}

func TestPoller_FetchErrorIsRetriedNextTick(t *testing.T) {
	var calls atomic.Int64
	fetch := func(ctx context.Context, conversationID string) ([]*dbmysql.Message, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("network error")
		}
		return msgs(7), nil
	}

	p := New("conv-1", 10*time.Millisecond, fetch)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = p.Run(ctx)

	// the first failure left the view empty, the next tick filled it
	assert.Equal(t, []uint64{7}, viewIDs(p.View()))
}

func TestPoller_DefaultInterval(t *testing.T) {
	p := New("conv-1", 0, func(ctx context.Context, conversationID string) ([]*dbmysql.Message, error) {
		return nil, nil
	})
	assert.Equal(t, DefaultInterval, p.interval)
}
