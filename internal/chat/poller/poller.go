// Package poller implements the client side of the polling contract: a
// recurring full re-fetch of a conversation's messages, reconciled
// idempotently into local view state. There is no delta or cursor
// mechanism; staleness is bounded by roughly one poll interval.
package poller

import (
	"context"
	"log"
	"sync"
	"time"

	"leafchat/internal/dbmysql"
)

// DefaultInterval matches the server default staleness window.
const DefaultInterval = 5 * time.Second

// FetchFunc retrieves the full ordered message set for a conversation.
type FetchFunc func(ctx context.Context, conversationID string) ([]*dbmysql.Message, error)

// View is the reconciled local state for one conversation. Reconciliation
// is replace-by-identifier, not append: applying the same fetch result any
// number of times yields the same state, and messages absent from a result
// are dropped, so duplicate or out-of-order poll arrivals can neither
// duplicate messages nor resurrect deletions.
type View struct {
	mu   sync.RWMutex
	byID map[uint64]*dbmysql.Message
	ids  []uint64
}

func NewView() *View {
	return &View{byID: make(map[uint64]*dbmysql.Message)}
}

// Apply replaces the view with the given poll result.
func (v *View) Apply(messages []*dbmysql.Message) {
	byID := make(map[uint64]*dbmysql.Message, len(messages))
	ids := make([]uint64, 0, len(messages))
	for _, msg := range messages {
		if _, ok := byID[msg.ID]; ok {
			continue
		}
		byID[msg.ID] = msg
		ids = append(ids, msg.ID)
	}

	v.mu.Lock()
	v.byID = byID
	v.ids = ids
	v.mu.Unlock()
}

// Messages returns the current view in server order.
func (v *View) Messages() []*dbmysql.Message {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]*dbmysql.Message, 0, len(v.ids))
	for _, id := range v.ids {
		out = append(out, v.byID[id])
	}
	return out
}

// Len returns the number of messages in the view.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.ids)
}

// Poller re-fetches one conversation on a fixed interval and reconciles
// the result into its View.
type Poller struct {
	conversationID string
	interval       time.Duration
	fetch          FetchFunc
	view           *View
}

func New(conversationID string, interval time.Duration, fetch FetchFunc) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		conversationID: conversationID,
		interval:       interval,
		fetch:          fetch,
		view:           NewView(),
	}
}

// View exposes the poller's reconciled state.
func (p *Poller) View() *View {
	return p.view
}

// Run polls until the context is cancelled. It polls once immediately and
// then once per interval. A failed fetch is logged and retried on the next
// tick; the poller never blocks on an in-flight server operation.
func (p *Poller) Run(ctx context.Context) error {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	messages, err := p.fetch(ctx, p.conversationID)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("poll failed for conversation %s: %v", p.conversationID, err)
		}
		return
	}
	p.view.Apply(messages)
}
