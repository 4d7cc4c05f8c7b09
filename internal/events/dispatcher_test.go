package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolliedev/ticketflow/internal/domain"
)

func TestDispatcher_PublishReachesSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []Notification
	d.Subscribe(domain.EventCreated, func(_ context.Context, n Notification) error {
		got = append(got, n)
		return nil
	})
	d.Subscribe(domain.EventCreated, func(_ context.Context, n Notification) error {
		got = append(got, n)
		return nil
	})

	d.Publish(context.Background(), Notification{Type: domain.EventCreated, TicketID: "t1"})

	require.Len(t, got, 2)
	assert.Equal(t, "t1", got[0].TicketID)
}

func TestDispatcher_TypeIsolation(t *testing.T) {
	d := NewInMemoryDispatcher()

	calls := 0
	d.Subscribe(domain.EventAssigned, func(context.Context, Notification) error {
		calls++
		return nil
	})

	d.Publish(context.Background(), Notification{Type: domain.EventCommented})
	assert.Zero(t, calls)

	d.Publish(context.Background(), Notification{Type: domain.EventAssigned})
	assert.Equal(t, 1, calls)
}

func TestDispatcher_HandlerErrorsSwallowed(t *testing.T) {
	d := NewInMemoryDispatcher()

	reached := false
	d.Subscribe(domain.EventCreated, func(context.Context, Notification) error {
		return errors.New("subscriber broke")
	})
	d.Subscribe(domain.EventCreated, func(context.Context, Notification) error {
		reached = true
		return nil
	})

	d.Publish(context.Background(), Notification{Type: domain.EventCreated})
	assert.True(t, reached)
}

func TestFromAuditEvent(t *testing.T) {
	created := time.Now()
	event := domain.TicketEvent{
		ID:        42,
		TicketID:  "t1",
		ActorID:   "u1",
		Type:      domain.EventStatusChanged,
		Payload:   map[string]any{"oldStatus": "NEW", "newStatus": "IN_PROGRESS"},
		CreatedAt: created,
	}

	n := FromAuditEvent(event)
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, domain.EventStatusChanged, n.Type)
	assert.Equal(t, "t1", n.TicketID)
	assert.Equal(t, "u1", n.ActorID)
	assert.Equal(t, created, n.Timestamp)
	assert.Equal(t, "IN_PROGRESS", n.Payload["newStatus"])
}
