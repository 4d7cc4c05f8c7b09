package domain

import "time"

// EventType enumerates audit event identifiers.
type EventType string

const (
	EventCreated         EventType = "CREATED"
	EventAssigned        EventType = "ASSIGNED"
	EventPriorityChanged EventType = "PRIORITY_CHANGED"
	EventStatusChanged   EventType = "STATUS_CHANGED"
	EventCommented       EventType = "COMMENTED"
	EventCommentDeleted  EventType = "COMMENT_DELETED"
)

// TicketEvent is an immutable, append-only audit record. The identity id is
// a database sequence so that events created in the same instant still sort
// deterministically (created_at DESC, id DESC).
//
// Payload keys are a contract consumed downstream:
//
//	CREATED          ticketId, createdById
//	ASSIGNED         previousAssigneeId (nullable), assigneeId
//	PRIORITY_CHANGED oldPriority, newPriority
//	STATUS_CHANGED   oldStatus, newStatus
//	COMMENTED        commentId
//	COMMENT_DELETED  commentId
type TicketEvent struct {
	ID        int64
	TicketID  string
	ActorID   string
	Type      EventType
	Payload   map[string]any
	CreatedAt time.Time
}
