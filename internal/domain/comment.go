package domain

import "time"

// Comment belongs to exactly one ticket; the ticket owns its comments and
// deleting the ticket removes them.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}
