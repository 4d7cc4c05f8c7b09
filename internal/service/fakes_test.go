package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rolliedev/ticketflow/internal/domain"
	"github.com/rolliedev/ticketflow/internal/repository"
	apperrors "github.com/rolliedev/ticketflow/pkg/util"
)

// The fakes below back the service tests with an in-memory store that
// honors the same contracts as the pgx repositories: all-or-nothing commit
// through the unit of work, compare-and-swap on the ticket version, and
// event appends refused outside a transaction.

type memoryState struct {
	users       map[string]domain.User
	tickets     map[string]domain.Ticket
	comments    map[string]domain.Comment
	events      []domain.TicketEvent
	nextEventID int64
}

func newMemoryState() *memoryState {
	return &memoryState{
		users:       make(map[string]domain.User),
		tickets:     make(map[string]domain.Ticket),
		comments:    make(map[string]domain.Comment),
		nextEventID: 1,
	}
}

func (s *memoryState) clone() *memoryState {
	next := &memoryState{
		users:       make(map[string]domain.User, len(s.users)),
		tickets:     make(map[string]domain.Ticket, len(s.tickets)),
		comments:    make(map[string]domain.Comment, len(s.comments)),
		events:      append([]domain.TicketEvent(nil), s.events...),
		nextEventID: s.nextEventID,
	}
	for id, user := range s.users {
		next.users[id] = user
	}
	for id, ticket := range s.tickets {
		next.tickets[id] = cloneTicket(ticket)
	}
	for id, comment := range s.comments {
		next.comments[id] = comment
	}
	return next
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	if t.AssigneeID != nil {
		v := *t.AssigneeID
		t.AssigneeID = &v
	}
	if t.ResolvedAt != nil {
		v := *t.ResolvedAt
		t.ResolvedAt = &v
	}
	return t
}

type memoryStore struct {
	mu    sync.Mutex
	state *memoryState
}

func newMemoryStore() *memoryStore {
	return &memoryStore{state: newMemoryState()}
}

type stagedStateKey struct{}

// stateFor returns the staged state inside a unit of work, the committed
// state otherwise.
func (s *memoryStore) stateFor(ctx context.Context) *memoryState {
	if staged, ok := ctx.Value(stagedStateKey{}).(*memoryState); ok {
		return staged
	}
	return s.state
}

// memoryUnitOfWork stages every write on a copy of the store and swaps it
// in only when the closure succeeds.
type memoryUnitOfWork struct {
	store *memoryStore
}

func (u *memoryUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(stagedStateKey{}).(*memoryState); ok {
		return fn(ctx)
	}
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	staged := u.store.state.clone()
	if err := fn(context.WithValue(ctx, stagedStateKey{}, staged)); err != nil {
		return err
	}
	u.store.state = staged
	return nil
}

type fakeUserRepo struct {
	store *memoryStore
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	state := r.store.stateFor(ctx)
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	state.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	state := r.store.stateFor(ctx)
	user, ok := state.users[id]
	if !ok {
		return nil, apperrors.NewNotFound("user", map[string]any{"userId": id})
	}
	return &user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	state := r.store.stateFor(ctx)
	for _, user := range state.users {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
}

type fakeTicketRepo struct {
	store *memoryStore
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	state := r.store.stateFor(ctx)
	ticket.ID = uuid.NewString()
	ticket.Version = 0
	ticket.CreatedAt = time.Now()
	ticket.ModifiedAt = ticket.CreatedAt
	state.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	state := r.store.stateFor(ctx)
	existing, ok := state.tickets[ticket.ID]
	if !ok {
		return apperrors.NewNotFound("ticket", map[string]any{"ticketId": ticket.ID})
	}
	if existing.Version != ticket.Version {
		return apperrors.NewConcurrentModification("ticket", map[string]any{
			"ticketId": ticket.ID,
			"version":  ticket.Version,
		})
	}
	ticket.Version++
	ticket.ModifiedAt = time.Now()
	state.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	state := r.store.stateFor(ctx)
	ticket, ok := state.tickets[id]
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticketId": id})
	}
	found := cloneTicket(ticket)
	return &found, nil
}

func (r *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	state := r.store.stateFor(ctx)
	matched := []domain.Ticket{}
	for _, ticket := range state.tickets {
		if !matchesFilter(ticket, filter) {
			continue
		}
		matched = append(matched, cloneTicket(ticket))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	size := filter.Size
	if size <= 0 {
		size = 20
	}
	start := filter.Page * size
	if start >= len(matched) {
		return []domain.Ticket{}, nil
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func matchesFilter(ticket domain.Ticket, filter repository.TicketFilter) bool {
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		lowered := strings.ToLower(keyword)
		if !strings.Contains(strings.ToLower(ticket.Title), lowered) &&
			!strings.Contains(strings.ToLower(ticket.Description), lowered) {
			return false
		}
	}
	if filter.Status != nil && ticket.Status != *filter.Status {
		return false
	}
	if filter.Priority != nil && ticket.Priority != *filter.Priority {
		return false
	}
	if filter.CreatorID != nil && ticket.CreatedByID != *filter.CreatorID {
		return false
	}
	if filter.AssigneeID != nil && (ticket.AssigneeID == nil || *ticket.AssigneeID != *filter.AssigneeID) {
		return false
	}
	if filter.CreatedBefore != nil && !ticket.CreatedAt.Before(*filter.CreatedBefore) {
		return false
	}
	if filter.CreatedAfter != nil && !ticket.CreatedAt.After(*filter.CreatedAfter) {
		return false
	}
	return true
}

type fakeCommentRepo struct {
	store *memoryStore
}

func (r *fakeCommentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	state := r.store.stateFor(ctx)
	comment.ID = uuid.NewString()
	comment.CreatedAt = time.Now()
	state.comments[comment.ID] = *comment
	return nil
}

func (r *fakeCommentRepo) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	state := r.store.stateFor(ctx)
	comment, ok := state.comments[id]
	if !ok {
		return nil, apperrors.NewNotFound("comment", map[string]any{"commentId": id})
	}
	return &comment, nil
}

func (r *fakeCommentRepo) Delete(ctx context.Context, id string) error {
	state := r.store.stateFor(ctx)
	if _, ok := state.comments[id]; !ok {
		return apperrors.NewNotFound("comment", map[string]any{"commentId": id})
	}
	delete(state.comments, id)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	state := r.store.stateFor(ctx)
	result := []domain.Comment{}
	for _, comment := range state.comments {
		if comment.TicketID == ticketID {
			result = append(result, comment)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

type fakeEventRepo struct {
	store *memoryStore
}

func (r *fakeEventRepo) Append(ctx context.Context, event *domain.TicketEvent) error {
	staged, ok := ctx.Value(stagedStateKey{}).(*memoryState)
	if !ok {
		return repository.ErrNoActiveUnitOfWork
	}
	event.ID = staged.nextEventID
	staged.nextEventID++
	event.CreatedAt = time.Now()
	staged.events = append(staged.events, *event)
	return nil
}

func (r *fakeEventRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketEvent, error) {
	state := r.store.stateFor(ctx)
	result := []domain.TicketEvent{}
	for _, event := range state.events {
		if event.TicketID == ticketID {
			result = append(result, event)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// fixture wires the services against the in-memory store.
type fixture struct {
	store    *memoryStore
	users    *fakeUserRepo
	tickets  *fakeTicketRepo
	comments *fakeCommentRepo
	events   *fakeEventRepo
	uow      *memoryUnitOfWork

	audit          *EventService
	ticketService  *TicketService
	commentService *CommentService
}

func newFixture() *fixture {
	store := newMemoryStore()
	f := &fixture{
		store:    store,
		users:    &fakeUserRepo{store: store},
		tickets:  &fakeTicketRepo{store: store},
		comments: &fakeCommentRepo{store: store},
		events:   &fakeEventRepo{store: store},
		uow:      &memoryUnitOfWork{store: store},
	}
	f.audit = NewEventService(f.events)
	f.ticketService = NewTicketService(TicketDependencies{
		UserRepo:   f.users,
		TicketRepo: f.tickets,
		Events:     f.audit,
		UnitOfWork: f.uow,
	})
	f.commentService = NewCommentService(CommentDependencies{
		TicketRepo:  f.tickets,
		CommentRepo: f.comments,
		UserRepo:    f.users,
		Events:      f.audit,
		UnitOfWork:  f.uow,
	})
	return f
}

func (f *fixture) seedUser(role domain.Role) *domain.User {
	user := &domain.User{
		FullName: string(role) + " user",
		Email:    strings.ToLower(string(role)) + "-" + uuid.NewString() + "@example.com",
		Role:     role,
	}
	_ = f.users.Create(context.Background(), user)
	return user
}

func (f *fixture) seedTicket(creator *domain.User, status domain.TicketStatus, assignee *domain.User) *domain.Ticket {
	ticket := &domain.Ticket{
		Title:       "printer on fire",
		Description: "smoke is coming out of the tray",
		Status:      status,
		Priority:    domain.TicketPriorityMedium,
		CreatedByID: creator.ID,
	}
	if assignee != nil {
		ticket.AssigneeID = &assignee.ID
	}
	if status == domain.TicketStatusResolved {
		now := time.Now()
		ticket.ResolvedAt = &now
	}
	_ = f.tickets.Create(context.Background(), ticket)
	return ticket
}

func (f *fixture) ticketByID(id string) domain.Ticket {
	return f.store.state.tickets[id]
}

func (f *fixture) eventsFor(ticketID string) []domain.TicketEvent {
	events, _ := f.events.ListByTicket(context.Background(), ticketID)
	return events
}
