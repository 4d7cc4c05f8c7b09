package domain

import (
	apperrors "github.com/rolliedev/ticketflow/pkg/util"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew             TicketStatus = "NEW"
	TicketStatusInProgress      TicketStatus = "IN_PROGRESS"
	TicketStatusWaitingCustomer TicketStatus = "WAITING_CUSTOMER"
	TicketStatusResolved        TicketStatus = "RESOLVED"
	TicketStatusClosed          TicketStatus = "CLOSED"
)

// allowedTransitions is the single source of truth for status legality.
// CLOSED is terminal.
var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusNew:             {TicketStatusInProgress},
	TicketStatusInProgress:      {TicketStatusWaitingCustomer, TicketStatusResolved},
	TicketStatusWaitingCustomer: {TicketStatusInProgress, TicketStatusResolved},
	TicketStatusResolved:        {TicketStatusInProgress, TicketStatusClosed},
	TicketStatusClosed:          {},
}

// CanTransitionTo reports whether the status graph allows moving to target.
// An empty target is always invalid.
func (s TicketStatus) CanTransitionTo(target TicketStatus) bool {
	if target == "" {
		return false
	}
	for _, candidate := range allowedTransitions[s] {
		if candidate == target {
			return true
		}
	}
	return false
}

// AssertTransitionTo returns an InvalidTransition error when the move is not allowed.
func (s TicketStatus) AssertTransitionTo(target TicketStatus) error {
	if !s.CanTransitionTo(target) {
		return apperrors.NewInvalidTransition(string(s), string(target))
	}
	return nil
}

// AllowedTransitions returns the legal targets from this status.
func (s TicketStatus) AllowedTransitions() []TicketStatus {
	targets := allowedTransitions[s]
	out := make([]TicketStatus, len(targets))
	copy(out, targets)
	return out
}

// Valid reports whether the value is a known status.
func (s TicketStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}
