package service

import (
	"github.com/rolliedev/ticketflow/internal/domain"
	apperrors "github.com/rolliedev/ticketflow/pkg/util"
)

// requireStaff allows only agents and admins to perform the given action.
func requireStaff(actor *domain.User, action string) error {
	if !actor.Role.IsStaff() {
		return apperrors.NewForbidden("only agents or admins can " + action)
	}
	return nil
}

// requireCustomer allows only customers to perform the given action.
func requireCustomer(actor *domain.User, action string) error {
	if actor.Role != domain.RoleCustomer {
		return apperrors.NewForbidden("only customers can " + action)
	}
	return nil
}

// requireTicketCreator allows only the ticket's creator to perform the action.
func requireTicketCreator(actor *domain.User, ticket *domain.Ticket, action string) error {
	if ticket.CreatedByID != actor.ID {
		return apperrors.NewForbidden("only the ticket creator can " + action)
	}
	return nil
}
