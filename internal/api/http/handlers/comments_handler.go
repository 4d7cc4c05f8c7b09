package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rolliedev/ticketflow/internal/api/dto"
	"github.com/rolliedev/ticketflow/internal/auth"
	"github.com/rolliedev/ticketflow/internal/service"
	apperrors "github.com/rolliedev/ticketflow/pkg/util"
)

// CommentsHandler manages ticket discussion endpoints.
type CommentsHandler struct {
	comments *service.CommentService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(comments *service.CommentService) *CommentsHandler {
	return &CommentsHandler{comments: comments}
}

// Add POST /tickets/:id/comments.
func (h *CommentsHandler) Add(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	comment, err := h.comments.AddComment(c.UserContext(), c.Params("id"), actor.ID, req.Text)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FromComment(comment)})
}

// Delete DELETE /tickets/:id/comments/:commentId.
func (h *CommentsHandler) Delete(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.comments.DeleteComment(c.UserContext(), c.Params("id"), c.Params("commentId"), actor.ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// List GET /tickets/:id/comments.
func (h *CommentsHandler) List(c *fiber.Ctx) error {
	comments, err := h.comments.ListComments(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromComments(comments)})
}
