package server

import (
	"fmt"

	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Home handles GET /. Anonymous visitors get a static landing payload; no
// feed query runs for them.
func (s *Server) Home(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == 0 {
		return c.JSON(fiber.Map{
			"page":    "landing",
			"message": "What's Happening?",
			"signup":  "/signup",
		})
	}

	messages, err := s.feedService.Timeline(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{
		"page":     "feed",
		"messages": messages,
	})
}

// NewMessageForm handles GET /messages/new
func (s *Server) NewMessageForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"max_length": models.MaxMessageLength})
}

// CreateMessage handles POST /messages/new
func (s *Server) CreateMessage(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := validation.ValidateMessageText(req.Text); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	message := &models.Message{Text: req.Text, UserID: userID}
	if err := s.messageRepo.Create(c.Context(), message); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Redirect(fmt.Sprintf("/users/%d", userID), fiber.StatusSeeOther)
}

// ShowMessage handles GET /messages/:id
func (s *Server) ShowMessage(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "Message")
	if err != nil {
		return nil
	}

	message, err := s.messageRepo.GetByID(c.Context(), id, currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}
	return c.JSON(message)
}

// DeleteMessage handles POST /messages/:id/delete. Owner only.
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	userID := currentUserID(c)

	id, err := parseID(c, "id", "Message")
	if err != nil {
		return nil
	}

	message, err := s.messageRepo.GetByID(c.Context(), id, userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	if message.UserID != userID {
		return s.flashAndRedirect(c, "danger", "Access unauthorized.", "/")
	}

	if err := s.messageRepo.Delete(c.Context(), id); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Redirect(fmt.Sprintf("/users/%d", userID), fiber.StatusSeeOther)
}

// ToggleLike handles POST /messages/:id/like. Liking a message you already
// like removes the like; liking your own message is rejected.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	userID := currentUserID(c)

	id, err := parseID(c, "id", "Message")
	if err != nil {
		return nil
	}

	message, err := s.messageRepo.GetByID(c.Context(), id, userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	if message.UserID == userID {
		return s.flashAndRedirect(c, "danger", "You cannot like your own warble.", "/")
	}

	liked, err := s.likeRepo.Toggle(c.Context(), userID, id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	if liked {
		observability.LikeToggles.WithLabelValues("like").Inc()
	} else {
		observability.LikeToggles.WithLabelValues("unlike").Inc()
	}

	return c.Redirect(fmt.Sprintf("/users/%d", userID), fiber.StatusSeeOther)
}

// APIToggleLike handles POST /api/messages/:id/like and returns the message
// as structured data.
func (s *Server) APIToggleLike(c *fiber.Ctx) error {
	userID := currentUserID(c)

	id, err := parseID(c, "id", "Message")
	if err != nil {
		return nil
	}

	message, err := s.messageRepo.GetByID(c.Context(), id, userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	if message.UserID == userID {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("You cannot like your own warble."))
	}

	liked, err := s.likeRepo.Toggle(c.Context(), userID, id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	if liked {
		observability.LikeToggles.WithLabelValues("like").Inc()
	} else {
		observability.LikeToggles.WithLabelValues("unlike").Inc()
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": message.API(),
	})
}
