package server

import (
	"fmt"

	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListUsers handles GET /users?q=
func (s *Server) ListUsers(c *fiber.Ctx) error {
	limit, _ := parsePagination(c, 100, 200)
	users, err := s.userRepo.Search(c.Context(), c.Query("q"), limit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(users)
}

// ShowUser handles GET /users/:id
func (s *Server) ShowUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "User")
	if err != nil {
		return nil
	}

	user, err := s.userRepo.GetByIDWithMessages(c.Context(), id, 100)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}
	return c.JSON(user)
}

// Following handles GET /users/:id/following
func (s *Server) Following(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "User")
	if err != nil {
		return nil
	}
	if _, err := s.userRepo.GetByID(c.Context(), id); err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	users, err := s.followRepo.Following(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(users)
}

// Followers handles GET /users/:id/followers
func (s *Server) Followers(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "User")
	if err != nil {
		return nil
	}
	if _, err := s.userRepo.GetByID(c.Context(), id); err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	users, err := s.followRepo.Followers(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(users)
}

// LikedMessages handles GET /users/:id/likes
func (s *Server) LikedMessages(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "User")
	if err != nil {
		return nil
	}
	if _, err := s.userRepo.GetByID(c.Context(), id); err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	messages, err := s.messageRepo.LikedMessages(c.Context(), id, currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(messages)
}

// Follow handles POST /users/follow/:id
func (s *Server) Follow(c *fiber.Ctx) error {
	userID := currentUserID(c)

	targetID, err := parseID(c, "id", "User")
	if err != nil {
		return nil
	}

	if targetID == userID {
		return s.flashAndRedirect(c, "danger", "You cannot follow yourself.",
			fmt.Sprintf("/users/%d", userID))
	}

	if _, err := s.userRepo.GetByID(c.Context(), targetID); err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	if err := s.followRepo.Follow(c.Context(), userID, targetID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	observability.FollowEvents.WithLabelValues("follow").Inc()
	return c.Redirect(fmt.Sprintf("/users/%d/following", userID), fiber.StatusSeeOther)
}

// Unfollow handles POST /users/stop-following/:id. Removing an absent edge
// is a no-op.
func (s *Server) Unfollow(c *fiber.Ctx) error {
	userID := currentUserID(c)

	targetID, err := parseID(c, "id", "User")
	if err != nil {
		return nil
	}

	if err := s.followRepo.Unfollow(c.Context(), userID, targetID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	observability.FollowEvents.WithLabelValues("unfollow").Inc()
	return c.Redirect(fmt.Sprintf("/users/%d/following", userID), fiber.StatusSeeOther)
}

// GetProfile handles GET /users/profile
func (s *Server) GetProfile(c *fiber.Ctx) error {
	user, err := s.userRepo.GetByID(c.Context(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}
	return c.JSON(user)
}

// UpdateProfile handles POST /users/profile. The edit must be re-authorized
// with the current password; a mismatch changes nothing.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		Username       string `json:"username"`
		Email          string `json:"email"`
		ImageURL       string `json:"image_url"`
		HeaderImageURL string `json:"header_image_url"`
		Bio            string `json:"bio"`
		Location       string `json:"location"`
		Password       string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	_, err := s.userService.UpdateProfile(c.Context(), userID, service.ProfileUpdate{
		Username:       req.Username,
		Email:          req.Email,
		ImageURL:       req.ImageURL,
		HeaderImageURL: req.HeaderImageURL,
		Bio:            req.Bio,
		Location:       req.Location,
		Password:       req.Password,
	})
	if err != nil {
		if appErr, ok := err.(*models.AppError); ok {
			switch appErr.Code {
			case "UNAUTHORIZED":
				return s.flashAndRedirect(c, "danger", appErr.Message, "/users/profile")
			case "VALIDATION_ERROR":
				return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
			case "CONFLICT":
				return models.RespondWithError(c, fiber.StatusConflict, appErr)
			}
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Redirect(fmt.Sprintf("/users/%d", userID), fiber.StatusSeeOther)
}

// DeleteAccount handles POST /users/delete. Clears the session before the
// cascade delete, then sends the browser to the signup page.
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	userID := currentUserID(c)

	if token, ok := c.Locals("sessionToken").(string); ok {
		s.sessions.Destroy(c.Context(), token)
	}
	s.clearSessionCookie(c)

	if err := s.userService.DeleteAccount(c.Context(), userID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Redirect("/signup", fiber.StatusSeeOther)
}
