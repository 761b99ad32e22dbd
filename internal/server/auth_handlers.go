package server

import (
	"fmt"
	"strconv"
	"time"

	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/service"
	"warbler/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Signup handles POST /signup
func (s *Server) Signup(c *fiber.Ctx) error {
	if s.flags.Enabled("disable_signups") {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewValidationError("Signups are temporarily disabled"))
	}

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		ImageURL string `json:"image_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Signup(c.Context(), service.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		if appErr, ok := err.(*models.AppError); ok {
			switch appErr.Code {
			case "VALIDATION_ERROR":
				return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
			case "CONFLICT":
				return models.RespondWithError(c, fiber.StatusConflict, appErr)
			}
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	// Fresh account, fresh session.
	if old, ok := c.Locals("sessionToken").(string); ok {
		s.sessions.Destroy(c.Context(), old)
	}
	token, err := s.sessions.Create(c.Context(), user.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	s.setSessionCookie(c, token)

	apiToken, err := s.generateToken(user.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	observability.SignupsTotal.Inc()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": apiToken,
		"user":  user,
	})
}

// Login handles POST /login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Authenticate(c.Context(), req.Username, req.Password)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if user == nil {
		observability.LoginAttempts.WithLabelValues("failure").Inc()
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials."))
	}

	if old, ok := c.Locals("sessionToken").(string); ok {
		s.sessions.Destroy(c.Context(), old)
	}
	token, err := s.sessions.Create(c.Context(), user.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	s.setSessionCookie(c, token)
	s.sessions.AddFlash(c.Context(), token, "success", fmt.Sprintf("Hello, %s!", user.Username))

	apiToken, err := s.generateToken(user.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	observability.LoginAttempts.WithLabelValues("success").Inc()

	return c.JSON(fiber.Map{
		"token": apiToken,
		"user":  user,
	})
}

// Logout handles POST /logout
func (s *Server) Logout(c *fiber.Ctx) error {
	if token, ok := c.Locals("sessionToken").(string); ok {
		s.sessions.Destroy(c.Context(), token)
	}
	s.clearSessionCookie(c)
	c.Locals("sessionToken", nil)
	c.Locals("userID", nil)

	return s.flashAndRedirect(c, "success", "You have successfully logged out.", "/")
}

// GetFlashes handles GET /flashes: drains and returns queued flash messages
// for the current session. Works for guest sessions too.
func (s *Server) GetFlashes(c *fiber.Ctx) error {
	token, _ := c.Locals("sessionToken").(string)
	flashes := s.sessions.PopFlashes(c.Context(), token)
	if flashes == nil {
		flashes = []session.Flash{}
	}
	return c.JSON(fiber.Map{"flashes": flashes})
}

// generateToken creates a JWT token for the given user ID
func (s *Server) generateToken(userID uint) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": "warbler-api",
		"aud": "warbler-client",
		"exp": now.Add(time.Hour * 24 * 7).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8]),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}
