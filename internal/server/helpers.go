package server

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"warbler/internal/models"
	"warbler/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// errResponseWritten signals that the helper already wrote the HTTP response
// and the handler should return nil.
var errResponseWritten = errors.New("response written")

// parseID extracts a positive integer path parameter. A malformed or
// non-positive id responds 404 and returns errResponseWritten.
func parseID(c *fiber.Ctx, param, resource string) (uint, error) {
	raw := c.Params(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError(resource, raw))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parsePagination reads limit/offset query parameters with sane bounds.
func parsePagination(c *fiber.Ctx, defaultLimit, maxLimit int) (limit, offset int) {
	limit = c.QueryInt("limit", defaultLimit)
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}
	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// currentUserID returns the resolved identity, or 0 for anonymous.
func currentUserID(c *fiber.Ctx) uint {
	if uid, ok := c.Locals("userID").(uint); ok {
		return uid
	}
	return 0
}

// setSessionCookie writes the session token cookie.
func (s *Server) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		HTTPOnly: true,
		SameSite: "Lax",
		Secure:   s.config.Env == "production" || s.config.Env == "prod",
		Expires:  time.Now().Add(time.Duration(s.config.SessionTTLMinutes) * time.Minute),
	})
}

// clearSessionCookie expires the session token cookie.
func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		HTTPOnly: true,
		SameSite: "Lax",
		Expires:  time.Now().Add(-time.Hour),
	})
}

// flashAndRedirect queues a flash on the caller's session and redirects with
// 303 See Other. Visitors without a live session get a guest session so the
// flash survives to the next page load.
func (s *Server) flashAndRedirect(c *fiber.Ctx, category, message, location string) error {
	token, _ := c.Locals("sessionToken").(string)

	if _, ok := s.sessions.Resolve(c.Context(), token); !ok {
		var err error
		token, err = s.sessions.Create(c.Context(), session.GuestUserID)
		if err != nil {
			// Flash delivery is best effort.
			return c.Redirect(location, fiber.StatusSeeOther)
		}
		s.setSessionCookie(c, token)
	}

	if err := s.sessions.AddFlash(c.Context(), token, category, message); err == nil {
		c.Locals("sessionToken", token)
	}
	return c.Redirect(location, fiber.StatusSeeOther)
}

// bearerUserID validates an Authorization bearer token and returns the user
// ID it carries.
func (s *Server) bearerUserID(c *fiber.Ctx) (uint, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}

	if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != "warbler-api" {
		return 0, false
	}
	if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != "warbler-client" {
		return 0, false
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, false
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(userID), true
}
