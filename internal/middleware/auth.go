// Package middleware provides the Fiber middleware used by the HTTP server.
package middleware

import (
	"context"
	"strings"

	"chronicle/internal/models"
	"chronicle/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// authorIDLocal is the Fiber locals key holding the authenticated author uuid.
const authorIDLocal = "authorID"

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
		Error: msg,
		Code:  models.CodeUnauthorized,
	})
}

// AuthRequired verifies an HS256 bearer token issued for an administrator and
// exposes its subject as the author id. Token issuance lives elsewhere.
func AuthRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "Authorization header required")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return unauthorized(c, "Invalid authorization header format")
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return unauthorized(c, "Invalid or expired token")
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			return unauthorized(c, "Invalid token structure - missing subject")
		}

		authorID, err := uuid.Parse(sub)
		if err != nil || authorID == uuid.Nil {
			return unauthorized(c, "Invalid author ID in token")
		}

		c.Locals(authorIDLocal, authorID)
		c.SetUserContext(context.WithValue(c.UserContext(), observability.AuthorIDKey, authorID.String()))
		return c.Next()
	}
}

// AuthorID returns the author set by AuthRequired.
func AuthorID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(authorIDLocal).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
