package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/auth"
	"github.com/orangecat-platform/backend/internal/config"
)

const (
	CtxProfileID = "profile_id"
	CtxUsername  = "username"
)

func AuthMiddleware(cfg *config.Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization format"})
		}

		claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals(CtxProfileID, claims.ProfileID)
		c.Locals(CtxUsername, claims.Username)

		return c.Next()
	}
}

// OptionalAuthMiddleware populates the profile id when a valid token is
// present but lets anonymous requests through. Used on public read routes
// whose responses widen for authenticated viewers.
func OptionalAuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Next()
		}
		if claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr); err == nil {
			c.Locals(CtxProfileID, claims.ProfileID)
			c.Locals(CtxUsername, claims.Username)
		}
		return c.Next()
	}
}

func GetProfileID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(CtxProfileID).(uuid.UUID)
	return id
}

// ViewerID returns the authenticated profile id or nil for anonymous
// requests, matching the policy layer's requester shape.
func ViewerID(c *fiber.Ctx) *uuid.UUID {
	if id, ok := c.Locals(CtxProfileID).(uuid.UUID); ok {
		return &id
	}
	return nil
}
