package middleware

import (
	"TravelExpense/internal/entity"
	jwtPkg "TravelExpense/pkg/jwt"
	"TravelExpense/pkg/redis"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"strings"
)

const (
	AccessTokenSecret = "JWT_ACCESS_TOKEN_SECRET"
)

type tokenMiddleware struct {
	revocations redis.IRedis
}

func newTokenMiddleware(revocations redis.IRedis) *tokenMiddleware {
	return &tokenMiddleware{revocations: revocations}
}

func unauthenticated(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Unauthorized, access token invalid or expired",
		"code":  "UNAUTHENTICATED",
	})
}

func (m *middleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	requestID := m.GetRequestID(ctx)
	authHeader := ctx.Get("Authorization")

	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		m.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"client_ip":  ctx.IP(),
		}).Warn("Authorization header missing or malformed")
		return unauthenticated(ctx)
	}

	userToken, err := jwtPkg.VerifyTokenHeader(ctx, AccessTokenSecret)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Token verification failed")
		return unauthenticated(ctx)
	}

	claims, ok := userToken.Claims.(jwt.MapClaims)
	if !ok {
		m.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      "Invalid token claims",
		}).Warn("Token claims check")
		return unauthenticated(ctx)
	}

	actor, err := jwtPkg.ActorFromClaims(claims)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Token claims check")
		return unauthenticated(ctx)
	}

	if m.token.revocations != nil {
		revoked, err := m.token.revocations.IsTokenRevoked(ctx.UserContext(), actor.TokenID)
		if err != nil {
			m.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error("Failed to check token revocation")
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Session store unavailable",
			})
		}
		if revoked {
			m.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"user_id":    actor.ID,
			}).Warn("Revoked token presented")
			return unauthenticated(ctx)
		}
	}

	ctx.Locals(jwtPkg.ActorKey, actor)

	m.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    actor.ID,
		"role":       actor.Role,
	}).Debug("Authentication successful")
	return ctx.Next()
}

// NewAdminMiddleware must run after NewTokenMiddleware.
func (m *middleware) NewAdminMiddleware(ctx *fiber.Ctx) error {
	actor, err := jwtPkg.GetActor(ctx)
	if err != nil {
		return unauthenticated(ctx)
	}

	if actor.Role != entity.RoleAdmin {
		m.log.WithFields(logrus.Fields{
			"request_id": m.GetRequestID(ctx),
			"user_id":    actor.ID,
			"path":       ctx.Path(),
		}).Warn("Non-admin attempted admin route")
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "forbidden",
			"code":  "FORBIDDEN",
		})
	}

	return ctx.Next()
}
