package jwtPkg

import (
	"TravelExpense/internal/entity"
	"errors"
	"fmt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"os"
	"strings"
	"time"
)

const ActorKey = "actor"

// Sign issues an HS256 access token. Every token gets its own jti so it can
// be revoked individually.
func Sign(Data map[string]interface{}, ExpiredAt time.Duration) (string, int64, error) {
	expiredAt := time.Now().Add(ExpiredAt).Unix()

	JWTSecretKey := os.Getenv("JWT_ACCESS_TOKEN_SECRET")
	if JWTSecretKey == "" {
		return "", 0, fmt.Errorf("JWT_ACCESS_TOKEN_SECRET not set")
	}

	claims := jwt.MapClaims{}
	claims["exp"] = expiredAt
	claims["iat"] = time.Now().Unix()
	claims["jti"] = uuid.NewString()

	for i, v := range Data {
		claims[i] = v
	}

	logrus.WithField("sub", claims["id"]).Debug("Creating token")

	to := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := to.SignedString([]byte(JWTSecretKey))
	if err != nil {
		logrus.WithError(err).Error("Failed to sign token")
		return "", 0, err
	}

	return accessToken, expiredAt, nil
}

func VerifyTokenHeader(c *fiber.Ctx, secretEnvKey string) (*jwt.Token, error) {
	log := logrus.WithField("func", "VerifyTokenHeader")

	header := c.Get("Authorization")
	if header == "" {
		log.Warn("Empty Authorization header")
		return nil, errors.New("empty Authorization header")
	}

	parts := strings.Split(header, "Bearer ")
	if len(parts) != 2 {
		log.WithField("header_parts", len(parts)).Warn("Invalid Authorization format")
		return nil, errors.New("invalid Authorization format")
	}

	accessToken := strings.TrimSpace(parts[1])
	if accessToken == "" {
		log.Warn("Empty token after Bearer")
		return nil, errors.New("empty token")
	}

	return Parse(accessToken, os.Getenv(secretEnvKey))
}

func Parse(accessToken string, secret string) (*jwt.Token, error) {
	if secret == "" {
		return nil, errors.New("JWT secret not configured")
	}

	token, err := jwt.Parse(accessToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	return token, nil
}

// ActorFromClaims maps verified claims onto an actor. Tokens without an id,
// email or a known role are rejected.
func ActorFromClaims(claims jwt.MapClaims) (entity.Actor, error) {
	id, _ := claims["id"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)
	jti, _ := claims["jti"].(string)

	if id == "" || email == "" || !entity.Role(role).Valid() {
		return entity.Actor{}, errors.New("token claims are missing required fields")
	}

	actor := entity.Actor{
		ID:      id,
		Name:    name,
		Email:   email,
		Role:    entity.Role(role),
		TokenID: jti,
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		actor.Expires = exp.Time
	}

	return actor, nil
}

func GetActor(c *fiber.Ctx) (entity.Actor, error) {
	actor, ok := c.Locals(ActorKey).(entity.Actor)
	if !ok {
		return entity.Actor{}, fiber.ErrUnauthorized
	}

	return actor, nil
}
