package authHandler

import (
	authService "TravelExpense/internal/api/auth/service"
	"TravelExpense/internal/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	log         *logrus.Logger
	authService authService.AuthService
	validator   *validator.Validate
	middleware  middleware.Middleware
}

func New(
	log *logrus.Logger,
	as authService.AuthService,
	validate *validator.Validate,
	middleware middleware.Middleware,
) *AuthHandler {
	return &AuthHandler{
		log:         log,
		authService: as,
		validator:   validate,
		middleware:  middleware,
	}
}

func (h *AuthHandler) Start(srv fiber.Router) {
	auth := srv.Group("/auth")
	auth.Post("/login", h.middleware.NewRateLimiter, h.HandleLogin)
	auth.Post("/register", h.middleware.NewRateLimiter, h.HandleRegister)
	auth.Post("/logout", h.middleware.NewTokenMiddleware, h.HandleLogout)
	auth.Get("/me", h.middleware.NewTokenMiddleware, h.HandleMe)
	auth.Get("/login-ms", h.HandleMicrosoftLogin)
	auth.Get("/callback-ms", h.CallBackFromMicrosoft)

	users := srv.Group("/users")
	users.Get("/", h.middleware.NewTokenMiddleware, h.middleware.NewAdminMiddleware, h.HandleListUsers)
}
