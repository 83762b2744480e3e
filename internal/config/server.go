package config

import (
	"TravelExpense/database/postgres"
	authHandler "TravelExpense/internal/api/auth/handler"
	authRepository "TravelExpense/internal/api/auth/repository"
	authService "TravelExpense/internal/api/auth/service"
	travelHandler "TravelExpense/internal/api/travel/handler"
	travelRepository "TravelExpense/internal/api/travel/repository"
	travelService "TravelExpense/internal/api/travel/service"
	"TravelExpense/internal/middleware"
	"TravelExpense/pkg/bcrypt"
	"TravelExpense/pkg/gemini"
	"TravelExpense/pkg/microsoft"
	"TravelExpense/pkg/openai"
	"TravelExpense/pkg/redis"
	"TravelExpense/pkg/s3"
	"TravelExpense/pkg/utils"
	"context"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"os"
	"strings"
	"time"
)

type ServerOption func(*Server) error

type Server struct {
	engine            *fiber.App
	db                *sqlx.DB
	log               *logrus.Logger
	middleware        middleware.Middleware
	validator         *validator.Validate
	utils             utils.IUtils
	bcryptUtils       bcrypt.IBcrypt
	handlers          []handler
	microsoftProvider microsoft.ItfMicrosoft
	redisServer       redis.IRedis
	s3Client          s3.ItfS3
	visionModel       travelService.VisionModel
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.db == nil {
		return nil, fmt.Errorf("database is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

// WithDatabase connects and applies the schema before any handler runs.
func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		s.db = db
		return nil
	}
}

func WithMicrosoftProvider(provider microsoft.ItfMicrosoft) ServerOption {
	return func(s *Server) error {
		s.microsoftProvider = provider
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

// WithMiddleware needs the logger, and the redis server when logout should
// revoke tokens.
func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log, s.redisServer)
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

// WithReceiptExtractor picks the vision backend from RECEIPT_EXTRACTOR
// (gemini by default). A missing API key only disables OCR.
func WithReceiptExtractor() ServerOption {
	return func(s *Server) error {
		backend := strings.ToLower(os.Getenv("RECEIPT_EXTRACTOR"))

		switch backend {
		case "openai":
			client, err := openai.NewVision()
			if err != nil {
				s.log.Warnf("Receipt extraction disabled, OpenAI client unavailable: %v", err)
				return nil
			}
			s.visionModel = client
		case "", "gemini":
			client, err := gemini.NewGeminiClient()
			if err != nil {
				s.log.Warnf("Receipt extraction disabled, Gemini client unavailable: %v", err)
				return nil
			}
			s.visionModel = client
		default:
			return fmt.Errorf("unknown RECEIPT_EXTRACTOR %q", backend)
		}

		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func WithBcryptUtils() ServerOption {
	return func(s *Server) error {
		s.bcryptUtils = bcrypt.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Auth Domain
	oauthState := os.Getenv("MICROSOFT_STATE")
	if oauthState == "" {
		oauthState = uuid.NewString()
	}
	authRepo := authRepository.New(s.db, s.log)
	authServices := authService.New(s.log, authRepo, s.microsoftProvider, s.redisServer, s.bcryptUtils, s.utils, oauthState)
	authHandlers := authHandler.New(s.log, authServices, s.validator, s.middleware)

	// Travel Domain
	travelRepo := travelRepository.New(s.db, s.log)
	travelServices := travelService.NewTravelService(s.log, travelRepo, s.s3Client, s.visionModel, s.utils)
	travelHandlers := travelHandler.New(s.log, s.validator, s.middleware, travelServices)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, authHandlers, travelHandlers)
}

func (s *Server) Run() error {
	s.engine.Use(recover.New())
	s.engine.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins(),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())

	router := s.engine.Group("/api/v1")
	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

func (s *Server) Shutdown() error {
	if err := s.engine.ShutdownWithTimeout(10 * time.Second); err != nil {
		return err
	}
	if closer, ok := s.visionModel.(interface{ Close() }); ok {
		closer.Close()
	}
	return s.db.Close()
}

func corsOrigins() string {
	if origins := os.Getenv("CORS_ALLOW_ORIGINS"); origins != "" {
		return origins
	}
	return "*"
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
