// Command seed creates the first ADMIN account. Registration over HTTP only
// ever creates USER accounts, so every deployment runs this once.
package main

import (
	"TravelExpense/database/postgres"
	"TravelExpense/internal/api/auth"
	authRepository "TravelExpense/internal/api/auth/repository"
	authService "TravelExpense/internal/api/auth/service"
	"TravelExpense/pkg/bcrypt"
	"TravelExpense/pkg/log"
	"TravelExpense/pkg/utils"
	"context"
	"errors"
	"github.com/joho/godotenv"
	"os"
	"time"
)

func main() {
	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		logger.Warnf("No .env file loaded, using process environment: %v", err)
	}

	email := os.Getenv("SEED_ADMIN_EMAIL")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	name := os.Getenv("SEED_ADMIN_NAME")
	if name == "" {
		name = "Administrator"
	}
	if email == "" || len(password) < 8 {
		logger.Fatal("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD (8+ characters) are required")
	}

	db, err := postgres.New()
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	users := authService.New(logger, authRepository.New(db, logger), nil, nil, bcrypt.New(), utils.New(), "").User()

	admin, err := users.CreateAdmin(ctx, name, email, password)
	if errors.Is(err, auth.ErrEmailAlreadyExists) {
		logger.WithField("email", email).Info("Admin already exists, nothing to do")
		return
	}
	if err != nil {
		logger.Fatalf("Failed to create admin: %v", err)
	}

	logger.WithField("user_id", admin.ID).Info("Admin created")
}
