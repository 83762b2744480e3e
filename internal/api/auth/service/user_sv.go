package authService

import (
	"TravelExpense/internal/access"
	"TravelExpense/internal/api/auth"
	"TravelExpense/internal/entity"
	contextPkg "TravelExpense/pkg/context"
	"errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"strings"
	"time"
)

func (s *userDomainImpl) RegisterUser(ctx context.Context, req auth.RegisterRequest) (entity.User, error) {
	return s.createUser(ctx, req.Name, req.Email, req.Password, entity.RoleUser)
}

func (s *userDomainImpl) CreateAdmin(ctx context.Context, name string, email string, password string) (entity.User, error) {
	return s.createUser(ctx, name, email, password, entity.RoleAdmin)
}

func (s *userDomainImpl) createUser(ctx context.Context, name string, email string, password string, role entity.Role) (entity.User, error) {
	requestID := contextPkg.GetRequestID(ctx)
	repo, err := s.repo.NewClient(ctx, false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return entity.User{}, err
	}

	hashedPassword, err := s.bcryptUtils.HashPassword(password)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to hash password")
		return entity.User{}, err
	}

	now := time.Now().UTC()
	ULID, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate ULID")
		return entity.User{}, err
	}

	user := entity.User{
		ID:        ULID,
		Name:      strings.TrimSpace(name),
		Email:     normalizeEmail(email),
		Password:  hashedPassword,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := repo.Users.CreateUser(ctx, user); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create user")
		return entity.User{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    user.ID,
		"role":       user.Role,
	}).Info("User registered")

	return user, nil
}

func (s *userDomainImpl) GetByID(ctx context.Context, id string) (entity.User, error) {
	requestID := contextPkg.GetRequestID(ctx)
	repo, err := s.repo.NewClient(ctx, false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return entity.User{}, err
	}

	user, err := repo.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"user_id":    id,
			}).Warn("User not found")
		}
		return entity.User{}, err
	}

	return user, nil
}

func (s *userDomainImpl) ListUsers(ctx context.Context, actor entity.Actor) ([]entity.User, error) {
	requestID := contextPkg.GetRequestID(ctx)
	if err := access.RequireAdmin(actor); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"actor_id":   actor.ID,
		}).Warn("Non-admin tried to list users")
		return nil, err
	}

	repo, err := s.repo.NewClient(ctx, false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, err
	}

	users, err := repo.Users.ListUsers(ctx)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to list users")
		return nil, err
	}

	return users, nil
}
