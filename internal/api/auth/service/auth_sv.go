package authService

import (
	"TravelExpense/internal/api/auth"
	"TravelExpense/internal/entity"
	contextPkg "TravelExpense/pkg/context"
	jwtPkg "TravelExpense/pkg/jwt"
	"errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"time"
)

const AccessTokenTTL = 24 * time.Hour

func (s *authDomainImpl) Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)
	repo, err := s.repo.NewClient(ctx, false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return auth.LoginResponse{}, err
	}

	user, err := repo.Users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Failed to get user by email")
			return auth.LoginResponse{}, auth.ErrInvalidEmailOrPassword
		}

		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to get user by email")
		return auth.LoginResponse{}, err
	}

	// SSO-only accounts have no password.
	if user.Password == "" {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    user.ID,
		}).Warn("Password login attempted on SSO-only account")
		return auth.LoginResponse{}, auth.ErrInvalidEmailOrPassword
	}

	if err := s.bcryptUtils.ComparePassword(user.Password, req.Password); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Password comparison failed")
		return auth.LoginResponse{}, auth.ErrInvalidEmailOrPassword
	}

	return s.issueToken(requestID, user)
}

func (s *authDomainImpl) issueToken(requestID string, user entity.User) (auth.LoginResponse, error) {
	token, expired, err := jwtPkg.Sign(MakeUserData(user), AccessTokenTTL)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to sign token")
		return auth.LoginResponse{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    user.ID,
	}).Info("Token created")

	return auth.LoginResponse{
		AccessToken:      token,
		ExpiresAt:        expired,
		ExpiresInMinutes: time.Until(time.Unix(expired, 0)).Minutes(),
		User:             auth.MakeUserResponse(user),
	}, nil
}

// Logout revokes the caller's token for the rest of its lifetime.
func (s *authDomainImpl) Logout(ctx context.Context, actor entity.Actor) error {
	requestID := contextPkg.GetRequestID(ctx)
	if s.redisServer == nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
		}).Error("Logout requested without a session store")
		return auth.ErrSessionStore
	}

	if err := s.redisServer.RevokeToken(ctx, actor.TokenID, time.Until(actor.Expires)); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to revoke token")
		return auth.ErrSessionStore
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    actor.ID,
	}).Info("User logged out")

	return nil
}

func (s *authDomainImpl) MicrosoftLoginURL() (string, error) {
	if s.microsoftProvider == nil {
		return "", auth.ErrSSONotConfigured
	}
	return s.microsoftProvider.AuthCodeURL(s.oauthState), nil
}

// LoginMicrosoft finishes the SSO round trip. Only users that already exist
// can sign in; the callback never creates accounts.
func (s *authDomainImpl) LoginMicrosoft(ctx context.Context, state string, code string) (auth.LoginResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)
	if s.microsoftProvider == nil {
		return auth.LoginResponse{}, auth.ErrSSONotConfigured
	}

	if state == "" || state != s.oauthState {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
		}).Warn("OAuth state mismatch")
		return auth.LoginResponse{}, auth.ErrInvalidOAuthState
	}

	if code == "" {
		return auth.LoginResponse{}, auth.ErrMissingOAuthCode
	}

	profile, err := s.microsoftProvider.GetUserProfile(ctx, code)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to exchange Microsoft code")
		return auth.LoginResponse{}, auth.ErrOAuthExchange
	}

	repo, err := s.repo.NewClient(ctx, false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return auth.LoginResponse{}, err
	}

	user, err := repo.Users.GetByEmail(ctx, profile.Email())
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"email":      profile.Email(),
			}).Warn("Microsoft account has no registered user")
			return auth.LoginResponse{}, auth.ErrAccountNotRegistered
		}

		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to get user by email")
		return auth.LoginResponse{}, err
	}

	return s.issueToken(requestID, user)
}
