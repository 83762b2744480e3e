package auth

import (
	"TravelExpense/pkg/response"
	"net/http"
)

var (
	ErrEmailAlreadyExists     = response.NewError(http.StatusConflict, "email already exists")
	ErrInvalidEmailOrPassword = response.NewError(http.StatusUnauthorized, "email or password is wrong")
	ErrUserNotFound           = response.NewError(http.StatusNotFound, "user not found")
	ErrAccountNotRegistered   = response.NewError(http.StatusForbidden, "no account is registered for this Microsoft user")
	ErrInvalidOAuthState      = response.NewError(http.StatusBadRequest, "invalid oauth state")
	ErrMissingOAuthCode       = response.NewError(http.StatusBadRequest, "no authorization code provided")
	ErrOAuthExchange          = response.NewError(http.StatusBadGateway, "could not complete Microsoft sign-in")
	ErrSSONotConfigured       = response.NewError(http.StatusServiceUnavailable, "Microsoft sign-in is not configured")
	ErrSessionStore           = response.NewError(http.StatusServiceUnavailable, "session store unavailable")
)
