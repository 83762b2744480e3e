package auth

import (
	"TravelExpense/internal/entity"
	"time"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken      string       `json:"accessToken"`
	ExpiresAt        int64        `json:"expiresAt"`
	ExpiresInMinutes float64      `json:"expiresInMinutes"`
	User             UserResponse `json:"user"`
}

type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      entity.Role `json:"role"`
	CreatedAt *time.Time  `json:"createdAt,omitempty"`
}

type LoginURLResponse struct {
	URL string `json:"url"`
}

func MakeUserResponse(user entity.User) UserResponse {
	res := UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
	if !user.CreatedAt.IsZero() {
		createdAt := user.CreatedAt
		res.CreatedAt = &createdAt
	}
	return res
}

func MakeUserResponses(users []entity.User) []UserResponse {
	res := make([]UserResponse, 0, len(users))
	for _, u := range users {
		res = append(res, MakeUserResponse(u))
	}
	return res
}

func MakeActorResponse(actor entity.Actor) UserResponse {
	return UserResponse{
		ID:    actor.ID,
		Name:  actor.Name,
		Email: actor.Email,
		Role:  actor.Role,
	}
}
