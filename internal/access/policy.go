// Package access decides which trips and expenses an actor may see or change.
// Handlers and services ask here instead of checking roles themselves.
package access

import (
	"TravelExpense/internal/entity"
	"TravelExpense/pkg/response"
	"context"
	"net/http"
)

var (
	ErrUnauthenticated = response.NewError(http.StatusUnauthorized, "authentication required")
	ErrForbidden       = response.NewError(http.StatusForbidden, "forbidden")
)

// Assignments answers whether a user is assigned to a trip.
type Assignments interface {
	IsAssigned(ctx context.Context, tripID string, userID string) (bool, error)
}

func CanAccessTrip(ctx context.Context, assignments Assignments, actor entity.Actor, tripID string) (bool, error) {
	if actor.ID == "" {
		return false, ErrUnauthenticated
	}
	if actor.IsAdmin() {
		return true, nil
	}
	if actor.Role != entity.RoleUser || tripID == "" {
		return false, nil
	}

	return assignments.IsAssigned(ctx, tripID, actor.ID)
}

// CanMutateTrip reports whether the actor may change the trip's expenses.
// Trip fields themselves are admin-only, see RequireAdmin.
func CanMutateTrip(ctx context.Context, assignments Assignments, actor entity.Actor, tripID string) (bool, error) {
	return CanAccessTrip(ctx, assignments, actor, tripID)
}

// CanAccessExpense also requires the expense to belong to the trip named in
// the request path.
func CanAccessExpense(ctx context.Context, assignments Assignments, actor entity.Actor, tripID string, expense entity.Expense) (bool, error) {
	if expense.TripID != tripID {
		return false, nil
	}

	return CanAccessTrip(ctx, assignments, actor, tripID)
}

func RequireAdmin(actor entity.Actor) error {
	if actor.ID == "" {
		return ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
