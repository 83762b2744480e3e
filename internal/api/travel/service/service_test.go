package travelService

import (
	"TravelExpense/internal/api/travel"
	"TravelExpense/internal/entity"
	"TravelExpense/pkg/utils"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

var (
	admin = entity.Actor{ID: "admin-1", Name: "Ana Admin", Email: "admin@example.com", Role: entity.RoleAdmin}
	userA = entity.Actor{ID: "user-a", Name: "Alicia", Email: "user-a@example.com", Role: entity.RoleUser}
	userB = entity.Actor{ID: "user-b", Name: "Bruno", Email: "user-b@example.com", Role: entity.RoleUser}
)

type fixture struct {
	svc  *travelService
	repo *memRepository
	ctx  context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := newMemRepository()
	repo.addUser(userA.ID, userA.Name)
	repo.addUser(userB.ID, userB.Name)

	svc := NewTravelService(logger, repo, nil, nil, utils.New()).(*travelService)

	return &fixture{svc: svc, repo: repo, ctx: context.Background()}
}

func (f *fixture) createTrip(t *testing.T, assigned ...string) entity.Trip {
	t.Helper()
	project := "Kickoff"
	trip, err := f.svc.CreateTrip(f.ctx, admin, travel.CreateTripRequest{
		City:            "Madrid",
		StartDate:       "2025-03-03",
		EndDate:         "2025-03-07",
		Project:         &project,
		AssignedUserIDs: assigned,
	})
	require.NoError(t, err)
	return trip
}

func (f *fixture) createExpense(t *testing.T, actor entity.Actor, tripID string, amount string) entity.Expense {
	t.Helper()
	expense, err := f.svc.CreateExpense(f.ctx, actor, tripID, travel.CreateExpenseRequest{
		Date:   "2025-03-04",
		Amount: decimal.RequireFromString(amount),
	})
	require.NoError(t, err)
	return expense
}

// storedTotal reads the committed total straight from the fake.
func (f *fixture) storedTotal(t *testing.T, tripID string) decimal.Decimal {
	t.Helper()
	trip, ok := f.repo.snapshot().trips[tripID]
	require.True(t, ok, "trip %s not stored", tripID)
	return trip.TotalAmount
}

// expenseSum is the total every trip must agree with.
func (f *fixture) expenseSum(tripID string) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range f.repo.snapshot().expenses {
		if e.TripID == tripID {
			sum = sum.Add(e.Amount)
		}
	}
	return sum
}

func (f *fixture) requireConsistent(t *testing.T, tripID string) {
	t.Helper()
	require.True(t, f.expenseSum(tripID).Equal(f.storedTotal(t, tripID)),
		"total %s does not match expense sum %s", f.storedTotal(t, tripID), f.expenseSum(tripID))
}
