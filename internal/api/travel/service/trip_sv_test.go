package travelService

import (
	"TravelExpense/internal/api/travel"
	"TravelExpense/internal/entity"
	"TravelExpense/pkg/response"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTrip(t *testing.T) {
	f := newFixture(t)

	trip := f.createTrip(t, userB.ID, userA.ID)

	assert.Equal(t, entity.TripPending, trip.Status)
	assert.True(t, trip.TotalAmount.IsZero())
	assert.Equal(t, admin.ID, trip.CreatedByAdminID)
	require.Len(t, trip.AssignedUsers, 2)
	assert.Equal(t, userB.ID, trip.AssignedUsers[0].ID)
	assert.Equal(t, userA.ID, trip.AssignedUsers[1].ID)
}

func TestCreateTrip_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		actor entity.Actor
		req   travel.CreateTripRequest
		want  error
		field string
	}{
		{
			name:  "user cannot create",
			actor: userA,
			req:   travel.CreateTripRequest{City: "Madrid", StartDate: "2025-03-03", EndDate: "2025-03-04", AssignedUserIDs: []string{userA.ID}},
			want:  travel.ErrForbidden,
		},
		{
			name:  "no assignees",
			actor: admin,
			req:   travel.CreateTripRequest{City: "Madrid", StartDate: "2025-03-03", EndDate: "2025-03-04", AssignedUserIDs: []string{" "}},
			field: "assignedUserIds",
		},
		{
			name:  "unknown assignee",
			actor: admin,
			req:   travel.CreateTripRequest{City: "Madrid", StartDate: "2025-03-03", EndDate: "2025-03-04", AssignedUserIDs: []string{"ghost"}},
			field: "assignedUserIds",
		},
		{
			name:  "end before start",
			actor: admin,
			req:   travel.CreateTripRequest{City: "Madrid", StartDate: "2025-03-05", EndDate: "2025-03-04", AssignedUserIDs: []string{userA.ID}},
			field: "endDate",
		},
		{
			name:  "bad date",
			actor: admin,
			req:   travel.CreateTripRequest{City: "Madrid", StartDate: "03/05/2025", EndDate: "2025-03-04", AssignedUserIDs: []string{userA.ID}},
			field: "startDate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.svc.CreateTrip(f.ctx, tt.actor, tt.req)
			require.Error(t, err)

			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}

			var vErr *response.ValidationError
			require.True(t, errors.As(err, &vErr))
			require.Len(t, vErr.Fields, 1)
			assert.Equal(t, tt.field, vErr.Fields[0].Field)
			assert.Empty(t, f.repo.snapshot().trips)
		})
	}
}

func TestGetTrip_AccessScoping(t *testing.T) {
	f := newFixture(t)
	tripA := f.createTrip(t, userA.ID)
	f.createExpense(t, userA, tripA.ID, "12.50")

	got, err := f.svc.GetTrip(f.ctx, userA, tripA.ID)
	require.NoError(t, err)
	assert.Len(t, got.Expenses, 1)
	assert.True(t, decimal.RequireFromString("12.50").Equal(got.TotalAmount))

	_, err = f.svc.GetTrip(f.ctx, userB, tripA.ID)
	assert.ErrorIs(t, err, travel.ErrTripNotFound)

	_, err = f.svc.GetTrip(f.ctx, userB, "missing")
	assert.ErrorIs(t, err, travel.ErrTripNotFound)

	_, err = f.svc.GetTrip(f.ctx, admin, "missing")
	assert.ErrorIs(t, err, travel.ErrTripNotFound)

	_, err = f.svc.GetTrip(f.ctx, admin, tripA.ID)
	assert.NoError(t, err)
}

func TestListTrips_ScopedAndPaged(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.createTrip(t, userA.ID)
	}
	f.createTrip(t, userB.ID)

	trips, page, err := f.svc.ListTrips(f.ctx, userA, travel.ListTripsRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, trips, 2)
	assert.Equal(t, int64(3), page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasMore)
	for _, trip := range trips {
		require.Len(t, trip.AssignedUsers, 1)
		assert.Equal(t, userA.ID, trip.AssignedUsers[0].ID)
	}

	trips, page, err = f.svc.ListTrips(f.ctx, userA, travel.ListTripsRequest{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, trips, 1)
	assert.False(t, page.HasMore)

	trips, page, err = f.svc.ListTrips(f.ctx, admin, travel.ListTripsRequest{})
	require.NoError(t, err)
	assert.Len(t, trips, 4)
	assert.Equal(t, travel.DefaultPage, page.Page)
	assert.Equal(t, travel.DefaultLimit, page.Limit)
}

func TestSetTripStatus_AnyTransition(t *testing.T) {
	f := newFixture(t)
	trip := f.createTrip(t, userA.ID)

	for _, status := range []entity.TripStatus{entity.TripRejected, entity.TripApproved, entity.TripPending} {
		got, err := f.svc.SetTripStatus(f.ctx, admin, trip.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
	}

	_, err := f.svc.SetTripStatus(f.ctx, userA, trip.ID, entity.TripApproved)
	assert.ErrorIs(t, err, travel.ErrForbidden)

	_, err = f.svc.SetTripStatus(f.ctx, admin, trip.ID, entity.TripStatus("CERRADO"))
	var vErr *response.ValidationError
	assert.True(t, errors.As(err, &vErr))

	_, err = f.svc.SetTripStatus(f.ctx, admin, "missing", entity.TripApproved)
	assert.ErrorIs(t, err, travel.ErrTripNotFound)
}

func TestUpdateTrip_ReassignAndOverride(t *testing.T) {
	f := newFixture(t)
	trip := f.createTrip(t, userA.ID)
	f.createExpense(t, userA, trip.ID, "40.00")

	city := "Sevilla"
	users := []string{userB.ID}
	override := decimal.RequireFromString("99.99")

	got, err := f.svc.UpdateTrip(f.ctx, admin, trip.ID, travel.UpdateTripRequest{
		City:            &city,
		AssignedUserIDs: &users,
		TotalAmount:     &override,
	})
	require.NoError(t, err)
	assert.Equal(t, "Sevilla", got.City)
	require.Len(t, got.AssignedUsers, 1)
	assert.Equal(t, userB.ID, got.AssignedUsers[0].ID)
	assert.True(t, override.Equal(f.storedTotal(t, trip.ID)))

	_, err = f.svc.GetTrip(f.ctx, userA, trip.ID)
	assert.ErrorIs(t, err, travel.ErrTripNotFound)

	total, err := f.svc.RecomputeTripTotal(f.ctx, admin, trip.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("40.00").Equal(total))
	f.requireConsistent(t, trip.ID)
}

func TestUpdateTrip_InvalidLeavesTripUntouched(t *testing.T) {
	f := newFixture(t)
	trip := f.createTrip(t, userA.ID)

	city := "Sevilla"
	end := "2025-01-01"
	_, err := f.svc.UpdateTrip(f.ctx, admin, trip.ID, travel.UpdateTripRequest{City: &city, EndDate: &end})
	require.Error(t, err)

	assert.Equal(t, "Madrid", f.repo.snapshot().trips[trip.ID].City)

	_, err = f.svc.UpdateTrip(f.ctx, userA, trip.ID, travel.UpdateTripRequest{City: &city})
	assert.ErrorIs(t, err, travel.ErrForbidden)
}

func TestDeleteTrip_Cascades(t *testing.T) {
	f := newFixture(t)
	trip := f.createTrip(t, userA.ID)
	other := f.createTrip(t, userA.ID)
	f.createExpense(t, userA, trip.ID, "10.00")
	f.createExpense(t, userA, trip.ID, "5.00")
	kept := f.createExpense(t, userA, other.ID, "7.00")

	assert.ErrorIs(t, f.svc.DeleteTrip(f.ctx, userA, trip.ID), travel.ErrForbidden)
	require.NoError(t, f.svc.DeleteTrip(f.ctx, admin, trip.ID))

	state := f.repo.snapshot()
	assert.NotContains(t, state.trips, trip.ID)
	assert.Len(t, state.expenses, 1)
	assert.Contains(t, state.expenses, kept.ID)
	for _, a := range state.assignments {
		assert.NotEqual(t, trip.ID, a.TripID)
	}

	assert.ErrorIs(t, f.svc.DeleteTrip(f.ctx, admin, trip.ID), travel.ErrTripNotFound)
}

func TestTripStats(t *testing.T) {
	f := newFixture(t)
	t1 := f.createTrip(t, userA.ID)
	t2 := f.createTrip(t, userA.ID)
	t3 := f.createTrip(t, userB.ID)
	f.createExpense(t, userA, t1.ID, "10.10")
	f.createExpense(t, userA, t2.ID, "20.20")
	f.createExpense(t, userB, t3.ID, "5.00")
	_, err := f.svc.SetTripStatus(f.ctx, admin, t2.ID, entity.TripApproved)
	require.NoError(t, err)

	stats, err := f.svc.TripStats(f.ctx, userA)
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Equal(t, entity.TripPending, stats[0].Status)
	assert.Equal(t, int64(1), stats[0].Count)
	assert.True(t, decimal.RequireFromString("10.10").Equal(stats[0].TotalAmount))
	assert.Equal(t, entity.TripApproved, stats[1].Status)
	assert.True(t, decimal.RequireFromString("20.20").Equal(stats[1].TotalAmount))
	assert.Equal(t, entity.TripRejected, stats[2].Status)
	assert.Equal(t, int64(0), stats[2].Count)
	assert.True(t, stats[2].TotalAmount.IsZero())

	stats, err = f.svc.TripStats(f.ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats[0].Count)
	assert.True(t, decimal.RequireFromString("15.10").Equal(stats[0].TotalAmount))
}
