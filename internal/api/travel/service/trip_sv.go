package travelService

import (
	"TravelExpense/internal/access"
	"TravelExpense/internal/api/travel"
	travelRepository "TravelExpense/internal/api/travel/repository"
	"TravelExpense/internal/entity"
	contextPkg "TravelExpense/pkg/context"
	"fmt"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"strings"
	"time"
)

func (s *travelService) CreateTrip(ctx context.Context, actor entity.Actor, req travel.CreateTripRequest) (entity.Trip, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if err := access.RequireAdmin(actor); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    actor.ID,
		}).Warn("Non-admin attempted to create trip")
		return entity.Trip{}, err
	}

	startDate, endDate, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return entity.Trip{}, err
	}

	userIDs := uniqueIDs(req.AssignedUserIDs)
	if len(userIDs) == 0 {
		return entity.Trip{}, travel.ErrInvalidField("assignedUserIds", "min", "at least one user must be assigned")
	}

	repo, err := s.travelRepository.NewClient(ctx, true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return entity.Trip{}, err
	}
	defer repo.Rollback()

	if err := s.ensureUsersExist(ctx, repo, userIDs); err != nil {
		return entity.Trip{}, err
	}

	tripID, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate ULID")
		return entity.Trip{}, err
	}

	now := time.Now().UTC()
	trip := entity.Trip{
		ID:               tripID,
		CreatedByAdminID: actor.ID,
		City:             strings.TrimSpace(req.City),
		StartDate:        startDate,
		EndDate:          endDate,
		Project:          derefTrim(req.Project),
		Notes:            derefTrim(req.Notes),
		Status:           entity.TripPending,
		TotalAmount:      decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := repo.Trips.CreateTrip(ctx, trip); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create trip")
		return entity.Trip{}, err
	}

	if err := s.assignUsers(ctx, repo, trip.ID, userIDs); err != nil {
		return entity.Trip{}, err
	}

	assigned, err := repo.Assignments.GetAssignedUsers(ctx, []string{trip.ID})
	if err != nil {
		return entity.Trip{}, err
	}
	trip.AssignedUsers = assigned[trip.ID]

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit trip creation")
		return entity.Trip{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"trip_id":    trip.ID,
		"assignees":  len(userIDs),
	}).Info("Trip created")

	return trip, nil
}

func (s *travelService) GetTrip(ctx context.Context, actor entity.Actor, tripID string) (entity.Trip, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.travelRepository.NewClient(ctx, false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return entity.Trip{}, err
	}

	if err := s.authorizeRead(ctx, repo, actor, tripID); err != nil {
		return entity.Trip{}, err
	}

	trip, err := repo.Trips.GetTripByID(ctx, tripID)
	if err != nil {
		return entity.Trip{}, err
	}

	assigned, err := repo.Assignments.GetAssignedUsers(ctx, []string{trip.ID})
	if err != nil {
		return entity.Trip{}, err
	}
	trip.AssignedUsers = assigned[trip.ID]

	expenses, err := repo.Expenses.ListExpensesByTrip(ctx, trip.ID)
	if err != nil {
		return entity.Trip{}, err
	}
	trip.Expenses = expenses

	return trip, nil
}

func (s *travelService) UpdateTrip(ctx context.Context, actor entity.Actor, tripID string, req travel.UpdateTripRequest) (entity.Trip, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if err := access.RequireAdmin(actor); err != nil {
		return entity.Trip{}, err
	}

	repo, err := s.travelRepository.NewClient(ctx, true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return entity.Trip{}, err
	}
	defer repo.Rollback()

	// The update rewrites total_amount, so hold the same lock expense writes take.
	if err := repo.Trips.LockTrip(ctx, tripID); err != nil {
		return entity.Trip{}, err
	}

	trip, err := repo.Trips.GetTripByID(ctx, tripID)
	if err != nil {
		return entity.Trip{}, err
	}

	if req.City != nil {
		trip.City = strings.TrimSpace(*req.City)
	}
	if req.Project != nil {
		trip.Project = strings.TrimSpace(*req.Project)
	}
	if req.Notes != nil {
		trip.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.StartDate != nil {
		if trip.StartDate, err = travel.ParseDate(*req.StartDate); err != nil {
			return entity.Trip{}, travel.ErrInvalidField("startDate", "date", err.Error())
		}
	}
	if req.EndDate != nil {
		if trip.EndDate, err = travel.ParseDate(*req.EndDate); err != nil {
			return entity.Trip{}, travel.ErrInvalidField("endDate", "date", err.Error())
		}
	}
	if trip.EndDate.Before(trip.StartDate) {
		return entity.Trip{}, travel.ErrInvalidField("endDate", "gtefield", "endDate must not be before startDate")
	}
	if req.Status != nil {
		status := entity.TripStatus(*req.Status)
		if !status.Valid() {
			return entity.Trip{}, travel.ErrInvalidField("status", "trip_status", "status must be one of PENDIENTE, APROBADO, RECHAZADO")
		}
		trip.Status = status
	}
	if req.TotalAmount != nil {
		if req.TotalAmount.IsNegative() {
			return entity.Trip{}, travel.ErrInvalidField("totalAmount", "gte", "totalAmount must not be negative")
		}
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"trip_id":    tripID,
			"admin_id":   actor.ID,
			"old_total":  trip.TotalAmount.String(),
			"new_total":  req.TotalAmount.String(),
		}).Warn("Trip total overridden manually")
		trip.TotalAmount = *req.TotalAmount
	}
	trip.UpdatedAt = time.Now().UTC()

	if err := repo.Trips.UpdateTrip(ctx, trip); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to update trip")
		return entity.Trip{}, err
	}

	if req.AssignedUserIDs != nil {
		userIDs := uniqueIDs(*req.AssignedUserIDs)
		if len(userIDs) == 0 {
			return entity.Trip{}, travel.ErrInvalidField("assignedUserIds", "min", "at least one user must be assigned")
		}
		if err := s.ensureUsersExist(ctx, repo, userIDs); err != nil {
			return entity.Trip{}, err
		}
		if err := repo.Assignments.DeleteAssignmentsByTrip(ctx, tripID); err != nil {
			return entity.Trip{}, err
		}
		if err := s.assignUsers(ctx, repo, tripID, userIDs); err != nil {
			return entity.Trip{}, err
		}
	}

	assigned, err := repo.Assignments.GetAssignedUsers(ctx, []string{tripID})
	if err != nil {
		return entity.Trip{}, err
	}
	trip.AssignedUsers = assigned[tripID]

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit trip update")
		return entity.Trip{}, err
	}

	return trip, nil
}

func (s *travelService) DeleteTrip(ctx context.Context, actor entity.Actor, tripID string) error {
	requestID := contextPkg.GetRequestID(ctx)

	if err := access.RequireAdmin(actor); err != nil {
		return err
	}

	repo, err := s.travelRepository.NewClient(ctx, false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return err
	}

	if err := repo.Trips.DeleteTrip(ctx, tripID); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"trip_id":    tripID,
		"admin_id":   actor.ID,
	}).Info("Trip deleted with its expenses and assignments")

	return nil
}

// SetTripStatus allows any transition between the three statuses.
func (s *travelService) SetTripStatus(ctx context.Context, actor entity.Actor, tripID string, status entity.TripStatus) (entity.Trip, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if err := access.RequireAdmin(actor); err != nil {
		return entity.Trip{}, err
	}
	if !status.Valid() {
		return entity.Trip{}, travel.ErrInvalidField("status", "trip_status", "status must be one of PENDIENTE, APROBADO, RECHAZADO")
	}

	repo, err := s.travelRepository.NewClient(ctx, false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return entity.Trip{}, err
	}

	if err := repo.Trips.UpdateTripStatus(ctx, tripID, status); err != nil {
		return entity.Trip{}, err
	}

	trip, err := repo.Trips.GetTripByID(ctx, tripID)
	if err != nil {
		return entity.Trip{}, err
	}

	assigned, err := repo.Assignments.GetAssignedUsers(ctx, []string{tripID})
	if err != nil {
		return entity.Trip{}, err
	}
	trip.AssignedUsers = assigned[tripID]

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"trip_id":    tripID,
		"status":     status,
	}).Info("Trip status changed")

	return trip, nil
}

// ListTrips pages through every trip for admins and assigned trips for users.
func (s *travelService) ListTrips(ctx context.Context, actor entity.Actor, req travel.ListTripsRequest) ([]entity.Trip, travel.Pagination, error) {
	requestID := contextPkg.GetRequestID(ctx)
	req.Normalize()

	filter := travelRepository.TripFilter{Limit: req.Limit, Offset: req.Offset()}
	if !actor.IsAdmin() {
		filter.UserID = actor.ID
	}

	repo, err := s.travelRepository.NewClient(ctx, false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return nil, travel.Pagination{}, err
	}

	trips, err := repo.Trips.ListTrips(ctx, filter)
	if err != nil {
		return nil, travel.Pagination{}, err
	}

	total, err := repo.Trips.CountTrips(ctx, filter.UserID)
	if err != nil {
		return nil, travel.Pagination{}, err
	}

	ids := make([]string, 0, len(trips))
	for _, trip := range trips {
		ids = append(ids, trip.ID)
	}

	assigned, err := repo.Assignments.GetAssignedUsers(ctx, ids)
	if err != nil {
		return nil, travel.Pagination{}, err
	}
	for i := range trips {
		trips[i].AssignedUsers = assigned[trips[i].ID]
	}

	return trips, travel.NewPagination(req.Page, req.Limit, total), nil
}

func (s *travelService) TripStats(ctx context.Context, actor entity.Actor) ([]entity.TripStatusStat, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.travelRepository.NewClient(ctx, false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return nil, err
	}

	userID := ""
	if !actor.IsAdmin() {
		userID = actor.ID
	}

	rows, err := repo.Trips.StatsByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[entity.TripStatus]entity.TripStatusStat, len(rows))
	for _, row := range rows {
		byStatus[row.Status] = row
	}

	stats := make([]entity.TripStatusStat, 0, len(entity.TripStatuses))
	for _, status := range entity.TripStatuses {
		stat, ok := byStatus[status]
		if !ok {
			stat = entity.TripStatusStat{Status: status, TotalAmount: decimal.Zero}
		}
		stats = append(stats, stat)
	}

	return stats, nil
}

// RecomputeTripTotal resets the stored total to the sum of the trip's expenses.
func (s *travelService) RecomputeTripTotal(ctx context.Context, actor entity.Actor, tripID string) (decimal.Decimal, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if err := access.RequireAdmin(actor); err != nil {
		return decimal.Zero, err
	}

	repo, err := s.travelRepository.NewClient(ctx, true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return decimal.Zero, err
	}
	defer repo.Rollback()

	if err := repo.Trips.LockTrip(ctx, tripID); err != nil {
		return decimal.Zero, s.consistencyError(requestID, "RecomputeTripTotal", err)
	}

	total, err := repo.Trips.RecomputeTotal(ctx, tripID)
	if err != nil {
		return decimal.Zero, s.consistencyError(requestID, "RecomputeTripTotal", err)
	}

	if err := repo.Commit(); err != nil {
		return decimal.Zero, s.consistencyError(requestID, "RecomputeTripTotal", err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"trip_id":    tripID,
		"total":      total.String(),
	}).Info("Trip total recomputed")

	return total, nil
}

// authorizeRead hides trips the actor cannot see behind ErrTripNotFound.
func (s *travelService) authorizeRead(ctx context.Context, repo travelRepository.Client, actor entity.Actor, tripID string) error {
	ok, err := access.CanAccessTrip(ctx, repo.Assignments, actor, tripID)
	if err != nil {
		return err
	}
	if !ok {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"user_id":    actor.ID,
			"trip_id":    tripID,
		}).Warn("Trip not visible to actor")
		return travel.ErrTripNotFound
	}
	return nil
}

// authorizeMutation rejects users outside the trip with ErrForbidden, without
// revealing whether the trip exists.
func (s *travelService) authorizeMutation(ctx context.Context, repo travelRepository.Client, actor entity.Actor, tripID string) error {
	ok, err := access.CanMutateTrip(ctx, repo.Assignments, actor, tripID)
	if err != nil {
		return err
	}
	if !ok {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"user_id":    actor.ID,
			"trip_id":    tripID,
		}).Warn("Actor may not change this trip")
		return travel.ErrForbidden
	}
	return nil
}

func (s *travelService) ensureUsersExist(ctx context.Context, repo travelRepository.Client, userIDs []string) error {
	existing, err := repo.Assignments.ExistingUserIDs(ctx, userIDs)
	if err != nil {
		return err
	}

	found := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		found[id] = struct{}{}
	}

	var missing []string
	for _, id := range userIDs {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		return travel.ErrInvalidField("assignedUserIds", "exists", fmt.Sprintf("unknown users: %s", strings.Join(missing, ", ")))
	}

	return nil
}

// assignUsers stamps assignments a microsecond apart so assignment order
// survives the round trip through assigned_at.
func (s *travelService) assignUsers(ctx context.Context, repo travelRepository.Client, tripID string, userIDs []string) error {
	base := time.Now().UTC()
	assignments := make([]entity.TripAssignment, 0, len(userIDs))

	for i, userID := range userIDs {
		id, err := s.utils.NewULIDFromTimestamp(base)
		if err != nil {
			return err
		}
		assignments = append(assignments, entity.TripAssignment{
			ID:         id,
			TripID:     tripID,
			UserID:     userID,
			AssignedAt: base.Add(time.Duration(i) * time.Microsecond),
		})
	}

	return repo.Assignments.CreateAssignments(ctx, assignments)
}

func parseDateRange(start, end string) (time.Time, time.Time, error) {
	startDate, err := travel.ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, travel.ErrInvalidField("startDate", "date", err.Error())
	}

	endDate, err := travel.ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, travel.ErrInvalidField("endDate", "date", err.Error())
	}

	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, travel.ErrInvalidField("endDate", "gtefield", "endDate must not be before startDate")
	}

	return startDate, endDate, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func derefTrim(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
