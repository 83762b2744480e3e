package travelRepository

import (
	"TravelExpense/internal/api/travel"
	"TravelExpense/internal/entity"
	contextPkg "TravelExpense/pkg/context"
	"context"
	"database/sql"
	"errors"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"time"
)

type TripDB struct {
	ID               sql.NullString  `db:"id"`
	CreatedByAdminID sql.NullString  `db:"created_by_admin_id"`
	City             sql.NullString  `db:"city"`
	StartDate        sql.NullTime    `db:"start_date"`
	EndDate          sql.NullTime    `db:"end_date"`
	Project          sql.NullString  `db:"project"`
	Notes            sql.NullString  `db:"notes"`
	Status           sql.NullString  `db:"status"`
	TotalAmount      decimal.Decimal `db:"total_amount"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

type TripStatusStatDB struct {
	Status      sql.NullString  `db:"status"`
	Count       int64           `db:"count"`
	TotalAmount decimal.Decimal `db:"total_amount"`
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *tripRepository) CreateTrip(c context.Context, trip entity.Trip) error {
	requestID := contextPkg.GetRequestID(c)
	argsKV := map[string]interface{}{
		"id":                  trip.ID,
		"created_by_admin_id": trip.CreatedByAdminID,
		"city":                trip.City,
		"start_date":          trip.StartDate,
		"end_date":            trip.EndDate,
		"project":             nullString(trip.Project),
		"notes":               nullString(trip.Notes),
		"status":              string(trip.Status),
		"total_amount":        trip.TotalAmount,
		"created_at":          trip.CreatedAt,
		"updated_at":          trip.UpdatedAt,
	}

	query, args, err := sqlx.Named(queryCreateTrip, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateTrip")
		return err
	}
	query = r.q.Rebind(query)

	if _, err = r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating trip")
		return err
	}

	return nil
}

func (r *tripRepository) GetTripByID(c context.Context, id string) (entity.Trip, error) {
	requestID := contextPkg.GetRequestID(c)
	var trip TripDB

	query, args, err := sqlx.Named(queryGetTripByID, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetTripByID named query preparation err")
		return entity.Trip{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&trip); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"trip_id":    id,
			}).Warn("GetTripByID no rows found")
			return entity.Trip{}, travel.ErrTripNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetTripByID execution err")
		return entity.Trip{}, err
	}

	return r.makeTrip(trip), nil
}

// LockTrip takes the row lock that serialises every change to the trip total.
// It only has an effect inside a transaction.
func (r *tripRepository) LockTrip(c context.Context, id string) error {
	requestID := contextPkg.GetRequestID(c)
	var lockedID string

	query, args, err := sqlx.Named(queryLockTrip, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("LockTrip named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(c, query, args...).Scan(&lockedID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"trip_id":    id,
			}).Warn("LockTrip no rows found")
			return travel.ErrTripNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("LockTrip execution err")
		return err
	}

	return nil
}

func (r *tripRepository) UpdateTrip(c context.Context, trip entity.Trip) error {
	argsKV := map[string]interface{}{
		"id":           trip.ID,
		"city":         trip.City,
		"start_date":   trip.StartDate,
		"end_date":     trip.EndDate,
		"project":      nullString(trip.Project),
		"notes":        nullString(trip.Notes),
		"status":       string(trip.Status),
		"total_amount": trip.TotalAmount,
		"updated_at":   trip.UpdatedAt,
	}

	return r.execAffectingTrip(c, queryUpdateTrip, argsKV, "UpdateTrip")
}

func (r *tripRepository) UpdateTripStatus(c context.Context, id string, status entity.TripStatus) error {
	argsKV := map[string]interface{}{
		"id":         id,
		"status":     string(status),
		"updated_at": time.Now(),
	}

	return r.execAffectingTrip(c, queryUpdateTripStatus, argsKV, "UpdateTripStatus")
}

// AddToTotal shifts the stored total by delta in a single statement so the
// database does the arithmetic on the locked row.
func (r *tripRepository) AddToTotal(c context.Context, id string, delta decimal.Decimal) error {
	argsKV := map[string]interface{}{
		"id":         id,
		"delta":      delta,
		"updated_at": time.Now(),
	}

	return r.execAffectingTrip(c, queryAddToTripTotal, argsKV, "AddToTotal")
}

func (r *tripRepository) RecomputeTotal(c context.Context, id string) (decimal.Decimal, error) {
	requestID := contextPkg.GetRequestID(c)
	var total decimal.Decimal

	query, args, err := sqlx.Named(queryRecomputeTripTotal, map[string]interface{}{
		"id":         id,
		"updated_at": time.Now(),
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("RecomputeTotal named query preparation err")
		return decimal.Zero, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(c, query, args...).Scan(&total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, travel.ErrTripNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("RecomputeTotal execution err")
		return decimal.Zero, err
	}

	return total, nil
}

// DeleteTrip relies on ON DELETE CASCADE for expenses and assignments.
func (r *tripRepository) DeleteTrip(c context.Context, id string) error {
	return r.execAffectingTrip(c, queryDeleteTrip, map[string]interface{}{"id": id}, "DeleteTrip")
}

func (r *tripRepository) ListTrips(c context.Context, filter TripFilter) ([]entity.Trip, error) {
	requestID := contextPkg.GetRequestID(c)
	var trips []TripDB

	sqlQuery := queryListAllTrips
	argsKV := map[string]interface{}{
		"limit":  filter.Limit,
		"offset": filter.Offset,
	}
	if filter.UserID != "" {
		sqlQuery = queryListAssignedTrips
		argsKV["user_id"] = filter.UserID
	}

	query, args, err := sqlx.Named(sqlQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListTrips named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	if err := r.q.SelectContext(c, &trips, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListTrips execution err")
		return nil, err
	}

	result := make([]entity.Trip, 0, len(trips))
	for _, trip := range trips {
		result = append(result, r.makeTrip(trip))
	}

	return result, nil
}

func (r *tripRepository) CountTrips(c context.Context, userID string) (int64, error) {
	requestID := contextPkg.GetRequestID(c)
	var count int64

	sqlQuery := queryCountAllTrips
	if userID != "" {
		sqlQuery = queryCountAssignedTrips
	}

	query, args, err := sqlx.Named(sqlQuery, map[string]interface{}{"user_id": userID})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountTrips named query preparation err")
		return 0, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(c, query, args...).Scan(&count); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountTrips execution err")
		return 0, err
	}

	return count, nil
}

func (r *tripRepository) StatsByStatus(c context.Context, userID string) ([]entity.TripStatusStat, error) {
	requestID := contextPkg.GetRequestID(c)
	var stats []TripStatusStatDB

	sqlQuery := queryTripStatsAll
	if userID != "" {
		sqlQuery = queryTripStatsAssigned
	}

	query, args, err := sqlx.Named(sqlQuery, map[string]interface{}{"user_id": userID})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("StatsByStatus named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	if err := r.q.SelectContext(c, &stats, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("StatsByStatus execution err")
		return nil, err
	}

	result := make([]entity.TripStatusStat, 0, len(stats))
	for _, s := range stats {
		result = append(result, entity.TripStatusStat{
			Status:      entity.TripStatus(s.Status.String),
			Count:       s.Count,
			TotalAmount: s.TotalAmount,
		})
	}

	return result, nil
}

func (r *tripRepository) execAffectingTrip(c context.Context, sqlQuery string, argsKV map[string]interface{}, op string) error {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(sqlQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " execution err")
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " rows affected err")
		return err
	}

	if rowsAffected == 0 {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
		}).Warn(op + " no rows affected")
		return travel.ErrTripNotFound
	}

	return nil
}

func (r *tripRepository) makeTrip(trip TripDB) entity.Trip {
	return entity.Trip{
		ID:               trip.ID.String,
		CreatedByAdminID: trip.CreatedByAdminID.String,
		City:             trip.City.String,
		StartDate:        trip.StartDate.Time,
		EndDate:          trip.EndDate.Time,
		Project:          trip.Project.String,
		Notes:            trip.Notes.String,
		Status:           entity.TripStatus(trip.Status.String),
		TotalAmount:      trip.TotalAmount,
		CreatedAt:        trip.CreatedAt,
		UpdatedAt:        trip.UpdatedAt,
	}
}
