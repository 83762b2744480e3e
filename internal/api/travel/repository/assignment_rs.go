package travelRepository

import (
	"TravelExpense/internal/entity"
	contextPkg "TravelExpense/pkg/context"
	"context"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type AssignedUserDB struct {
	TripID string `db:"trip_id"`
	ID     string `db:"id"`
	Name   string `db:"name"`
	Email  string `db:"email"`
}

func (r *assignmentRepository) CreateAssignments(c context.Context, assignments []entity.TripAssignment) error {
	requestID := contextPkg.GetRequestID(c)

	for _, assignment := range assignments {
		argsKV := map[string]interface{}{
			"id":          assignment.ID,
			"trip_id":     assignment.TripID,
			"user_id":     assignment.UserID,
			"assigned_at": assignment.AssignedAt,
		}

		query, args, err := sqlx.Named(queryCreateAssignment, argsKV)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error("Failed to build SQL query for CreateAssignments")
			return err
		}
		query = r.q.Rebind(query)

		if _, err := r.q.ExecContext(c, query, args...); err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"trip_id":    assignment.TripID,
				"user_id":    assignment.UserID,
				"error":      err.Error(),
			}).Error("Database error when creating assignment")
			return err
		}
	}

	return nil
}

func (r *assignmentRepository) DeleteAssignmentsByTrip(c context.Context, tripID string) error {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryDeleteAssignmentsByTrip, map[string]interface{}{"trip_id": tripID})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteAssignmentsByTrip named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("DeleteAssignmentsByTrip execution err")
		return err
	}

	return nil
}

func (r *assignmentRepository) IsAssigned(c context.Context, tripID string, userID string) (bool, error) {
	requestID := contextPkg.GetRequestID(c)
	var assigned bool

	query, args, err := sqlx.Named(queryIsAssigned, map[string]interface{}{
		"trip_id": tripID,
		"user_id": userID,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("IsAssigned named query preparation err")
		return false, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(c, query, args...).Scan(&assigned); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("IsAssigned execution err")
		return false, err
	}

	return assigned, nil
}

// GetAssignedUsers groups assignees by trip, each group in assignment order.
func (r *assignmentRepository) GetAssignedUsers(c context.Context, tripIDs []string) (map[string][]entity.AssignedUser, error) {
	requestID := contextPkg.GetRequestID(c)
	result := make(map[string][]entity.AssignedUser, len(tripIDs))
	if len(tripIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(queryAssignedUsersByTrips, tripIDs)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetAssignedUsers in query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	var rows []AssignedUserDB
	if err := r.q.SelectContext(c, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetAssignedUsers execution err")
		return nil, err
	}

	for _, row := range rows {
		result[row.TripID] = append(result[row.TripID], entity.AssignedUser{
			ID:    row.ID,
			Name:  row.Name,
			Email: row.Email,
		})
	}

	return result, nil
}

func (r *assignmentRepository) ExistingUserIDs(c context.Context, userIDs []string) ([]string, error) {
	requestID := contextPkg.GetRequestID(c)
	if len(userIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(queryExistingUserIDs, userIDs)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ExistingUserIDs in query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	var ids []string
	if err := r.q.SelectContext(c, &ids, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ExistingUserIDs execution err")
		return nil, err
	}

	return ids, nil
}
