package travelService

import (
	"TravelExpense/internal/access"
	"TravelExpense/internal/accounting"
	"TravelExpense/internal/entity"
	contextPkg "TravelExpense/pkg/context"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// ExportAccounting renders every expense, oldest first, as the accounting
// workbook.
func (s *travelService) ExportAccounting(ctx context.Context, actor entity.Actor) ([]byte, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if err := access.RequireAdmin(actor); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    actor.ID,
		}).Warn("Non-admin attempted accounting export")
		return nil, err
	}

	repo, err := s.travelRepository.NewClient(ctx, false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return nil, err
	}

	expenses, err := repo.Expenses.ListExportExpenses(ctx)
	if err != nil {
		return nil, err
	}

	tripIDs := make([]string, 0)
	seen := make(map[string]struct{})
	for _, e := range expenses {
		if _, ok := seen[e.TripID]; ok {
			continue
		}
		seen[e.TripID] = struct{}{}
		tripIDs = append(tripIDs, e.TripID)
	}

	if len(tripIDs) > 0 {
		assigned, err := repo.Assignments.GetAssignedUsers(ctx, tripIDs)
		if err != nil {
			return nil, err
		}

		for i := range expenses {
			users := assigned[expenses[i].TripID]
			names := make([]string, 0, len(users))
			for _, u := range users {
				names = append(names, u.Name)
			}
			expenses[i].AssignedNames = names
		}
	}

	data, err := accounting.WriteWorkbook(accounting.BuildRows(expenses))
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to render accounting workbook")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"rows":       len(expenses),
		"bytes":      len(data),
	}).Info("Accounting export generated")

	return data, nil
}
