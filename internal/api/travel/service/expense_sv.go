package travelService

import (
	"TravelExpense/internal/access"
	"TravelExpense/internal/api/travel"
	travelRepository "TravelExpense/internal/api/travel/repository"
	"TravelExpense/internal/entity"
	contextPkg "TravelExpense/pkg/context"
	"errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"strings"
	"time"
)

func (s *travelService) ListExpenses(ctx context.Context, actor entity.Actor, tripID string) ([]entity.Expense, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.travelRepository.NewClient(ctx, false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return nil, err
	}

	if err := s.authorizeRead(ctx, repo, actor, tripID); err != nil {
		return nil, err
	}

	if _, err := repo.Trips.GetTripByID(ctx, tripID); err != nil {
		return nil, err
	}

	return repo.Expenses.ListExpensesByTrip(ctx, tripID)
}

// CreateExpense inserts the expense and adds its amount to the trip total in
// one transaction. Either both land or neither does.
func (s *travelService) CreateExpense(ctx context.Context, actor entity.Actor, tripID string, req travel.CreateExpenseRequest) (entity.Expense, error) {
	requestID := contextPkg.GetRequestID(ctx)

	date, err := travel.ParseDate(req.Date)
	if err != nil {
		return entity.Expense{}, travel.ErrInvalidField("date", "date", err.Error())
	}

	now := time.Now().UTC()
	expense := entity.Expense{
		TripID:        tripID,
		Date:          date,
		Amount:        req.Amount,
		Category:      derefTrim(req.Category),
		Vendor:        derefTrim(req.Vendor),
		Description:   derefTrim(req.Description),
		ReceiptURL:    derefTrim(req.ReceiptURL),
		InvoiceNumber: derefTrim(req.InvoiceNumber),
		PaymentMethod: derefTrim(req.PaymentMethod),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if actor.IsAdmin() {
		expense.CreatedByAdminID = actor.ID
	}

	if err := expense.Validate(); err != nil {
		return entity.Expense{}, amountError(err)
	}

	expense.ID, err = s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate ULID")
		return entity.Expense{}, err
	}

	repo, err := s.travelRepository.NewClient(ctx, true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return entity.Expense{}, s.consistencyError(requestID, "CreateExpense", err)
	}
	defer repo.Rollback()

	if err := s.authorizeMutation(ctx, repo, actor, tripID); err != nil {
		return entity.Expense{}, err
	}

	if err := repo.Trips.LockTrip(ctx, tripID); err != nil {
		return entity.Expense{}, s.consistencyError(requestID, "CreateExpense", err)
	}

	if err := repo.Expenses.CreateExpense(ctx, expense); err != nil {
		return entity.Expense{}, s.consistencyError(requestID, "CreateExpense", err)
	}

	if err := repo.Trips.AddToTotal(ctx, tripID, expense.Amount); err != nil {
		return entity.Expense{}, s.consistencyError(requestID, "CreateExpense", err)
	}

	if err := repo.Commit(); err != nil {
		return entity.Expense{}, s.consistencyError(requestID, "CreateExpense", err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"trip_id":    tripID,
		"expense_id": expense.ID,
		"amount":     expense.Amount.String(),
	}).Info("Expense created")

	return expense, nil
}

// UpdateExpense applies a partial update. When the amount changes the trip
// total moves by the difference inside the same transaction.
func (s *travelService) UpdateExpense(ctx context.Context, actor entity.Actor, tripID string, expenseID string, req travel.UpdateExpenseRequest) (entity.Expense, error) {
	requestID := contextPkg.GetRequestID(ctx)

	var newDate *time.Time
	if req.Date != nil {
		date, err := travel.ParseDate(*req.Date)
		if err != nil {
			return entity.Expense{}, travel.ErrInvalidField("date", "date", err.Error())
		}
		newDate = &date
	}
	if req.Amount != nil {
		if err := entity.ValidateAmount(*req.Amount); err != nil {
			return entity.Expense{}, amountError(err)
		}
	}

	repo, err := s.travelRepository.NewClient(ctx, true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return entity.Expense{}, s.consistencyError(requestID, "UpdateExpense", err)
	}
	defer repo.Rollback()

	if err := s.authorizeMutation(ctx, repo, actor, tripID); err != nil {
		return entity.Expense{}, err
	}

	// Lock before reading the old amount so concurrent edits cannot compute
	// their delta from a stale value.
	if err := repo.Trips.LockTrip(ctx, tripID); err != nil {
		return entity.Expense{}, s.consistencyError(requestID, "UpdateExpense", err)
	}

	expense, err := s.loadExpense(ctx, repo, actor, tripID, expenseID)
	if err != nil {
		return entity.Expense{}, err
	}
	oldAmount := expense.Amount

	if newDate != nil {
		expense.Date = *newDate
	}
	if req.Amount != nil {
		expense.Amount = *req.Amount
	}
	if req.Category != nil {
		expense.Category = strings.TrimSpace(*req.Category)
	}
	if req.Vendor != nil {
		expense.Vendor = strings.TrimSpace(*req.Vendor)
	}
	if req.Description != nil {
		expense.Description = strings.TrimSpace(*req.Description)
	}
	if req.ReceiptURL != nil {
		expense.ReceiptURL = strings.TrimSpace(*req.ReceiptURL)
	}
	if req.InvoiceNumber != nil {
		expense.InvoiceNumber = strings.TrimSpace(*req.InvoiceNumber)
	}
	if req.PaymentMethod != nil {
		expense.PaymentMethod = strings.TrimSpace(*req.PaymentMethod)
	}
	expense.UpdatedAt = time.Now().UTC()

	if err := expense.Validate(); err != nil {
		return entity.Expense{}, amountError(err)
	}

	if err := repo.Expenses.UpdateExpense(ctx, expense); err != nil {
		return entity.Expense{}, s.consistencyError(requestID, "UpdateExpense", err)
	}

	delta := expense.Amount.Sub(oldAmount)
	if !delta.IsZero() {
		if err := repo.Trips.AddToTotal(ctx, tripID, delta); err != nil {
			return entity.Expense{}, s.consistencyError(requestID, "UpdateExpense", err)
		}
	}

	if err := repo.Commit(); err != nil {
		return entity.Expense{}, s.consistencyError(requestID, "UpdateExpense", err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"trip_id":    tripID,
		"expense_id": expense.ID,
		"delta":      delta.String(),
	}).Info("Expense updated")

	return expense, nil
}

func (s *travelService) DeleteExpense(ctx context.Context, actor entity.Actor, tripID string, expenseID string) error {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.travelRepository.NewClient(ctx, true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return s.consistencyError(requestID, "DeleteExpense", err)
	}
	defer repo.Rollback()

	if err := s.authorizeMutation(ctx, repo, actor, tripID); err != nil {
		return err
	}

	if err := repo.Trips.LockTrip(ctx, tripID); err != nil {
		return s.consistencyError(requestID, "DeleteExpense", err)
	}

	expense, err := s.loadExpense(ctx, repo, actor, tripID, expenseID)
	if err != nil {
		return err
	}

	if err := repo.Expenses.DeleteExpense(ctx, expense.ID); err != nil {
		return s.consistencyError(requestID, "DeleteExpense", err)
	}

	if err := repo.Trips.AddToTotal(ctx, tripID, expense.Amount.Neg()); err != nil {
		return s.consistencyError(requestID, "DeleteExpense", err)
	}

	if err := repo.Commit(); err != nil {
		return s.consistencyError(requestID, "DeleteExpense", err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"trip_id":    tripID,
		"expense_id": expense.ID,
		"amount":     expense.Amount.String(),
	}).Info("Expense deleted")

	return nil
}

// loadExpense treats an expense from another trip as missing.
func (s *travelService) loadExpense(ctx context.Context, repo travelRepository.Client, actor entity.Actor, tripID string, expenseID string) (entity.Expense, error) {
	expense, err := repo.Expenses.GetExpenseByID(ctx, expenseID)
	if err != nil {
		return entity.Expense{}, err
	}

	ok, err := access.CanAccessExpense(ctx, repo.Assignments, actor, tripID, expense)
	if err != nil {
		return entity.Expense{}, err
	}
	if !ok {
		s.log.WithFields(logrus.Fields{
			"request_id":      contextPkg.GetRequestID(ctx),
			"expense_id":      expenseID,
			"path_trip_id":    tripID,
			"expense_trip_id": expense.TripID,
		}).Warn("Expense not reachable through the requested trip")
		return entity.Expense{}, travel.ErrExpenseNotFound
	}

	return expense, nil
}

func amountError(err error) error {
	rule := "gt"
	if errors.Is(err, entity.ErrSubCentAmount) {
		rule = "decimals"
	}
	return travel.ErrInvalidField("amount", rule, err.Error())
}
