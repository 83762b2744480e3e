package travelRepository

import (
	"TravelExpense/internal/api/travel"
	"TravelExpense/internal/entity"
	contextPkg "TravelExpense/pkg/context"
	"context"
	"database/sql"
	"errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"time"
)

type ExpenseDB struct {
	ID               sql.NullString  `db:"id"`
	TripID           sql.NullString  `db:"trip_id"`
	Date             sql.NullTime    `db:"date"`
	Amount           decimal.Decimal `db:"amount"`
	Category         sql.NullString  `db:"category"`
	Vendor           sql.NullString  `db:"vendor"`
	Description      sql.NullString  `db:"description"`
	ReceiptURL       sql.NullString  `db:"receipt_url"`
	InvoiceNumber    sql.NullString  `db:"invoice_number"`
	PaymentMethod    sql.NullString  `db:"payment_method"`
	CreatedByAdminID sql.NullString  `db:"created_by_admin_id"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

type ExportExpenseDB struct {
	ExpenseDB
	TripCity      sql.NullString `db:"trip_city"`
	TripStartDate sql.NullTime   `db:"trip_start_date"`
	TripEndDate   sql.NullTime   `db:"trip_end_date"`
	TripProject   sql.NullString `db:"trip_project"`
}

func (r *expenseRepository) CreateExpense(c context.Context, expense entity.Expense) error {
	requestID := contextPkg.GetRequestID(c)
	argsKV := map[string]interface{}{
		"id":                  expense.ID,
		"trip_id":             expense.TripID,
		"date":                expense.Date,
		"amount":              expense.Amount,
		"category":            nullString(expense.Category),
		"vendor":              nullString(expense.Vendor),
		"description":         nullString(expense.Description),
		"receipt_url":         nullString(expense.ReceiptURL),
		"invoice_number":      nullString(expense.InvoiceNumber),
		"payment_method":      nullString(expense.PaymentMethod),
		"created_by_admin_id": nullString(expense.CreatedByAdminID),
		"created_at":          expense.CreatedAt,
		"updated_at":          expense.UpdatedAt,
	}

	query, args, err := sqlx.Named(queryCreateExpense, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateExpense")
		return err
	}
	query = r.q.Rebind(query)

	if _, err = r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating expense")
		return mapExpenseWriteError(err)
	}

	return nil
}

func (r *expenseRepository) GetExpenseByID(c context.Context, id string) (entity.Expense, error) {
	requestID := contextPkg.GetRequestID(c)
	var expense ExpenseDB

	query, args, err := sqlx.Named(queryGetExpenseByID, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetExpenseByID named query preparation err")
		return entity.Expense{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&expense); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"expense_id": id,
			}).Warn("GetExpenseByID no rows found")
			return entity.Expense{}, travel.ErrExpenseNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetExpenseByID execution err")
		return entity.Expense{}, err
	}

	return r.makeExpense(expense), nil
}

func (r *expenseRepository) UpdateExpense(c context.Context, expense entity.Expense) error {
	argsKV := map[string]interface{}{
		"id":             expense.ID,
		"date":           expense.Date,
		"amount":         expense.Amount,
		"category":       nullString(expense.Category),
		"vendor":         nullString(expense.Vendor),
		"description":    nullString(expense.Description),
		"receipt_url":    nullString(expense.ReceiptURL),
		"invoice_number": nullString(expense.InvoiceNumber),
		"payment_method": nullString(expense.PaymentMethod),
		"updated_at":     expense.UpdatedAt,
	}

	return r.execAffectingExpense(c, queryUpdateExpense, argsKV, "UpdateExpense")
}

func (r *expenseRepository) DeleteExpense(c context.Context, id string) error {
	return r.execAffectingExpense(c, queryDeleteExpense, map[string]interface{}{"id": id}, "DeleteExpense")
}

func (r *expenseRepository) ListExpensesByTrip(c context.Context, tripID string) ([]entity.Expense, error) {
	requestID := contextPkg.GetRequestID(c)
	var expenses []ExpenseDB

	query, args, err := sqlx.Named(queryListExpensesByTrip, map[string]interface{}{"trip_id": tripID})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListExpensesByTrip named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	if err := r.q.SelectContext(c, &expenses, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListExpensesByTrip execution err")
		return nil, err
	}

	result := make([]entity.Expense, 0, len(expenses))
	for _, expense := range expenses {
		result = append(result, r.makeExpense(expense))
	}

	return result, nil
}

// ListExportExpenses returns every expense joined to its trip, oldest first.
// Assignee names are filled in by the caller.
func (r *expenseRepository) ListExportExpenses(c context.Context) ([]entity.ExportExpense, error) {
	requestID := contextPkg.GetRequestID(c)
	var rows []ExportExpenseDB

	if err := r.q.SelectContext(c, &rows, queryListExportExpenses); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListExportExpenses execution err")
		return nil, err
	}

	result := make([]entity.ExportExpense, 0, len(rows))
	for _, row := range rows {
		result = append(result, entity.ExportExpense{
			Expense:       r.makeExpense(row.ExpenseDB),
			TripCity:      row.TripCity.String,
			TripStartDate: row.TripStartDate.Time,
			TripEndDate:   row.TripEndDate.Time,
			TripProject:   row.TripProject.String,
		})
	}

	return result, nil
}

func (r *expenseRepository) execAffectingExpense(c context.Context, sqlQuery string, argsKV map[string]interface{}, op string) error {
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
		return mapExpenseWriteError(err)
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
		return travel.ErrExpenseNotFound
	}

	return nil
}

func mapExpenseWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23503":
			return travel.ErrTripNotFound
		case "23514":
			return travel.ErrInvalidField("amount", "gt", entity.ErrNonPositiveAmount.Error())
		}
	}
	return err
}

func (r *expenseRepository) makeExpense(expense ExpenseDB) entity.Expense {
	return entity.Expense{
		ID:               expense.ID.String,
		TripID:           expense.TripID.String,
		Date:             expense.Date.Time,
		Amount:           expense.Amount,
		Category:         expense.Category.String,
		Vendor:           expense.Vendor.String,
		Description:      expense.Description.String,
		ReceiptURL:       expense.ReceiptURL.String,
		InvoiceNumber:    expense.InvoiceNumber.String,
		PaymentMethod:    expense.PaymentMethod.String,
		CreatedByAdminID: expense.CreatedByAdminID.String,
		CreatedAt:        expense.CreatedAt,
		UpdatedAt:        expense.UpdatedAt,
	}
}
