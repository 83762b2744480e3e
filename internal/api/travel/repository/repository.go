package travelRepository

import (
	"TravelExpense/internal/entity"
	"database/sql"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type SQLExecutor interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Rebind(query string) string
}

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		DB:  db,
		log: log,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
}

type Repository interface {
	NewClient(ctx context.Context, tx bool) (Client, error)
}

// NewClient opens a read-committed transaction when tx is set. Callers defer
// Rollback and call Commit once every write has succeeded.
func (r *repository) NewClient(ctx context.Context, tx bool) (Client, error) {
	var sqlExecutor SQLExecutor
	var commitFunc, rollbackFunc func() error

	sqlExecutor = r.DB

	if tx {
		txx, err := r.DB.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return Client{}, err
		}

		sqlExecutor = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Trips:       &tripRepository{q: sqlExecutor, log: r.log},
		Assignments: &assignmentRepository{q: sqlExecutor, log: r.log},
		Expenses:    &expenseRepository{q: sqlExecutor, log: r.log},
		Commit:      commitFunc,
		Rollback:    rollbackFunc,
	}, nil
}

type Client struct {
	Trips       TripStore
	Assignments AssignmentStore
	Expenses    ExpenseStore

	Commit   func() error
	Rollback func() error
}

// TripFilter scopes a trip listing. An empty UserID lists every trip.
type TripFilter struct {
	UserID string
	Limit  int
	Offset int
}

type TripStore interface {
	CreateTrip(ctx context.Context, trip entity.Trip) error
	GetTripByID(ctx context.Context, id string) (entity.Trip, error)
	LockTrip(ctx context.Context, id string) error
	UpdateTrip(ctx context.Context, trip entity.Trip) error
	UpdateTripStatus(ctx context.Context, id string, status entity.TripStatus) error
	AddToTotal(ctx context.Context, id string, delta decimal.Decimal) error
	RecomputeTotal(ctx context.Context, id string) (decimal.Decimal, error)
	DeleteTrip(ctx context.Context, id string) error
	ListTrips(ctx context.Context, filter TripFilter) ([]entity.Trip, error)
	CountTrips(ctx context.Context, userID string) (int64, error)
	StatsByStatus(ctx context.Context, userID string) ([]entity.TripStatusStat, error)
}

type AssignmentStore interface {
	CreateAssignments(ctx context.Context, assignments []entity.TripAssignment) error
	DeleteAssignmentsByTrip(ctx context.Context, tripID string) error
	IsAssigned(ctx context.Context, tripID string, userID string) (bool, error)
	GetAssignedUsers(ctx context.Context, tripIDs []string) (map[string][]entity.AssignedUser, error)
	ExistingUserIDs(ctx context.Context, userIDs []string) ([]string, error)
}

type ExpenseStore interface {
	CreateExpense(ctx context.Context, expense entity.Expense) error
	GetExpenseByID(ctx context.Context, id string) (entity.Expense, error)
	UpdateExpense(ctx context.Context, expense entity.Expense) error
	DeleteExpense(ctx context.Context, id string) error
	ListExpensesByTrip(ctx context.Context, tripID string) ([]entity.Expense, error)
	ListExportExpenses(ctx context.Context) ([]entity.ExportExpense, error)
}

type tripRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type assignmentRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type expenseRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}
