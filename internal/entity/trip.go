package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type TripStatus string

const (
	TripPending  TripStatus = "PENDIENTE"
	TripApproved TripStatus = "APROBADO"
	TripRejected TripStatus = "RECHAZADO"
)

var TripStatuses = []TripStatus{TripPending, TripApproved, TripRejected}

func (s TripStatus) Valid() bool {
	for _, status := range TripStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type Trip struct {
	ID               string
	CreatedByAdminID string
	City             string
	StartDate        time.Time
	EndDate          time.Time
	Project          string
	Notes            string
	Status           TripStatus
	TotalAmount      decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
	AssignedUsers    []AssignedUser
	Expenses         []Expense
}

type AssignedUser struct {
	ID    string
	Name  string
	Email string
}

// TripStatusStat aggregates trips sharing one status.
type TripStatusStat struct {
	Status      TripStatus
	Count       int64
	TotalAmount decimal.Decimal
}

type TripAssignment struct {
	ID         string
	TripID     string
	UserID     string
	AssignedAt time.Time
}
