package entity

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	ErrSubCentAmount     = errors.New("amount must not have more than two decimal places")
)

// AmountScale is the number of decimal places money is stored with.
const AmountScale = 2

type Expense struct {
	ID               string
	TripID           string
	Date             time.Time
	Amount           decimal.Decimal
	Category         string
	Vendor           string
	Description      string
	ReceiptURL       string
	InvoiceNumber    string
	PaymentMethod    string
	CreatedByAdminID string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (e Expense) Validate() error {
	return ValidateAmount(e.Amount)
}

func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return ErrSubCentAmount
	}
	return nil
}

// ExportExpense is an expense joined to its trip and the trip's assignees,
// in assignment order.
type ExportExpense struct {
	Expense
	TripCity      string
	TripStartDate time.Time
	TripEndDate   time.Time
	TripProject   string
	AssignedNames []string
}

// ReceiptExtraction holds whatever fields a vision model could read off a
// receipt. Every field is optional.
type ReceiptExtraction struct {
	Vendor        *string
	Amount        *decimal.Decimal
	Date          *time.Time
	Category      *string
	InvoiceNumber *string
	Description   *string
}
