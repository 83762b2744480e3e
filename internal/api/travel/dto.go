package travel

import (
	"TravelExpense/internal/entity"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultPage  = 1
	DefaultLimit = 15
	MaxLimit     = 100
)

type CreateTripRequest struct {
	City            string   `json:"city" validate:"required,max=255"`
	StartDate       string   `json:"startDate" validate:"required"`
	EndDate         string   `json:"endDate" validate:"required"`
	Project         *string  `json:"project" validate:"omitempty,max=255"`
	Notes           *string  `json:"notes"`
	AssignedUserIDs []string `json:"assignedUserIds" validate:"required,min=1,dive,required"`
}

// UpdateTripRequest only touches fields that are present. AssignedUserIDs
// replaces the whole assignment set when given.
type UpdateTripRequest struct {
	City            *string          `json:"city" validate:"omitempty,min=1,max=255"`
	StartDate       *string          `json:"startDate"`
	EndDate         *string          `json:"endDate"`
	Project         *string          `json:"project" validate:"omitempty,max=255"`
	Notes           *string          `json:"notes"`
	Status          *string          `json:"status" validate:"omitempty,trip_status"`
	AssignedUserIDs *[]string        `json:"assignedUserIds" validate:"omitempty,min=1,dive,required"`
	TotalAmount     *decimal.Decimal `json:"totalAmount" validate:"omitempty,gte=0"`
}

type SetTripStatusRequest struct {
	Status string `json:"status" validate:"required,trip_status"`
}

type ListTripsRequest struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

func (r *ListTripsRequest) Normalize() {
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
}

func (r ListTripsRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

type CreateExpenseRequest struct {
	Date          string          `json:"date" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Category      *string         `json:"category" validate:"omitempty,max=50"`
	Vendor        *string         `json:"vendor" validate:"omitempty,max=255"`
	Description   *string         `json:"description"`
	ReceiptURL    *string         `json:"receiptUrl" validate:"omitempty,url_or_empty"`
	InvoiceNumber *string         `json:"invoiceNumber" validate:"omitempty,max=100"`
	PaymentMethod *string         `json:"paymentMethod" validate:"omitempty,max=50"`
}

// UpdateExpenseRequest is partial. An empty receiptUrl clears the receipt.
type UpdateExpenseRequest struct {
	Date          *string          `json:"date"`
	Amount        *decimal.Decimal `json:"amount" validate:"omitempty,gt=0"`
	Category      *string          `json:"category" validate:"omitempty,max=50"`
	Vendor        *string          `json:"vendor" validate:"omitempty,max=255"`
	Description   *string          `json:"description"`
	ReceiptURL    *string          `json:"receiptUrl" validate:"omitempty,url_or_empty"`
	InvoiceNumber *string          `json:"invoiceNumber" validate:"omitempty,max=100"`
	PaymentMethod *string          `json:"paymentMethod" validate:"omitempty,max=50"`
}

type AssignedUserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type TripResponse struct {
	ID               string                 `json:"id"`
	CreatedByAdminID string                 `json:"createdByAdminId"`
	City             string                 `json:"city"`
	StartDate        string                 `json:"startDate"`
	EndDate          string                 `json:"endDate"`
	Project          string                 `json:"project,omitempty"`
	Notes            string                 `json:"notes,omitempty"`
	Status           entity.TripStatus      `json:"status"`
	TotalAmount      decimal.Decimal        `json:"totalAmount"`
	CreatedAt        time.Time              `json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
	AssignedUsers    []AssignedUserResponse `json:"assignedUsers"`
	Expenses         []ExpenseResponse      `json:"expenses,omitempty"`
}

type ExpenseResponse struct {
	ID               string          `json:"id"`
	TripID           string          `json:"tripId"`
	Date             string          `json:"date"`
	Amount           decimal.Decimal `json:"amount"`
	Category         string          `json:"category,omitempty"`
	Vendor           string          `json:"vendor,omitempty"`
	Description      string          `json:"description,omitempty"`
	ReceiptURL       string          `json:"receiptUrl,omitempty"`
	InvoiceNumber    string          `json:"invoiceNumber,omitempty"`
	PaymentMethod    string          `json:"paymentMethod,omitempty"`
	CreatedByAdminID string          `json:"createdByAdminId,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
}

func NewPagination(page, limit int, totalCount int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((totalCount + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		TotalCount: totalCount,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}
}

type ListTripsResponse struct {
	Trips      []TripResponse `json:"trips"`
	Pagination Pagination     `json:"pagination"`
}

type StatusStatResponse struct {
	Status      entity.TripStatus `json:"status"`
	Count       int64             `json:"count"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
}

type TripStatsResponse struct {
	TotalTrips  int64                `json:"totalTrips"`
	TotalAmount decimal.Decimal      `json:"totalAmount"`
	ByStatus    []StatusStatResponse `json:"byStatus"`
}

type RecomputeTotalResponse struct {
	TripID      string          `json:"tripId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type UploadReceiptResponse struct {
	URL        string `json:"url"`
	PreviewURL string `json:"previewUrl,omitempty"`
	Key        string `json:"key"`
}

type ExtractReceiptResponse struct {
	Vendor        *string          `json:"vendor"`
	Amount        *decimal.Decimal `json:"amount"`
	Date          *string          `json:"date"`
	Category      *string          `json:"category"`
	InvoiceNumber *string          `json:"invoiceNumber"`
	Description   *string          `json:"description"`
}

const DateLayout = "2006-01-02"

var errBadDate = errors.New("date must be YYYY-MM-DD or RFC3339")

// ParseDate accepts a calendar date or a full RFC3339 timestamp and keeps the
// calendar day only.
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errBadDate
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func MakeTripResponse(trip entity.Trip) TripResponse {
	assigned := make([]AssignedUserResponse, 0, len(trip.AssignedUsers))
	for _, u := range trip.AssignedUsers {
		assigned = append(assigned, AssignedUserResponse{ID: u.ID, Name: u.Name, Email: u.Email})
	}

	var expenses []ExpenseResponse
	if trip.Expenses != nil {
		expenses = MakeExpenseResponses(trip.Expenses)
	}

	return TripResponse{
		ID:               trip.ID,
		CreatedByAdminID: trip.CreatedByAdminID,
		City:             trip.City,
		StartDate:        FormatDate(trip.StartDate),
		EndDate:          FormatDate(trip.EndDate),
		Project:          trip.Project,
		Notes:            trip.Notes,
		Status:           trip.Status,
		TotalAmount:      trip.TotalAmount,
		CreatedAt:        trip.CreatedAt,
		UpdatedAt:        trip.UpdatedAt,
		AssignedUsers:    assigned,
		Expenses:         expenses,
	}
}

func MakeExpenseResponse(e entity.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:               e.ID,
		TripID:           e.TripID,
		Date:             FormatDate(e.Date),
		Amount:           e.Amount,
		Category:         e.Category,
		Vendor:           e.Vendor,
		Description:      e.Description,
		ReceiptURL:       e.ReceiptURL,
		InvoiceNumber:    e.InvoiceNumber,
		PaymentMethod:    e.PaymentMethod,
		CreatedByAdminID: e.CreatedByAdminID,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func MakeExpenseResponses(expenses []entity.Expense) []ExpenseResponse {
	res := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		res = append(res, MakeExpenseResponse(e))
	}
	return res
}

func MakeExtractReceiptResponse(x entity.ReceiptExtraction) ExtractReceiptResponse {
	res := ExtractReceiptResponse{
		Vendor:        x.Vendor,
		Amount:        x.Amount,
		Category:      x.Category,
		InvoiceNumber: x.InvoiceNumber,
		Description:   x.Description,
	}
	if x.Date != nil {
		d := FormatDate(*x.Date)
		res.Date = &d
	}
	return res
}
