package travelService

import (
	"TravelExpense/internal/api/travel"
	travelRepository "TravelExpense/internal/api/travel/repository"
	"TravelExpense/internal/entity"
	"TravelExpense/pkg/response"
	"TravelExpense/pkg/s3"
	"TravelExpense/pkg/utils"
	"errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"mime/multipart"
)

type ITravelService interface {
	CreateTrip(ctx context.Context, actor entity.Actor, req travel.CreateTripRequest) (entity.Trip, error)
	GetTrip(ctx context.Context, actor entity.Actor, tripID string) (entity.Trip, error)
	UpdateTrip(ctx context.Context, actor entity.Actor, tripID string, req travel.UpdateTripRequest) (entity.Trip, error)
	DeleteTrip(ctx context.Context, actor entity.Actor, tripID string) error
	SetTripStatus(ctx context.Context, actor entity.Actor, tripID string, status entity.TripStatus) (entity.Trip, error)
	ListTrips(ctx context.Context, actor entity.Actor, req travel.ListTripsRequest) ([]entity.Trip, travel.Pagination, error)
	TripStats(ctx context.Context, actor entity.Actor) ([]entity.TripStatusStat, error)
	RecomputeTripTotal(ctx context.Context, actor entity.Actor, tripID string) (decimal.Decimal, error)

	ListExpenses(ctx context.Context, actor entity.Actor, tripID string) ([]entity.Expense, error)
	CreateExpense(ctx context.Context, actor entity.Actor, tripID string, req travel.CreateExpenseRequest) (entity.Expense, error)
	UpdateExpense(ctx context.Context, actor entity.Actor, tripID string, expenseID string, req travel.UpdateExpenseRequest) (entity.Expense, error)
	DeleteExpense(ctx context.Context, actor entity.Actor, tripID string, expenseID string) error

	ExportAccounting(ctx context.Context, actor entity.Actor) ([]byte, error)

	StoreReceipt(ctx context.Context, actor entity.Actor, tripID string, file *multipart.FileHeader) (travel.UploadReceiptResponse, error)
	ExtractFields(ctx context.Context, actor entity.Actor, file *multipart.FileHeader) (entity.ReceiptExtraction, error)
}

// VisionModel reads an image and answers a prompt. Gemini and OpenAI clients
// both satisfy it.
type VisionModel interface {
	AnalyzeImage(ctx context.Context, image []byte, mimeType string, prompt string) (string, error)
}

type travelService struct {
	log              *logrus.Logger
	travelRepository travelRepository.Repository
	s3               s3.ItfS3
	vision           VisionModel
	utils            utils.IUtils
}

func NewTravelService(log *logrus.Logger, tr travelRepository.Repository, s3 s3.ItfS3, vision VisionModel, utils utils.IUtils) ITravelService {
	return &travelService{
		log:              log,
		travelRepository: tr,
		s3:               s3,
		vision:           vision,
		utils:            utils,
	}
}

// isDomainError reports whether err already carries a caller-facing status.
func isDomainError(err error) bool {
	var respErr *response.Error
	var validationErr *response.ValidationError
	return errors.As(err, &respErr) || errors.As(err, &validationErr)
}

// consistencyError keeps domain errors and turns anything else raised inside
// an expense transaction into ErrConsistencyFailure.
func (s *travelService) consistencyError(requestID string, op string, err error) error {
	if isDomainError(err) {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"operation":  op,
		"error":      err.Error(),
	}).Error("Expense transaction failed, rolling back")

	return travel.ErrConsistencyFailure
}
