package travelService

import (
	"TravelExpense/internal/accounting"
	"TravelExpense/internal/api/travel"
	"TravelExpense/internal/entity"
	contextPkg "TravelExpense/pkg/context"
	"TravelExpense/pkg/utils"
	"errors"
	"fmt"
	"github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

const receiptPrompt = `You are reading a photo of a receipt or invoice for a business trip.
Return ONLY a JSON object with these keys:
{
  "vendor": string,
  "amount": number,
  "date": "YYYY-MM-DD",
  "invoiceNumber": string,
  "category": one of "Taxi", "Comida", "Hotel", "Metrobus/Parking", "Gasolina", "Ave", "Avion",
  "description": string
}
"amount" is the final total paid, using a dot as decimal separator.
Use null for any value that cannot be read from the image.`

var errNoJSONObject = errors.New("no JSON object in model response")

// StoreReceipt uploads a receipt image under the trip's folder and returns its
// location together with a short-lived preview link.
func (s *travelService) StoreReceipt(ctx context.Context, actor entity.Actor, tripID string, file *multipart.FileHeader) (travel.UploadReceiptResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if err := s.validateImage(file); err != nil {
		return travel.UploadReceiptResponse{}, err
	}

	if strings.TrimSpace(tripID) == "" {
		return travel.UploadReceiptResponse{}, travel.ErrInvalidField("tripId", "required", "tripId is required")
	}

	repo, err := s.travelRepository.NewClient(ctx, false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return travel.UploadReceiptResponse{}, err
	}

	if err := s.authorizeMutation(ctx, repo, actor, tripID); err != nil {
		return travel.UploadReceiptResponse{}, err
	}

	if actor.IsAdmin() {
		if _, err := repo.Trips.GetTripByID(ctx, tripID); err != nil {
			return travel.UploadReceiptResponse{}, err
		}
	}

	src, err := file.Open()
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to open uploaded receipt")
		return travel.UploadReceiptResponse{}, err
	}
	defer src.Close()

	key := receiptKey(time.Now().UTC(), tripID, file.Filename)

	location, err := s.s3.UploadFile(ctx, src, key, file.Header.Get("Content-Type"))
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"key":        key,
			"error":      err.Error(),
		}).Error("Failed to upload receipt")
		return travel.UploadReceiptResponse{}, travel.ErrReceiptUpload
	}

	res := travel.UploadReceiptResponse{
		URL: location,
		Key: key,
	}

	preview, err := s.s3.PresignUrl(ctx, location)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"key":        key,
			"error":      err.Error(),
		}).Warn("Failed to presign receipt preview")
	} else {
		res.PreviewURL = preview
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"trip_id":    tripID,
		"key":        key,
	}).Info("Receipt stored")

	return res, nil
}

// ExtractFields asks the configured vision model to read a receipt. Fields the
// model could not read come back nil.
func (s *travelService) ExtractFields(ctx context.Context, actor entity.Actor, file *multipart.FileHeader) (entity.ReceiptExtraction, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if s.vision == nil {
		return entity.ReceiptExtraction{}, travel.ErrExtractorNotEnabled
	}

	if err := s.validateImage(file); err != nil {
		return entity.ReceiptExtraction{}, err
	}

	image, err := s.utils.ReadFileBytes(file)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to read receipt image")
		return entity.ReceiptExtraction{}, err
	}

	answer, err := s.vision.AnalyzeImage(ctx, image, file.Header.Get("Content-Type"), receiptPrompt)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    actor.ID,
			"error":      err.Error(),
		}).Error("Vision model call failed")
		return entity.ReceiptExtraction{}, travel.ErrExtractionFailed
	}

	extraction, err := ParseExtraction(answer)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"answer":     answer,
			"error":      err.Error(),
		}).Warn("Could not parse vision model answer")
		return entity.ReceiptExtraction{}, travel.ErrExtractionFailed
	}

	return extraction, nil
}

func (s *travelService) validateImage(file *multipart.FileHeader) error {
	err := s.utils.ValidateImageFile(file)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, utils.ErrNoFile):
		return travel.ErrInvalidField("image", "required", err.Error())
	case errors.Is(err, utils.ErrFileTooLarge):
		return travel.ErrInvalidField("image", "max", "image must be 5MB or smaller")
	case errors.Is(err, utils.ErrNotAnImage):
		return travel.ErrInvalidField("image", "image", err.Error())
	}
	return err
}

type rawExtraction struct {
	Vendor        *string             `json:"vendor"`
	Amount        jsoniter.RawMessage `json:"amount"`
	Date          *string             `json:"date"`
	Category      *string             `json:"category"`
	InvoiceNumber *string             `json:"invoiceNumber"`
	Description   *string             `json:"description"`
}

// ParseExtraction reads the JSON object embedded in a model answer. Anything
// before the first brace or after the last one is ignored, which strips code
// fences and chatter.
func ParseExtraction(answer string) (entity.ReceiptExtraction, error) {
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")
	if start < 0 || end <= start {
		return entity.ReceiptExtraction{}, errNoJSONObject
	}

	var raw rawExtraction
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal([]byte(answer[start:end+1]), &raw); err != nil {
		return entity.ReceiptExtraction{}, err
	}

	res := entity.ReceiptExtraction{
		Vendor:        nonEmpty(raw.Vendor),
		Category:      nonEmpty(raw.Category),
		InvoiceNumber: nonEmpty(raw.InvoiceNumber),
		Description:   nonEmpty(raw.Description),
		Amount:        parseAmount(raw.Amount),
	}

	if res.Category != nil {
		if category, ok := accounting.CanonicalCategory(*res.Category); ok {
			res.Category = &category
		}
	}

	if d := nonEmpty(raw.Date); d != nil {
		if date, err := travel.ParseDate(*d); err == nil {
			res.Date = &date
		}
	}

	return res, nil
}

// parseAmount accepts a JSON number or a numeric string written with either
// "1,234.56" or "1.234,56" grouping.
func parseAmount(raw jsoniter.RawMessage) *decimal.Decimal {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return nil
	}

	if strings.HasPrefix(text, `"`) {
		var str string
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, &str); err != nil {
			return nil
		}
		text = strings.TrimSpace(str)
		text = strings.TrimFunc(text, func(r rune) bool {
			return !unicode.IsDigit(r) && r != '-' && r != '.' && r != ','
		})
		text = normalizeSeparators(text)
	}

	amount, err := decimal.NewFromString(text)
	if err != nil || !amount.IsPositive() {
		return nil
	}
	amount = amount.Round(2)
	return &amount
}

// normalizeSeparators rewrites the amount with a dot as the only separator.
// With both separators present the last one is the decimal point. A lone
// separator that repeats is grouping.
func normalizeSeparators(text string) string {
	dot, comma := strings.LastIndex(text, "."), strings.LastIndex(text, ",")
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			text = strings.ReplaceAll(text, ".", "")
			return strings.Replace(text, ",", ".", 1)
		}
		return strings.ReplaceAll(text, ",", "")
	case comma >= 0:
		if strings.Count(text, ",") > 1 {
			return strings.ReplaceAll(text, ",", "")
		}
		return strings.Replace(text, ",", ".", 1)
	case dot >= 0 && strings.Count(text, ".") > 1:
		return strings.ReplaceAll(text, ".", "")
	}
	return text
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || strings.EqualFold(v, "null") {
		return nil
	}
	return &v
}

// receiptKey lays receipts out as tickets/<yyyy>/<mm>/<tripId>/<unix-ms>_<name>.
func receiptKey(now time.Time, tripID string, filename string) string {
	return fmt.Sprintf("tickets/%04d/%02d/%s/%d_%s",
		now.Year(), int(now.Month()), tripID, now.UnixMilli(), sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		case unicode.IsSpace(r):
			return '_'
		}
		return -1
	}, name)
	if cleaned == "" || cleaned == "." {
		return "receipt"
	}
	return cleaned
}
