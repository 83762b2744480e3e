package travelService

import (
	"TravelExpense/internal/api/travel"
	"TravelExpense/pkg/response"
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) UploadFile(ctx context.Context, body io.Reader, key string, contentType string) (string, error) {
	args := m.Called(ctx, body, key, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockS3) PresignUrl(ctx context.Context, fileUrl string) (string, error) {
	args := m.Called(ctx, fileUrl)
	return args.String(0), args.Error(1)
}

type stubVision struct {
	answer   string
	err      error
	gotMime  string
	gotBytes []byte
}

func (v *stubVision) AnalyzeImage(ctx context.Context, image []byte, mimeType string, prompt string) (string, error) {
	v.gotMime = mimeType
	v.gotBytes = image
	return v.answer, v.err
}

func imageHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["image"][0]
}

func TestStoreReceipt(t *testing.T) {
	f := newFixture(t)
	trip := f.createTrip(t, userA.ID)

	s3 := new(mockS3)
	f.svc.s3 = s3

	location := "https://bucket.s3.eu-west-1.amazonaws.com/tickets/x.png"
	s3.On("UploadFile", mock.Anything, mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "tickets/") &&
			strings.Contains(key, "/"+trip.ID+"/") &&
			strings.HasSuffix(key, "_taxi_madrid.png")
	}), "image/png").Return(location, nil).Once()
	s3.On("PresignUrl", mock.Anything, location).Return(location+"?sig=1", nil).Once()

	res, err := f.svc.StoreReceipt(f.ctx, userA, trip.ID, imageHeader(t, "taxi madrid.png", "image/png", []byte("png")))
	require.NoError(t, err)
	assert.Equal(t, location, res.URL)
	assert.Equal(t, location+"?sig=1", res.PreviewURL)
	assert.True(t, strings.HasPrefix(res.Key, "tickets/"))
	s3.AssertExpectations(t)
}

func TestStoreReceipt_PresignFailureStillReturnsURL(t *testing.T) {
	f := newFixture(t)
	trip := f.createTrip(t, userA.ID)

	s3 := new(mockS3)
	f.svc.s3 = s3
	s3.On("UploadFile", mock.Anything, mock.Anything, mock.Anything, "image/jpeg").Return("https://b/k.jpg", nil)
	s3.On("PresignUrl", mock.Anything, "https://b/k.jpg").Return("", errors.New("head object failed"))

	res, err := f.svc.StoreReceipt(f.ctx, admin, trip.ID, imageHeader(t, "k.jpg", "image/jpeg", []byte("jpg")))
	require.NoError(t, err)
	assert.Equal(t, "https://b/k.jpg", res.URL)
	assert.Empty(t, res.PreviewURL)
}

func TestStoreReceipt_Rejections(t *testing.T) {
	f := newFixture(t)
	trip := f.createTrip(t, userA.ID)

	s3 := new(mockS3)
	f.svc.s3 = s3
	s3.On("UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("access denied"))

	_, err := f.svc.StoreReceipt(f.ctx, userB, trip.ID, imageHeader(t, "r.png", "image/png", []byte("png")))
	assert.ErrorIs(t, err, travel.ErrForbidden)

	_, err = f.svc.StoreReceipt(f.ctx, admin, "missing", imageHeader(t, "r.png", "image/png", []byte("png")))
	assert.ErrorIs(t, err, travel.ErrTripNotFound)

	_, err = f.svc.StoreReceipt(f.ctx, userA, trip.ID, imageHeader(t, "r.pdf", "application/pdf", []byte("pdf")))
	var vErr *response.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "image", vErr.Fields[0].Field)

	_, err = f.svc.StoreReceipt(f.ctx, userA, trip.ID, imageHeader(t, "r.png", "image/png", []byte("png")))
	assert.ErrorIs(t, err, travel.ErrReceiptUpload)
}

func TestExtractFields(t *testing.T) {
	f := newFixture(t)
	vision := &stubVision{answer: "```json\n" + `{"vendor":"Cabify","amount":"23,40","date":"2025-03-04","invoiceNumber":"","category":"Taxi","description":null}` + "\n```"}
	f.svc.vision = vision

	got, err := f.svc.ExtractFields(f.ctx, userA, imageHeader(t, "r.png", "image/png", []byte("receipt")))
	require.NoError(t, err)

	assert.Equal(t, "image/png", vision.gotMime)
	assert.Equal(t, []byte("receipt"), vision.gotBytes)

	require.NotNil(t, got.Vendor)
	assert.Equal(t, "Cabify", *got.Vendor)
	require.NotNil(t, got.Amount)
	assert.Equal(t, "23.4", got.Amount.String())
	require.NotNil(t, got.Date)
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), *got.Date)
	require.NotNil(t, got.Category)
	assert.Equal(t, "Taxi", *got.Category)
	assert.Nil(t, got.InvoiceNumber)
	assert.Nil(t, got.Description)
}

func TestExtractFields_Failures(t *testing.T) {
	f := newFixture(t)
	img := imageHeader(t, "r.png", "image/png", []byte("receipt"))

	_, err := f.svc.ExtractFields(f.ctx, userA, img)
	assert.ErrorIs(t, err, travel.ErrExtractorNotEnabled)

	f.svc.vision = &stubVision{err: errors.New("quota exceeded")}
	_, err = f.svc.ExtractFields(f.ctx, userA, img)
	assert.ErrorIs(t, err, travel.ErrExtractionFailed)

	f.svc.vision = &stubVision{answer: "I cannot read this receipt."}
	_, err = f.svc.ExtractFields(f.ctx, userA, img)
	assert.ErrorIs(t, err, travel.ErrExtractionFailed)
}

func TestParseExtraction(t *testing.T) {
	tests := []struct {
		name       string
		answer     string
		wantAmount string
		wantVendor string
		wantDate   bool
	}{
		{name: "plain number", answer: `{"amount": 12.5, "vendor": "Repsol"}`, wantAmount: "12.5", wantVendor: "Repsol"},
		{name: "currency string", answer: `Here it is: {"amount": "€ 1,234.56", "date": "2025-01-31"} done`, wantAmount: "1234.56", wantDate: true},
		{name: "european grouping", answer: `{"amount": "1.234,56 €"}`, wantAmount: "1234.56"},
		{name: "comma decimal", answer: `{"amount": "23,40"}`, wantAmount: "23.4"},
		{name: "repeated dot grouping", answer: `{"amount": "1.234.567"}`, wantAmount: "1234567"},
		{name: "rounded to cents", answer: `{"amount": 3.14159}`, wantAmount: "3.14"},
		{name: "null amount", answer: `{"amount": null, "vendor": "  "}`},
		{name: "negative amount dropped", answer: `{"amount": -4}`},
		{name: "unparseable date dropped", answer: `{"date": "31 de enero"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExtraction(tt.answer)
			require.NoError(t, err)

			if tt.wantAmount == "" {
				assert.Nil(t, got.Amount)
			} else {
				require.NotNil(t, got.Amount)
				assert.Equal(t, tt.wantAmount, got.Amount.String())
			}

			if tt.wantVendor == "" {
				assert.Nil(t, got.Vendor)
			} else {
				require.NotNil(t, got.Vendor)
				assert.Equal(t, tt.wantVendor, *got.Vendor)
			}

			assert.Equal(t, tt.wantDate, got.Date != nil)
		})
	}

	_, err := ParseExtraction("no json here")
	assert.Error(t, err)
}

func TestParseExtraction_CanonicalCategory(t *testing.T) {
	for answer, want := range map[string]string{
		`{"category": "Avión"}`:     "Avion",
		`{"category": " comida "}`:  "Comida",
		`{"category": "GASOLINA"}`:  "Gasolina",
		`{"category": "Souvenirs"}`: "Souvenirs",
	} {
		got, err := ParseExtraction(answer)
		require.NoError(t, err)
		require.NotNil(t, got.Category, answer)
		assert.Equal(t, want, *got.Category, answer)
	}
}

func TestReceiptKey(t *testing.T) {
	now := time.Date(2025, 2, 9, 10, 0, 0, 0, time.UTC)
	key := receiptKey(now, "TRIP1", "../Ticket Comida (1).JPG")
	assert.Equal(t, "tickets/2025/02/TRIP1/1739095200000_Ticket_Comida_1.JPG", key)

	assert.Equal(t, "receipt", sanitizeFilename("((("))
}
