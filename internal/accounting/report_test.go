package accounting

import (
	"TravelExpense/internal/entity"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleExpense(category string, paymentMethod string) entity.ExportExpense {
	return entity.ExportExpense{
		Expense: entity.Expense{
			ID:            "exp-1",
			TripID:        "trip-1",
			Date:          date(2025, time.March, 4),
			Amount:        decimal.RequireFromString("120.50"),
			Category:      category,
			Vendor:        "NH Collection",
			InvoiceNumber: "F-2025-001",
			PaymentMethod: paymentMethod,
		},
		TripCity:      "Madrid",
		TripStartDate: date(2025, time.March, 3),
		TripEndDate:   date(2025, time.March, 6),
		TripProject:   "Kickoff",
		AssignedNames: []string{"Ana Ruiz", "Luis Gil"},
	}
}

func TestColumnsLayout(t *testing.T) {
	assert.Len(t, Columns, 34)
	assert.Equal(t, "fecha", Columns[0].Header)
	assert.Equal(t, "Banco", Columns[29].Header)
	assert.Len(t, Row{}.Values(), len(Columns))
}

func TestBuildRow_HotelWithDefaultBank(t *testing.T) {
	row := BuildRow(sampleExpense("Hotel", ""))

	assert.Equal(t, "04/03/2025", row.Date)
	assert.Equal(t, "GASTOS DE VIAJE", row.Account)
	assert.Equal(t, "Hotel viajes", row.Concept)
	assert.Equal(t, "Hotel viajes", row.SubConcept)
	assert.Equal(t, "62900000039", row.SubaccountCode)
	assert.Equal(t, "Santander tarj debito", row.Bank)
	assert.True(t, row.Amount.Equal(decimal.RequireFromString("120.50")))
	assert.True(t, row.Total.Equal(row.Amount))
	assert.True(t, row.VAT.IsZero())
	assert.True(t, row.VATAmount.IsZero())
	assert.Equal(t, 3, row.Month)
	assert.Equal(t, 2025, row.Year)
	assert.Equal(t, row.Month, row.ImputationMonth)
	assert.Equal(t, row.Year, row.ImputationYear)
	assert.Equal(t, "Sí", row.Paid)
	assert.Equal(t, "Ana Ruiz", row.Personnel)
	assert.Equal(t, "Madrid", row.City)
	assert.Equal(t, "Kickoff", row.Project)
}

func TestBuildRow_UnknownCategoryUsesTaxi(t *testing.T) {
	for _, category := range []string{"Desayuno", ""} {
		row := BuildRow(sampleExpense(category, "Efectivo"))

		assert.Equal(t, "GASTOS DE VIAJE", row.Account)
		assert.Equal(t, "Taxi viajes", row.Concept)
		assert.Equal(t, "62900000006", row.SubaccountCode)
		assert.Equal(t, "Efectivo", row.Bank)
	}
}

func TestBuildRow_UnknownPaymentMethodUsesCard(t *testing.T) {
	row := BuildRow(sampleExpense("Comida", "Bizum"))
	assert.Equal(t, "Santander tarj debito", row.Bank)
	assert.Equal(t, "62900000024", row.SubaccountCode)
}

func TestComment(t *testing.T) {
	e := sampleExpense("Taxi", "")
	assert.Equal(t, "Gastos de viaje Madrid 03/03/2025, 06/03/2025 Ana Ruiz, Luis Gil – Kickoff", Comment(e))

	e.TripProject = ""
	assert.Equal(t, "Gastos de viaje Madrid 03/03/2025, 06/03/2025 Ana Ruiz, Luis Gil", Comment(e))
}

func TestBuildRow_NoAssignees(t *testing.T) {
	e := sampleExpense("Taxi", "")
	e.AssignedNames = nil

	row := BuildRow(e)
	assert.Empty(t, row.Personnel)
}

func TestBuildRows_Deterministic(t *testing.T) {
	expenses := []entity.ExportExpense{
		sampleExpense("Hotel", ""),
		sampleExpense("Desayuno", "Transferencia"),
		sampleExpense("Ave", "Domiciliacion"),
	}

	first := BuildRows(expenses)
	second := BuildRows(expenses)

	require.Len(t, first, 3)
	for i := range first {
		assert.Equal(t, first[i].Values(), second[i].Values())
	}
	assert.Equal(t, "Taxi viajes", first[2].Concept)
	assert.Empty(t, first[2].SubaccountCode)
}

func TestBuildRow_RailAndAirUseTaxiConceptWithoutCode(t *testing.T) {
	for _, category := range []string{"Ave", "Avion"} {
		row := BuildRow(sampleExpense(category, ""))

		assert.Equal(t, "GASTOS DE VIAJE", row.Account)
		assert.Equal(t, "Taxi viajes", row.Concept)
		assert.Equal(t, "Taxi viajes", row.SubConcept)
		assert.Empty(t, row.SubaccountCode)
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Hoja-de-Gastos-Viaje-2025-07-01.xlsx", FileName(time.Date(2025, time.July, 1, 15, 0, 0, 0, time.UTC)))
}

func TestCanonicalCategory(t *testing.T) {
	got, ok := CanonicalCategory("AVIÓN")
	assert.True(t, ok)
	assert.Equal(t, "Avion", got)

	got, ok = CanonicalCategory("metrobus/parking")
	assert.True(t, ok)
	assert.Equal(t, "Metrobus/Parking", got)

	_, ok = CanonicalCategory("Tren")
	assert.False(t, ok)

	_, ok = CanonicalCategory("  ")
	assert.False(t, ok)
}
