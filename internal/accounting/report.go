package accounting

import (
	"TravelExpense/internal/entity"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "02/01/2006"

type Column struct {
	Header string
	Width  float64
}

// Columns is the sheet layout, in order.
var Columns = []Column{
	{"fecha", 12},
	{"CUENTA", 20},
	{"CONCEPTO", 25},
	{"SUBCONCEPTO", 25},
	{"Nª Registro", 12},
	{"EUROS", 12},
	{"IVA", 10},
	{"IMPORTE IVA", 12},
	{"IMPORTE_TOTAL", 15},
	{"subcuenta contabildad", 20},
	{"PROVEEDOR", 30},
	{"FACTURA", 20},
	{"COMENTARIOS", 60},
	{"MES", 8},
	{"Cobro", 8},
	{"mes imputacion", 15},
	{"IMPUTACION", 12},
	{"PROYECTO", 15},
	{"Pagado", 10},
	{"Fecha Pago", 12},
	{"PERSONAL", 20},
	{"PPTO", 10},
	{"Nº noches", 10},
	{"Nº pax viajan", 12},
	{"Nº trayectos", 12},
	{"CIUDAD", 15},
	{"Certificado", 12},
	{"Liberalidad/Donación", 20},
	{"Certificado + Carta", 20},
	{"Banco", 25},
	{"Prespuesto", 12},
	{"CRM", 10},
	{"CRM PROYECTO", 15},
	{"Inventario físico", 15},
}

// Row is one exported expense. Columns without a field are always blank.
type Row struct {
	Date            string
	Account         string
	Concept         string
	SubConcept      string
	Amount          decimal.Decimal
	VAT             decimal.Decimal
	VATAmount       decimal.Decimal
	Total           decimal.Decimal
	SubaccountCode  string
	Vendor          string
	Invoice         string
	Comment         string
	Month           int
	Year            int
	ImputationMonth int
	ImputationYear  int
	Project         string
	Paid            string
	Personnel       string
	City            string
	Bank            string
}

// Values returns the cells of the row in Columns order.
func (r Row) Values() []interface{} {
	return []interface{}{
		r.Date,
		r.Account,
		r.Concept,
		r.SubConcept,
		"",
		r.Amount.InexactFloat64(),
		r.VAT.InexactFloat64(),
		r.VATAmount.InexactFloat64(),
		r.Total.InexactFloat64(),
		r.SubaccountCode,
		r.Vendor,
		r.Invoice,
		r.Comment,
		r.Month,
		r.Year,
		r.ImputationMonth,
		r.ImputationYear,
		r.Project,
		r.Paid,
		"",
		r.Personnel,
		"",
		"",
		"",
		"",
		r.City,
		"",
		"",
		"",
		r.Bank,
		"",
		"",
		"",
		"",
	}
}

// BuildRows maps expenses to rows, one per expense, keeping input order.
func BuildRows(expenses []entity.ExportExpense) []Row {
	rows := make([]Row, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, BuildRow(e))
	}
	return rows
}

func BuildRow(e entity.ExportExpense) Row {
	sub := LookupSubaccount(e.Category)
	date := e.Date.UTC()

	personnel := ""
	if len(e.AssignedNames) > 0 {
		personnel = e.AssignedNames[0]
	}

	return Row{
		Date:            FormatDate(date),
		Account:         sub.Account,
		Concept:         sub.Concept,
		SubConcept:      sub.SubConcept,
		Amount:          e.Amount,
		VAT:             decimal.Zero,
		VATAmount:       decimal.Zero,
		Total:           e.Amount,
		SubaccountCode:  sub.Code,
		Vendor:          e.Vendor,
		Invoice:         e.InvoiceNumber,
		Comment:         Comment(e),
		Month:           int(date.Month()),
		Year:            date.Year(),
		ImputationMonth: int(date.Month()),
		ImputationYear:  date.Year(),
		Project:         e.TripProject,
		Paid:            "Sí",
		Personnel:       personnel,
		City:            e.TripCity,
		Bank:            LookupBank(e.PaymentMethod),
	}
}

func Comment(e entity.ExportExpense) string {
	comment := fmt.Sprintf("Gastos de viaje %s %s, %s %s",
		e.TripCity,
		FormatDate(e.TripStartDate),
		FormatDate(e.TripEndDate),
		strings.Join(e.AssignedNames, ", "),
	)
	if e.TripProject != "" {
		comment += " – " + e.TripProject
	}
	return comment
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func FileName(now time.Time) string {
	return fmt.Sprintf("Hoja-de-Gastos-Viaje-%s.xlsx", now.Format("2006-01-02"))
}
