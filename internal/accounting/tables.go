// Package accounting turns expenses into the fixed-column sheet the accounting
// team imports.
package accounting

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Subaccount struct {
	Account    string
	Concept    string
	SubConcept string
	Code       string
}

const (
	DefaultCategory      = "Taxi"
	DefaultPaymentMethod = "Tarjeta"
)

// Subaccounts maps an expense category to its ledger entry. Ave and Avion book
// against the Taxi concept with no ledger code.
var Subaccounts = map[string]Subaccount{
	"Taxi": {
		Account:    "GASTOS DE VIAJE",
		Concept:    "Taxi viajes",
		SubConcept: "Taxi viajes",
		Code:       "62900000006",
	},
	"Comida": {
		Account:    "GASTOS DE VIAJE",
		Concept:    "Comidas viajes",
		SubConcept: "Comidas viajes",
		Code:       "62900000024",
	},
	"Hotel": {
		Account:    "GASTOS DE VIAJE",
		Concept:    "Hotel viajes",
		SubConcept: "Hotel viajes",
		Code:       "62900000039",
	},
	"Metrobus/Parking": {
		Account:    "GASTOS DE VIAJE",
		Concept:    "Parking viajes metrobus",
		SubConcept: "Parking viajes metrobus",
		Code:       "62900000045",
	},
	"Gasolina": {
		Account:    "GASTOS DE VIAJE",
		Concept:    "Gasolina viajes",
		SubConcept: "Gasolina viajes",
		Code:       "62900000031",
	},
	"Ave": {
		Account:    "GASTOS DE VIAJE",
		Concept:    "Taxi viajes",
		SubConcept: "Taxi viajes",
	},
	"Avion": {
		Account:    "GASTOS DE VIAJE",
		Concept:    "Taxi viajes",
		SubConcept: "Taxi viajes",
	},
}

var Banks = map[string]string{
	"Tarjeta":       "Santander tarj debito",
	"Efectivo":      "Efectivo",
	"Transferencia": "Santander transferencia",
	"Domiciliacion": "Santander domiciliacion",
}

// LookupSubaccount falls back to Taxi for missing or unknown categories.
func LookupSubaccount(category string) Subaccount {
	if sub, ok := Subaccounts[category]; ok {
		return sub
	}
	return Subaccounts[DefaultCategory]
}

func LookupBank(paymentMethod string) string {
	if bank, ok := Banks[paymentMethod]; ok {
		return bank
	}
	return Banks[DefaultPaymentMethod]
}

// CanonicalCategory matches free text such as "avión" or "COMIDA" against the
// known categories, ignoring case and accents.
func CanonicalCategory(category string) (string, bool) {
	key := foldKey(category)
	if key == "" {
		return "", false
	}
	for name := range Subaccounts {
		if foldKey(name) == key {
			return name, true
		}
	}
	return "", false
}

func foldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
