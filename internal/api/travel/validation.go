package travel

import (
	"TravelExpense/internal/entity"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// RegisterValidations teaches v about decimal amounts, trip statuses and
// optional receipt URLs, and reports fields by their JSON names. Decimals are compared as floats, so
// gt=0 and gte=0 work on them directly.
func RegisterValidations(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	if err := v.RegisterValidation("trip_status", func(fl validator.FieldLevel) bool {
		return entity.TripStatus(fl.Field().String()).Valid()
	}); err != nil {
		return err
	}

	// url_or_empty lets an explicit "" through, which means "no receipt".
	return v.RegisterValidation("url_or_empty", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		return v.Var(value, "url") == nil
	})
}
