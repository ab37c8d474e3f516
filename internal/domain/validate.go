package domain

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// validate is shared by every boundary that accepts line items. The engine
// itself never validates.
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Decimals are checked as float64 so that numeric tags like gte apply.
	validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	_ = validate.RegisterValidation("notblank", notBlank)
}

func decimalValue(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Validate runs struct tag validation on v.
func Validate(v any) error {
	return validate.Struct(v)
}
