// Package validation wraps go-playground/validator and renders field errors
// as domain.ValidationError values keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/99minutos/share-marketplace/internal/core/domain"
)

// Validator validates tagged structs. Safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the custom "present" tag registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("present", isPresent)

	return &Validator{v: v}
}

// Struct validates s and returns a *domain.ValidationError listing every
// failing field, or nil.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	out := &domain.ValidationError{}
	for _, fe := range ve {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

// RegisterStructValidation attaches a struct-level rule to the given types.
// Call it before the first Struct call for those types.
func (val *Validator) RegisterStructValidation(fn validator.StructLevelFunc, types ...any) {
	val.v.RegisterStructValidation(fn, types...)
}

var maxInt64 = decimal.NewFromInt(math.MaxInt64)

// Count checks a whole-number field on its exact decimal value from a
// struct-level rule. The value must be present, integral, at least lower
// (strictly above it when exclusive) and must fit an int64.
func Count(sl validator.StructLevel, d *decimal.Decimal, field string, lower int64, exclusive bool) {
	floor := decimal.NewFromInt(lower)
	bound := strconv.FormatInt(lower, 10)

	switch {
	case d == nil:
		sl.ReportError(d, field, field, "required", "")
	case !d.IsInteger():
		sl.ReportError(d, field, field, "whole", "")
	case exclusive && !d.GreaterThan(floor):
		sl.ReportError(d, field, field, "gt", bound)
	case !exclusive && d.LessThan(floor):
		sl.ReportError(d, field, field, "gte", bound)
	case d.GreaterThan(maxInt64):
		sl.ReportError(d, field, field, "lte", maxInt64.String())
	}
}

// Amount checks a money field on the value it will be stored as: d rounded
// to scale fractional digits must be above zero and below limit.
func Amount(sl validator.StructLevel, d *decimal.Decimal, field string, scale int32, limit decimal.Decimal) {
	if d == nil {
		sl.ReportError(d, field, field, "required", "")
		return
	}

	stored := d.Round(scale)
	switch {
	case !stored.IsPositive():
		sl.ReportError(d, field, field, "gt", "0")
	case !stored.LessThan(limit):
		sl.ReportError(d, field, field, "lt", limit.String())
	}
}

// message renders a FieldError the way the API has always phrased them.
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "present":
		return "can't be blank"
	case "whole":
		return "must be an integer"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "max":
		return fmt.Sprintf("is too long (maximum is %s characters)", fe.Param())
	case "oneof":
		return "is not included in the list"
	default:
		return "is invalid"
	}
}

func isPresent(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() == reflect.String {
		return strings.TrimSpace(f.String()) != ""
	}
	return !f.IsZero()
}
