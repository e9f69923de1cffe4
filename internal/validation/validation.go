// Package validation is the request-shape layer shared by every mutating
// operation.  Inputs are declared as structs with `validate` tags; Check
// runs them through go-playground/validator and returns a Result that is
// either Ok or carries the complete list of field errors.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one invalid field.  Row is set only for bulk
// inputs where the caller numbers the items.
type FieldError struct {
	Row     int    `json:"row,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s %s", e.Row, e.Field, e.Message)
	}
	return e.Field + " " + e.Message
}

// Result is the outcome of validating a value of type T.
type Result[T any] struct {
	Value  T
	Errors []FieldError
}

// Ok reports whether validation passed.
func (r Result[T]) Ok() bool { return len(r.Errors) == 0 }

// Add appends a field error produced by a check the tags cannot express.
func (r *Result[T]) Add(field, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

var (
	once     sync.Once
	validate *validator.Validate

	rgbHex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// Validator returns the shared, configured validator instance.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// report json names rather than Go field names
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("rgbhex", func(fl validator.FieldLevel) bool {
			return rgbHex.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Check validates v, which must be a struct or a pointer to one.
func Check[T any](v T) Result[T] {
	res := Result[T]{Value: v}
	err := Validator().Struct(v)
	if err == nil {
		return res
	}
	var verrs validator.ValidationErrors
	if ve, ok := err.(validator.ValidationErrors); ok {
		verrs = ve
	} else {
		res.Add("", err.Error())
		return res
	}
	for _, fe := range verrs {
		res.Errors = append(res.Errors, FieldError{Field: fieldPath(fe), Message: message(fe)})
	}
	return res
}

// CheckRow is Check for one item of a bulk input.  Every error carries row.
func CheckRow[T any](row int, v T) Result[T] {
	res := Check(v)
	for i := range res.Errors {
		res.Errors[i].Row = row
	}
	return res
}

// fieldPath drops the struct name from the namespace so nested fields
// read as "placements[1].desk_number".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	str := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if str {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		if str {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "rgbhex":
		return "must be a colour in #RRGGBB form"
	case "required_with":
		return fmt.Sprintf("is required when %s is set", fe.Param())
	case "unique":
		return "must not contain duplicates"
	}
	return fmt.Sprintf("failed %q check", fe.Tag())
}
