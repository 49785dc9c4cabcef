package queries

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "splaro/pkg/errors"
)

var statusCodePattern = regexp.MustCompile(`^[A-Z_]*$`)

// Validator runs struct-tag validation and converts failures into
// validation AppErrors keyed by JSON field name.
type Validator struct {
	validate *validator.Validate
}

var (
	defaultValidator *Validator
	validatorOnce    sync.Once
)

// GetValidator returns the shared validator instance
func GetValidator() *Validator {
	validatorOnce.Do(func() {
		defaultValidator = NewValidator()
	})
	return defaultValidator
}

// NewValidator creates a validator with the admin query rules registered
func NewValidator() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// status filters are upper-case codes such as PENDING or ON_HOLD
	_ = v.RegisterValidation("statuscode", func(fl validator.FieldLevel) bool {
		return statusCodePattern.MatchString(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Struct validates s and returns a validation AppError on failure
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError(err.Error()).WithCode(apperrors.CodeInvalidQuery)
	}

	fields := make(map[string]interface{}, len(verrs))
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := errorMessage(fe.Tag(), fe.Param())
		fields[fe.Field()] = msg
		messages = append(messages, fe.Field()+": "+msg)
	}

	return apperrors.NewValidationError(strings.Join(messages, "; ")).
		WithCode(apperrors.CodeInvalidQuery).
		WithDetails(fields)
}

func errorMessage(tag, param string) string {
	switch tag {
	case "required":
		return "This field is required"
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", param)
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", param)
	case "max":
		return fmt.Sprintf("Must be at most %s characters", param)
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(param, " ", ", "))
	case "statuscode":
		return "Must contain only letters and underscores"
	default:
		return fmt.Sprintf("Failed %s validation", tag)
	}
}
