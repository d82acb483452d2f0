package usecase

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/phenrril/catering/internal/domain"
)

var (
	phoneRe = regexp.MustCompile(`^[0-9]{10}$`)
	codeRe  = regexp.MustCompile(`^[A-Z][0-9]{7}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// prefix v = catering specific format
	_ = v.RegisterValidation("vphone", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("vcode", func(fl validator.FieldLevel) bool {
		return codeRe.MatchString(fl.Field().String())
	})
	return v
}

// validateStruct runs the struct tags and turns failures into a
// *domain.ValidationError keyed by field name.
func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return err
	}
	fields := make(map[string]string, len(valErrs))
	for _, fe := range valErrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &domain.ValidationError{Fields: fields}
}

func fieldMessage(f validator.FieldError) string {
	switch f.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "vphone":
		return "must be exactly 10 digits"
	case "vcode":
		return "must be one capital letter followed by 7 digits"
	case "max":
		return fmt.Sprintf("cannot be more than %s characters long", f.Param())
	default:
		return fmt.Sprintf("is invalid (%s)", f.Tag())
	}
}
