package account

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegisterForm is the sign-up form.
type RegisterForm struct {
	Username  string `form:"username" validate:"required,max=150,excludesall= /"`
	Email     string `form:"email" validate:"required,max=254,email"`
	Password1 string `form:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report errors under the posted field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		return name
	})
	return v
}

// Clean normalizes the form and returns field errors keyed by form field.
func (f *RegisterForm) Clean() map[string]string {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = normalizeEmail(f.Email)
	return fieldErrors(validate.Struct(f))
}

func (f *LoginForm) Clean() map[string]string {
	f.Username = strings.TrimSpace(f.Username)
	return fieldErrors(validate.Struct(f))
}

func fieldErrors(err error) map[string]string {
	errs := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs
	}
	for _, fe := range verrs {
		errs[fe.Field()] = message(fe)
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "email":
		return "invalid email"
	case "eqfield":
		return "passwords do not match"
	default:
		return "invalid"
	}
}
