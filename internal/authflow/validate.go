package authflow

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// signInInput and signUpInput carry the rules for each mode. Field names
// reported by the validator come from the form tag.
type signInInput struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"min=8"`
}

type signUpInput struct {
	Name            string `form:"name" validate:"required"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"min=8"`
	ConfirmPassword string `form:"confirmPassword" validate:"eqfield=Password"`
}

// messages maps a failing field to the text shown next to it. Every rule on a
// field collapses into a single message.
var messages = map[string]string{
	FieldName:            MsgNameRequired,
	FieldEmail:           MsgInvalidEmail,
	FieldPassword:        MsgPasswordTooShort,
	FieldConfirmPassword: MsgPasswordMismatch,
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks the form against the rules for mode. It has no side
// effects; calling it twice on the same form yields the same result.
func Validate(form CredentialForm, mode Mode) ValidationResult {
	form = form.Normalized()

	var input any
	switch mode {
	case SignUp:
		input = signUpInput{
			Name:            form.Name,
			Email:           form.Email,
			Password:        form.Password,
			ConfirmPassword: form.ConfirmPassword,
		}
	default:
		input = signInInput{
			Email:    form.Email,
			Password: form.Password,
		}
	}

	result := ValidationResult{}
	err := formValidator().Struct(input)
	if err == nil {
		return result
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// Only reachable on a programming error in the input structs.
		result[FieldEmail] = MsgInvalidEmail
		return result
	}
	for _, fe := range fieldErrs {
		if _, seen := result[fe.Field()]; seen {
			continue
		}
		if msg, ok := messages[fe.Field()]; ok {
			result[fe.Field()] = msg
		}
	}
	return result
}
