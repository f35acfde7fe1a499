// Package authflow implements the credential-form submission controller used
// by the login and signup pages.
//
// A Controller validates a CredentialForm, runs at most one gateway operation
// at a time, and reports the outcome through Effects. A Registry keeps one
// Controller per browser visit and mode.
package authflow

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/DukeRupert/eduauth/internal/domain"
)

// Mode selects which variant of the credential form is being submitted.
type Mode int

const (
	SignIn Mode = iota
	SignUp
)

func (m Mode) String() string {
	switch m {
	case SignIn:
		return "sign_in"
	case SignUp:
		return "sign_up"
	default:
		return "unknown"
	}
}

// Field names used as ValidationResult keys. They match the HTML input names.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

// User-facing validation messages.
const (
	MsgInvalidEmail     = "Invalid email address"
	MsgPasswordTooShort = "Password must be at least 8 characters long"
	MsgPasswordMismatch = "Passwords do not match"
	MsgNameRequired     = "Name is required"

	// MsgGenericFailure is shown when the provider fails without a message.
	MsgGenericFailure = "Something went wrong. Please try again."
)

// MinPasswordLength is counted in characters, not bytes.
const MinPasswordLength = 8

// CredentialForm is the transient input of one login or signup attempt.
// Name and ConfirmPassword are only meaningful in SignUp mode.
type CredentialForm struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	RememberMe      bool
}

var emailFolder = cases.Lower(language.Und)

// Normalized returns a copy with surrounding whitespace removed from name and
// email, and the email lower-cased. Passwords are left untouched.
func (f CredentialForm) Normalized() CredentialForm {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = emailFolder.String(strings.TrimSpace(f.Email))
	return f
}

// ValidationResult maps a field name to its error message. Empty means valid.
type ValidationResult map[string]string

// Valid reports whether no field failed.
func (r ValidationResult) Valid() bool {
	return len(r) == 0
}

// Err converts the result into a *domain.ValidationError, or nil when valid.
func (r ValidationResult) Err(op string) error {
	if r.Valid() {
		return nil
	}
	fields := make(map[string]string, len(r))
	for k, v := range r {
		fields[k] = v
	}
	return &domain.ValidationError{Op: op, Fields: fields}
}
