package auth

import "github.com/DukeRupert/eduauth/internal/templ/shared"

// Mode selects the login or signup variant of the credential page.
type Mode string

const (
	ModeSignIn Mode = "sign_in"
	ModeSignUp Mode = "sign_up"
)

// Pending kinds, matching the credential form controller's kind names.
const (
	PendingEmail       = "email"
	PendingOAuthGoogle = "oauth_google"
	PendingOAuthGitHub = "oauth_github"
)

// CredentialPageData contains data for the login and signup pages
type CredentialPageData struct {
	Mode      Mode
	Form      FormData
	Errors    map[string]string
	Flash     *shared.Flash
	CSRFToken string
	ReturnTo  string
	Providers []ProviderOption

	// Pending is set while the visit has a submission in flight; every
	// button is disabled and the busy one shows its pending label.
	Pending     bool
	PendingKind string
}

// ProviderOption is one OAuth button.
type ProviderOption struct {
	ID          string // google, github
	Label       string // Google, GitHub
	PendingKind string
}

// FormData holds field values for repopulation after errors.
// Passwords are never echoed back.
type FormData struct {
	Name       string
	Email      string
	RememberMe bool
}

// VerifyEmailPageData contains data for the "check your inbox" page
type VerifyEmailPageData struct {
	Email string
	Flash *shared.Flash
}
