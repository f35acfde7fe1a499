// Package handler contains HTTP handlers for the eduauth application.
//
// This file implements the login, signup, OAuth and logout handlers. Every
// credential submission goes through the visit's authflow.Controller, which
// validates the form and guarantees at most one provider call per visit.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/DukeRupert/eduauth/internal/authflow"
	"github.com/DukeRupert/eduauth/internal/csrf"
	"github.com/DukeRupert/eduauth/internal/domain"
	"github.com/DukeRupert/eduauth/internal/gateway"
	authpages "github.com/DukeRupert/eduauth/internal/templ/pages/auth"
	"github.com/DukeRupert/eduauth/internal/templ/shared"
)

// =============================================================================
// Handler Configuration
// =============================================================================

// Visits hands out the credential form controller for a browser visit.
// *authflow.Registry implements it.
type Visits interface {
	Controller(visit string, mode authflow.Mode) *authflow.Controller
	State(visit string, mode authflow.Mode) authflow.State
}

// AuthHandler handles authentication-related HTTP requests.
//
// Routes handled:
// - GET  /login            -> ShowLogin
// - POST /login            -> Login
// - GET  /signup           -> ShowSignup
// - POST /signup           -> Signup
// - POST /auth/{provider}  -> OAuth
// - GET  /verify-email     -> ShowVerifyEmail
// - POST /logout           -> Logout
type AuthHandler struct {
	visits    Visits
	sessions  gateway.SessionStore
	providers []gateway.Provider
	logger    *slog.Logger
	isSecure  bool
}

// NewAuthHandler creates a new AuthHandler.
//
// Example usage in main.go:
//
//	authHandler := handler.NewAuthHandler(registry, client, gateway.Providers, logger, cfg.IsSecure())
func NewAuthHandler(
	visits Visits,
	sessions gateway.SessionStore,
	providers []gateway.Provider,
	logger *slog.Logger,
	isSecure bool,
) *AuthHandler {
	return &AuthHandler{
		visits:    visits,
		sessions:  sessions,
		providers: providers,
		logger:    logger,
		isSecure:  isSecure,
	}
}

// submissionResult is the JSON body returned to API clients on success.
type submissionResult struct {
	Redirect string `json:"redirect"`
	Message  string `json:"message,omitempty"`
}

// =============================================================================
// GET /login, GET /signup - Show Credential Forms
// =============================================================================

// ShowLogin renders the sign-in form.
//
// Query Parameters:
// - return_to (optional): URL to redirect to after successful sign-in
// - logout (optional): "1" shows the signed-out message
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	flash := popFlash(w, r, h.isSecure)
	if flash == nil && r.URL.Query().Get("logout") == "1" {
		flash = &shared.Flash{Type: shared.FlashSuccess, Message: "You have been signed out."}
	}
	h.showForm(w, r, authflow.SignIn, flash)
}

// ShowSignup renders the account creation form.
func (h *AuthHandler) ShowSignup(w http.ResponseWriter, r *http.Request) {
	h.showForm(w, r, authflow.SignUp, popFlash(w, r, h.isSecure))
}

func (h *AuthHandler) showForm(w http.ResponseWriter, r *http.Request, mode authflow.Mode, flash *shared.Flash) {
	visit := ensureVisit(w, r, h.isSecure)
	state := h.visits.State(visit, mode)

	// The last failure stays visible until the next submission.
	if flash == nil && state.Error != "" {
		flash = &shared.Flash{Type: shared.FlashError, Message: state.Error}
	}

	data := h.pageData(w, r, mode, state)
	data.Flash = flash
	data.ReturnTo = safeReturnTo(r.URL.Query().Get("return_to"))

	renderComponent(w, r, h.logger, http.StatusOK, h.page(mode, data))
}

// =============================================================================
// POST /login, POST /signup - Submit Credentials
// =============================================================================

// Login processes the sign-in form.
//
// Form Fields:
// - email, password (required)
// - rememberMe (optional): "true" for a persistent session
// - return_to (optional): URL to redirect to after success
//
// Responses:
// - 303 to return_to or /dashboard on success
// - 422 with field errors when the form is invalid
// - the provider's status (e.g. 401) with its message on rejection
// - 409 when a submission for this visit is still in flight
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, authflow.SignIn)
}

// Signup processes the account creation form.
//
// Form Fields:
// - name, email, password, confirmPassword (required)
//
// On success the user lands on /dashboard, or on /verify-email when the
// provider requires the address to be confirmed first.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, authflow.SignUp)
}

func (h *AuthHandler) submit(w http.ResponseWriter, r *http.Request, mode authflow.Mode) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("failed to parse form", "error", err)
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.EINVALID, "handler.submit", "Invalid form submission. Please try again."))
		return
	}

	form := authflow.CredentialForm{
		Name:            r.PostFormValue("name"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
		RememberMe:      r.PostFormValue("rememberMe") == "true",
	}
	returnTo := safeReturnTo(r.PostFormValue("return_to"))

	visit := ensureVisit(w, r, h.isSecure)
	controller := h.visits.Controller(visit, mode)

	var target, notice string
	fx := authflow.Effects{
		Notify:   func(msg string) { notice = msg },
		Navigate: func(to string) { target = to },
	}

	sess, err := controller.Submit(r.Context(), form, fx)
	if err != nil {
		h.renderFailure(w, r, mode, visit, form, returnTo, err)
		return
	}

	if sess != nil {
		forwardCookies(w, sess.Cookies)
		if returnTo != "" {
			target = returnTo
		}
	}

	h.completeRedirect(w, r, target, notice)
}

// =============================================================================
// POST /auth/{provider} - Begin OAuth
// =============================================================================

// OAuth starts sign-in with an OAuth provider and redirects the browser to
// the provider's consent page.
//
// Form Fields:
// - mode: "sign_in" or "sign_up", selects which page's controller runs
func (h *AuthHandler) OAuth(w http.ResponseWriter, r *http.Request) {
	provider, err := gateway.ParseProvider(r.PathValue("provider"))
	if err != nil || !h.offers(provider) {
		NotFoundResponse(w, r, h.logger)
		return
	}

	mode := authflow.SignIn
	if r.PostFormValue("mode") == string(authpages.ModeSignUp) {
		mode = authflow.SignUp
	}
	returnTo := safeReturnTo(r.PostFormValue("return_to"))

	visit := ensureVisit(w, r, h.isSecure)
	controller := h.visits.Controller(visit, mode)

	var target string
	err = controller.ChooseProvider(r.Context(), provider, authflow.Effects{
		Navigate: func(to string) { target = to },
	})
	if err != nil {
		h.renderFailure(w, r, mode, visit, authflow.CredentialForm{}, returnTo, err)
		return
	}

	h.logger.Info("oauth redirect", "provider", string(provider))
	h.completeRedirect(w, r, target, "")
}

// =============================================================================
// GET /verify-email - Email Verification Notice
// =============================================================================

// ShowVerifyEmail tells a new user to confirm their address.
func (h *AuthHandler) ShowVerifyEmail(w http.ResponseWriter, r *http.Request) {
	data := authpages.VerifyEmailPageData{
		Flash: popFlash(w, r, h.isSecure),
	}
	renderComponent(w, r, h.logger, http.StatusOK, authpages.VerifyEmailPage(data))
}

// =============================================================================
// POST /logout - End Session
// =============================================================================

// Logout ends the provider session and clears its cookies.
//
// Notes:
// - Calling without a session is fine
// - Always redirects to login, even if the provider call fails
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cleared, err := h.sessions.SignOut(r.Context(), r.Cookies())
	if err != nil {
		h.logger.Warn("failed to end provider session", "error", err)
	}
	forwardCookies(w, cleared)

	h.logger.Debug("user signed out")
	http.Redirect(w, r, "/login?logout=1", http.StatusSeeOther)
}

// =============================================================================
// Response Helpers
// =============================================================================

// completeRedirect sends the browser to target, carrying notice as a flash.
func (h *AuthHandler) completeRedirect(w http.ResponseWriter, r *http.Request, target, notice string) {
	if acceptsJSON(r) {
		writeJSON(w, http.StatusOK, submissionResult{Redirect: target, Message: notice})
		return
	}
	if notice != "" {
		setFlash(w, shared.Flash{Type: shared.FlashSuccess, Message: notice}, h.isSecure)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// renderFailure re-renders the form for a rejected submission.
func (h *AuthHandler) renderFailure(
	w http.ResponseWriter,
	r *http.Request,
	mode authflow.Mode,
	visit string,
	form authflow.CredentialForm,
	returnTo string,
	err error,
) {
	if acceptsJSON(r) {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			ValidationErrorResponse(w, r, h.logger, err)
			return
		}
		ErrorResponse(w, r, h.logger, err)
		return
	}

	data := h.pageData(w, r, mode, h.visits.State(visit, mode))
	data.ReturnTo = returnTo
	form = form.Normalized()
	data.Form = authpages.FormData{Name: form.Name, Email: form.Email, RememberMe: form.RememberMe}

	status := failureStatus(err)
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		data.Errors = ve.Fields
	case errors.Is(err, authflow.ErrBusy):
		data.Flash = &shared.Flash{Type: shared.FlashWarning, Message: publicMessage(err)}
	default:
		data.Flash = &shared.Flash{Type: shared.FlashError, Message: publicMessage(err)}
		logError(h.logger, r, err, domain.ErrorCode(err), domain.ErrorOp(err), status)
	}

	renderComponent(w, r, h.logger, status, h.page(mode, data))
}

func (h *AuthHandler) pageData(w http.ResponseWriter, r *http.Request, mode authflow.Mode, state authflow.State) authpages.CredentialPageData {
	data := authpages.CredentialPageData{
		Mode:      authpages.ModeSignIn,
		Errors:    map[string]string{},
		CSRFToken: csrf.EnsureToken(w, r, h.isSecure),
		Pending:   state.Pending(),
	}
	if mode == authflow.SignUp {
		data.Mode = authpages.ModeSignUp
	}
	if state.Pending() {
		data.PendingKind = state.Kind.String()
	}
	for _, p := range h.providers {
		data.Providers = append(data.Providers, authpages.ProviderOption{
			ID:          string(p),
			Label:       p.DisplayName(),
			PendingKind: authflow.KindForProvider(p).String(),
		})
	}
	return data
}

func (h *AuthHandler) page(mode authflow.Mode, data authpages.CredentialPageData) templ.Component {
	if mode == authflow.SignUp {
		return authpages.SignupPage(data)
	}
	return authpages.LoginPage(data)
}

func (h *AuthHandler) offers(p gateway.Provider) bool {
	for _, offered := range h.providers {
		if offered == p {
			return true
		}
	}
	return false
}

// failureStatus picks the response status for a rejected submission.
// Provider rejections keep the provider's own 4xx status.
func failureStatus(err error) int {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity
	}
	if status := gateway.Status(err); status >= 400 && status < 500 {
		return status
	}
	return ErrorCodeToHTTPStatus(domain.ErrorCode(err))
}

// publicMessage returns the message carried by err for display. Unlike
// domain.ErrorMessage it keeps the provider's text even for 5xx failures.
func publicMessage(err error) string {
	var e *domain.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return authflow.MsgGenericFailure
}

// =============================================================================
// Helper Functions
// =============================================================================

// safeReturnTo returns rawURL when it is safe to redirect to, else "".
func safeReturnTo(rawURL string) string {
	if rawURL == "" || !isSafeRedirectURL(rawURL) {
		return ""
	}
	return rawURL
}

// isSafeRedirectURL checks if a URL is safe to redirect to.
//
// This prevents open redirect vulnerabilities by ensuring:
// - URL is relative (starts with /)
// - URL is not a protocol-relative URL (not // or /\)
// - URL does not redirect to external domain
//
// Examples:
// - "/dashboard"              -> true (relative URL)
// - "/settings?tab=profile"   -> true (relative URL with query)
// - "//evil.com"              -> false (protocol-relative, could be external)
// - "https://evil.com"        -> false (absolute URL to external domain)
// - "javascript:alert(1)"     -> false (javascript URL)
func isSafeRedirectURL(rawURL string) bool {
	if !strings.HasPrefix(rawURL, "/") {
		return false
	}
	if strings.HasPrefix(rawURL, "//") || strings.HasPrefix(rawURL, `/\`) {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if parsed.Scheme != "" || parsed.Host != "" {
		return false
	}

	return true
}

// =============================================================================
// Route Registration Helper
// =============================================================================

// Guards are the middleware applied to individual routes. Nil entries are
// skipped.
type Guards struct {
	CSRF        func(http.Handler) http.Handler
	LimitLogin  func(http.Handler) http.Handler
	LimitSignup func(http.Handler) http.Handler
	LimitOAuth  func(http.Handler) http.Handler
	// SignedIn runs on the form pages, e.g. to send signed-in users onward.
	SignedIn func(http.Handler) http.Handler
}

func guard(h http.HandlerFunc, mws ...func(http.Handler) http.Handler) http.Handler {
	var out http.Handler = h
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			out = mws[i](out)
		}
	}
	return out
}

// RegisterRoutes registers all auth routes on the provided ServeMux.
//
// Usage in main.go:
//
//	authHandler.RegisterRoutes(mux, handler.Guards{
//	    CSRF:       csrf.Protect(handler.CSRFFailureResponse(logger)),
//	    LimitLogin: rateLimiter.LimitLogin,
//	})
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, g Guards) {
	mux.Handle("GET /login", guard(h.ShowLogin, g.SignedIn))
	mux.Handle("POST /login", guard(h.Login, g.LimitLogin, g.CSRF))
	mux.Handle("GET /signup", guard(h.ShowSignup, g.SignedIn))
	mux.Handle("POST /signup", guard(h.Signup, g.LimitSignup, g.CSRF))
	mux.Handle("POST /auth/{provider}", guard(h.OAuth, g.LimitOAuth, g.CSRF))
	mux.HandleFunc("GET /verify-email", h.ShowVerifyEmail)
	mux.Handle("POST /logout", guard(h.Logout, g.CSRF))
}
