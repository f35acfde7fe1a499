package authflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/DukeRupert/eduauth/internal/domain"
	"github.com/DukeRupert/eduauth/internal/gateway"
	"github.com/DukeRupert/eduauth/internal/metrics"
)

// ErrBusy is returned when a submission arrives while another one for the
// same controller is still in flight. The second submission is dropped, not
// queued.
var ErrBusy = domain.Conflict("authflow", "A request is already in progress. Please wait.")

// Success notifications passed to Effects.Notify.
const (
	NotifySignedIn       = "Signed in successfully"
	NotifyAccountCreated = "Account created"
	NotifyVerifyEmail    = "Account created. Check your email to verify your address."
)

// Effects are the side effects a Controller triggers when an operation
// succeeds. Either function may be nil.
type Effects struct {
	Notify   func(message string)
	Navigate func(target string)
}

func (fx Effects) notify(msg string) {
	if fx.Notify != nil {
		fx.Notify(msg)
	}
}

func (fx Effects) navigate(target string) {
	if fx.Navigate != nil {
		fx.Navigate(target)
	}
}

// Routes are the navigation targets used after a successful operation.
type Routes struct {
	AfterSignIn   string // e.g. /dashboard
	AfterSignUp   string // used when the provider starts a session on sign-up
	VerifyEmail   string // used when the provider requires email verification
	OAuthCallback string // absolute URL the OAuth provider returns to
}

// DefaultRoutes returns the routes used by the server, with baseURL prefixed
// to the OAuth callback.
func DefaultRoutes(baseURL string) Routes {
	return Routes{
		AfterSignIn:   "/dashboard",
		AfterSignUp:   "/dashboard",
		VerifyEmail:   "/verify-email",
		OAuthCallback: baseURL + "/dashboard",
	}
}

// TransitionFunc observes every state change of a Controller. It is called
// with the controller's lock held and must not call back into it.
type TransitionFunc func(from, to State)

// Options configures a Controller.
type Options struct {
	Gateway      gateway.Gateway
	Routes       Routes
	Logger       *slog.Logger
	OnTransition TransitionFunc
	Now          func() time.Time
}

// Controller runs credential and OAuth submissions for one form. At most one
// operation is pending at a time.
type Controller struct {
	mode     Mode
	gw       gateway.Gateway
	routes   Routes
	logger   *slog.Logger
	observer TransitionFunc
	now      func() time.Time

	mu       sync.Mutex
	state    State
	lastUsed time.Time
}

// NewController creates a Controller in the Idle state.
func NewController(mode Mode, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		mode:     mode,
		gw:       opts.Gateway,
		routes:   opts.Routes,
		logger:   logger.With("component", "authflow", "mode", mode.String()),
		observer: opts.OnTransition,
		now:      now,
		lastUsed: now(),
	}
}

// Mode returns the form variant this controller serves.
func (c *Controller) Mode() Mode {
	return c.mode
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastUsed returns when the controller last accepted or finished an operation.
func (c *Controller) LastUsed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

// Submit validates form and, when valid, sends it to the gateway.
//
// Returned errors:
//   - ErrBusy when another operation is pending (the gateway is not called)
//   - *domain.ValidationError when the form is invalid (the gateway is not called)
//   - *domain.Error wrapping the gateway failure, whose Message is the text
//     to show the user
//
// On success Effects.Notify and Effects.Navigate are invoked and the session
// is returned. A nil session on sign-up means email verification is required.
func (c *Controller) Submit(ctx context.Context, form CredentialForm, fx Effects) (*gateway.Session, error) {
	const op = "authflow.Submit"

	c.mu.Lock()
	if c.busy() {
		c.mu.Unlock()
		metrics.SubmissionRejected(c.mode.String(), "busy")
		return nil, ErrBusy
	}
	c.lastUsed = c.now()
	c.state.Error = ""

	if result := Validate(form, c.mode); !result.Valid() {
		c.mu.Unlock()
		metrics.SubmissionRejected(c.mode.String(), "invalid")
		return nil, result.Err(op)
	}
	c.transition(State{Phase: Pending, Kind: EmailCredential})
	c.mu.Unlock()

	form = form.Normalized()
	gwOp := "sign_in_email"
	if c.mode == SignUp {
		gwOp = "sign_up_email"
	}

	// A pending call runs to completion even if the client goes away.
	callCtx := context.WithoutCancel(ctx)
	start := c.now()
	metrics.SubmissionStarted()

	var (
		sess *gateway.Session
		err  error
	)
	switch c.mode {
	case SignUp:
		sess, err = c.gw.SignUpWithCredentials(callCtx, form.Name, form.Email, form.Password)
	default:
		sess, err = c.gw.SignInWithCredentials(callCtx, form.Email, form.Password, form.RememberMe)
	}
	if err != nil {
		metrics.SubmissionFailed(EmailCredential.String(), gwOp, c.now().Sub(start))
		return nil, c.fail(op, EmailCredential, err)
	}
	metrics.SubmissionSucceeded(EmailCredential.String(), gwOp, c.now().Sub(start))

	target, msg := c.routes.AfterSignIn, NotifySignedIn
	if c.mode == SignUp {
		target, msg = c.routes.AfterSignUp, NotifyAccountCreated
		if sess == nil {
			target, msg = c.routes.VerifyEmail, NotifyVerifyEmail
		}
	}
	c.logger.Info("credential submission succeeded", "email", form.Email, "target", target)

	c.succeed(fx, msg, target)
	return sess, nil
}

// ChooseProvider starts an OAuth sign-in with provider. On success
// Effects.Navigate receives the provider's authorization URL.
func (c *Controller) ChooseProvider(ctx context.Context, provider gateway.Provider, fx Effects) error {
	const op = "authflow.ChooseProvider"

	kind := KindForProvider(provider)
	if kind == KindNone {
		return domain.Errorf(domain.EINVALID, op, "Unsupported sign-in provider")
	}

	c.mu.Lock()
	if c.busy() {
		c.mu.Unlock()
		metrics.SubmissionRejected(c.mode.String(), "busy")
		return ErrBusy
	}
	c.lastUsed = c.now()
	c.state.Error = ""
	c.transition(State{Phase: Pending, Kind: kind})
	c.mu.Unlock()

	callCtx := context.WithoutCancel(ctx)
	start := c.now()
	metrics.SubmissionStarted()

	redirectURL, err := c.gw.BeginOAuthRedirect(callCtx, provider, c.routes.OAuthCallback)
	if err != nil {
		metrics.SubmissionFailed(kind.String(), "sign_in_social", c.now().Sub(start))
		return c.fail(op, kind, err)
	}
	metrics.SubmissionSucceeded(kind.String(), "sign_in_social", c.now().Sub(start))

	c.logger.Info("oauth redirect issued", "provider", string(provider))
	c.succeed(fx, "", redirectURL)
	return nil
}

// busy reports whether an operation is in flight. Caller holds c.mu.
func (c *Controller) busy() bool {
	return c.state.Phase == Pending || c.state.Phase == Succeeded
}

// succeed moves Pending -> Succeeded, runs the effects, then returns to Idle.
func (c *Controller) succeed(fx Effects, msg, target string) {
	c.mu.Lock()
	c.transition(State{Phase: Succeeded})
	c.mu.Unlock()

	if msg != "" {
		fx.notify(msg)
	}
	fx.navigate(target)

	c.mu.Lock()
	c.lastUsed = c.now()
	c.transition(State{Phase: Idle})
	c.mu.Unlock()
}

// fail moves Pending -> Failed -> Idle, keeping the message for display.
func (c *Controller) fail(op string, kind Kind, err error) error {
	msg := gateway.Message(err, MsgGenericFailure)
	code := domain.CodeForStatus(gateway.Status(err))

	c.logger.Warn("auth provider rejected submission",
		"kind", kind.String(),
		"code", code,
		"error", err,
	)

	c.mu.Lock()
	c.lastUsed = c.now()
	c.transition(State{Phase: Failed, Kind: kind, Error: msg})
	c.transition(State{Phase: Idle, Error: msg})
	c.mu.Unlock()

	return domain.Wrap(err, code, op, msg)
}

// transition sets the state and notifies the observer. Caller holds c.mu.
func (c *Controller) transition(to State) {
	from := c.state
	c.state = to
	if c.observer != nil {
		c.observer(from, to)
	}
}
