package registerform

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/reelspro/reelspro/internal/domain"
	"github.com/reelspro/reelspro/internal/infra/logging"
	"github.com/reelspro/reelspro/internal/svc/accountsvc"
	"github.com/reelspro/reelspro/internal/svc/accountsvc/accountclient"
)

// Messages shown by the form.
const (
	MsgPrivacyRequired = "You must agree to the Privacy Policy"
	MsgDuplicateEmail  = "This email is already registered."
	MsgSuccess         = "Registration successful! Redirecting..."
	MsgGenericFailure  = "Failed to register. Please try again."
	MsgRejected        = "Registration failed"
)

const (
	// RedirectDelay is how long the success message shows before moving to login.
	RedirectDelay = 1500 * time.Millisecond
	// DuplicateNoticeDuration is how long the duplicate-email notice and its login link stay visible.
	DuplicateNoticeDuration = 5 * time.Second
)

// ErrSubmitInFlight is returned when Submit is called while a submission is pending.
var ErrSubmitInFlight = errors.New("submission already in progress")

// State is the lifecycle position of the form.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Input holds the values entered into the form.
type Input struct {
	Email           string
	Password        string
	ConfirmPassword string
	PrivacyAccepted bool
}

// View renders the form's feedback.
type View interface {
	// SetBusy disables inputs and the submit action while true.
	SetBusy(busy bool)
	// ShowError displays an error message.
	ShowError(msg string)
	// ShowDuplicateEmail displays the duplicate-email notice with an action that opens the login page.
	ShowDuplicateEmail(msg string, goToLogin func())
	// HideDuplicateEmail removes the duplicate-email notice.
	HideDuplicateEmail()
	// ShowSuccess displays the success message.
	ShowSuccess(msg string)
}

// Registrar submits a registration to the account service.
type Registrar interface {
	Register(ctx context.Context, req accountsvc.RegisterRequest) (accountsvc.RegisterResponse, error)
}

// AfterFunc runs f after d and returns a function that cancels it.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func timeAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Option configures a Controller.
type Option func(*Controller)

// WithAfterFunc replaces the timer used for delayed navigation and notices.
func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Controller) {
		c.afterFunc = fn
	}
}

// Controller drives the registration form: local validation, a single
// in-flight submission, and the outcome feedback.
type Controller struct {
	registrar Registrar
	view      View
	nav       Navigator
	validator *accountsvc.RegistrationValidator
	afterFunc AfterFunc
	log       logging.Logger

	m     sync.Mutex
	state State
}

// NewController creates a Controller in the Idle state.
func NewController(registrar Registrar, view View, nav Navigator, opts ...Option) *Controller {
	c := &Controller{
		registrar: registrar,
		view:      view,
		nav:       nav,
		validator: accountsvc.NewRegistrationValidator(),
		afterFunc: timeAfterFunc,
		log:       logging.GetLogger("ui.registerform.controller"),
		state:     StateIdle,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.m.Lock()
	defer c.m.Unlock()

	return c.state
}

// validate mirrors the server checks and adds the privacy acknowledgment,
// which is checked right after the required fields.
func (c *Controller) validate(in Input) error {
	err := c.validator.Validate(accountsvc.RegisterRequest{
		Email:           in.Email,
		Password:        in.Password,
		ConfirmPassword: in.ConfirmPassword,
	})

	var rerr *accountsvc.RuleError
	if errors.As(err, &rerr) && rerr.Rule == accountsvc.RuleRequired {
		return err
	}

	if !in.PrivacyAccepted {
		return domain.NewValidationError(MsgPrivacyRequired)
	}

	return err
}

// Submit validates in and, when it passes, sends the registration. It blocks
// until the registrar answers. Local validation failures are shown and
// returned without changing state or contacting the server.
func (c *Controller) Submit(ctx context.Context, in Input) (err error) {
	log := c.log.With(logging.Group("form", "email", in.Email))

	defer func() {
		if err != nil {
			log.DebugContext(ctx, "submit failed", logging.Err(err))
		} else {
			log.DebugContext(ctx, "submit succeeded")
		}
	}()

	c.m.Lock()
	if c.state == StateSubmitting {
		c.m.Unlock()

		return ErrSubmitInFlight
	}

	if err := c.validate(in); err != nil {
		c.m.Unlock()

		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			c.view.ShowError(verr.Message)
		} else {
			c.view.ShowError(MsgGenericFailure)
		}

		return err
	}

	c.state = StateSubmitting
	c.m.Unlock()

	c.view.SetBusy(true)

	_, err = c.registrar.Register(ctx, accountsvc.RegisterRequest{
		Email:           in.Email,
		Password:        in.Password,
		ConfirmPassword: in.ConfirmPassword,
	})

	c.m.Lock()
	if err != nil {
		c.state = StateFailed
	} else {
		c.state = StateSucceeded
	}
	c.m.Unlock()

	c.view.SetBusy(false)

	if err != nil {
		c.showFailure(err)

		return fmt.Errorf("register: %w", err)
	}

	c.view.ShowSuccess(MsgSuccess)
	c.afterFunc(RedirectDelay, func() {
		c.nav.Navigate(LoginPath)
	})

	return nil
}

func (c *Controller) showFailure(err error) {
	var rerr *accountclient.ResponseError
	if !errors.As(err, &rerr) {
		c.view.ShowError(MsgGenericFailure)

		return
	}

	switch rerr.Message {
	case accountsvc.MsgDuplicateEmail:
		c.view.ShowDuplicateEmail(MsgDuplicateEmail, func() {
			c.nav.Navigate(LoginPath)
		})
		c.afterFunc(DuplicateNoticeDuration, c.view.HideDuplicateEmail)
	case "":
		c.view.ShowError(MsgRejected)
	default:
		c.view.ShowError(rerr.Message)
	}
}
