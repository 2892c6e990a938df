package accountsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reelspro/reelspro/internal/domain"
	"github.com/reelspro/reelspro/internal/infra/logging"
	"github.com/reelspro/reelspro/internal/infra/metrics"
	http_ "github.com/reelspro/reelspro/internal/infra/transport/http"
)

// Response messages of the registration endpoint. MsgDuplicateEmail is matched
// verbatim by clients.
const (
	MsgInvalidBody        = "Invalid request body"
	MsgDuplicateEmail     = "Email is already registered"
	MsgRegisterFailed     = "Failed to register user"
	MsgRegisterSuccessful = "User registered successfully"
)

var errRegisterPanic = errors.New("register panicked")

// RegisterPath is the route of the registration endpoint.
const RegisterPath = "/api/auth/register"

// maxRegisterBody bounds the registration request body.
const maxRegisterBody = 1 << 16

// HTTPTransport serves the account endpoints.
type HTTPTransport struct {
	registrar Registrar
	validator *RegistrationValidator
	metrics   *metrics.Metrics
	log       logging.Logger
	router    chi.Router
}

var _ http.Handler = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport backed by registrar.
// A nil m disables metrics.
func NewHTTPTransport(registrar Registrar, m *metrics.Metrics) *HTTPTransport {
	ht := &HTTPTransport{
		registrar: registrar,
		validator: NewRegistrationValidator(),
		metrics:   m,
		log:       logging.GetLogger("svc.accountsvc.http_transport"),
	}

	r := chi.NewRouter()
	r.Post(RegisterPath, ht.HandleRegister)
	ht.router = r

	return ht
}

// Routes mounts the account endpoints on r.
func (ht *HTTPTransport) Routes(r chi.Router) {
	r.Post(RegisterPath, ht.HandleRegister)
}

// ServeHTTP implements http.Handler:
// - POST /api/auth/register: Register a new account.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.router.ServeHTTP(w, r)
}

// record updates the registration metrics, if any are configured.
func (ht *HTTPTransport) record(start time.Time, reason string, err error) {
	if ht.metrics == nil {
		return
	}

	ht.metrics.ObserveRegister(start)

	if err != nil {
		ht.metrics.IncrementRegistrationFailure(reason)
	} else {
		ht.metrics.IncrementRegistered()
	}
}

// HandleRegister processes registration requests.
// Expects a JSON body: {email, password, confirmPassword}.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRegister(w, r)
}

//nolint:cyclop
func (ht *HTTPTransport) handleRegister(w http.ResponseWriter, r *http.Request) (err error) {
	var (
		start  = time.Now()
		reason string
		log    = ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))
	)

	defer func(ctx context.Context) {
		if p := recover(); p != nil {
			if p == http.ErrAbortHandler { //nolint:errorlint,err113
				panic(p)
			}

			reason = metrics.ReasonInternal
			err = fmt.Errorf("%w: %v", errRegisterPanic, p)
			_ = http_.WriteError(w, http.StatusInternalServerError, MsgRegisterFailed)
		}

		ht.record(start, reason, err)

		if err != nil {
			if reason == metrics.ReasonInternal || reason == metrics.ReasonUnavailable {
				log.ErrorContext(ctx, "register failed", logging.Err(err))
			} else {
				log.InfoContext(ctx, "register rejected", "reason", reason, logging.Err(err))
			}
		} else {
			log.DebugContext(ctx, "account registered")
		}
	}(r.Context())

	var req RegisterRequest

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRegisterBody)).Decode(&req); err != nil {
		reason = metrics.ReasonValidation
		_ = http_.WriteError(w, http.StatusBadRequest, MsgInvalidBody)

		return fmt.Errorf("decode body: %w", err)
	}

	if err := ht.validator.Validate(req); err != nil {
		reason = metrics.ReasonValidation

		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			_ = http_.WriteError(w, http.StatusBadRequest, verr.Message)
		} else {
			reason = metrics.ReasonInternal
			_ = http_.WriteError(w, http.StatusInternalServerError, MsgRegisterFailed)
		}

		return fmt.Errorf("validate: %w", err)
	}

	log = log.With(logging.Group("account", "email", req.Email))

	acc, err := ht.registrar.CreateAccount(r.Context(), req.Email, req.Password)
	if err != nil {
		var verr *domain.ValidationError

		switch {
		case errors.Is(err, domain.ErrDuplicateEmail):
			reason = metrics.ReasonDuplicate
			_ = http_.WriteError(w, http.StatusConflict, MsgDuplicateEmail)
		case errors.As(err, &verr):
			reason = metrics.ReasonValidation
			_ = http_.WriteError(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, domain.ErrStoreUnavailable):
			reason = metrics.ReasonUnavailable
			_ = http_.WriteError(w, http.StatusServiceUnavailable, MsgRegisterFailed)
		default:
			reason = metrics.ReasonInternal
			_ = http_.WriteError(w, http.StatusInternalServerError, MsgRegisterFailed)
		}

		return fmt.Errorf("create account: %w", err)
	}

	if err := http_.WriteJSON(w, http.StatusCreated, RegisterResponse{
		Message: MsgRegisterSuccessful,
		User:    acc.Response(),
	}); err != nil {
		log.WarnContext(r.Context(), "write response failed", logging.Err(err))
	}

	return nil
}
