package notificationsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/reelspro/reelspro/internal/domain"
	"github.com/reelspro/reelspro/internal/infra/logging"
	http_ "github.com/reelspro/reelspro/internal/infra/transport/http"
)

// BasePath is the route prefix of the notification endpoints.
const BasePath = "/api/notifications"

const (
	// DefaultListLimit applies when no limit is given.
	DefaultListLimit = 50
	// MaxListLimit caps the limit a caller may request.
	MaxListLimit = 200

	maxCreateBody = 1 << 12
)

// CreateRequest is the body of POST /api/notifications.
type CreateRequest struct {
	From string                  `json:"from"`
	To   string                  `json:"to"`
	Type domain.NotificationType `json:"type"`
}

// HTTPTransport serves the notification endpoints.
type HTTPTransport struct {
	notifier Notifier
	log      logging.Logger
	router   chi.Router
}

var _ http.Handler = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport backed by notifier.
func NewHTTPTransport(notifier Notifier) *HTTPTransport {
	ht := &HTTPTransport{
		notifier: notifier,
		log:      logging.GetLogger("svc.notificationsvc.http_transport"),
	}

	r := chi.NewRouter()
	ht.Routes(r)
	ht.router = r

	return ht
}

// Routes mounts the notification endpoints on r:
// - POST /api/notifications: Create a notification
// - GET /api/notifications?to=&unread=&limit=: List a recipient's notifications
// - POST /api/notifications/{id}/read: Mark a notification read.
func (ht *HTTPTransport) Routes(r chi.Router) {
	r.Route(BasePath, func(r chi.Router) {
		r.Post("/", ht.HandleCreate)
		r.Get("/", ht.HandleList)
		r.Post("/{id}/read", ht.HandleMarkRead)
	})
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.router.ServeHTTP(w, r)
}

// writeServiceError maps service errors onto status codes; internal detail is never returned.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError

	switch {
	case errors.As(err, &verr):
		_ = http_.WriteError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, domain.ErrNotificationNotFound):
		_ = http_.WriteError(w, http.StatusNotFound, "Notification not found")
	case errors.Is(err, domain.ErrStoreUnavailable):
		_ = http_.WriteError(w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable))
	default:
		_ = http_.WriteError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

// HandleCreate processes notification creation requests.
// Expects a JSON body: {from, to, type}.
func (ht *HTTPTransport) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleCreate(w, r)
}

func (ht *HTTPTransport) handleCreate(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "create notification failed", logging.Err(err))
		} else {
			log.DebugContext(ctx, "notification created")
		}
	}(r.Context())

	var req CreateRequest

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCreateBody)).Decode(&req); err != nil {
		_ = http_.WriteError(w, http.StatusBadRequest, "Invalid request body")

		return fmt.Errorf("decode body: %w", err)
	}

	n, err := ht.notifier.Create(r.Context(), req.From, req.To, req.Type)
	if err != nil {
		writeServiceError(w, err)

		return fmt.Errorf("create: %w", err)
	}

	if err := http_.WriteJSON(w, http.StatusCreated, n); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}

// HandleList processes listing requests.
// Expects query parameters: to (required), unread (bool), limit (1..MaxListLimit).
func (ht *HTTPTransport) HandleList(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleList(w, r)
}

func (ht *HTTPTransport) handleList(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "list notifications failed", logging.Err(err))
		} else {
			log.DebugContext(ctx, "notifications listed")
		}
	}(r.Context())

	query := r.URL.Query()

	unread := false
	if v := query.Get("unread"); v != "" {
		if unread, err = strconv.ParseBool(v); err != nil {
			_ = http_.WriteError(w, http.StatusBadRequest, "unread must be a boolean")

			return fmt.Errorf("parse unread: %w", err)
		}
	}

	limit := DefaultListLimit
	if v := query.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 1 || limit > MaxListLimit {
			_ = http_.WriteError(w, http.StatusBadRequest,
				fmt.Sprintf("limit must be between 1 and %d", MaxListLimit))

			return fmt.Errorf("parse limit %q: %w", v, errors.Join(domain.ErrValidation, err))
		}
	}

	list, err := ht.notifier.ListForRecipient(r.Context(), query.Get("to"), unread, limit)
	if err != nil {
		writeServiceError(w, err)

		return fmt.Errorf("list: %w", err)
	}

	if err := http_.WriteJSON(w, http.StatusOK, list); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}

// HandleMarkRead processes mark-read requests for the notification in the path.
func (ht *HTTPTransport) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleMarkRead(w, r)
}

func (ht *HTTPTransport) handleMarkRead(w http.ResponseWriter, r *http.Request) (err error) {
	id := chi.URLParam(r, "id")
	log := ht.log.With(logging.Group("notification", "id", id))

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "mark read failed", logging.Err(err))
		} else {
			log.DebugContext(ctx, "notification marked read")
		}
	}(r.Context())

	if err := ht.notifier.MarkRead(r.Context(), id); err != nil {
		writeServiceError(w, err)

		return fmt.Errorf("mark read: %w", err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}
