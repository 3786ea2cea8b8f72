// internal/membership/handler.go
package membership

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"membershipd/internal/auth"
	"membershipd/internal/httpx"
)

const (
	MessageRetrieved  = "Retrieved successfully"
	MessageCreated    = "Created successfully"
	MessageDeleted    = "Deleted"
	MessageValidation = "Validation Error"
	MessageNotFound   = "Membership not found."
	MessageUnauth     = "Unauthenticated."
	MessageThrottled  = "Too Many Attempts."
)

// ListResponse is the body of a list call.
type ListResponse struct {
	Memberships []Resource `json:"memberships"`
	Message     string     `json:"message"`
}

// ItemResponse is the body of create, show and update calls.
type ItemResponse struct {
	Membership Resource `json:"membership"`
	Message    string   `json:"message"`
}

// ValidationResponse is the body of a rejected create.
type ValidationResponse struct {
	Error   *ValidationError `json:"error"`
	Message string           `json:"message"`
}

type Handler struct {
	service Service
	strict  bool
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithStrictStatus makes validation failures answer 400, creates 201 and
// deletes 204 with no body. Without it every success and validation failure
// answers 200.
func WithStrictStatus(strict bool) HandlerOption {
	return func(h *Handler) { h.strict = strict }
}

func NewHandler(service Service, opts ...HandlerOption) *Handler {
	h := &Handler{service: service}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the membership resource router, to be mounted at /membership.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Route("/{id}", func(r chi.Router) {
		r.Use(h.membershipCtx)
		r.Get("/", h.handleShow)
		r.Put("/", h.handleUpdate)
		r.Patch("/", h.handleUpdate)
		r.Delete("/", h.handleDelete)
	})
	return r
}

type membershipKey struct{}

// membershipCtx resolves {id} to a stored membership before the handler runs,
// answering 404 when there is none.
func (h *Handler) membershipCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			httpx.WriteMessage(w, http.StatusNotFound, MessageNotFound)
			return
		}
		m, err := h.service.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				httpx.WriteMessage(w, http.StatusNotFound, MessageNotFound)
				return
			}
			httpx.ServerError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), membershipKey{}, m)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func membershipFrom(ctx context.Context) *Membership {
	m, _ := ctx.Value(membershipKey{}).(*Membership)
	return m
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ms, err := h.service.List(r.Context())
	if err != nil {
		httpx.ServerError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ListResponse{
		Memberships: ProjectAll(ms),
		Message:     MessageRetrieved,
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	who, err := auth.Require(r.Context())
	if errors.Is(err, auth.ErrUnauthenticated) {
		httpx.WriteMessage(w, http.StatusUnauthorized, MessageUnauth)
		return
	}

	f, err := readFields(w, r)
	if err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, errInvalidBody.Error())
		return
	}
	in, err := bindCreate(f)
	if err != nil {
		h.writeCreateError(w, r, err)
		return
	}

	m, err := h.service.Create(r.Context(), who, in)
	if err != nil {
		h.writeCreateError(w, r, err)
		return
	}

	status := http.StatusOK
	if h.strict {
		status = http.StatusCreated
	}
	httpx.WriteJSON(w, status, ItemResponse{Membership: Project(m), Message: MessageCreated})
}

func (h *Handler) writeCreateError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		status := http.StatusOK
		if h.strict {
			status = http.StatusBadRequest
		}
		httpx.WriteJSON(w, status, ValidationResponse{Error: verr, Message: MessageValidation})
	case errors.Is(err, ErrRateLimited):
		httpx.WriteMessage(w, http.StatusTooManyRequests, MessageThrottled)
	default:
		httpx.ServerError(w, r, err)
	}
}

func (h *Handler) handleShow(w http.ResponseWriter, r *http.Request) {
	m := membershipFrom(r.Context())
	httpx.WriteJSON(w, http.StatusOK, ItemResponse{Membership: Project(m), Message: MessageRetrieved})
}

// handleUpdate answers with the read message, as the show call does.
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	current := membershipFrom(r.Context())

	f, err := readFields(w, r)
	if err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, errInvalidBody.Error())
		return
	}
	patch, err := bindPatch(f)
	if err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, errInvalidBody.Error())
		return
	}

	m, err := h.service.Update(r.Context(), current.ID, patch)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteMessage(w, http.StatusNotFound, MessageNotFound)
			return
		}
		httpx.ServerError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ItemResponse{Membership: Project(m), Message: MessageRetrieved})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	m := membershipFrom(r.Context())
	if err := h.service.Delete(r.Context(), m.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteMessage(w, http.StatusNotFound, MessageNotFound)
			return
		}
		httpx.ServerError(w, r, err)
		return
	}
	if h.strict {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, MessageDeleted)
}
