package appointments

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sehaty-app/sehaty/internal/authz"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
	"github.com/sehaty-app/sehaty/internal/shared"
)

// Handler exposes appointment endpoints.
type Handler struct {
	svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// MountRoutes registers appointment routes behind the appointments
// capability and rejection records behind rejectedappointments.
func (h *Handler) MountRoutes(r chi.Router, gate authz.Middleware) {
	r.Route("/appointments", func(r chi.Router) {
		r.Use(gate.Require("appointments"))
		r.Get("/", h.list)
		r.Post("/", h.book)
		r.Get("/{id}", h.get)
		r.Put("/{id}/review", h.review)
		r.Delete("/{id}", h.cancel)
	})
	r.Route("/rejected-appointments", func(r chi.Router) {
		r.Use(gate.Require("rejectedappointments"))
		r.Get("/", h.rejections)
		r.Put("/{id}/read", h.markRead)
	})
}

type bookRequest struct {
	ServiceID   int64     `json:"service_id" validate:"required,gt=0"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Note        string    `json:"note"`
}

func (h *Handler) book(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	a, err := h.svc.Book(r.Context(), actor.UserID, req.ServiceID, req.ScheduledAt, req.Note)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	actor := shared.IdentityFromContext(r.Context())
	items, pagination, err := h.svc.List(r.Context(), actor, r.URL.Query().Get("status"), page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"appointments": items, "pagination": pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	a, err := h.svc.Get(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

type reviewRequest struct {
	Accept bool   `json:"accept"`
	Reason string `json:"reason"`
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req reviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	a, err := h.svc.Review(r.Context(), actor, id, req.Accept, req.Reason)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	if err := h.svc.Cancel(r.Context(), actor.UserID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) rejections(w http.ResponseWriter, r *http.Request) {
	actor := shared.IdentityFromContext(r.Context())
	unreadOnly := r.URL.Query().Get("unread") == "true"
	items, err := h.svc.Rejections(r.Context(), actor.UserID, unreadOnly)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rejections": items})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	if err := h.svc.MarkRejectionRead(r.Context(), actor.UserID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
