package notifications

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sehaty-app/sehaty/internal/authz"
	"github.com/sehaty-app/sehaty/internal/i18n"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
	"github.com/sehaty-app/sehaty/internal/shared"
)

// Handler exposes notification endpoints.
type Handler struct {
	svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// MountRoutes registers notification routes behind the notifications
// capability.
func (h *Handler) MountRoutes(r chi.Router, gate authz.Middleware) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(gate.Require("notifications"))
		r.Get("/", h.list)
		r.Get("/unread-count", h.unreadCount)
		r.Put("/{id}/read", h.markRead)
		r.Put("/read-all", h.markAllRead)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor := shared.IdentityFromContext(r.Context())
	lang := i18n.LangFromContext(r.Context())
	page, perPage := shared.PageParams(r)
	unreadOnly := r.URL.Query().Get("unread") == "true"

	items, err := h.svc.List(r.Context(), actor.UserID, lang, unreadOnly, perPage, shared.Offset(page, perPage))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"notifications": items})
}

func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	actor := shared.IdentityFromContext(r.Context())
	count, err := h.svc.UnreadCount(r.Context(), actor.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"unread": count})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	if err := h.svc.MarkRead(r.Context(), actor.UserID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	actor := shared.IdentityFromContext(r.Context())
	changed, err := h.svc.MarkAllRead(r.Context(), actor.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"marked": changed})
}
