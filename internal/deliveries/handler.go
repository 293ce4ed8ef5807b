package deliveries

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sehaty-app/sehaty/internal/authz"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
	"github.com/sehaty-app/sehaty/internal/shared"
)

// Handler exposes delivery endpoints.
type Handler struct {
	svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// MountRoutes registers delivery routes behind the deliveries capability.
func (h *Handler) MountRoutes(r chi.Router, gate authz.Middleware) {
	r.Route("/deliveries", func(r chi.Router) {
		r.Use(gate.Require("deliveries"))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}/status", h.advance)
	})
}

type createRequest struct {
	OrderItemID int64  `json:"order_item_id" validate:"required,gt=0"`
	Courier     string `json:"courier" validate:"required"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	d, err := h.svc.Create(r.Context(), actor, req.OrderItemID, req.Courier)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

type advanceRequest struct {
	Status string `json:"status" validate:"required,oneof=SHIPPED DELIVERED"`
	Note   string `json:"note"`
}

func (h *Handler) advance(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req advanceRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	d, err := h.svc.Advance(r.Context(), actor, id, req.Status, req.Note)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	d, err := h.svc.Get(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor := shared.IdentityFromContext(r.Context())
	items, err := h.svc.List(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deliveries": items})
}
