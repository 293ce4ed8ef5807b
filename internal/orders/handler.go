package orders

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sehaty-app/sehaty/internal/authz"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
	"github.com/sehaty-app/sehaty/internal/shared"
)

// Handler exposes cart and order endpoints.
type Handler struct {
	svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// MountRoutes registers cart routes behind the cart capability, order
// routes behind orders and rejection records behind rejectedorders.
func (h *Handler) MountRoutes(r chi.Router, gate authz.Middleware) {
	r.Route("/cart", func(r chi.Router) {
		r.Use(gate.Require("cart"))
		r.Get("/", h.cart)
		r.Post("/items", h.addItem)
		r.Put("/items/{id}", h.updateItem)
		r.Delete("/items/{id}", h.removeItem)
	})
	r.Route("/orders", func(r chi.Router) {
		r.Use(gate.Require("orders"))
		r.Get("/", h.list)
		r.Post("/checkout", h.checkout)
		r.Get("/{id}", h.get)
		r.Put("/{id}/review", h.review)
	})
	r.Route("/rejected-orders", func(r chi.Router) {
		r.Use(gate.Require("rejectedorders"))
		r.Get("/", h.rejections)
		r.Put("/{id}/read", h.markRead)
	})
}

func (h *Handler) cart(w http.ResponseWriter, r *http.Request) {
	actor := shared.IdentityFromContext(r.Context())
	items, err := h.svc.Cart(r.Context(), actor.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

type cartItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	item, err := h.svc.AddToCart(r.Context(), actor.UserID, req.ProductID, req.Quantity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

type cartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req cartQuantityRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	if err := h.svc.UpdateCartItem(r.Context(), actor.UserID, id, req.Quantity); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	if err := h.svc.RemoveCartItem(r.Context(), actor.UserID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	actor := shared.IdentityFromContext(r.Context())
	order, err := h.svc.Checkout(r.Context(), actor.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	actor := shared.IdentityFromContext(r.Context())
	items, pagination, err := h.svc.List(r.Context(), actor, r.URL.Query().Get("status"), page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"orders": items, "pagination": pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	order, err := h.svc.Get(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
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
	order, err := h.svc.Review(r.Context(), actor, id, req.Accept, req.Reason)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
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
