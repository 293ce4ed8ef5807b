package products

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sehaty-app/sehaty/internal/authz"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
	"github.com/sehaty-app/sehaty/internal/shared"
)

// Handler exposes the product catalog endpoints.
type Handler struct {
	svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// MountRoutes registers catalog routes behind the products capability
// and rate routes behind productrates.
func (h *Handler) MountRoutes(r chi.Router, gate authz.Middleware) {
	r.Route("/products", func(r chi.Router) {
		r.Use(gate.Require("products"))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
	r.With(gate.Require("productrates")).Post("/products/{id}/rates", h.rate)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	providerID, _ := strconv.ParseInt(r.URL.Query().Get("provider_id"), 10, 64)
	categoryID, _ := strconv.ParseInt(r.URL.Query().Get("category_id"), 10, 64)
	filter := Filter{
		ProviderID: providerID,
		CategoryID: categoryID,
		Search:     r.URL.Query().Get("q"),
	}

	items, pagination, err := h.svc.List(r.Context(), filter, page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": items, "pagination": pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

type productRequest struct {
	CategoryID    int64   `json:"category_id" validate:"required,gt=0"`
	TitleAR       string  `json:"title_ar" validate:"required"`
	TitleEN       string  `json:"title_en" validate:"required"`
	DescriptionAR string  `json:"description_ar"`
	DescriptionEN string  `json:"description_en"`
	Price         float64 `json:"price" validate:"gt=0"`
	DiscountPct   float64 `json:"discount_pct" validate:"min=0,max=100"`
	Stock         int     `json:"stock" validate:"min=0"`
}

func (req productRequest) toProduct(id int64) *Product {
	return &Product{
		ID:            id,
		CategoryID:    req.CategoryID,
		TitleAR:       req.TitleAR,
		TitleEN:       req.TitleEN,
		DescriptionAR: req.DescriptionAR,
		DescriptionEN: req.DescriptionEN,
		Price:         req.Price,
		DiscountPct:   req.DiscountPct,
		Stock:         req.Stock,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	product, err := h.svc.Create(r.Context(), actor.UserID, req.toProduct(0))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req productRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	product, err := h.svc.Update(r.Context(), actor, req.toProduct(id))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	if err := h.svc.Delete(r.Context(), actor, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

type rateRequest struct {
	Score int `json:"score" validate:"required,min=1,max=5"`
}

func (h *Handler) rate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req rateRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	avg, count, err := h.svc.Rate(r.Context(), actor.UserID, id, req.Score)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"avg_rating": avg, "rating_count": count})
}
