package services

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sehaty-app/sehaty/internal/authz"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
	"github.com/sehaty-app/sehaty/internal/shared"
)

// Handler exposes the service catalog endpoints.
type Handler struct {
	mgr *Manager
}

// NewHandler constructs a Handler.
func NewHandler(mgr *Manager) *Handler {
	return &Handler{mgr: mgr}
}

// MountRoutes registers catalog routes behind the services capability
// and rate routes behind servicerates.
func (h *Handler) MountRoutes(r chi.Router, gate authz.Middleware) {
	r.Route("/services", func(r chi.Router) {
		r.Use(gate.Require("services"))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
	r.With(gate.Require("servicerates")).Post("/services/{id}/rates", h.rate)
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

	items, pagination, err := h.mgr.List(r.Context(), filter, page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"services": items, "pagination": pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	service, err := h.mgr.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, service)
}

type serviceRequest struct {
	CategoryID      int64   `json:"category_id" validate:"required,gt=0"`
	TitleAR         string  `json:"title_ar" validate:"required"`
	TitleEN         string  `json:"title_en" validate:"required"`
	DescriptionAR   string  `json:"description_ar"`
	DescriptionEN   string  `json:"description_en"`
	Price           float64 `json:"price" validate:"gt=0"`
	DiscountPct     float64 `json:"discount_pct" validate:"min=0,max=100"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,gt=0"`
}

func (req serviceRequest) toService(id int64) *Service {
	return &Service{
		ID:              id,
		CategoryID:      req.CategoryID,
		TitleAR:         req.TitleAR,
		TitleEN:         req.TitleEN,
		DescriptionAR:   req.DescriptionAR,
		DescriptionEN:   req.DescriptionEN,
		Price:           req.Price,
		DiscountPct:     req.DiscountPct,
		DurationMinutes: req.DurationMinutes,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	service, err := h.mgr.Create(r.Context(), actor.UserID, req.toService(0))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, service)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req serviceRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	service, err := h.mgr.Update(r.Context(), actor, req.toService(id))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, service)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	if err := h.mgr.Delete(r.Context(), actor, id); err != nil {
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
	avg, count, err := h.mgr.Rate(r.Context(), actor.UserID, id, req.Score)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"avg_rating": avg, "rating_count": count})
}
