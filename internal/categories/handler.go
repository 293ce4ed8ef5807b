package categories

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sehaty-app/sehaty/internal/authz"
	"github.com/sehaty-app/sehaty/internal/i18n"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
)

// Handler exposes taxonomy endpoints.
type Handler struct {
	svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// MountRoutes registers the public tree plus gated management routes.
func (h *Handler) MountRoutes(r chi.Router, gate authz.Middleware) {
	r.Get("/categories/tree", h.tree)
	r.Route("/categories", func(r chi.Router) {
		r.Use(gate.Require("categories"))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.Tree(r.Context(), i18n.LangFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": tree})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": items})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	category, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, category)
}

type categoryRequest struct {
	ParentID *int64 `json:"parent_id"`
	TitleAR  string `json:"title_ar" validate:"required"`
	TitleEN  string `json:"title_en" validate:"required"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	category, err := h.svc.Create(r.Context(), &Category{
		ParentID: req.ParentID,
		TitleAR:  req.TitleAR,
		TitleEN:  req.TitleEN,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, category)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req categoryRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	category, err := h.svc.Update(r.Context(), &Category{
		ID:       id,
		ParentID: req.ParentID,
		TitleAR:  req.TitleAR,
		TitleEN:  req.TitleEN,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, category)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
