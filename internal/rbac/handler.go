package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sehaty-app/sehaty/internal/authz"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
)

// Handler exposes group and permission administration.
type Handler struct {
	svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// MountRoutes registers the admin surface.
func (h *Handler) MountRoutes(r chi.Router, gate authz.Middleware) {
	r.Route("/groups", func(r chi.Router) {
		r.Use(gate.Require("groups"))
		r.Get("/", h.listGroups)
		r.Get("/{name}", h.getGroup)
		r.Put("/{name}/permissions", h.setGroupPermissions)
		r.Put("/{name}/members/{userID}", h.assignMember)
		r.Delete("/{name}/members/{userID}", h.removeMember)
	})
	r.Route("/permissions", func(r chi.Router) {
		r.Use(gate.Require("permissions"))
		r.Get("/", h.listPermissions)
	})
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.svc.ListPermissions(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.ListGroups(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"groups": groups})
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetGroup(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

type setPermissionsRequest struct {
	Codenames []string `json:"codenames" validate:"required"`
}

func (h *Handler) setGroupPermissions(w http.ResponseWriter, r *http.Request) {
	var req setPermissionsRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	detail, err := h.svc.SetGroupPermissions(r.Context(), chi.URLParam(r, "name"), req.Codenames)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) assignMember(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.IDParam(r, "userID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.svc.AssignRole(r.Context(), userID, chi.URLParam(r, "name")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.IDParam(r, "userID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.svc.RemoveFromGroup(r.Context(), userID, chi.URLParam(r, "name")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
