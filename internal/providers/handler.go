package providers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sehaty-app/sehaty/internal/authz"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
	"github.com/sehaty-app/sehaty/internal/shared"
)

// Handler exposes provider profile endpoints.
type Handler struct {
	svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// MountRoutes registers public discovery, provider self-service and the
// admin review surface.
func (h *Handler) MountRoutes(r chi.Router, gate authz.Middleware) {
	r.Get("/providers/nearby", h.nearby)

	r.Route("/providers", func(r chi.Router) {
		r.Use(gate.Require("providers"))
		r.Get("/", h.list)
		r.Get("/me", h.mine)
		r.Post("/", h.register)
		r.Get("/{id}", h.get)
		r.Get("/{id}/locations", h.listLocations)
		r.Put("/{id}/review", h.review)
	})

	r.Route("/locations", func(r chi.Router) {
		r.Use(gate.Require("locations"))
		r.Post("/", h.addLocation)
		r.Put("/{id}", h.updateLocation)
		r.Delete("/{id}", h.deleteLocation)
	})

	r.Route("/profile-requests", func(r chi.Router) {
		r.Use(gate.Require("profilerequests"))
		r.Get("/", h.listRequests)
		r.Post("/", h.submitRequest)
		r.Put("/{id}/review", h.reviewRequest)
	})
}

type registerRequest struct {
	BusinessName string `json:"business_name" validate:"required"`
	IBAN         string `json:"iban" validate:"required,min=15,max=34"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id := shared.IdentityFromContext(r.Context())
	provider, err := h.svc.RegisterProfile(r.Context(), id.UserID, req.BusinessName, req.IBAN)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, provider)
}

func (h *Handler) mine(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	provider, err := h.svc.Mine(r.Context(), id.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, provider)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	provider, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, provider)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	items, pagination, err := h.svc.List(r.Context(), r.URL.Query().Get("status"), page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"providers": items, "pagination": pagination})
}

type reviewRequest struct {
	Accept bool `json:"accept"`
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
	provider, err := h.svc.Review(r.Context(), id, req.Accept, shared.IdentityFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, provider)
}

func (h *Handler) nearby(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "lat and lng are required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.svc.Nearby(r.Context(), lat, lng, limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"locations": items})
}

func (h *Handler) listLocations(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.svc.Locations(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"locations": items})
}

type locationRequest struct {
	Label       string  `json:"label" validate:"required"`
	Latitude    float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude   float64 `json:"longitude" validate:"min=-180,max=180"`
	OpeningTime string  `json:"opening_time" validate:"required"`
	ClosingTime string  `json:"closing_time" validate:"required"`
}

func (h *Handler) addLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id := shared.IdentityFromContext(r.Context())
	location, err := h.svc.AddLocation(r.Context(), id.UserID, &Location{
		Label:       req.Label,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		OpeningTime: req.OpeningTime,
		ClosingTime: req.ClosingTime,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, location)
}

func (h *Handler) updateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req locationRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	location, err := h.svc.UpdateLocation(r.Context(), actor.UserID, &Location{
		ID:          id,
		Label:       req.Label,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		OpeningTime: req.OpeningTime,
		ClosingTime: req.ClosingTime,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, location)
}

func (h *Handler) deleteLocation(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.IdentityFromContext(r.Context())
	if err := h.svc.DeleteLocation(r.Context(), actor.UserID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

type profileRequestBody struct {
	BusinessName string `json:"business_name" validate:"required"`
	IBAN         string `json:"iban" validate:"required,min=15,max=34"`
}

func (h *Handler) submitRequest(w http.ResponseWriter, r *http.Request) {
	var req profileRequestBody
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id := shared.IdentityFromContext(r.Context())
	request, err := h.svc.SubmitProfileRequest(r.Context(), id.UserID, req.BusinessName, req.IBAN)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, request)
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	items, pagination, err := h.svc.ListProfileRequests(r.Context(), r.URL.Query().Get("status"), page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"requests": items, "pagination": pagination})
}

func (h *Handler) reviewRequest(w http.ResponseWriter, r *http.Request) {
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
	if err := h.svc.ReviewProfileRequest(r.Context(), id, req.Accept, shared.IdentityFromContext(r.Context())); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
