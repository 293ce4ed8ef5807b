package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sehaty-app/sehaty/internal/authz"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
	"github.com/sehaty-app/sehaty/internal/shared"
)

// Handler exposes the authentication endpoints.
type Handler struct {
	svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// MountRoutes registers the public and authenticated auth endpoints.
func (h *Handler) MountRoutes(r chi.Router, gate authz.Middleware) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.signup)
		r.Post("/login", h.login)
		r.Post("/confirm", h.confirmEmail)
		r.Post("/password-reset", h.requestReset)
		r.Post("/password-reset/confirm", h.resetPassword)

		r.Group(func(r chi.Router) {
			r.Use(gate.RequireAuthenticated)
			r.Get("/me", h.me)
			r.Post("/password", h.changePassword)
			r.Post("/email-change", h.requestEmailChange)
			r.Post("/email-change/confirm", h.confirmEmailChange)
		})
	})
}

type signupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,min=7,max=20"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"omitempty,oneof=USER SERVICE_PROVIDER"`
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.svc.Signup(r.Context(), SignupInput{
		Email:     req.Email,
		Phone:     req.Phone,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	token, user, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", shared.UserSafeMessage(err))
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

type confirmRequest struct {
	Token string `json:"token" validate:"required"`
}

func (h *Handler) confirmEmail(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.svc.ConfirmEmail(r.Context(), req.Token); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

type resetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) requestReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

type resetConfirmRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required,len=6"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req.Email, req.Code, req.Password); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	user, err := h.svc.Me(r.Context(), id.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

type changePasswordRequest struct {
	Current string `json:"current_password" validate:"required"`
	Next    string `json:"new_password" validate:"required,min=8"`
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id := shared.IdentityFromContext(r.Context())
	if err := h.svc.ChangePassword(r.Context(), id.UserID, req.Current, req.Next); err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", shared.UserSafeMessage(err))
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

type emailChangeRequest struct {
	NewEmail string `json:"new_email" validate:"required,email"`
}

func (h *Handler) requestEmailChange(w http.ResponseWriter, r *http.Request) {
	var req emailChangeRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	id := shared.IdentityFromContext(r.Context())
	if err := h.svc.RequestEmailChange(r.Context(), id.UserID, req.NewEmail); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) confirmEmailChange(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := httpx.DecodeValid(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.svc.ConfirmEmailChange(r.Context(), req.Token); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
