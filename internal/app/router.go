package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sehaty-app/sehaty/internal/appointments"
	"github.com/sehaty-app/sehaty/internal/auth"
	"github.com/sehaty-app/sehaty/internal/authz"
	"github.com/sehaty-app/sehaty/internal/categories"
	"github.com/sehaty-app/sehaty/internal/contact"
	"github.com/sehaty-app/sehaty/internal/deliveries"
	"github.com/sehaty-app/sehaty/internal/i18n"
	"github.com/sehaty-app/sehaty/internal/notifications"
	"github.com/sehaty-app/sehaty/internal/observability"
	"github.com/sehaty-app/sehaty/internal/orders"
	"github.com/sehaty-app/sehaty/internal/products"
	"github.com/sehaty-app/sehaty/internal/providers"
	"github.com/sehaty-app/sehaty/internal/rbac"
	"github.com/sehaty-app/sehaty/internal/services"
	"github.com/sehaty-app/sehaty/internal/users"
	"github.com/sehaty-app/sehaty/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger     *slog.Logger
	Config     *Config
	Tokens     *auth.TokenIssuer
	Negotiator *i18n.Negotiator
	Gate       authz.Middleware
	Metrics    *observability.Metrics

	AuthHandler          *auth.Handler
	UsersHandler         *users.Handler
	RBACHandler          *rbac.Handler
	CategoriesHandler    *categories.Handler
	ProvidersHandler     *providers.Handler
	ProductsHandler      *products.Handler
	ServicesHandler      *services.Handler
	OrdersHandler        *orders.Handler
	DeliveriesHandler    *deliveries.Handler
	AppointmentsHandler  *appointments.Handler
	NotificationsHandler *notifications.Handler
	ContactHandler       *contact.Handler
	JobsHandler          *jobs.Handler
}

// NewRouter constructs the chi.Router with the full API surface mounted
// behind the authorization gate.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:     params.Logger,
		Config:     params.Config,
		Tokens:     params.Tokens,
		Negotiator: params.Negotiator,
		Metrics:    params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mount := func(h interface {
		MountRoutes(chi.Router, authz.Middleware)
	}) {
		h.MountRoutes(r, params.Gate)
	}

	mount(params.AuthHandler)
	mount(params.UsersHandler)
	mount(params.RBACHandler)
	mount(params.CategoriesHandler)
	mount(params.ProvidersHandler)
	mount(params.ProductsHandler)
	mount(params.ServicesHandler)
	mount(params.OrdersHandler)
	mount(params.DeliveriesHandler)
	mount(params.AppointmentsHandler)
	mount(params.NotificationsHandler)
	mount(params.ContactHandler)

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
