package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/novapharm/novapharm/internal/auth"
	"github.com/novapharm/novapharm/internal/customers"
	"github.com/novapharm/novapharm/internal/dashboard"
	inventoryhttp "github.com/novapharm/novapharm/internal/inventory/http"
	"github.com/novapharm/novapharm/internal/observability"
	"github.com/novapharm/novapharm/internal/pharmacy"
	"github.com/novapharm/novapharm/internal/procurement"
	"github.com/novapharm/novapharm/internal/products"
	"github.com/novapharm/novapharm/internal/reports"
	"github.com/novapharm/novapharm/internal/sales"
	"github.com/novapharm/novapharm/internal/shared"
	"github.com/novapharm/novapharm/internal/suppliers"
	"github.com/novapharm/novapharm/internal/view"
	"github.com/novapharm/novapharm/jobs"
	"github.com/novapharm/novapharm/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler        *auth.Handler
	DashboardHandler   *dashboard.Handler
	ProductsHandler    *products.Handler
	InventoryHandler   *inventoryhttp.Handler
	CustomersHandler   *customers.Handler
	SuppliersHandler   *suppliers.Handler
	SalesHandler       *sales.Handler
	ProcurementHandler *procurement.Handler
	ReportsHandler     *reports.Handler
	PharmacyHandler    *pharmacy.Handler
	JobHandler         *jobs.Handler

	TenantMiddleware pharmacy.Middleware
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with NovaPharm defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Landing page for unauthenticated users
	r.Get("/welcome", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
		var flash *shared.FlashMessage
		if sess != nil {
			flash = sess.PopFlash()
		}
		data := view.TemplateData{
			Title:     "NovaPharm",
			CSRFToken: csrfToken,
			Flash:     flash,
		}
		if err := params.Templates.Render(w, "pages/landing.html", data); err != nil {
			params.Logger.Error("render landing", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	// Everything below requires an authenticated user with a pharmacy.
	r.Group(func(r chi.Router) {
		r.Use(params.TenantMiddleware.RequireTenant)

		r.Get("/", params.DashboardHandler.Show)
		r.Route("/products", params.ProductsHandler.MountRoutes)
		r.Route("/inventory", params.InventoryHandler.MountRoutes)
		r.Route("/customers", params.CustomersHandler.MountRoutes)
		r.Route("/suppliers", params.SuppliersHandler.MountRoutes)
		r.Route("/sales", params.SalesHandler.MountRoutes)
		r.Route("/purchase-orders", params.ProcurementHandler.MountRoutes)
		r.Route("/reports", params.ReportsHandler.MountRoutes)
		r.Route("/settings", params.PharmacyHandler.MountRoutes)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		// Static files skip session and CSRF handling entirely.
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers so
// browsers keep assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
