package dashboard

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	inventoryhttp "github.com/novapharm/novapharm/internal/inventory/http"
	"github.com/novapharm/novapharm/internal/products"
	"github.com/novapharm/novapharm/internal/sales"
	"github.com/novapharm/novapharm/internal/shared"
	"github.com/novapharm/novapharm/internal/view"
)

// Handler serves the landing dashboard with today's key numbers.
type Handler struct {
	logger    *slog.Logger
	sales     *sales.Service
	products  *products.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

func NewHandler(logger *slog.Logger, saleService *sales.Service, productService *products.Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:    logger,
		sales:     saleService,
		products:  productService,
		templates: templates,
		csrf:      csrf,
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Show)
}

type kpis struct {
	TodayRevenue  float64
	TodaySales    int
	TotalProducts int
	NeedAttention int
	ExpiringSoon  int
	RecentSales   []sales.Sale
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var data kpis
	g, ctx := errgroup.WithContext(r.Context())

	g.Go(func() error {
		todaySales, _, err := h.sales.List(ctx, sales.ListFilters{From: &dayStart})
		if err != nil {
			return err
		}
		data.TodaySales = len(todaySales)
		for _, s := range todaySales {
			if s.PaymentStatus == sales.PaymentStatusCompleted {
				data.TodayRevenue += s.FinalAmount
			}
		}
		return nil
	})

	g.Go(func() error {
		recent, _, err := h.sales.List(ctx, sales.ListFilters{Page: 1, Limit: 5})
		if err != nil {
			return err
		}
		data.RecentSales = recent
		return nil
	})

	g.Go(func() error {
		items, err := h.products.ListAll(ctx)
		if err != nil {
			return err
		}
		data.TotalProducts = len(items)
		buckets := inventoryhttp.BucketProducts(items)
		data.NeedAttention = len(buckets.OutOfStock) + len(buckets.CriticallyLow) + len(buckets.Low)
		return nil
	})

	g.Go(func() error {
		expiring, err := h.products.ListExpiringSoon(ctx, now)
		if err != nil {
			return err
		}
		data.ExpiringSoon = len(expiring)
		return nil
	})

	if err := g.Wait(); err != nil {
		h.logger.Error("load dashboard", slog.Any("error", err))
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/home.html", map[string]any{
		"KPIs": data,
	}, http.StatusOK)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Dashboard",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err), slog.String("template", template))
	}
}
