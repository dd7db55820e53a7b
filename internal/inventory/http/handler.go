package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/novapharm/novapharm/internal/inventory"
	"github.com/novapharm/novapharm/internal/products"
	"github.com/novapharm/novapharm/internal/shared"
	"github.com/novapharm/novapharm/internal/view"
)

// Handler serves the stock overview page: products bucketed by stock
// status plus the expiring-soon list.
type Handler struct {
	logger    *slog.Logger
	products  *products.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

func NewHandler(logger *slog.Logger, productService *products.Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:    logger,
		products:  productService,
		templates: templates,
		csrf:      csrf,
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Show)
}

// Buckets groups products by their classified stock status.
type Buckets struct {
	OutOfStock    []products.Product
	CriticallyLow []products.Product
	Low           []products.Product
	Available     []products.Product
}

// BucketProducts classifies every product and files it under one bucket.
func BucketProducts(items []products.Product) Buckets {
	var b Buckets
	for _, p := range items {
		switch inventory.ClassifyStock(p.StockQuantity, p.MinStockLevel) {
		case inventory.StatusOutOfStock:
			b.OutOfStock = append(b.OutOfStock, p)
		case inventory.StatusCriticallyLow:
			b.CriticallyLow = append(b.CriticallyLow, p)
		case inventory.StatusLow:
			b.Low = append(b.Low, p)
		default:
			b.Available = append(b.Available, p)
		}
	}
	return b
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	items, err := h.products.ListAll(r.Context())
	if err != nil {
		h.logger.Error("load inventory", slog.Any("error", err))
		http.Error(w, "Failed to load inventory", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	expiring, err := h.products.ListExpiringSoon(r.Context(), now)
	if err != nil {
		h.logger.Error("load expiring products", slog.Any("error", err))
		http.Error(w, "Failed to load inventory", http.StatusInternalServerError)
		return
	}

	buckets := BucketProducts(items)
	h.render(w, r, "pages/inventory.html", map[string]any{
		"Buckets":       buckets,
		"Expiring":      expiring,
		"TotalProducts": len(items),
		"NeedAttention": len(buckets.OutOfStock) + len(buckets.CriticallyLow) + len(buckets.Low),
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
		Title:       "Inventory",
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
