package products

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/novapharm/novapharm/internal/inventory"
	"github.com/novapharm/novapharm/internal/shared"
	"github.com/novapharm/novapharm/internal/view"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
	}
}

// Row pairs a product with its derived inventory state for list views.
type Row struct {
	Product
	StockStatus  inventory.StockStatus
	ExpiryStatus inventory.ExpiryStatus
}

func buildRows(items []Product, today time.Time) []Row {
	rows := make([]Row, 0, len(items))
	for _, p := range items {
		rows = append(rows, Row{
			Product:      p,
			StockStatus:  inventory.ClassifyStock(p.StockQuantity, p.MinStockLevel),
			ExpiryStatus: inventory.EvaluateExpiry(p.ExpiryDate, today),
		})
	}
	return rows
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 20
	}

	filters := shared.ListFilters{
		Page:    page,
		Limit:   limit,
		Search:  r.URL.Query().Get("search"),
		SortBy:  r.URL.Query().Get("sort"),
		SortDir: r.URL.Query().Get("dir"),
	}

	items, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/products_list.html", map[string]any{
		"Products":   buildRows(items, time.Now()),
		"Filters":    filters,
		"Pagination": shared.NewPagination(page, limit, total),
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get product", slog.Any("error", err), slog.String("id", id.String()))
		http.Error(w, "Failed to load product", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	h.render(w, r, "pages/product_detail.html", map[string]any{
		"Product":      product,
		"StockStatus":  inventory.ClassifyStock(product.StockQuantity, product.MinStockLevel),
		"ExpiryStatus": inventory.EvaluateExpiry(product.ExpiryDate, now),
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	categories, _ := h.service.Categories(r.Context())
	h.render(w, r, "pages/product_form.html", map[string]any{
		"Errors":     map[string]string{},
		"Product":    nil,
		"Categories": categories,
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	product := parseProductForm(r)
	created, err := h.service.Create(r.Context(), product)
	if err != nil {
		h.renderFormError(w, r, product, err)
		return
	}

	h.redirectWithFlash(w, r, "/products/"+created.ID.String(), "success", "Product created")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get product", slog.Any("error", err), slog.String("id", id.String()))
		http.Error(w, "Failed to load product", http.StatusInternalServerError)
		return
	}

	categories, _ := h.service.Categories(r.Context())
	h.render(w, r, "pages/product_form.html", map[string]any{
		"Errors":     map[string]string{},
		"Product":    product,
		"Categories": categories,
	}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	product := parseProductForm(r)
	if err := h.service.Update(r.Context(), id, product); err != nil {
		product.ID = id
		h.renderFormError(w, r, product, err)
		return
	}

	h.redirectWithFlash(w, r, "/products/"+id.String(), "success", "Product updated")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.redirectWithFlash(w, r, "/products", "error", "Product not found")
			return
		}
		h.logger.Error("delete product", slog.Any("error", err), slog.String("id", id.String()))
		h.redirectWithFlash(w, r, "/products", "error", "Failed to delete product")
		return
	}

	h.redirectWithFlash(w, r, "/products", "success", "Product deleted")
}

func parseProductForm(r *http.Request) Product {
	price, _ := strconv.ParseFloat(r.PostFormValue("price"), 64)
	cost, _ := strconv.ParseFloat(r.PostFormValue("cost_price"), 64)
	qty, _ := strconv.Atoi(r.PostFormValue("stock_quantity"))
	minLevel, _ := strconv.Atoi(r.PostFormValue("min_stock_level"))

	var expiry *time.Time
	if raw := r.PostFormValue("expiry_date"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			expiry = &t
		}
	}

	return Product{
		Name:          r.PostFormValue("name"),
		Barcode:       r.PostFormValue("barcode"),
		Category:      r.PostFormValue("category"),
		Description:   r.PostFormValue("description"),
		Manufacturer:  r.PostFormValue("manufacturer"),
		Price:         price,
		CostPrice:     cost,
		StockQuantity: qty,
		MinStockLevel: minLevel,
		ExpiryDate:    expiry,
	}
}

func (h *Handler) renderFormError(w http.ResponseWriter, r *http.Request, product Product, err error) {
	errs := map[string]string{}
	if ve, ok := shared.AsValidationError(err); ok {
		for field, msg := range ve.Fields {
			errs[field] = msg
		}
	} else {
		h.logger.Error("save product", slog.Any("error", err))
		errs["general"] = "Failed to save product"
	}

	categories, _ := h.service.Categories(r.Context())
	h.render(w, r, "pages/product_form.html", map[string]any{
		"Errors":     errs,
		"Product":    product,
		"Categories": categories,
	}, http.StatusBadRequest)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Products",
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

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
