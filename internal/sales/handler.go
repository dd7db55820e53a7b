package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/novapharm/novapharm/internal/customers"
	"github.com/novapharm/novapharm/internal/products"
	"github.com/novapharm/novapharm/internal/shared"
	"github.com/novapharm/novapharm/internal/view"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	products  *products.Service
	customers *customers.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

func NewHandler(
	logger *slog.Logger,
	service *Service,
	productService *products.Service,
	customerService *customers.Service,
	templates *view.Engine,
	csrf *shared.CSRFManager,
) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		products:  productService,
		customers: customerService,
		templates: templates,
		csrf:      csrf,
	}
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

	filters := ListFilters{
		Page:          page,
		Limit:         limit,
		Search:        r.URL.Query().Get("search"),
		PaymentStatus: r.URL.Query().Get("status"),
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			filters.From = &t
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			end := t.AddDate(0, 0, 1).Add(-time.Second)
			filters.To = &end
		}
	}

	items, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list sales", slog.Any("error", err))
		http.Error(w, "Failed to load sales", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/sales_list.html", map[string]any{
		"Sales":      items,
		"Filters":    filters,
		"Pagination": shared.NewPagination(page, limit, total),
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid sale ID", http.StatusBadRequest)
		return
	}

	sale, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.Error(w, "Sale not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get sale", slog.Any("error", err), slog.String("id", id.String()))
		http.Error(w, "Failed to load sale", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/sale_detail.html", map[string]any{
		"Sale": sale,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.products.ListAll(r.Context())
	if err != nil {
		h.logger.Error("load catalog", slog.Any("error", err))
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}
	customerList, _ := h.customers.ListAll(r.Context())

	h.render(w, r, "pages/sale_form.html", map[string]any{
		"Errors":    map[string]string{},
		"Products":  catalog,
		"Customers": customerList,
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	input, err := parseSaleForm(r)
	if err != nil {
		h.renderFormError(w, r, err)
		return
	}

	created, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.renderFormError(w, r, err)
		return
	}

	h.redirectWithFlash(w, r, "/sales/"+created.ID.String(), "success", "Sale recorded, invoice "+created.InvoiceNumber)
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid sale ID", http.StatusBadRequest)
		return
	}

	if err := h.service.MarkPaid(r.Context(), id); err != nil {
		h.flashServiceError(w, r, "/sales/"+id.String(), err, "Failed to mark sale as paid")
		return
	}

	h.redirectWithFlash(w, r, "/sales/"+id.String(), "success", "Sale marked as paid")
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid sale ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Cancel(r.Context(), id); err != nil {
		h.flashServiceError(w, r, "/sales/"+id.String(), err, "Failed to cancel sale")
		return
	}

	h.redirectWithFlash(w, r, "/sales/"+id.String(), "success", "Sale cancelled and stock restored")
}

// parseSaleForm reads parallel item_product/item_quantity form arrays.
func parseSaleForm(r *http.Request) (CreateSaleInput, error) {
	input := CreateSaleInput{
		PaymentMethod: r.PostFormValue("payment_method"),
		PaymentStatus: r.PostFormValue("payment_status"),
		Notes:         r.PostFormValue("notes"),
	}

	if raw := r.PostFormValue("sale_date"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			input.SaleDate = t
		}
	}
	if raw := r.PostFormValue("customer_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			input.CustomerID = &id
		}
	}
	if raw := r.PostFormValue("discount"); raw != "" {
		d, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return input, shared.NewValidationError("discount", "discount must be a number")
		}
		input.Discount = d
	}

	productIDs := r.PostForm["item_product"]
	quantities := r.PostForm["item_quantity"]
	if len(productIDs) != len(quantities) {
		return input, shared.NewValidationError("items", "malformed item rows")
	}
	for i, raw := range productIDs {
		if raw == "" {
			continue
		}
		productID, err := uuid.Parse(raw)
		if err != nil {
			return input, shared.NewValidationError("items", "invalid product reference")
		}
		qty, err := strconv.Atoi(quantities[i])
		if err != nil {
			return input, shared.NewValidationError("items", "item quantity must be a whole number")
		}
		input.Items = append(input.Items, CreateSaleItemInput{ProductID: productID, Quantity: qty})
	}

	return input, nil
}

func (h *Handler) renderFormError(w http.ResponseWriter, r *http.Request, err error) {
	errs := map[string]string{}
	if ve, ok := shared.AsValidationError(err); ok {
		for field, msg := range ve.Fields {
			errs[field] = msg
		}
	} else {
		h.logger.Error("create sale", slog.Any("error", err))
		errs["general"] = "Failed to record sale"
	}

	catalog, _ := h.products.ListAll(r.Context())
	customerList, _ := h.customers.ListAll(r.Context())
	h.render(w, r, "pages/sale_form.html", map[string]any{
		"Errors":    errs,
		"Products":  catalog,
		"Customers": customerList,
	}, http.StatusBadRequest)
}

func (h *Handler) flashServiceError(w http.ResponseWriter, r *http.Request, location string, err error, fallback string) {
	if ve, ok := shared.AsValidationError(err); ok {
		h.redirectWithFlash(w, r, location, "error", ve.Error())
		return
	}
	if errors.Is(err, shared.ErrNotFound) {
		h.redirectWithFlash(w, r, "/sales", "error", "Sale not found")
		return
	}
	h.logger.Error("sale transition", slog.Any("error", err))
	h.redirectWithFlash(w, r, location, "error", fallback)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Sales",
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
