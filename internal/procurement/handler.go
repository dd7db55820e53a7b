package procurement

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/novapharm/novapharm/internal/products"
	"github.com/novapharm/novapharm/internal/shared"
	"github.com/novapharm/novapharm/internal/suppliers"
	"github.com/novapharm/novapharm/internal/view"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	products  *products.Service
	suppliers *suppliers.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

func NewHandler(
	logger *slog.Logger,
	service *Service,
	productService *products.Service,
	supplierService *suppliers.Service,
	templates *view.Engine,
	csrf *shared.CSRFManager,
) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		products:  productService,
		suppliers: supplierService,
		templates: templates,
		csrf:      csrf,
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/new", h.Form)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Post("/{id}/submit", h.Submit)
	r.Post("/{id}/receive", h.Receive)
	r.Post("/{id}/cancel", h.Cancel)
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
		Page:   page,
		Limit:  limit,
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
	}

	orders, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list purchase orders", slog.Any("error", err))
		http.Error(w, "Failed to load purchase orders", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/purchase_orders_list.html", map[string]any{
		"Orders":     orders,
		"Filters":    filters,
		"Pagination": shared.NewPagination(page, limit, total),
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.Error(w, "Purchase order not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get purchase order", slog.Any("error", err), slog.String("id", id.String()))
		http.Error(w, "Failed to load purchase order", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/purchase_order_detail.html", map[string]any{
		"Order": order,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.products.ListAll(r.Context())
	if err != nil {
		h.logger.Error("load catalog", slog.Any("error", err))
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}
	supplierList, _ := h.suppliers.ListAll(r.Context())

	h.render(w, r, "pages/purchase_order_form.html", map[string]any{
		"Errors":    map[string]string{},
		"Products":  catalog,
		"Suppliers": supplierList,
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	input, err := parseOrderForm(r)
	if err != nil {
		h.renderFormError(w, r, err)
		return
	}

	created, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.renderFormError(w, r, err)
		return
	}

	h.redirectWithFlash(w, r, "/purchase-orders/"+created.ID.String(), "success", "Purchase order "+created.OrderNumber+" created")
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Submit, "Purchase order submitted to supplier")
}

func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Receive, "Purchase order received, stock updated")
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel, "Purchase order cancelled")
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id uuid.UUID) error, success string) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	if err := apply(r.Context(), id); err != nil {
		if ve, ok := shared.AsValidationError(err); ok {
			h.redirectWithFlash(w, r, "/purchase-orders/"+id.String(), "error", ve.Error())
			return
		}
		if errors.Is(err, shared.ErrNotFound) {
			h.redirectWithFlash(w, r, "/purchase-orders", "error", "Purchase order not found")
			return
		}
		h.logger.Error("purchase order transition", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/purchase-orders/"+id.String(), "error", "Operation failed")
		return
	}

	h.redirectWithFlash(w, r, "/purchase-orders/"+id.String(), "success", success)
}

func parseOrderForm(r *http.Request) (CreateInput, error) {
	input := CreateInput{Notes: r.PostFormValue("notes")}

	if raw := r.PostFormValue("supplier_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return input, shared.NewValidationError("supplier_id", "invalid supplier reference")
		}
		input.SupplierID = id
	}
	if raw := r.PostFormValue("order_date"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			input.OrderDate = t
		}
	}
	if raw := r.PostFormValue("expected_date"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			input.ExpectedDate = &t
		}
	}

	productIDs := r.PostForm["item_product"]
	quantities := r.PostForm["item_quantity"]
	costs := r.PostForm["item_cost"]
	if len(productIDs) != len(quantities) || len(productIDs) != len(costs) {
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
		var cost float64
		if costs[i] != "" {
			cost, err = strconv.ParseFloat(costs[i], 64)
			if err != nil {
				return input, shared.NewValidationError("items", "item cost must be a number")
			}
		}
		input.Items = append(input.Items, CreateItemInput{ProductID: productID, Quantity: qty, UnitCost: cost})
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
		h.logger.Error("create purchase order", slog.Any("error", err))
		errs["general"] = "Failed to create purchase order"
	}

	catalog, _ := h.products.ListAll(r.Context())
	supplierList, _ := h.suppliers.ListAll(r.Context())
	h.render(w, r, "pages/purchase_order_form.html", map[string]any{
		"Errors":    errs,
		"Products":  catalog,
		"Suppliers": supplierList,
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
		Title:       "Purchase Orders",
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
