package customers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

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
		h.logger.Error("list customers", slog.Any("error", err))
		http.Error(w, "Failed to load customers", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/customers_list.html", map[string]any{
		"Customers":  items,
		"Filters":    filters,
		"Pagination": shared.NewPagination(page, limit, total),
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/customer_form.html", map[string]any{
		"Errors":   map[string]string{},
		"Customer": nil,
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	customer := parseCustomerForm(r)
	if _, err := h.service.Create(r.Context(), customer); err != nil {
		h.renderFormError(w, r, customer, err)
		return
	}

	h.redirectWithFlash(w, r, "/customers", "success", "Customer created")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return
	}

	customer, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.Error(w, "Customer not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get customer", slog.Any("error", err), slog.String("id", id.String()))
		http.Error(w, "Failed to load customer", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/customer_form.html", map[string]any{
		"Errors":   map[string]string{},
		"Customer": customer,
	}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	customer := parseCustomerForm(r)
	if err := h.service.Update(r.Context(), id, customer); err != nil {
		customer.ID = id
		h.renderFormError(w, r, customer, err)
		return
	}

	h.redirectWithFlash(w, r, "/customers", "success", "Customer updated")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.redirectWithFlash(w, r, "/customers", "error", "Customer not found")
			return
		}
		h.logger.Error("delete customer", slog.Any("error", err), slog.String("id", id.String()))
		h.redirectWithFlash(w, r, "/customers", "error", "Failed to delete customer")
		return
	}

	h.redirectWithFlash(w, r, "/customers", "success", "Customer deleted")
}

func parseCustomerForm(r *http.Request) Customer {
	return Customer{
		Name:    r.PostFormValue("name"),
		Phone:   r.PostFormValue("phone"),
		Email:   r.PostFormValue("email"),
		Address: r.PostFormValue("address"),
		Notes:   r.PostFormValue("notes"),
	}
}

func (h *Handler) renderFormError(w http.ResponseWriter, r *http.Request, customer Customer, err error) {
	errs := map[string]string{}
	if ve, ok := shared.AsValidationError(err); ok {
		for field, msg := range ve.Fields {
			errs[field] = msg
		}
	} else {
		h.logger.Error("save customer", slog.Any("error", err))
		errs["general"] = "Failed to save customer"
	}

	h.render(w, r, "pages/customer_form.html", map[string]any{
		"Errors":   errs,
		"Customer": customer,
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
		Title:       "Customers",
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
