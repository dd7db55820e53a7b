package suppliers

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
		h.logger.Error("list suppliers", slog.Any("error", err))
		http.Error(w, "Failed to load suppliers", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/suppliers_list.html", map[string]any{
		"Suppliers":  items,
		"Filters":    filters,
		"Pagination": shared.NewPagination(page, limit, total),
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/supplier_form.html", map[string]any{
		"Errors":   map[string]string{},
		"Supplier": nil,
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	supplier := parseSupplierForm(r)
	if _, err := h.service.Create(r.Context(), supplier); err != nil {
		h.renderFormError(w, r, supplier, err)
		return
	}

	h.redirectWithFlash(w, r, "/suppliers", "success", "Supplier created")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid supplier ID", http.StatusBadRequest)
		return
	}

	supplier, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.Error(w, "Supplier not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get supplier", slog.Any("error", err), slog.String("id", id.String()))
		http.Error(w, "Failed to load supplier", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/supplier_form.html", map[string]any{
		"Errors":   map[string]string{},
		"Supplier": supplier,
	}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid supplier ID", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	supplier := parseSupplierForm(r)
	if err := h.service.Update(r.Context(), id, supplier); err != nil {
		supplier.ID = id
		h.renderFormError(w, r, supplier, err)
		return
	}

	h.redirectWithFlash(w, r, "/suppliers", "success", "Supplier updated")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid supplier ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.redirectWithFlash(w, r, "/suppliers", "error", "Supplier not found")
			return
		}
		h.logger.Error("delete supplier", slog.Any("error", err), slog.String("id", id.String()))
		h.redirectWithFlash(w, r, "/suppliers", "error", "Failed to delete supplier")
		return
	}

	h.redirectWithFlash(w, r, "/suppliers", "success", "Supplier deleted")
}

func parseSupplierForm(r *http.Request) Supplier {
	return Supplier{
		Name:          r.PostFormValue("name"),
		ContactPerson: r.PostFormValue("contact_person"),
		Phone:         r.PostFormValue("phone"),
		Email:         r.PostFormValue("email"),
		Address:       r.PostFormValue("address"),
		Notes:         r.PostFormValue("notes"),
	}
}

func (h *Handler) renderFormError(w http.ResponseWriter, r *http.Request, supplier Supplier, err error) {
	errs := map[string]string{}
	if ve, ok := shared.AsValidationError(err); ok {
		for field, msg := range ve.Fields {
			errs[field] = msg
		}
	} else {
		h.logger.Error("save supplier", slog.Any("error", err))
		errs["general"] = "Failed to save supplier"
	}

	h.render(w, r, "pages/supplier_form.html", map[string]any{
		"Errors":   errs,
		"Supplier": supplier,
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
		Title:       "Suppliers",
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
