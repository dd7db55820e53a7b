package pharmacy

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/novapharm/novapharm/internal/shared"
	"github.com/novapharm/novapharm/internal/view"
)

// Handler serves the settings/profile page.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/profile", h.Show)
	r.Post("/profile", h.Update)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	tenantID := shared.TenantFromContext(r.Context())
	profile, err := h.service.Get(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("load pharmacy profile", slog.Any("error", err))
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/settings.html", map[string]any{
		"Profile": profile,
		"Errors":  map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	tenantID := shared.TenantFromContext(r.Context())
	current, err := h.service.Get(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("load pharmacy profile", slog.Any("error", err))
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}

	profile := current
	profile.PharmacyName = r.PostFormValue("pharmacy_name")
	profile.OwnerName = r.PostFormValue("owner_name")
	profile.LicenseNumber = r.PostFormValue("license_number")
	profile.Phone = r.PostFormValue("phone")
	profile.Address = r.PostFormValue("address")
	profile.City = r.PostFormValue("city")
	if raw := r.PostFormValue("employee_count"); raw != "" {
		if count, err := strconv.Atoi(raw); err == nil {
			profile.EmployeeCount = &count
		}
	} else {
		profile.EmployeeCount = nil
	}

	if err := h.service.Update(r.Context(), profile); err != nil {
		errs := map[string]string{"general": err.Error()}
		if ve, ok := shared.AsValidationError(err); ok {
			errs = ve.Fields
		}
		h.render(w, r, "pages/settings.html", map[string]any{
			"Profile": profile,
			"Errors":  errs,
		}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/settings/profile", "success", "Profile updated successfully")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Settings",
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
