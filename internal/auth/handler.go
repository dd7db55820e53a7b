package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/novapharm/novapharm/internal/pharmacy"
	"github.com/novapharm/novapharm/internal/shared"
	"github.com/novapharm/novapharm/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Get("/register", h.showRegister)
	r.Post("/register", h.handleRegister)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type registerForm struct {
	Email         string `validate:"required,email"`
	Password      string `validate:"required,min=8"`
	PharmacyName  string `validate:"required"`
	OwnerName     string `validate:"required"`
	LicenseNumber string `validate:"required"`
	Phone         string `validate:"required"`
	Address       string `validate:"required"`
	City          string `validate:"required"`
}

type authPageData struct {
	Form   any
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.renderAuthPage(w, r, "pages/login.html", "Sign in", authPageData{Form: loginForm{}}, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	errs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = fieldErr.Error()
		}
	}

	if len(errs) == 0 {
		user, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
		if err != nil {
			errs["general"] = "Invalid email or password"
		} else {
			h.openSession(w, r, sess, user)
			return
		}
	}

	h.renderAuthPage(w, r, "pages/login.html", "Sign in", authPageData{Form: form, Errors: errs}, http.StatusBadRequest)
}

func (h *Handler) showRegister(w http.ResponseWriter, r *http.Request) {
	h.renderAuthPage(w, r, "pages/register.html", "Create account", authPageData{Form: registerForm{}}, http.StatusOK)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form := registerForm{
		Email:         r.PostFormValue("email"),
		Password:      r.PostFormValue("password"),
		PharmacyName:  r.PostFormValue("pharmacy_name"),
		OwnerName:     r.PostFormValue("owner_name"),
		LicenseNumber: r.PostFormValue("license_number"),
		Phone:         r.PostFormValue("phone"),
		Address:       r.PostFormValue("address"),
		City:          r.PostFormValue("city"),
	}
	errs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = fieldErr.Error()
		}
	}

	if len(errs) == 0 {
		user, profile, err := h.service.Register(r.Context(), RegisterInput{
			Email:    form.Email,
			Password: form.Password,
			Profile: pharmacy.Profile{
				PharmacyName:  form.PharmacyName,
				OwnerName:     form.OwnerName,
				LicenseNumber: form.LicenseNumber,
				Phone:         form.Phone,
				Address:       form.Address,
				City:          form.City,
			},
		})
		if err != nil {
			if ve, ok := shared.AsValidationError(err); ok {
				for field, msg := range ve.Fields {
					errs[field] = msg
				}
			} else {
				h.logger.Error("register account", slog.Any("error", err))
				errs["general"] = "Registration failed, please try again"
			}
		} else {
			if sess != nil {
				sess.SetUser(user.ID.String())
				sess.SetPharmacy(profile.ID)
				sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome to NovaPharm"})
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}

	h.renderAuthPage(w, r, "pages/register.html", "Create account", authPageData{Form: form, Errors: errs}, http.StatusBadRequest)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) openSession(w http.ResponseWriter, r *http.Request, sess *shared.Session, user *User) {
	if sess == nil {
		h.logger.Error("session missing during login")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	sess.SetUser(user.ID.String())
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome back"})
	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) renderAuthPage(w http.ResponseWriter, r *http.Request, template, title string, data authPageData, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	if data.Errors == nil {
		data.Errors = map[string]string{}
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render auth page", slog.Any("error", err), slog.String("template", template))
	}
}

// ShowLoginForTest exposes the GET handler for tests.
func (h *Handler) ShowLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.showLogin(w, r)
}

// HandleLoginForTest exposes the POST handler for tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}
