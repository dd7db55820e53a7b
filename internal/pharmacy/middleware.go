package pharmacy

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/novapharm/novapharm/internal/shared"
)

// Middleware scopes requests to the authenticated user's pharmacy. Every
// tenant-owned route goes through RequireTenant, which resolves the
// pharmacy id once per session and injects it into the request context.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireTenant rejects unauthenticated requests and attaches the tenant
// id to the context for downstream handlers.
func (m Middleware) RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}

		if cached := sess.Pharmacy(); cached != uuid.Nil {
			next.ServeHTTP(w, r.WithContext(shared.ContextWithTenant(r.Context(), cached)))
			return
		}

		userID, err := uuid.Parse(sess.User())
		if err != nil {
			m.Logger.Warn("session holds malformed user id", slog.String("user", sess.User()))
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}

		profile, err := m.Service.ResolveTenant(r.Context(), userID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "No pharmacy profile is linked to this account"})
				http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
				return
			}
			m.Logger.Error("resolve tenant", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		sess.SetPharmacy(profile.ID)
		next.ServeHTTP(w, r.WithContext(shared.ContextWithTenant(r.Context(), profile.ID)))
	})
}
