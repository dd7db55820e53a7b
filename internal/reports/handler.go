package reports

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/novapharm/novapharm/internal/reports/svg"
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

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Show)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), time.Now())
	if err != nil {
		h.logger.Error("build report summary", slog.Any("error", err))
		http.Error(w, "Failed to load reports", http.StatusInternalServerError)
		return
	}

	var revenueChart template.HTML
	if len(summary.Daily) > 0 {
		series := make([]float64, 0, len(summary.Daily))
		labels := make([]string, 0, len(summary.Daily))
		for _, point := range summary.Daily {
			series = append(series, point.Total)
			labels = append(labels, point.Date.Format("02 Jan"))
		}
		revenueChart, err = svg.Line(720, 240, series, labels, svg.LineOpts{
			Title:       "Daily revenue",
			Description: "Revenue per day over the last week of activity",
			ShowDots:    true,
		})
		if err != nil {
			h.logger.Warn("render revenue chart", slog.Any("error", err))
		}
	}

	var topChart template.HTML
	if len(summary.TopProducts) > 0 {
		series := make([]float64, 0, len(summary.TopProducts))
		labels := make([]string, 0, len(summary.TopProducts))
		for _, product := range summary.TopProducts {
			series = append(series, float64(product.Quantity))
			labels = append(labels, product.Name)
		}
		topChart, err = svg.Bars(720, 240, series, labels, svg.BarOpts{
			Title:       "Best sellers",
			Description: "Units sold per product",
		})
		if err != nil {
			h.logger.Warn("render top products chart", slog.Any("error", err))
		}
	}

	h.render(w, r, "pages/reports.html", map[string]any{
		"Summary":      summary,
		"RevenueChart": revenueChart,
		"TopChart":     topChart,
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
		Title:       "Reports",
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
