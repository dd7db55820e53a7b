package view

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/novapharm/novapharm/internal/shared"
	"github.com/novapharm/novapharm/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Data        any
}

// NewEngine parses the embedded templates with the locale formatter bound
// into the function map.
func NewEngine(formatter *Formatter) (*Engine, error) {
	if formatter == nil {
		formatter = NewFormatter("", "")
	}
	funcMap := template.FuncMap{
		"formatAmount":   formatter.Amount,
		"formatQuantity": formatter.Quantity,
		"formatDate":     formatter.Date,
		"formatDateTime": formatter.DateTime,
		"formatISODate":  formatter.ISODate,
		"formatDatePtr": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return formatter.Date(*t)
		},
		// seq drives repeated form rows: seq 5 yields [0 1 2 3 4].
		"seq": func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i
			}
			return out
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates,
		"templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}
