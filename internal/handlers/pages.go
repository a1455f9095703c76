package handlers

import (
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/omnidesk/widget/internal/mockapi"
)

// PageData is the common data injected into every harness page
type PageData struct {
	Domain   string
	Products []mockapi.Product
}

// PageHandler renders one of the static harness pages
type PageHandler struct {
	template *template.Template
	data     PageData
}

// NewPageHandler creates a handler for a single template
func NewPageHandler(templatePath string, data PageData) (*PageHandler, error) {
	// Prices are stored in minor units; templates render them as dollars
	funcMap := template.FuncMap{
		"price": func(cents int64) string {
			return fmt.Sprintf("%d.%02d", cents/100, cents%100)
		},
	}

	tmpl, err := template.New(filepath.Base(templatePath)).Funcs(funcMap).ParseFiles(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return &PageHandler{
		template: tmpl,
		data:     data,
	}, nil
}

// ServeHTTP renders the page
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.template.Execute(w, h.data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
}
