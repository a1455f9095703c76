package handlers

import (
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/omnidesk/widget/internal/mockapi"
	"github.com/omnidesk/widget/internal/models"
)

// ConfirmationHandler handles the order confirmation page
type ConfirmationHandler struct {
	template *template.Template
	orders   mockapi.OrderStore
}

// NewConfirmationHandler creates a new confirmation handler
func NewConfirmationHandler(templatePath string, orders mockapi.OrderStore) (*ConfirmationHandler, error) {
	tmpl, err := template.ParseFiles(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return &ConfirmationHandler{
		template: tmpl,
		orders:   orders,
	}, nil
}

// ConfirmationData represents the data for the confirmation template
type ConfirmationData struct {
	Order    *models.Order
	Amount   string
	Products string
	Platform string
}

// ServeHTTP handles GET /checkout/confirmation
func (h *ConfirmationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reference := r.URL.Query().Get("reference")
	if reference == "" {
		http.Error(w, "Missing order reference", http.StatusBadRequest)
		return
	}

	order, err := h.orders.GetByReference(reference)
	if err != nil {
		log.Printf("Confirmation page for unknown order %s: %v", reference, err)
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	if !order.IsPaid() {
		failureURL := fmt.Sprintf("/checkout/failed?reference=%s&reason=%s", order.Reference, order.FailureCode)
		http.Redirect(w, r, failureURL, http.StatusSeeOther)
		return
	}

	data := ConfirmationData{
		Order:    order,
		Amount:   order.GetFormattedAmount(),
		Products: order.ProductSummary(),
		Platform: r.URL.Query().Get("platform"),
	}

	if err := h.template.Execute(w, data); err != nil {
		log.Printf("Error rendering template: %v", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}
