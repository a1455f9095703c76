package handlers

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
)


// FailureHandler handles the payment failure page
type FailureHandler struct {
	template *template.Template
}

// NewFailureHandler creates a new failure handler
func NewFailureHandler(templatePath string) (*FailureHandler, error) {
	tmpl, err := template.ParseFiles(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return &FailureHandler{template: tmpl}, nil
}

// FailureData represents the data for the failure template
type FailureData struct {
	OrderReference string
	Reason         string
	Message        string
	RetryURL       string
}

// ServeHTTP handles GET /checkout/failed
func (h *FailureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reference := r.URL.Query().Get("reference")
	reason := r.URL.Query().Get("reason")

	data := FailureData{
		OrderReference: reference,
		Reason:         reason,
		Message:        getFailureMessage(reason),
		RetryURL:       "/checkout?retry=" + reference,
	}

	if err := h.template.Execute(w, data); err != nil {
		log.Printf("Error rendering template: %v", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// getFailureMessage returns a user-friendly message based on the failure reason
func getFailureMessage(reason string) string {
	switch reason {
	case "Refused":
		return "Your card was declined. Please check your payment details and try again."
	case "Cancelled":
		return "The payment was cancelled. You can try again when you're ready."
	case "Error":
		return "An error occurred while processing your payment. You have not been charged. Please try again."
	default:
		return "We couldn't process your payment. Please try again or contact support."
	}
}
