package mockapi

import "net/http"

// RecommendationsHandler serves product suggestions for the widget's
// recommendation cards
type RecommendationsHandler struct {
	catalog *Catalog
}

// NewRecommendationsHandler creates a recommendations handler over a catalog
func NewRecommendationsHandler(catalog *Catalog) *RecommendationsHandler {
	return &RecommendationsHandler{catalog: catalog}
}

// RecommendationsResponse is the GET /api/recommendations body
type RecommendationsResponse struct {
	Products []Product `json:"products"`
}

// ServeHTTP handles GET /api/recommendations?q=
func (h *RecommendationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Only GET is supported on this endpoint.", http.StatusMethodNotAllowed)
		return
	}

	products := h.catalog.Search(r.URL.Query().Get("q"))
	if products == nil {
		products = []Product{}
	}

	writeJSON(w, http.StatusOK, RecommendationsResponse{Products: products})
}
