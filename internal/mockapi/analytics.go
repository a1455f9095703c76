package mockapi

import (
	"encoding/csv"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/omnidesk/widget/internal/models"
)

// AnalyticsHandler ingests widget events and aggregates them for the
// dashboard
type AnalyticsHandler struct {
	events EventStore
	domain string
}

// NewAnalyticsHandler creates an analytics handler over an event store
func NewAnalyticsHandler(events EventStore, domain string) *AnalyticsHandler {
	return &AnalyticsHandler{events: events, domain: domain}
}

// EventRequest is the POST /api/analytics/events body
type EventRequest struct {
	Type      string            `json:"type"`
	VisitorID string            `json:"visitorId"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// SummaryResponse is the GET /api/analytics/summary body
type SummaryResponse struct {
	TotalEvents    int            `json:"totalEvents"`
	UniqueVisitors int            `json:"uniqueVisitors"`
	CountsByType   map[string]int `json:"countsByType"`
	Daily          []DailyCount   `json:"daily"`
}

// DailyCount is one day's event total
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// HandleIngest handles POST /api/analytics/events
func (h *AnalyticsHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Only POST is supported on this endpoint.", http.StatusMethodNotAllowed)
		return
	}

	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "We couldn't read the event. Please try again.", http.StatusBadRequest)
		return
	}

	event, err := models.NewEvent(req.Type, req.VisitorID, h.domain, req.Metadata)
	if err != nil {
		writeError(w, "The event is missing required fields.", http.StatusBadRequest)
		return
	}
	if err := h.events.Record(event); err != nil {
		log.Printf("Error recording event: %v", err)
		writeError(w, "We couldn't record the event. Please try again.", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"id": event.ID})
}

// HandleSummary handles GET /api/analytics/summary
func (h *AnalyticsHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Only GET is supported on this endpoint.", http.StatusMethodNotAllowed)
		return
	}

	events, err := h.events.All()
	if err != nil {
		log.Printf("Error loading events for summary: %v", err)
		writeError(w, "We couldn't load the dashboard data. Please refresh.", http.StatusInternalServerError)
		return
	}

	counts := make(map[string]int)
	visitors := make(map[string]struct{})
	dailyMap := make(map[string]int)
	for _, e := range events {
		counts[e.Type]++
		visitors[e.VisitorID] = struct{}{}
		dailyMap[e.CreatedAt.UTC().Format("2006-01-02")]++
	}

	daily := make([]DailyCount, 0, len(dailyMap))
	for date, count := range dailyMap {
		daily = append(daily, DailyCount{Date: date, Count: count})
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Date < daily[j].Date })

	writeJSON(w, http.StatusOK, SummaryResponse{
		TotalEvents:    len(events),
		UniqueVisitors: len(visitors),
		CountsByType:   counts,
		Daily:          daily,
	})
}

// HandleExportCSV handles GET /api/analytics/export.csv
func (h *AnalyticsHandler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Only GET is supported on this endpoint.", http.StatusMethodNotAllowed)
		return
	}

	events, err := h.events.All()
	if err != nil {
		log.Printf("Error loading events for CSV export: %v", err)
		writeError(w, "We couldn't build the export. Please try again.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="omnidesk-events.csv"`)

	cw := csv.NewWriter(w)
	cw.Write([]string{"id", "type", "visitor_id", "domain", "created_at"})
	for _, e := range events {
		cw.Write([]string{e.ID, e.Type, e.VisitorID, e.Domain, e.CreatedAt.UTC().Format(time.RFC3339)})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Printf("Error writing events CSV: %v", err)
	}
}
