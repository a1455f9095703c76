package mockapi

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/omnidesk/widget/internal/models"
)

// GDPRHandler implements the data-subject endpoints: export hands the
// visitor everything we hold about them, delete erases it behind a signed
// confirmation token so a stray click can't wipe a profile.
type GDPRHandler struct {
	conversations ConversationStore
	events        EventStore
	tokenSecret   []byte
	tokenTTL      time.Duration
}

// NewGDPRHandler creates a GDPR handler over the given stores
func NewGDPRHandler(conversations ConversationStore, events EventStore, tokenSecret string, tokenTTL time.Duration) *GDPRHandler {
	return &GDPRHandler{
		conversations: conversations,
		events:        events,
		tokenSecret:   []byte(tokenSecret),
		tokenTTL:      tokenTTL,
	}
}

// ExportRequest is the POST /api/gdpr/export body
type ExportRequest struct {
	VisitorID string `json:"visitorId"`
	Format    string `json:"format,omitempty"` // "json" (default) or "csv"
}

// ExportResponse is the JSON export payload
type ExportResponse struct {
	VisitorID     string                 `json:"visitorId"`
	ExportedAt    time.Time              `json:"exportedAt"`
	Conversations []*models.Conversation `json:"conversations"`
	Events        []models.Event         `json:"events"`
}

// DeleteRequest is the POST /api/gdpr/delete body
type DeleteRequest struct {
	VisitorID string `json:"visitorId"`
}

// DeleteResponse returns the confirmation token the client must echo back
type DeleteResponse struct {
	ConfirmationToken string    `json:"confirmationToken"`
	ExpiresAt         time.Time `json:"expiresAt"`
}

// ConfirmRequest is the POST /api/gdpr/delete/confirm body
type ConfirmRequest struct {
	ConfirmationToken string `json:"confirmationToken"`
}

// ConfirmResponse reports what was erased
type ConfirmResponse struct {
	VisitorID            string `json:"visitorId"`
	ConversationsDeleted int    `json:"conversationsDeleted"`
	EventsDeleted        int    `json:"eventsDeleted"`
}

// HandleExport handles POST /api/gdpr/export
func (h *GDPRHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Only POST is supported on this endpoint.", http.StatusMethodNotAllowed)
		return
	}

	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VisitorID == "" {
		writeError(w, "We need to know whose data to export. Please reload the page and try again.", http.StatusBadRequest)
		return
	}

	conversations, err := h.conversations.ByVisitor(req.VisitorID)
	if err != nil {
		log.Printf("Error loading conversations for export: %v", err)
		writeError(w, "We couldn't assemble your data export. Please try again.", http.StatusInternalServerError)
		return
	}
	events, err := h.events.ByVisitor(req.VisitorID)
	if err != nil {
		log.Printf("Error loading events for export: %v", err)
		writeError(w, "We couldn't assemble your data export. Please try again.", http.StatusInternalServerError)
		return
	}

	if strings.EqualFold(req.Format, "csv") {
		h.exportCSV(w, req.VisitorID, conversations, events)
		return
	}

	writeJSON(w, http.StatusOK, ExportResponse{
		VisitorID:     req.VisitorID,
		ExportedAt:    time.Now(),
		Conversations: conversations,
		Events:        events,
	})
}

// exportCSV streams the export as one flat CSV: a row per message and per
// event, sorted by time
func (h *GDPRHandler) exportCSV(w http.ResponseWriter, visitorID string, conversations []*models.Conversation, events []models.Event) {
	type row struct {
		at     time.Time
		record []string
	}

	var rows []row
	for _, conv := range conversations {
		for _, msg := range conv.Messages {
			rows = append(rows, row{
				at:     msg.CreatedAt,
				record: []string{"message", msg.CreatedAt.UTC().Format(time.RFC3339), conv.ID, msg.Role, msg.Body},
			})
		}
	}
	for _, e := range events {
		rows = append(rows, row{
			at:     e.CreatedAt,
			record: []string{"event", e.CreatedAt.UTC().Format(time.RFC3339), e.ID, e.Type, ""},
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].at.Before(rows[j].at) })

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "omnidesk-export-"+visitorID+".csv"))

	cw := csv.NewWriter(w)
	cw.Write([]string{"kind", "timestamp", "id", "detail", "body"})
	for _, r := range rows {
		cw.Write(r.record)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Printf("Error writing CSV export: %v", err)
	}
}

// HandleDelete handles POST /api/gdpr/delete: it does not delete anything,
// it issues the signed confirmation token
func (h *GDPRHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Only POST is supported on this endpoint.", http.StatusMethodNotAllowed)
		return
	}

	var req DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VisitorID == "" {
		writeError(w, "We need to know whose data to delete. Please reload the page and try again.", http.StatusBadRequest)
		return
	}

	expiresAt := time.Now().Add(h.tokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   req.VisitorID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    "omnidesk-gdpr",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.tokenSecret)
	if err != nil {
		log.Printf("Error signing deletion token: %v", err)
		writeError(w, "We couldn't prepare the deletion request. Please try again.", http.StatusInternalServerError)
		return
	}

	log.Printf("Deletion requested for visitor %s, token expires %s", req.VisitorID, expiresAt.Format(time.RFC3339))
	writeJSON(w, http.StatusOK, DeleteResponse{ConfirmationToken: token, ExpiresAt: expiresAt})
}

// HandleDeleteConfirm handles POST /api/gdpr/delete/confirm: validates the
// token and erases the visitor
func (h *GDPRHandler) HandleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Only POST is supported on this endpoint.", http.StatusMethodNotAllowed)
		return
	}

	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConfirmationToken == "" {
		writeError(w, "The confirmation is missing. Please restart the deletion request.", http.StatusBadRequest)
		return
	}

	parsed, err := jwt.ParseWithClaims(req.ConfirmationToken, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return h.tokenSecret, nil
	}, jwt.WithIssuer("omnidesk-gdpr"))
	if err != nil || !parsed.Valid {
		log.Printf("Invalid deletion token: %v", err)
		writeError(w, "This deletion request has expired or is invalid. Please start again.", http.StatusUnauthorized)
		return
	}

	claims := parsed.Claims.(*jwt.RegisteredClaims)
	visitorID := claims.Subject

	conversationsDeleted, err := h.conversations.DeleteByVisitor(visitorID)
	if err != nil {
		log.Printf("Error deleting conversations for %s: %v", visitorID, err)
		writeError(w, "We couldn't complete the deletion. Please try again.", http.StatusInternalServerError)
		return
	}
	eventsDeleted, err := h.events.DeleteByVisitor(visitorID)
	if err != nil {
		log.Printf("Error deleting events for %s: %v", visitorID, err)
		writeError(w, "We couldn't complete the deletion. Please try again.", http.StatusInternalServerError)
		return
	}

	log.Printf("Deleted visitor %s: %d conversations, %d events", visitorID, conversationsDeleted, eventsDeleted)
	writeJSON(w, http.StatusOK, ConfirmResponse{
		VisitorID:            visitorID,
		ConversationsDeleted: conversationsDeleted,
		EventsDeleted:        eventsDeleted,
	})
}
