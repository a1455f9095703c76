package mockapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/omnidesk/widget/internal/models"
)

// ChatHandler answers widget messages with deterministic canned replies so
// the e2e suite can assert exact conversation behavior
type ChatHandler struct {
	conversations ConversationStore
	events        EventStore
	orders        OrderStore
	catalog       *Catalog
	domain        string
}

// NewChatHandler creates a chat handler over the given stores
func NewChatHandler(conversations ConversationStore, events EventStore, orders OrderStore, catalog *Catalog, domain string) *ChatHandler {
	return &ChatHandler{
		conversations: conversations,
		events:        events,
		orders:        orders,
		catalog:       catalog,
		domain:        domain,
	}
}

// ChatRequest is the POST /api/chat body
type ChatRequest struct {
	VisitorID      string `json:"visitorId"`
	ConversationID string `json:"conversationId,omitempty"`
	Message        string `json:"message"`
}

// ChatResponse is the reply sent back to the widget
type ChatResponse struct {
	ConversationID string    `json:"conversationId"`
	Reply          string    `json:"reply"`
	Intent         string    `json:"intent"`
	Products       []Product `json:"products,omitempty"`
	Status         string    `json:"status"`
}

// Reply intents
const (
	IntentOrderStatus    = "order_status"
	IntentRecommendation = "recommendation"
	IntentHandoff        = "human_handoff"
	IntentFallback       = "fallback"
)

// ServeHTTP handles POST /api/chat
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Only POST is supported on this endpoint.", http.StatusMethodNotAllowed)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "We couldn't read your message. Please try again.", http.StatusBadRequest)
		return
	}
	if req.VisitorID == "" {
		writeError(w, "Your session is missing. Please reload the page.", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, "Please type a message before sending.", http.StatusBadRequest)
		return
	}

	conv, err := h.conversation(req)
	if err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			writeError(w, "We couldn't find that conversation. Starting a new one may help.", http.StatusNotFound)
			return
		}
		log.Printf("Error loading conversation: %v", err)
		writeError(w, "Something went wrong on our side. Please try again.", http.StatusInternalServerError)
		return
	}

	visitorMsg, err := models.NewMessage(models.RoleVisitor, req.Message)
	if err != nil {
		writeError(w, "Please type a message before sending.", http.StatusBadRequest)
		return
	}
	if err := conv.Append(visitorMsg); err != nil {
		if errors.Is(err, models.ErrConversationExpired) {
			writeError(w, "This conversation has expired. Please start a new one.", http.StatusGone)
			return
		}
		log.Printf("Error appending visitor message: %v", err)
		writeError(w, "Something went wrong on our side. Please try again.", http.StatusInternalServerError)
		return
	}

	intent, reply, products := h.respond(req)

	assistantMsg, _ := models.NewMessage(models.RoleAssistant, reply)
	if err := conv.Append(assistantMsg); err != nil {
		log.Printf("Error appending assistant message: %v", err)
	}
	if intent == IntentHandoff {
		if err := conv.RequestAgent(); err != nil {
			log.Printf("Error requesting agent: %v", err)
		}
	}

	if err := h.conversations.Update(conv); err != nil {
		log.Printf("Error saving conversation %s: %v", conv.ID, err)
		writeError(w, "Something went wrong on our side. Please try again.", http.StatusInternalServerError)
		return
	}

	h.recordEvent(models.EventMessageSent, req.VisitorID, map[string]string{"conversationId": conv.ID})
	h.recordEvent(models.EventMessageReceived, req.VisitorID, map[string]string{"intent": intent})
	if intent == IntentHandoff {
		h.recordEvent(models.EventHandoffRequested, req.VisitorID, nil)
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		ConversationID: conv.ID,
		Reply:          reply,
		Intent:         intent,
		Products:       products,
		Status:         string(conv.Status),
	})
}

// conversation loads the referenced conversation or starts a new one
func (h *ChatHandler) conversation(req ChatRequest) (*models.Conversation, error) {
	if req.ConversationID != "" {
		return h.conversations.Get(req.ConversationID)
	}

	conv, err := models.NewConversation(req.VisitorID, h.domain)
	if err != nil {
		return nil, err
	}
	if err := h.conversations.Create(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// respond routes the message to a canned reply by keyword intent
func (h *ChatHandler) respond(req ChatRequest) (intent, reply string, products []Product) {
	lower := strings.ToLower(req.Message)

	switch {
	case strings.Contains(lower, "human") || strings.Contains(lower, "agent"):
		return IntentHandoff, "I'm connecting you with a member of our team. Hang tight, someone will be with you shortly.", nil

	case strings.Contains(lower, "order"):
		return IntentOrderStatus, h.orderStatusReply(lower), nil

	case strings.Contains(lower, "recommend") || strings.Contains(lower, "looking for") || len(h.catalog.Search(lower)) > 0:
		matches := h.catalog.Search(lower)
		if len(matches) == 0 {
			matches = h.catalog.Search("")
		}
		if len(matches) > 3 {
			matches = matches[:3]
		}
		return IntentRecommendation, "Here are a few things you might like:", matches

	default:
		return IntentFallback, "I'm not sure about that one. Could you rephrase, or type \"agent\" to talk to a human?", nil
	}
}

// orderStatusReply looks for an order reference in the message, falling back
// to a prompt for one
func (h *ChatHandler) orderStatusReply(lower string) string {
	for _, word := range strings.Fields(lower) {
		ref := strings.ToUpper(strings.Trim(word, ".,!?"))
		if !strings.HasPrefix(ref, "WC-") && !strings.HasPrefix(ref, "SHOP-") {
			continue
		}
		order, err := h.orders.GetByReference(ref)
		if err != nil {
			return fmt.Sprintf("I couldn't find an order %s. Please double-check the reference on your confirmation email.", ref)
		}
		return fmt.Sprintf("Order %s is currently %s. It contains: %s.", order.Reference, order.Status, order.ProductSummary())
	}
	return "I can check any order for you. What's the order reference from your confirmation email?"
}

func (h *ChatHandler) recordEvent(eventType, visitorID string, metadata map[string]string) {
	event, err := models.NewEvent(eventType, visitorID, h.domain, metadata)
	if err != nil {
		log.Printf("Error building %s event: %v", eventType, err)
		return
	}
	if err := h.events.Record(event); err != nil {
		log.Printf("Error recording %s event: %v", eventType, err)
	}
}
