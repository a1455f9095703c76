package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Analytics event types recorded by the harness
const (
	EventWidgetOpened     = "widget_opened"
	EventMessageSent      = "message_sent"
	EventMessageReceived  = "message_received"
	EventHandoffRequested = "handoff_requested"
	EventCheckoutStarted  = "checkout_started"
	EventCheckoutPaid     = "checkout_paid"
	EventCheckoutFailed   = "checkout_failed"
)

// Event is a single analytics event tied to a visitor on a domain
type Event struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	VisitorID string            `json:"visitorId"`
	Domain    string            `json:"domain"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Event errors
var (
	ErrEmptyEventType = errors.New("event type cannot be empty")
)

// NewEvent creates a validated analytics event
func NewEvent(eventType, visitorID, domain string, metadata map[string]string) (Event, error) {
	if eventType == "" {
		return Event{}, ErrEmptyEventType
	}
	if visitorID == "" {
		return Event{}, ErrEmptyVisitorID
	}
	if domain == "" {
		return Event{}, ErrEmptyDomain
	}

	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		VisitorID: visitorID,
		Domain:    domain,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}, nil
}
