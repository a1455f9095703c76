package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConversationStatus represents valid conversation states
type ConversationStatus string

// Conversation statuses
const (
	ConversationStatusOpen          ConversationStatus = "open"
	ConversationStatusAwaitingAgent ConversationStatus = "awaiting_agent"
	ConversationStatusResolved      ConversationStatus = "resolved"
	ConversationStatusExpired       ConversationStatus = "expired"
)

// Message roles
const (
	RoleVisitor   = "visitor"
	RoleAssistant = "assistant"
	RoleAgent     = "agent"
)

// Message is a single entry in a conversation transcript
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Conversation represents a support conversation between a visitor and the
// widget on a given store domain
type Conversation struct {
	ID        string             `json:"id"`
	VisitorID string             `json:"visitorId"`
	Domain    string             `json:"domain"`
	Status    ConversationStatus `json:"status"`
	Messages  []Message          `json:"messages"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Conversation errors
var (
	ErrEmptyVisitorID      = errors.New("visitor ID cannot be empty")
	ErrEmptyDomain         = errors.New("domain cannot be empty")
	ErrEmptyMessageBody    = errors.New("message body cannot be empty")
	ErrInvalidMessageRole  = errors.New("message role must be visitor, assistant or agent")
	ErrConversationExpired = errors.New("conversation has expired")
)

// NewConversation creates an open conversation for a visitor on a domain
func NewConversation(visitorID, domain string) (*Conversation, error) {
	if visitorID == "" {
		return nil, ErrEmptyVisitorID
	}
	if domain == "" {
		return nil, ErrEmptyDomain
	}

	now := time.Now()
	return &Conversation{
		ID:        uuid.New().String(),
		VisitorID: visitorID,
		Domain:    domain,
		Status:    ConversationStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewMessage validates and builds a transcript message
func NewMessage(role, body string) (Message, error) {
	if strings.TrimSpace(body) == "" {
		return Message{}, ErrEmptyMessageBody
	}
	switch role {
	case RoleVisitor, RoleAssistant, RoleAgent:
	default:
		return Message{}, ErrInvalidMessageRole
	}

	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Body:      body,
		CreatedAt: time.Now(),
	}, nil
}

// Append adds a message to the transcript. A visitor message on a resolved
// conversation reopens it; expired conversations reject all messages.
func (c *Conversation) Append(m Message) error {
	if c.Status == ConversationStatusExpired {
		return ErrConversationExpired
	}
	if c.Status == ConversationStatusResolved {
		if m.Role != RoleVisitor {
			return fmt.Errorf("%w: only a visitor message can reopen a resolved conversation", ErrInvalidStatusTransition)
		}
		c.Status = ConversationStatusOpen
	}

	c.Messages = append(c.Messages, m)
	c.UpdatedAt = time.Now()
	return nil
}

// RequestAgent moves an open conversation into the agent queue
func (c *Conversation) RequestAgent() error {
	if c.Status != ConversationStatusOpen {
		return fmt.Errorf("%w: cannot request an agent with status %s", ErrInvalidStatusTransition, c.Status)
	}

	c.Status = ConversationStatusAwaitingAgent
	c.UpdatedAt = time.Now()
	return nil
}

// Resolve closes the conversation
func (c *Conversation) Resolve() error {
	if c.Status == ConversationStatusExpired {
		return ErrConversationExpired
	}
	if c.Status == ConversationStatusResolved {
		return fmt.Errorf("%w: conversation is already resolved", ErrInvalidStatusTransition)
	}

	c.Status = ConversationStatusResolved
	c.UpdatedAt = time.Now()
	return nil
}

// Expire marks an inactive conversation as expired. Resolved conversations
// stay resolved.
func (c *Conversation) Expire() error {
	if c.Status == ConversationStatusResolved {
		return fmt.Errorf("%w: cannot expire a resolved conversation", ErrInvalidStatusTransition)
	}

	c.Status = ConversationStatusExpired
	c.UpdatedAt = time.Now()
	return nil
}

// IsActive returns true if the conversation can still receive messages
func (c *Conversation) IsActive() bool {
	return c.Status == ConversationStatusOpen || c.Status == ConversationStatusAwaitingAgent
}

// LastMessage returns the newest transcript entry, or false when empty
func (c *Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}
