package mockapi

import (
	"errors"

	"github.com/omnidesk/widget/internal/models"
)

// Store errors
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrOrderNotFound        = errors.New("order not found")
)

// ConversationStore persists conversations. The harness ships an in-memory
// implementation; internal/repository provides a Postgres one for the
// persistent serve mode.
type ConversationStore interface {
	Create(conv *models.Conversation) error
	Get(id string) (*models.Conversation, error)
	Update(conv *models.Conversation) error
	ByVisitor(visitorID string) ([]*models.Conversation, error)
	DeleteByVisitor(visitorID string) (int, error)
}

// EventStore persists analytics events
type EventStore interface {
	Record(event models.Event) error
	All() ([]models.Event, error)
	ByVisitor(visitorID string) ([]models.Event, error)
	DeleteByVisitor(visitorID string) (int, error)
}

// OrderStore persists checkout orders
type OrderStore interface {
	Create(order *models.Order) error
	GetByReference(reference string) (*models.Order, error)
	Update(order *models.Order) error
}
