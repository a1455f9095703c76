package mockapi

import (
	"fmt"
	"sort"
	"sync"

	"github.com/omnidesk/widget/internal/models"
)

// MemoryConversationStore is the hermetic ConversationStore used by the e2e
// harness and unit tests
type MemoryConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation
}

// NewMemoryConversationStore creates an empty in-memory conversation store
func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{
		conversations: make(map[string]*models.Conversation),
	}
}

// Create stores a new conversation
func (s *MemoryConversationStore) Create(conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.conversations[conv.ID]; exists {
		return fmt.Errorf("conversation %s already exists", conv.ID)
	}
	copied := *conv
	s.conversations[conv.ID] = &copied
	return nil
}

// Get returns a copy of the conversation with the given ID
func (s *MemoryConversationStore) Get(id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	copied := *conv
	copied.Messages = append([]models.Message(nil), conv.Messages...)
	return &copied, nil
}

// Update replaces a stored conversation
func (s *MemoryConversationStore) Update(conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conv.ID]; !ok {
		return ErrConversationNotFound
	}
	copied := *conv
	copied.Messages = append([]models.Message(nil), conv.Messages...)
	s.conversations[conv.ID] = &copied
	return nil
}

// ByVisitor returns all conversations for a visitor, oldest first
func (s *MemoryConversationStore) ByVisitor(visitorID string) ([]*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Conversation
	for _, conv := range s.conversations {
		if conv.VisitorID == visitorID {
			copied := *conv
			copied.Messages = append([]models.Message(nil), conv.Messages...)
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// DeleteByVisitor erases all conversations for a visitor, returning the count
func (s *MemoryConversationStore) DeleteByVisitor(visitorID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, conv := range s.conversations {
		if conv.VisitorID == visitorID {
			delete(s.conversations, id)
			deleted++
		}
	}
	return deleted, nil
}

// MemoryEventStore is the hermetic EventStore
type MemoryEventStore struct {
	mu     sync.RWMutex
	events []models.Event
}

// NewMemoryEventStore creates an empty in-memory event store
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{}
}

// Record appends an event
func (s *MemoryEventStore) Record(event models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)
	return nil
}

// All returns every recorded event in insertion order
func (s *MemoryEventStore) All() ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.Event(nil), s.events...), nil
}

// ByVisitor returns events for a visitor in insertion order
func (s *MemoryEventStore) ByVisitor(visitorID string) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Event
	for _, e := range s.events {
		if e.VisitorID == visitorID {
			result = append(result, e)
		}
	}
	return result, nil
}

// DeleteByVisitor erases a visitor's events, returning the count
func (s *MemoryEventStore) DeleteByVisitor(visitorID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	deleted := 0
	for _, e := range s.events {
		if e.VisitorID == visitorID {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return deleted, nil
}

// MemoryOrderStore is the hermetic OrderStore
type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[string]*models.Order // keyed by reference
}

// NewMemoryOrderStore creates an empty in-memory order store
func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{orders: make(map[string]*models.Order)}
}

// Create stores a new order
func (s *MemoryOrderStore) Create(order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.Reference]; exists {
		return fmt.Errorf("order %s already exists", order.Reference)
	}
	copied := *order
	s.orders[order.Reference] = &copied
	return nil
}

// GetByReference returns a copy of the order with the given reference
func (s *MemoryOrderStore) GetByReference(reference string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[reference]
	if !ok {
		return nil, ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

// Update replaces a stored order
func (s *MemoryOrderStore) Update(order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[order.Reference]; !ok {
		return ErrOrderNotFound
	}
	copied := *order
	s.orders[order.Reference] = &copied
	return nil
}
