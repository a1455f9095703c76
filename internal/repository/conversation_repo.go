package repository

import (
	"database/sql"
	"fmt"

	"github.com/omnidesk/widget/internal/database"
	"github.com/omnidesk/widget/internal/mockapi"
	"github.com/omnidesk/widget/internal/models"
)

// ConversationRepository handles database operations for conversations and
// their transcripts
type ConversationRepository struct {
	db *sql.DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		db: database.DB,
	}
}

// NewConversationRepositoryWithDB creates a new conversation repository with a specific database connection
func NewConversationRepositoryWithDB(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{
		db: db,
	}
}

// Create inserts a conversation and its messages
func (r *ConversationRepository) Create(conv *models.Conversation) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO conversations (id, visitor_id, domain, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.Exec(query, conv.ID, conv.VisitorID, conv.Domain, conv.Status, conv.CreatedAt, conv.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	if err := insertMessages(tx, conv.ID, conv.Messages); err != nil {
		return err
	}

	return tx.Commit()
}

// Get loads a conversation with its full transcript
func (r *ConversationRepository) Get(id string) (*models.Conversation, error) {
	query := `
		SELECT id, visitor_id, domain, status, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`

	conv := &models.Conversation{}
	err := r.db.QueryRow(query, id).Scan(
		&conv.ID,
		&conv.VisitorID,
		&conv.Domain,
		&conv.Status,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, mockapi.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	if conv.Messages, err = r.messages(id); err != nil {
		return nil, err
	}

	return conv, nil
}

// Update replaces the conversation row and its transcript
func (r *ConversationRepository) Update(conv *models.Conversation) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE conversations
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := tx.Exec(query, conv.Status, conv.UpdatedAt, conv.ID)
	if err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return mockapi.ErrConversationNotFound
	}

	// The transcript is append-only; rewriting it keeps Update simple
	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = $1`, conv.ID); err != nil {
		return fmt.Errorf("failed to clear transcript: %w", err)
	}
	if err := insertMessages(tx, conv.ID, conv.Messages); err != nil {
		return err
	}

	return tx.Commit()
}

// ByVisitor returns all conversations for a visitor, oldest first
func (r *ConversationRepository) ByVisitor(visitorID string) ([]*models.Conversation, error) {
	query := `
		SELECT id, visitor_id, domain, status, created_at, updated_at
		FROM conversations
		WHERE visitor_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(query, visitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		conv := &models.Conversation{}
		if err := rows.Scan(&conv.ID, &conv.VisitorID, &conv.Domain, &conv.Status, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read conversations: %w", err)
	}

	for _, conv := range conversations {
		if conv.Messages, err = r.messages(conv.ID); err != nil {
			return nil, err
		}
	}

	return conversations, nil
}

// DeleteByVisitor removes all conversations for a visitor and returns how
// many were deleted. Messages cascade.
func (r *ConversationRepository) DeleteByVisitor(visitorID string) (int, error) {
	result, err := r.db.Exec(`DELETE FROM conversations WHERE visitor_id = $1`, visitorID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete conversations: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

func (r *ConversationRepository) messages(conversationID string) ([]models.Message, error) {
	query := `
		SELECT id, role, body, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Role, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func insertMessages(tx *sql.Tx, conversationID string, messages []models.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, role, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, m := range messages {
		if _, err := tx.Exec(query, m.ID, conversationID, m.Role, m.Body, m.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}
	return nil
}
