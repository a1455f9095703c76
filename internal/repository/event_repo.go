package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/omnidesk/widget/internal/database"
	"github.com/omnidesk/widget/internal/models"
)

// EventRepository handles database operations for analytics events
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository() *EventRepository {
	return &EventRepository{
		db: database.DB,
	}
}

// NewEventRepositoryWithDB creates a new event repository with a specific database connection
func NewEventRepositoryWithDB(db *sql.DB) *EventRepository {
	return &EventRepository{
		db: db,
	}
}

// Record inserts an analytics event. Metadata is stored as JSONB.
func (r *EventRepository) Record(event models.Event) error {
	var metadata []byte
	if event.Metadata != nil {
		var err error
		if metadata, err = json.Marshal(event.Metadata); err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
	}

	query := `
		INSERT INTO analytics_events (id, type, visitor_id, domain, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.Exec(query, event.ID, event.Type, event.VisitorID, event.Domain, metadata, event.CreatedAt); err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// All returns every recorded event, oldest first
func (r *EventRepository) All() ([]models.Event, error) {
	return r.query(`
		SELECT id, type, visitor_id, domain, metadata, created_at
		FROM analytics_events
		ORDER BY created_at
	`)
}

// ByVisitor returns events for one visitor, oldest first
func (r *EventRepository) ByVisitor(visitorID string) ([]models.Event, error) {
	return r.query(`
		SELECT id, type, visitor_id, domain, metadata, created_at
		FROM analytics_events
		WHERE visitor_id = $1
		ORDER BY created_at
	`, visitorID)
}

// DeleteByVisitor removes all events for a visitor and returns how many were
// deleted
func (r *EventRepository) DeleteByVisitor(visitorID string) (int, error) {
	result, err := r.db.Exec(`DELETE FROM analytics_events WHERE visitor_id = $1`, visitorID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete events: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

func (r *EventRepository) query(query string, args ...interface{}) ([]models.Event, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		var metadata []byte
		if err := rows.Scan(&e.ID, &e.Type, &e.VisitorID, &e.Domain, &metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata: %w", err)
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
