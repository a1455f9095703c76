package database

import (
	"fmt"
	"log"
)

// RunMigrations creates the necessary database tables
func RunMigrations() error {
	if DB == nil {
		return fmt.Errorf("database connection not initialized")
	}

	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id UUID PRIMARY KEY,
		visitor_id VARCHAR(255) NOT NULL,
		domain VARCHAR(255) NOT NULL,
		status VARCHAR(50) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY,
		conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		role VARCHAR(20) NOT NULL,
		body TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS analytics_events (
		id UUID PRIMARY KEY,
		type VARCHAR(100) NOT NULL,
		visitor_id VARCHAR(255) NOT NULL,
		domain VARCHAR(255) NOT NULL,
		metadata JSONB,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		reference VARCHAR(255) UNIQUE NOT NULL,
		visitor_id VARCHAR(255) NOT NULL,
		platform VARCHAR(50) NOT NULL,
		amount BIGINT NOT NULL,
		currency VARCHAR(3) NOT NULL,
		status VARCHAR(50) NOT NULL,
		product_names TEXT NOT NULL,
		failure_code VARCHAR(100),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_conversations_visitor ON conversations(visitor_id);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);
	CREATE INDEX IF NOT EXISTS idx_events_visitor ON analytics_events(visitor_id);
	CREATE INDEX IF NOT EXISTS idx_events_type ON analytics_events(type);
	CREATE INDEX IF NOT EXISTS idx_orders_reference ON orders(reference);
	`

	_, err := DB.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}
