package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/omnidesk/widget/internal/database"
	"github.com/omnidesk/widget/internal/mockapi"
	"github.com/omnidesk/widget/internal/models"
)

// Product names are stored joined in a single column; none of the catalog
// names contain the separator
const productNameSeparator = "||"

// OrderRepository handles database operations for orders
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		db: database.DB,
	}
}

// NewOrderRepositoryWithDB creates a new order repository with a specific database connection
func NewOrderRepositoryWithDB(db *sql.DB) *OrderRepository {
	return &OrderRepository{
		db: db,
	}
}

// Create inserts a new order
func (r *OrderRepository) Create(order *models.Order) error {
	query := `
		INSERT INTO orders (id, reference, visitor_id, platform, amount, currency, status, product_names, failure_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(query,
		order.ID,
		order.Reference,
		order.VisitorID,
		order.Platform,
		order.Amount,
		order.Currency,
		order.Status,
		strings.Join(order.ProductNames, productNameSeparator),
		order.FailureCode,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByReference retrieves an order by its reference
func (r *OrderRepository) GetByReference(reference string) (*models.Order, error) {
	query := `
		SELECT id, reference, visitor_id, platform, amount, currency, status,
		       product_names, COALESCE(failure_code, ''), created_at, updated_at
		FROM orders
		WHERE reference = $1
	`

	order := &models.Order{}
	var productNames string
	err := r.db.QueryRow(query, reference).Scan(
		&order.ID,
		&order.Reference,
		&order.VisitorID,
		&order.Platform,
		&order.Amount,
		&order.Currency,
		&order.Status,
		&productNames,
		&order.FailureCode,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, mockapi.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if productNames != "" {
		order.ProductNames = strings.Split(productNames, productNameSeparator)
	}
	return order, nil
}

// Update saves the order's mutable fields
func (r *OrderRepository) Update(order *models.Order) error {
	query := `
		UPDATE orders
		SET status = $1, failure_code = $2, updated_at = $3
		WHERE reference = $4
	`

	result, err := r.db.Exec(query, order.Status, order.FailureCode, order.UpdatedAt, order.Reference)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return mockapi.ErrOrderNotFound
	}
	return nil
}
