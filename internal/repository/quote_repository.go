package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daedong-rise/portal/internal/domain"
)

const quoteColumns = `
	id, product_type, pipe_material, pipe_diameter, quantity, requirements,
	estimated_price_min, estimated_price_max, currency, recommendations,
	name, company, email, phone, country, status, created_at, updated_at`

// QuoteRepository implements domain.QuoteRepository using PostgreSQL.
type QuoteRepository struct {
	pool *pgxpool.Pool
}

// NewQuoteRepository creates a new QuoteRepository.
func NewQuoteRepository(pool *pgxpool.Pool) *QuoteRepository {
	return &QuoteRepository{pool: pool}
}

// Create inserts a new quote request.
func (r *QuoteRepository) Create(ctx context.Context, quote *domain.QuoteRequest) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	recsJSON, err := marshalRecommendations(quote.Recommendations)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO quote_requests (
			id, product_type, pipe_material, pipe_diameter, quantity, requirements,
			estimated_price_min, estimated_price_max, currency, recommendations,
			name, company, email, phone, country, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		)`

	_, err = r.pool.Exec(ctx, query,
		quote.ID,
		quote.ProductType,
		quote.PipeMaterial,
		quote.PipeDiameter,
		quote.Quantity,
		quote.Requirements,
		quote.EstimatedPriceMin,
		quote.EstimatedPriceMax,
		quote.Currency,
		recsJSON,
		quote.Name,
		quote.Company,
		quote.Email,
		quote.Phone,
		quote.Country,
		quote.Status,
		quote.CreatedAt,
		quote.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert quote request: %w", err)
	}

	return nil
}

// GetByID retrieves a quote request by ID.
func (r *QuoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuoteRequest, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := `SELECT` + quoteColumns + ` FROM quote_requests WHERE id = $1`

	quote := &domain.QuoteRequest{}
	var recsJSON []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&quote.ID,
		&quote.ProductType,
		&quote.PipeMaterial,
		&quote.PipeDiameter,
		&quote.Quantity,
		&quote.Requirements,
		&quote.EstimatedPriceMin,
		&quote.EstimatedPriceMax,
		&quote.Currency,
		&recsJSON,
		&quote.Name,
		&quote.Company,
		&quote.Email,
		&quote.Phone,
		&quote.Country,
		&quote.Status,
		&quote.CreatedAt,
		&quote.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan quote request: %w", err)
	}

	if len(recsJSON) > 0 {
		if err := json.Unmarshal(recsJSON, &quote.Recommendations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recommendations: %w", err)
		}
	}

	return quote, nil
}

// List retrieves quote requests with optional filters, newest first.
func (r *QuoteRepository) List(ctx context.Context, filter *domain.QuoteListFilter, limit, offset int) ([]*domain.QuoteRequest, error) {
	ctx, cancel := WithListQueryTimeout(ctx)
	defer cancel()

	where, args := quoteFilterClause(filter)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM quote_requests %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		quoteColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quote requests: %w", err)
	}
	defer rows.Close()

	var quotes []*domain.QuoteRequest
	for rows.Next() {
		quote := &domain.QuoteRequest{}
		var recsJSON []byte
		if err := rows.Scan(
			&quote.ID,
			&quote.ProductType,
			&quote.PipeMaterial,
			&quote.PipeDiameter,
			&quote.Quantity,
			&quote.Requirements,
			&quote.EstimatedPriceMin,
			&quote.EstimatedPriceMax,
			&quote.Currency,
			&recsJSON,
			&quote.Name,
			&quote.Company,
			&quote.Email,
			&quote.Phone,
			&quote.Country,
			&quote.Status,
			&quote.CreatedAt,
			&quote.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan quote request: %w", err)
		}
		if len(recsJSON) > 0 {
			if err := json.Unmarshal(recsJSON, &quote.Recommendations); err != nil {
				return nil, fmt.Errorf("failed to unmarshal recommendations: %w", err)
			}
		}
		quotes = append(quotes, quote)
	}

	return quotes, rows.Err()
}

// Count returns the number of quote requests matching the filter.
func (r *QuoteRepository) Count(ctx context.Context, filter *domain.QuoteListFilter) (int, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	where, args := quoteFilterClause(filter)
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM quote_requests "+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count quote requests: %w", err)
	}
	return count, nil
}

// UpdateStatus changes the back-office status of a quote request.
func (r *QuoteRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.QuoteStatus) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	result, err := r.pool.Exec(ctx,
		"UPDATE quote_requests SET status = $2, updated_at = $3 WHERE id = $1",
		id, status, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update quote status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// quoteFilterClause builds the WHERE clause for quote list queries.
func quoteFilterClause(filter *domain.QuoteListFilter) (string, []interface{}) {
	if filter == nil || filter.Status == nil {
		return "", nil
	}
	return "WHERE status = $1", []interface{}{*filter.Status}
}

// marshalRecommendations serializes recommendations for JSONB storage.
func marshalRecommendations(recs []string) ([]byte, error) {
	if recs == nil {
		recs = []string{}
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recommendations: %w", err)
	}
	return data, nil
}
