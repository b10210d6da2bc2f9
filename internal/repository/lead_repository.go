// Package repository implements data persistence using PostgreSQL.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daedong-rise/portal/internal/domain"
)

const leadColumns = `
	id, session_id, name, company, email, phone, country, locale,
	inquiry_type, message, source, status, priority, ai_score, ai_summary,
	chat_history, ip_address, user_agent, created_at, updated_at`

// LeadRepository implements domain.LeadRepository using PostgreSQL.
type LeadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository creates a new LeadRepository.
func NewLeadRepository(pool *pgxpool.Pool) *LeadRepository {
	return &LeadRepository{pool: pool}
}

// Create inserts a new lead record.
func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	historyJSON, err := marshalHistory(lead.ChatHistory)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO leads (
			id, session_id, name, company, email, phone, country, locale,
			inquiry_type, message, source, status, priority, ai_score, ai_summary,
			chat_history, ip_address, user_agent, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)`

	_, err = r.pool.Exec(ctx, query,
		lead.ID,
		lead.SessionID,
		lead.Name,
		lead.Company,
		lead.Email,
		lead.Phone,
		lead.Country,
		lead.Locale,
		lead.InquiryType,
		lead.Message,
		lead.Source,
		lead.Status,
		lead.Priority,
		lead.AIScore,
		lead.AISummary,
		historyJSON,
		lead.IPAddress,
		lead.UserAgent,
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}

	return nil
}

// GetBySessionID retrieves a lead by its session identifier.
func (r *LeadRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Lead, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	query := `SELECT` + leadColumns + ` FROM leads WHERE session_id = $1`
	return r.scanLead(ctx, query, sessionID)
}

// Upsert inserts or updates the lead for a session in a single statement.
// Non-nil contact fields overwrite stored values; nil fields are preserved
// via COALESCE. The chat transcript only grows: the appended turns are
// concatenated onto the stored JSONB array inside the same statement, so
// concurrent turns for one session cannot lose each other's updates.
func (r *LeadRepository) Upsert(ctx context.Context, sessionID string, contact *domain.LeadContact, transcriptAppend []domain.ChatMessage, meta *domain.LeadMeta) (*domain.Lead, error) {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	if contact == nil {
		contact = &domain.LeadContact{}
	}
	if meta == nil {
		meta = &domain.LeadMeta{}
	}

	appendJSON, err := marshalHistory(transcriptAppend)
	if err != nil {
		return nil, err
	}

	var inquiry *string
	if contact.InquiryType != nil {
		s := string(*contact.InquiryType)
		inquiry = &s
	}

	query := `
		INSERT INTO leads (
			id, session_id, name, company, email, phone, country, locale,
			inquiry_type, message, source, status, priority, ai_score, ai_summary,
			chat_history, ip_address, user_agent, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			COALESCE($9, 'other'), NULL, 'chatbot', 'NEW', 'MEDIUM', 0, NULL,
			$10, NULLIF($11, ''), NULLIF($12, ''), NOW(), NOW()
		)
		ON CONFLICT (session_id) DO UPDATE SET
			name = COALESCE(EXCLUDED.name, leads.name),
			company = COALESCE(EXCLUDED.company, leads.company),
			email = COALESCE(EXCLUDED.email, leads.email),
			phone = COALESCE(EXCLUDED.phone, leads.phone),
			country = COALESCE(EXCLUDED.country, leads.country),
			locale = COALESCE(EXCLUDED.locale, leads.locale),
			inquiry_type = COALESCE($9, leads.inquiry_type),
			chat_history = leads.chat_history || EXCLUDED.chat_history,
			updated_at = NOW()
		RETURNING` + leadColumns

	var lead domain.Lead
	var historyJSON []byte
	err = r.pool.QueryRow(ctx, query,
		uuid.New(),
		sessionID,
		contact.Name,
		contact.Company,
		contact.Email,
		contact.Phone,
		contact.Country,
		nilIfEmpty(meta.Locale),
		inquiry,
		appendJSON,
		meta.IPAddress,
		meta.UserAgent,
	).Scan(
		&lead.ID,
		&lead.SessionID,
		&lead.Name,
		&lead.Company,
		&lead.Email,
		&lead.Phone,
		&lead.Country,
		&lead.Locale,
		&lead.InquiryType,
		&lead.Message,
		&lead.Source,
		&lead.Status,
		&lead.Priority,
		&lead.AIScore,
		&lead.AISummary,
		&historyJSON,
		&lead.IPAddress,
		&lead.UserAgent,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert lead: %w", err)
	}

	if err := unmarshalHistory(historyJSON, &lead.ChatHistory); err != nil {
		return nil, err
	}

	return &lead, nil
}

// List retrieves leads with optional filters, newest first.
func (r *LeadRepository) List(ctx context.Context, filter *domain.LeadListFilter, limit, offset int) ([]*domain.Lead, error) {
	ctx, cancel := WithListQueryTimeout(ctx)
	defer cancel()

	where, args := leadFilterClause(filter)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM leads %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		leadColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var leads []*domain.Lead
	for rows.Next() {
		lead := &domain.Lead{}
		var historyJSON []byte
		if err := rows.Scan(
			&lead.ID,
			&lead.SessionID,
			&lead.Name,
			&lead.Company,
			&lead.Email,
			&lead.Phone,
			&lead.Country,
			&lead.Locale,
			&lead.InquiryType,
			&lead.Message,
			&lead.Source,
			&lead.Status,
			&lead.Priority,
			&lead.AIScore,
			&lead.AISummary,
			&historyJSON,
			&lead.IPAddress,
			&lead.UserAgent,
			&lead.CreatedAt,
			&lead.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		if err := unmarshalHistory(historyJSON, &lead.ChatHistory); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	return leads, rows.Err()
}

// Count returns the number of leads matching the filter.
func (r *LeadRepository) Count(ctx context.Context, filter *domain.LeadListFilter) (int, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	where, args := leadFilterClause(filter)
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM leads "+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return count, nil
}

// UpdateStatus changes the back-office status of a lead.
func (r *LeadRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.LeadStatus) error {
	ctx, cancel := WithWriteTimeout(ctx)
	defer cancel()

	result, err := r.pool.Exec(ctx,
		"UPDATE leads SET status = $2, updated_at = $3 WHERE id = $1",
		id, status, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update lead status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanLead scans a single lead from a query.
func (r *LeadRepository) scanLead(ctx context.Context, query string, args ...interface{}) (*domain.Lead, error) {
	lead := &domain.Lead{}
	var historyJSON []byte

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&lead.ID,
		&lead.SessionID,
		&lead.Name,
		&lead.Company,
		&lead.Email,
		&lead.Phone,
		&lead.Country,
		&lead.Locale,
		&lead.InquiryType,
		&lead.Message,
		&lead.Source,
		&lead.Status,
		&lead.Priority,
		&lead.AIScore,
		&lead.AISummary,
		&historyJSON,
		&lead.IPAddress,
		&lead.UserAgent,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan lead: %w", err)
	}

	if err := unmarshalHistory(historyJSON, &lead.ChatHistory); err != nil {
		return nil, err
	}

	return lead, nil
}

// leadFilterClause builds the WHERE clause for lead list queries.
func leadFilterClause(filter *domain.LeadListFilter) (string, []interface{}) {
	if filter == nil {
		return "", nil
	}

	var conds []string
	var args []interface{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		conds = append(conds, fmt.Sprintf("priority = $%d", len(args)))
	}
	if filter.Source != nil {
		args = append(args, *filter.Source)
		conds = append(conds, fmt.Sprintf("source = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// marshalHistory serializes a chat transcript for JSONB storage. A nil
// transcript becomes an empty array so JSONB concatenation stays valid.
func marshalHistory(history []domain.ChatMessage) ([]byte, error) {
	if history == nil {
		history = []domain.ChatMessage{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat history: %w", err)
	}
	return data, nil
}

// unmarshalHistory deserializes a stored chat transcript.
func unmarshalHistory(data []byte, history *[]domain.ChatMessage) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, history); err != nil {
		return fmt.Errorf("failed to unmarshal chat history: %w", err)
	}
	return nil
}

// nilIfEmpty converts an empty string to a nil pointer for nullable columns.
func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
