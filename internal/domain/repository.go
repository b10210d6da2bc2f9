package domain

import (
	"context"

	"github.com/google/uuid"
)

// LeadRepository defines the interface for lead persistence. Upsert is the
// only write path used by the chat pipeline: it must be atomic so concurrent
// turns for the same session cannot lose an update.
type LeadRepository interface {
	// Create inserts a new lead.
	Create(ctx context.Context, lead *Lead) error

	// GetBySessionID retrieves a lead by its session identifier.
	GetBySessionID(ctx context.Context, sessionID string) (*Lead, error)

	// Upsert inserts the lead or, when a lead with the same session id
	// already exists, overwrites its fields with the non-nil values and
	// appends transcriptAppend to the stored chat history. The whole
	// operation executes as a single statement.
	Upsert(ctx context.Context, sessionID string, contact *LeadContact, transcriptAppend []ChatMessage, meta *LeadMeta) (*Lead, error)

	// List retrieves leads with optional filters and pagination, newest first.
	List(ctx context.Context, filter *LeadListFilter, limit, offset int) ([]*Lead, error)

	// Count returns the number of leads matching the filter.
	Count(ctx context.Context, filter *LeadListFilter) (int, error)

	// UpdateStatus changes the back-office status of a lead.
	UpdateStatus(ctx context.Context, id uuid.UUID, status LeadStatus) error
}

// LeadMeta carries request metadata recorded when a lead is first created.
type LeadMeta struct {
	IPAddress string
	UserAgent string
	Locale    string
}

// QuoteRepository defines the interface for quote request persistence.
// Creation is append-only; the core never deletes quote requests.
type QuoteRepository interface {
	// Create inserts a new quote request.
	Create(ctx context.Context, quote *QuoteRequest) error

	// GetByID retrieves a quote request by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*QuoteRequest, error)

	// List retrieves quote requests with optional filters, newest first.
	List(ctx context.Context, filter *QuoteListFilter, limit, offset int) ([]*QuoteRequest, error)

	// Count returns the number of quote requests matching the filter.
	Count(ctx context.Context, filter *QuoteListFilter) (int, error)

	// UpdateStatus changes the back-office status of a quote request.
	UpdateStatus(ctx context.Context, id uuid.UUID, status QuoteStatus) error
}

// ProductRepository defines the interface for catalog persistence.
type ProductRepository interface {
	// Create inserts a new product.
	Create(ctx context.Context, product *Product) error

	// GetByID retrieves a product by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// GetBySKU retrieves a product by SKU.
	GetBySKU(ctx context.Context, sku string) (*Product, error)

	// List retrieves products with optional filters and pagination.
	List(ctx context.Context, filter *ProductListFilter, limit, offset int) ([]*Product, error)

	// Count returns the number of products matching the filter.
	Count(ctx context.Context, filter *ProductListFilter) (int, error)

	// Update updates an existing product.
	Update(ctx context.Context, product *Product) error

	// Delete removes a product from the catalog.
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepository defines the interface for admin user persistence.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, user *User) error

	// GetByEmail retrieves a user by email address.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// SessionRepository defines the interface for admin session persistence.
type SessionRepository interface {
	// Create inserts a new session.
	Create(ctx context.Context, session *Session) error

	// GetByToken retrieves a session by its token.
	GetByToken(ctx context.Context, token string) (*Session, error)

	// Delete removes a session.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes all expired sessions.
	DeleteExpired(ctx context.Context) error
}
