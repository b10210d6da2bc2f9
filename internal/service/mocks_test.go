package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/daedong-rise/portal/internal/ai"
	"github.com/daedong-rise/portal/internal/domain"
	"github.com/daedong-rise/portal/internal/pricing"
	"github.com/daedong-rise/portal/internal/repository"
)

// MockLeadRepository is a mock implementation of domain.LeadRepository for testing.
type MockLeadRepository struct {
	mu    sync.RWMutex
	leads map[string]*domain.Lead
	byID  map[uuid.UUID]*domain.Lead

	// For tracking method calls
	CreateCalls int
	UpsertCalls int
	ListCalls   int
	CountCalls  int

	// For injecting errors
	CreateError error
	UpsertError error
	ListError   error
	CountError  error
}

func NewMockLeadRepository() *MockLeadRepository {
	return &MockLeadRepository{
		leads: make(map[string]*domain.Lead),
		byID:  make(map[uuid.UUID]*domain.Lead),
	}
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateError != nil {
		return m.CreateError
	}
	m.leads[lead.SessionID] = lead
	m.byID[lead.ID] = lead
	return nil
}

func (m *MockLeadRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if lead, ok := m.leads[sessionID]; ok {
		return lead, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockLeadRepository) Upsert(ctx context.Context, sessionID string, contact *domain.LeadContact, transcriptAppend []domain.ChatMessage, meta *domain.LeadMeta) (*domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls++
	if m.UpsertError != nil {
		return nil, m.UpsertError
	}
	lead, ok := m.leads[sessionID]
	if !ok {
		lead = domain.NewLead(sessionID, domain.SourceChatbot)
		m.leads[sessionID] = lead
		m.byID[lead.ID] = lead
	}
	lead.ApplyContact(contact)
	lead.AppendTranscript(transcriptAppend...)
	return lead, nil
}

func (m *MockLeadRepository) List(ctx context.Context, filter *domain.LeadListFilter, limit, offset int) ([]*domain.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.ListCalls++
	if m.ListError != nil {
		return nil, m.ListError
	}
	leads := make([]*domain.Lead, 0, len(m.leads))
	for _, lead := range m.leads {
		leads = append(leads, lead)
	}
	return leads, nil
}

func (m *MockLeadRepository) Count(ctx context.Context, filter *domain.LeadListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.CountCalls++
	if m.CountError != nil {
		return 0, m.CountError
	}
	return len(m.leads), nil
}

func (m *MockLeadRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.LeadStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	lead.Status = status
	return nil
}

// MockQuoteRepository is a mock implementation of domain.QuoteRepository for testing.
type MockQuoteRepository struct {
	mu     sync.RWMutex
	quotes map[uuid.UUID]*domain.QuoteRequest

	CreateCalls int
	ListCalls   int

	CreateError error
	ListError   error
}

func NewMockQuoteRepository() *MockQuoteRepository {
	return &MockQuoteRepository{
		quotes: make(map[uuid.UUID]*domain.QuoteRequest),
	}
}

func (m *MockQuoteRepository) Create(ctx context.Context, quote *domain.QuoteRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateError != nil {
		return m.CreateError
	}
	m.quotes[quote.ID] = quote
	return nil
}

func (m *MockQuoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuoteRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if quote, ok := m.quotes[id]; ok {
		return quote, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockQuoteRepository) List(ctx context.Context, filter *domain.QuoteListFilter, limit, offset int) ([]*domain.QuoteRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.ListCalls++
	if m.ListError != nil {
		return nil, m.ListError
	}
	quotes := make([]*domain.QuoteRequest, 0, len(m.quotes))
	for _, quote := range m.quotes {
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

func (m *MockQuoteRepository) Count(ctx context.Context, filter *domain.QuoteListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.quotes), nil
}

func (m *MockQuoteRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.QuoteStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	quote, ok := m.quotes[id]
	if !ok {
		return repository.ErrNotFound
	}
	quote.Status = status
	return nil
}

// MockProductRepository is a mock implementation of domain.ProductRepository for testing.
type MockProductRepository struct {
	mu       sync.RWMutex
	products map[uuid.UUID]*domain.Product
	bySKU    map[string]*domain.Product

	CreateCalls int
	UpdateCalls int
	DeleteCalls int

	CreateError error
	UpdateError error
	DeleteError error
}

func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[uuid.UUID]*domain.Product),
		bySKU:    make(map[string]*domain.Product),
	}
}

func (m *MockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateError != nil {
		return m.CreateError
	}
	m.products[product.ID] = product
	m.bySKU[product.SKU] = product
	return nil
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if product, ok := m.products[id]; ok {
		return product, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockProductRepository) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if product, ok := m.bySKU[sku]; ok {
		return product, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockProductRepository) List(ctx context.Context, filter *domain.ProductListFilter, limit, offset int) ([]*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	products := make([]*domain.Product, 0, len(m.products))
	for _, product := range m.products {
		products = append(products, product)
	}
	return products, nil
}

func (m *MockProductRepository) Count(ctx context.Context, filter *domain.ProductListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.products), nil
}

func (m *MockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrNotFound
	}
	m.products[product.ID] = product
	m.bySKU[product.SKU] = product
	return nil
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if m.DeleteError != nil {
		return m.DeleteError
	}
	product, ok := m.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(m.bySKU, product.SKU)
	delete(m.products, id)
	return nil
}

// MockUserRepository is a mock implementation of domain.UserRepository for testing.
type MockUserRepository struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]*domain.User
	byEmail map[string]*domain.User

	CreateCalls int

	CreateError error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:   make(map[uuid.UUID]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateError != nil {
		return m.CreateError
	}
	m.users[user.ID] = user
	m.byEmail[user.Email] = user
	return nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if user, ok := m.byEmail[email]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

// MockSessionRepository is a mock implementation of domain.SessionRepository for testing.
type MockSessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session

	CreateCalls        int
	DeleteCalls        int
	DeleteExpiredCalls int

	CreateError error
	DeleteError error
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{
		sessions: make(map[string]*domain.Session),
	}
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateError != nil {
		return m.CreateError
	}
	m.sessions[session.Token] = session
	return nil
}

func (m *MockSessionRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if session, ok := m.sessions[token]; ok {
		return session, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockSessionRepository) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if m.DeleteError != nil {
		return m.DeleteError
	}
	delete(m.sessions, token)
	return nil
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteExpiredCalls++
	for token, session := range m.sessions {
		if session.IsExpired() {
			delete(m.sessions, token)
		}
	}
	return nil
}

// MockEstimator is a mock implementation of ModelEstimator for testing.
type MockEstimator struct {
	mu        sync.Mutex
	Estimate  *pricing.Estimate
	Err       error
	Calls     int
	LastInput ai.EstimateInput
}

func (m *MockEstimator) EstimateQuote(ctx context.Context, input ai.EstimateInput) (*pricing.Estimate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.LastInput = input
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Estimate, nil
}

// MockChatter is a mock implementation of ModelChatter for testing.
type MockChatter struct {
	mu    sync.Mutex
	Reply string
	Err   error
	Calls int
}

func (m *MockChatter) Chat(ctx context.Context, history []domain.ChatMessage, userMessage string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	return m.Reply, nil
}
