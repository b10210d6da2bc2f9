package handler

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/daedong-rise/portal/internal/domain"
	"github.com/daedong-rise/portal/internal/repository"
)

// In-memory repository stubs shared by the handler tests. Handlers are
// exercised through real services wired to these.

type stubLeadRepo struct {
	mu    sync.RWMutex
	leads map[string]*domain.Lead
	byID  map[uuid.UUID]*domain.Lead

	ListError error
}

func newStubLeadRepo() *stubLeadRepo {
	return &stubLeadRepo{
		leads: make(map[string]*domain.Lead),
		byID:  make(map[uuid.UUID]*domain.Lead),
	}
}

func (s *stubLeadRepo) Create(ctx context.Context, lead *domain.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[lead.SessionID] = lead
	s.byID[lead.ID] = lead
	return nil
}

func (s *stubLeadRepo) GetBySessionID(ctx context.Context, sessionID string) (*domain.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if lead, ok := s.leads[sessionID]; ok {
		return lead, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubLeadRepo) Upsert(ctx context.Context, sessionID string, contact *domain.LeadContact, transcriptAppend []domain.ChatMessage, meta *domain.LeadMeta) (*domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[sessionID]
	if !ok {
		lead = domain.NewLead(sessionID, domain.SourceChatbot)
		s.leads[sessionID] = lead
		s.byID[lead.ID] = lead
	}
	lead.ApplyContact(contact)
	lead.AppendTranscript(transcriptAppend...)
	return lead, nil
}

func (s *stubLeadRepo) List(ctx context.Context, filter *domain.LeadListFilter, limit, offset int) ([]*domain.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ListError != nil {
		return nil, s.ListError
	}
	leads := make([]*domain.Lead, 0, len(s.leads))
	for _, lead := range s.leads {
		leads = append(leads, lead)
	}
	return leads, nil
}

func (s *stubLeadRepo) Count(ctx context.Context, filter *domain.LeadListFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.leads), nil
}

func (s *stubLeadRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.LeadStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	lead.Status = status
	return nil
}

type stubQuoteRepo struct {
	mu     sync.RWMutex
	quotes map[uuid.UUID]*domain.QuoteRequest
}

func newStubQuoteRepo() *stubQuoteRepo {
	return &stubQuoteRepo{quotes: make(map[uuid.UUID]*domain.QuoteRequest)}
}

func (s *stubQuoteRepo) Create(ctx context.Context, quote *domain.QuoteRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[quote.ID] = quote
	return nil
}

func (s *stubQuoteRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuoteRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if quote, ok := s.quotes[id]; ok {
		return quote, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubQuoteRepo) List(ctx context.Context, filter *domain.QuoteListFilter, limit, offset int) ([]*domain.QuoteRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quotes := make([]*domain.QuoteRequest, 0, len(s.quotes))
	for _, quote := range s.quotes {
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

func (s *stubQuoteRepo) Count(ctx context.Context, filter *domain.QuoteListFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quotes), nil
}

func (s *stubQuoteRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.QuoteStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quote, ok := s.quotes[id]
	if !ok {
		return repository.ErrNotFound
	}
	quote.Status = status
	return nil
}

type stubProductRepo struct {
	mu       sync.RWMutex
	products map[uuid.UUID]*domain.Product
	bySKU    map[string]*domain.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{
		products: make(map[uuid.UUID]*domain.Product),
		bySKU:    make(map[string]*domain.Product),
	}
}

func (s *stubProductRepo) Create(ctx context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[product.ID] = product
	s.bySKU[product.SKU] = product
	return nil
}

func (s *stubProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if product, ok := s.products[id]; ok {
		return product, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubProductRepo) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if product, ok := s.bySKU[sku]; ok {
		return product, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubProductRepo) List(ctx context.Context, filter *domain.ProductListFilter, limit, offset int) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	products := make([]*domain.Product, 0, len(s.products))
	for _, product := range s.products {
		products = append(products, product)
	}
	return products, nil
}

func (s *stubProductRepo) Count(ctx context.Context, filter *domain.ProductListFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products), nil
}

func (s *stubProductRepo) Update(ctx context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[product.ID]; !ok {
		return repository.ErrNotFound
	}
	s.products[product.ID] = product
	s.bySKU[product.SKU] = product
	return nil
}

func (s *stubProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(s.bySKU, product.SKU)
	delete(s.products, id)
	return nil
}

type stubUserRepo struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]*domain.User
	byEmail map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		users:   make(map[uuid.UUID]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (s *stubUserRepo) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	s.byEmail[user.Email] = user
	return nil
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

type stubSessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (s *stubSessionRepo) Create(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
	return nil
}

func (s *stubSessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if session, ok := s.sessions[token]; ok {
		return session, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubSessionRepo) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *stubSessionRepo) DeleteExpired(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, session := range s.sessions {
		if session.IsExpired() {
			delete(s.sessions, token)
		}
	}
	return nil
}
