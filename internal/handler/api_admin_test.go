package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daedong-rise/portal/internal/domain"
	"github.com/daedong-rise/portal/internal/service"
)

func newTestAdminHandler() (*AdminAPIHandler, *stubLeadRepo, *stubQuoteRepo) {
	leadRepo := newStubLeadRepo()
	quoteRepo := newStubQuoteRepo()
	adminService := service.NewAdminService(leadRepo, quoteRepo, zap.NewNop())
	return NewAdminAPIHandler(adminService, nil, zap.NewNop()), leadRepo, quoteRepo
}

func adminRouter(h *AdminAPIHandler) chi.Router {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestAdminAPIHandler_ListLeads(t *testing.T) {
	handler, leadRepo, _ := newTestAdminHandler()
	r := adminRouter(handler)

	for _, session := range []string{"s1", "s2"} {
		if err := leadRepo.Create(context.Background(), domain.NewLead(session, domain.SourceChatbot)); err != nil {
			t.Fatalf("seed lead: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/leads?status=NEW", http.NoBody)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp PagedResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("expected total 2, got %d", resp.Total)
	}
}

func TestAdminAPIHandler_UpdateLeadStatus(t *testing.T) {
	handler, leadRepo, _ := newTestAdminHandler()
	r := adminRouter(handler)

	lead := domain.NewLead("s1", domain.SourceChatbot)
	if err := leadRepo.Create(context.Background(), lead); err != nil {
		t.Fatalf("seed lead: %v", err)
	}

	body := `{"status": "CONTACTED"}`
	req := httptest.NewRequest(http.MethodPatch, "/leads/"+lead.ID.String()+"/status", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	if lead.Status != domain.LeadStatusContacted {
		t.Errorf("lead status = %q, expected CONTACTED", lead.Status)
	}
}

func TestAdminAPIHandler_UpdateLeadStatus_UnknownStatus(t *testing.T) {
	handler, leadRepo, _ := newTestAdminHandler()
	r := adminRouter(handler)

	lead := domain.NewLead("s1", domain.SourceChatbot)
	if err := leadRepo.Create(context.Background(), lead); err != nil {
		t.Fatalf("seed lead: %v", err)
	}

	body := `{"status": "ARCHIVED"}`
	req := httptest.NewRequest(http.MethodPatch, "/leads/"+lead.ID.String()+"/status", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestAdminAPIHandler_UpdateLeadStatus_NotFound(t *testing.T) {
	handler, _, _ := newTestAdminHandler()
	r := adminRouter(handler)

	body := `{"status": "CONTACTED"}`
	req := httptest.NewRequest(http.MethodPatch, "/leads/"+uuid.New().String()+"/status", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestAdminAPIHandler_GetQuote(t *testing.T) {
	handler, _, quoteRepo := newTestAdminHandler()
	r := adminRouter(handler)

	quote := domain.NewQuoteRequest("exact-pipecut", 5)
	if err := quoteRepo.Create(context.Background(), quote); err != nil {
		t.Fatalf("seed quote: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/quotes/"+quote.ID.String(), http.NoBody)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp domain.QuoteRequest
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != quote.ID {
		t.Errorf("expected quote %s, got %s", quote.ID, resp.ID)
	}
}

func TestAdminAPIHandler_UpdateQuoteStatus(t *testing.T) {
	handler, _, quoteRepo := newTestAdminHandler()
	r := adminRouter(handler)

	quote := domain.NewQuoteRequest("exact-pipecut", 5)
	if err := quoteRepo.Create(context.Background(), quote); err != nil {
		t.Fatalf("seed quote: %v", err)
	}

	body := `{"status": "PROCESSING"}`
	req := httptest.NewRequest(http.MethodPatch, "/quotes/"+quote.ID.String()+"/status", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	if quote.Status != domain.QuoteStatusProcessing {
		t.Errorf("quote status = %q, expected PROCESSING", quote.Status)
	}
}

func TestAdminAPIHandler_UpdateQuoteStatus_InvalidTransition(t *testing.T) {
	handler, _, quoteRepo := newTestAdminHandler()
	r := adminRouter(handler)

	// PENDING cannot jump straight to ACCEPTED.
	quote := domain.NewQuoteRequest("exact-pipecut", 5)
	if err := quoteRepo.Create(context.Background(), quote); err != nil {
		t.Fatalf("seed quote: %v", err)
	}

	body := `{"status": "ACCEPTED"}`
	req := httptest.NewRequest(http.MethodPatch, "/quotes/"+quote.ID.String()+"/status", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if quote.Status != domain.QuoteStatusPending {
		t.Errorf("quote status should stay PENDING, got %q", quote.Status)
	}
}

func TestAdminAPIHandler_UpdateQuoteStatus_NotFound(t *testing.T) {
	handler, _, _ := newTestAdminHandler()
	r := adminRouter(handler)

	body := `{"status": "PROCESSING"}`
	req := httptest.NewRequest(http.MethodPatch, "/quotes/"+uuid.New().String()+"/status", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestAdminAPIHandler_ListQuotes(t *testing.T) {
	handler, _, quoteRepo := newTestAdminHandler()
	r := adminRouter(handler)

	for i := 0; i < 3; i++ {
		if err := quoteRepo.Create(context.Background(), domain.NewQuoteRequest("exact-pipecut", i+1)); err != nil {
			t.Fatalf("seed quote: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/quotes", http.NoBody)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp PagedResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 3 {
		t.Errorf("expected total 3, got %d", resp.Total)
	}
}
