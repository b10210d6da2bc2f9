// Package ai provides the AI estimation, extraction, and chat clients backed
// by an OpenAI-compatible chat-completions endpoint.
//
// Every method can fail: missing credentials, transport errors, non-2xx
// responses, and malformed model output are all reported as plain errors so
// callers apply their deterministic fallback uniformly. No method ever
// returns partial data from a malformed payload.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/daedong-rise/portal/internal/circuitbreaker"
	"github.com/daedong-rise/portal/internal/config"
	"github.com/daedong-rise/portal/internal/domain"
	apperrors "github.com/daedong-rise/portal/internal/errors"
	"github.com/daedong-rise/portal/internal/pricing"
)

// ErrNoAPIKey is returned when the client is constructed without credentials.
// Callers treat it exactly like a transport failure.
var ErrNoAPIKey = errors.New("openai api key not configured")

// Sampling and output budgets per call type. Estimation and extraction lean
// deterministic; chat stays conversational.
const (
	estimateTemperature = 0.3
	extractTemperature  = 0.0
	chatTemperature     = 0.7

	estimateMaxTokens = 500
	extractMaxTokens  = 200
	chatMaxTokens     = 500
)

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	apiKey         string
	model          string
	baseURL        string
	companyName    string
	httpClient     *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	logger         *zap.Logger
}

// NewClient creates a model client. A short request timeout keeps fallback
// latency bounded when the endpoint hangs.
func NewClient(cfg *config.OpenAIConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	cbConfig := &circuitbreaker.Config{
		FailureThreshold:    5,
		SuccessThreshold:    3,
		OpenTimeout:         30 * time.Second,
		HalfOpenMaxRequests: 3,
	}

	return &Client{
		apiKey:         cfg.APIKey,
		model:          cfg.Model,
		baseURL:        strings.TrimRight(baseURL, "/"),
		companyName:    cfg.CompanyName,
		httpClient:     &http.Client{Timeout: timeout},
		circuitBreaker: circuitbreaker.New("openai", cbConfig, logger),
		logger:         logger,
	}
}

// chatRequest is the wire format of a chat-completions request.
type chatRequest struct {
	Model       string               `json:"model"`
	Messages    []domain.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens"`
}

// chatResponse is the subset of the chat-completions response we consume.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// apiError is the error envelope returned by the endpoint.
type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// EstimateInput holds the structured request fields embedded into the
// estimation prompt.
type EstimateInput struct {
	ProductType  string
	PipeMaterial string
	PipeDiameter string
	Quantity     int
	Requirements string
	Country      string
}

// EstimateQuote asks the model for a price estimate conforming to the exact
// rule-estimator output shape. The pricing knowledge base is embedded in the
// prompt so the AI and rule paths price from the same data.
func (c *Client) EstimateQuote(ctx context.Context, input EstimateInput) (*pricing.Estimate, error) {
	prompt := buildEstimatePrompt(input)

	raw, err := c.complete(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "You are a B2B pricing specialist. Return only valid JSON."},
		{Role: domain.RoleUser, Content: prompt},
	}, estimateTemperature, estimateMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("estimate completion: %w", err)
	}

	estimate, err := parseEstimate(raw)
	if err != nil {
		return nil, fmt.Errorf("estimate response: %w", err)
	}
	return estimate, nil
}

// ExtractLead asks the model to pull contact information out of one chat
// turn. Fields the model marks null are stripped; an empty contact is a valid
// result.
func (c *Client) ExtractLead(ctx context.Context, userMessage, assistantReply string) (*domain.LeadContact, error) {
	prompt := fmt.Sprintf(`From this conversation, extract any contact information mentioned:
Message: %q
Response: %q

Return ONLY a JSON object with these fields (use null if not found):
{
  "name": string | null,
  "company": string | null,
  "email": string | null,
  "phone": string | null,
  "country": string | null,
  "inquiryType": "b2b" | "quote" | "product" | "support" | "other" | null
}`, userMessage, assistantReply)

	raw, err := c.complete(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "You are a data extraction assistant. Return only valid JSON."},
		{Role: domain.RoleUser, Content: prompt},
	}, extractTemperature, extractMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("extraction completion: %w", err)
	}

	contact, err := parseLeadContact(raw)
	if err != nil {
		return nil, fmt.Errorf("extraction response: %w", err)
	}
	return contact, nil
}

// Chat produces one assistant reply for a conversation. Only the last
// domain.HistoryWindow prior turns are sent.
func (c *Client) Chat(ctx context.Context, history []domain.ChatMessage, userMessage string) (string, error) {
	messages := make([]domain.ChatMessage, 0, domain.HistoryWindow+2)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: c.systemPrompt()})
	messages = append(messages, domain.WindowedHistory(history, domain.HistoryWindow)...)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: userMessage})

	reply, err := c.complete(ctx, messages, chatTemperature, chatMaxTokens)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		return "", errors.New("empty chat reply")
	}
	return reply, nil
}

// IsCircuitOpen returns true if the circuit breaker is open.
func (c *Client) IsCircuitOpen() bool {
	return c.circuitBreaker.IsOpen()
}

// CircuitBreakerStats returns the current circuit breaker statistics.
func (c *Client) CircuitBreakerStats() circuitbreaker.Stats {
	return c.circuitBreaker.Stats()
}

// complete sends one chat-completions request through the circuit breaker and
// returns the first choice's content.
func (c *Client) complete(ctx context.Context, messages []domain.ChatMessage, temperature float64, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	var result string
	err := c.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		var execErr error
		result, execErr = c.doComplete(ctx, messages, temperature, maxTokens)
		return execErr
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

func (c *Client) doComplete(ctx context.Context, messages []domain.ChatMessage, temperature float64, maxTokens int) (string, error) {
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.ExternalServiceError("openai", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp apiError
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			return "", apperrors.ExternalServiceError("openai",
				fmt.Errorf("model API error: %s - %s", errResp.Error.Type, errResp.Error.Message))
		}
		return "", apperrors.ExternalServiceError("openai",
			fmt.Errorf("model API error: status %d", resp.StatusCode))
	}

	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("empty completion response")
	}

	c.logger.Debug("completion received",
		zap.Int("prompt_tokens", completion.Usage.PromptTokens),
		zap.Int("completion_tokens", completion.Usage.CompletionTokens),
		zap.String("finish_reason", completion.Choices[0].FinishReason),
	)

	return completion.Choices[0].Message.Content, nil
}

// buildEstimatePrompt constructs the estimation prompt with the full pricing
// knowledge base and the structured request.
func buildEstimatePrompt(input EstimateInput) string {
	orEmpty := func(s, fallback string) string {
		if s == "" {
			return fallback
		}
		return s
	}

	return fmt.Sprintf(`You are a B2B pricing specialist for an industrial products distributor.

Given the following quote request:
- Product Type: %s
- Pipe Material: %s
- Pipe Diameter: %s
- Quantity: %d units
- Country: %s
- Additional Requirements: %s

Using this pricing knowledge:
%s

Provide a JSON response with:
1. Estimated price range (min and max in USD)
2. Product recommendations (2-3 specific models/products that best fit the requirements)
3. Confidence level (High/Medium/Low)
4. Bulk discount applied (if any)

Consider:
- Quantity-based bulk discounts
- Regional pricing adjustments for %s
- Product suitability based on pipe diameter and material
- Any special requirements mentioned

Return ONLY valid JSON in this exact format:
{
  "priceMin": number,
  "priceMax": number,
  "currency": "USD",
  "recommendations": ["recommendation 1", "recommendation 2", "recommendation 3"],
  "confidence": "High|Medium|Low",
  "notes": "brief explanation of pricing factors"
}`,
		input.ProductType,
		orEmpty(input.PipeMaterial, "N/A"),
		orEmpty(input.PipeDiameter, "N/A"),
		input.Quantity,
		input.Country,
		orEmpty(input.Requirements, "None"),
		pricing.KnowledgeText,
		input.Country,
	)
}

// systemPrompt is the fixed sales-assistant persona for the chat widget.
func (c *Client) systemPrompt() string {
	company := c.companyName
	if company == "" {
		company = "Daedong TL & Daedong Rise"
	}

	return fmt.Sprintf(`You are a professional AI sales assistant for %s, a B2B industrial solutions company.

**Company Overview:**
- Official distributor of 3M industrial products (tapes, adhesives, abrasives, safety equipment)
- Official partner of EXACT Tools (premium pipe cutting systems)
- Specialized in B2B partnerships, bulk orders, and international trade

**Your Role:**
1. Answer questions about products (3M, EXACT)
2. Help customers request quotes for bulk orders
3. Qualify leads for B2B partnerships
4. Provide technical product information
5. Collect contact information naturally during conversation

**Product Information:**

3M Products:
- VHB Structural Tape: Permanent bonding, vibration absorption
- Industrial Tapes: Double-sided, electrical insulation
- Abrasives: Cubitron II, sanding discs
- Safety Equipment: Respirators, safety glasses

EXACT Tools:
- PipeCut 170E: 15-170mm, lightweight, battery model
- PipeCut 280 Pro: 50-280mm, stainless steel capable
- PipeCut 360 Pro: 100-360mm, bestseller, all-purpose
- PipeCut 460 Pro: 200-460mm, heavy-duty, large pipes
- Infinity: Unlimited diameter cutting

**Conversation Guidelines:**
- Be professional yet friendly
- Ask clarifying questions about their needs
- When appropriate, ask for: name, company, email, phone, country
- Identify inquiry type: B2B partnership, bulk quote, product inquiry, technical support
- For pipe cutting: Ask about material (steel/stainless/plastic), diameter, quantity
- Provide estimated price ranges when asked

Respond in the user's language (Korean, English, or Arabic based on their message).`, company)
}

// parseEstimate strictly validates the model's estimate JSON. Any schema
// violation is an error; the caller never sees a partially valid estimate.
func parseEstimate(raw string) (*pricing.Estimate, error) {
	var wire struct {
		PriceMin        *float64 `json:"priceMin"`
		PriceMax        *float64 `json:"priceMax"`
		Currency        string   `json:"currency"`
		Recommendations []string `json:"recommendations"`
		Confidence      string   `json:"confidence"`
		Notes           string   `json:"notes"`
	}

	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &wire); err != nil {
		return nil, fmt.Errorf("not valid JSON: %w", err)
	}
	if wire.PriceMin == nil || wire.PriceMax == nil {
		return nil, errors.New("missing price range")
	}
	if *wire.PriceMin < 0 || *wire.PriceMax < 0 {
		return nil, errors.New("negative price")
	}
	if *wire.PriceMin > *wire.PriceMax {
		return nil, errors.New("price min exceeds max")
	}

	confidence := pricing.Confidence(wire.Confidence)
	switch confidence {
	case pricing.ConfidenceHigh, pricing.ConfidenceMedium, pricing.ConfidenceLow:
	default:
		return nil, fmt.Errorf("unknown confidence %q", wire.Confidence)
	}

	currency := wire.Currency
	if currency == "" {
		currency = "USD"
	}
	recommendations := wire.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}

	return &pricing.Estimate{
		PriceMin:        int(*wire.PriceMin + 0.5),
		PriceMax:        int(*wire.PriceMax + 0.5),
		Currency:        currency,
		Recommendations: recommendations,
		Confidence:      confidence,
		Notes:           wire.Notes,
	}, nil
}

// parseLeadContact strictly parses the extraction JSON and strips null
// fields. Unknown inquiry types are dropped rather than stored.
func parseLeadContact(raw string) (*domain.LeadContact, error) {
	var contact domain.LeadContact
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &contact); err != nil {
		return nil, fmt.Errorf("not valid JSON: %w", err)
	}

	if contact.InquiryType != nil {
		switch *contact.InquiryType {
		case domain.InquiryB2B, domain.InquiryQuote, domain.InquiryProduct, domain.InquirySupport, domain.InquiryOther:
		default:
			contact.InquiryType = nil
		}
	}
	dropEmpty(&contact.Name)
	dropEmpty(&contact.Company)
	dropEmpty(&contact.Email)
	dropEmpty(&contact.Phone)
	dropEmpty(&contact.Country)

	return &contact, nil
}

func dropEmpty(field **string) {
	if *field != nil && strings.TrimSpace(**field) == "" {
		*field = nil
	}
}

// stripCodeFence tolerates models that wrap JSON in a markdown fence despite
// instructions. Anything else malformed still fails parsing.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
