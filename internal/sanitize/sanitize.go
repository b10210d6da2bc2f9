// Package sanitize masks contact details and credentials before they reach
// logs. Lead and chat payloads carry emails and phone numbers; nothing in the
// pipeline should emit them verbatim.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	phonePattern = regexp.MustCompile(`\+?[1-9]\d{6,14}`)

	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	// API key patterns (various formats)
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|secret|token|password|auth)[=:\s"']*([\w-]{16,})`)

	bearerPattern = regexp.MustCompile(`(?i)bearer\s+[\w.-]+`)
)

// Sanitizer applies a configured set of masking patterns to free text.
type Sanitizer struct {
	patterns []patternConfig
}

type patternConfig struct {
	pattern     *regexp.Regexp
	replacement func(string) string
	enabled     bool
}

// Config selects which masking patterns a Sanitizer applies.
type Config struct {
	MaskPhones       bool
	MaskEmails       bool
	MaskAPIKeys      bool
	MaskBearerTokens bool
}

// DefaultConfig returns a configuration with all masking enabled.
func DefaultConfig() Config {
	return Config{
		MaskPhones:       true,
		MaskEmails:       true,
		MaskAPIKeys:      true,
		MaskBearerTokens: true,
	}
}

// New creates a new Sanitizer with the given configuration.
func New(cfg Config) *Sanitizer {
	return &Sanitizer{
		patterns: []patternConfig{
			{phonePattern, maskPhone, cfg.MaskPhones},
			{emailPattern, maskEmail, cfg.MaskEmails},
			{apiKeyPattern, maskAPIKey, cfg.MaskAPIKeys},
			{bearerPattern, maskBearer, cfg.MaskBearerTokens},
		},
	}
}

// NewDefault creates a sanitizer with default configuration.
func NewDefault() *Sanitizer {
	return New(DefaultConfig())
}

// String masks all sensitive data found in a string.
func (s *Sanitizer) String(input string) string {
	result := input
	for _, p := range s.patterns {
		if p.enabled {
			result = p.pattern.ReplaceAllStringFunc(result, p.replacement)
		}
	}
	return result
}

// Map sanitizes string values in a map. Keys that name credentials are
// redacted outright; other string values are pattern-masked. Nested maps
// are handled recursively.
func (s *Sanitizer) Map(input map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(input))
	for k, v := range input {
		switch val := v.(type) {
		case string:
			if isSensitiveKey(k) {
				result[k] = "[REDACTED]"
			} else {
				result[k] = s.String(val)
			}
		case map[string]interface{}:
			result[k] = s.Map(val)
		default:
			result[k] = v
		}
	}
	return result
}

// Error sanitizes an error message.
func (s *Sanitizer) Error(err error) string {
	if err == nil {
		return ""
	}
	return s.String(err.Error())
}

// Masking functions

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	// Keep first 3 and last 2 characters
	return phone[:3] + strings.Repeat("*", len(phone)-5) + phone[len(phone)-2:]
}

func maskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return "[email]"
	}
	if at <= 2 {
		return email[:1] + "***" + email[at:]
	}
	return email[:2] + "***" + email[at:]
}

func maskAPIKey(match string) string {
	parts := apiKeyPattern.FindStringSubmatch(match)
	if len(parts) >= 2 {
		// Preserve the key name but mask the value
		prefix := strings.TrimSuffix(match, parts[len(parts)-1])
		return prefix + "[REDACTED]"
	}
	return "[REDACTED-KEY]"
}

func maskBearer(string) string {
	return "Bearer [REDACTED]"
}

// isSensitiveKey checks if a map key suggests credential material.
func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	sensitiveKeys := []string{
		"password", "passwd", "pwd",
		"secret", "token", "auth",
		"api_key", "apikey", "api-key",
		"private", "credential",
		"session_id", "sessionid",
	}
	for _, sk := range sensitiveKeys {
		if strings.Contains(lower, sk) {
			return true
		}
	}
	return false
}

// Quick masking functions for single known-type values

// Phone masks a phone number.
func Phone(phone string) string {
	return maskPhone(phone)
}

// Email masks an email address.
func Email(email string) string {
	return maskEmail(email)
}

// APIKey masks an API key.
func APIKey(key string) string {
	if len(key) <= 8 {
		return "[REDACTED]"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// PartialMask masks the middle portion of a string, keeping first and last N chars.
func PartialMask(s string, keepStart, keepEnd int) string {
	if len(s) <= keepStart+keepEnd {
		return strings.Repeat("*", len(s))
	}
	return s[:keepStart] + strings.Repeat("*", len(s)-keepStart-keepEnd) + s[len(s)-keepEnd:]
}

// ID partially masks an identifier, showing first 4 and last 4 characters.
func ID(id string) string {
	return PartialMask(id, 4, 4)
}
