// Package ratelimit provides rate limiting functionality for cost control.
package ratelimit

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BudgetLimiter caps model-endpoint calls to control API spend. A rejected
// acquisition is not an outage: callers degrade to their deterministic
// fallback, so the user still gets an answer.
type BudgetLimiter struct {
	mu sync.RWMutex

	maxPerMinute  int
	maxPerHour    int
	maxPerDay     int
	maxConcurrent int

	minuteBucket  *tokenBucket
	hourBucket    *tokenBucket
	dayBucket     *tokenBucket
	currentActive int

	totalRequests   int64
	totalRejected   int64
	lastRejectedAt  time.Time
	rejectionReason string

	logger *zap.Logger
}

// BudgetConfig holds configuration for the budget limiter.
type BudgetConfig struct {
	MaxPerMinute  int
	MaxPerHour    int
	MaxPerDay     int
	MaxConcurrent int
}

// DefaultBudgetConfig returns sensible defaults for cost control.
func DefaultBudgetConfig() *BudgetConfig {
	return &BudgetConfig{
		MaxPerMinute:  20,
		MaxPerHour:    200,
		MaxPerDay:     1000,
		MaxConcurrent: 8,
	}
}

// NewBudgetLimiter creates a new model call budget limiter.
func NewBudgetLimiter(cfg *BudgetConfig, logger *zap.Logger) *BudgetLimiter {
	if cfg == nil {
		cfg = DefaultBudgetConfig()
	}

	now := time.Now()
	return &BudgetLimiter{
		maxPerMinute:  cfg.MaxPerMinute,
		maxPerHour:    cfg.MaxPerHour,
		maxPerDay:     cfg.MaxPerDay,
		maxConcurrent: cfg.MaxConcurrent,
		minuteBucket:  newTokenBucket(cfg.MaxPerMinute, time.Minute, now),
		hourBucket:    newTokenBucket(cfg.MaxPerHour, time.Hour, now),
		dayBucket:     newTokenBucket(cfg.MaxPerDay, 24*time.Hour, now),
		logger:        logger,
	}
}

// Errors for budget limiting.
var (
	ErrBudgetExceeded          = errors.New("model call budget exceeded")
	ErrMinuteBudgetExceeded    = errors.New("minute model call budget exceeded")
	ErrHourBudgetExceeded      = errors.New("hour model call budget exceeded")
	ErrDayBudgetExceeded       = errors.New("day model call budget exceeded")
	ErrConcurrentLimitExceeded = errors.New("concurrent model call limit exceeded")
)

// Acquire attempts to reserve a model call. Returns nil on success. Callers
// must pair a successful Acquire with Release.
func (bl *BudgetLimiter) Acquire() error {
	bl.mu.Lock()
	defer bl.mu.Unlock()

	bl.totalRequests++
	now := time.Now()

	if bl.currentActive >= bl.maxConcurrent {
		bl.reject("concurrent limit", now)
		return ErrConcurrentLimitExceeded
	}

	if !bl.minuteBucket.tryAcquire(now) {
		bl.reject("minute budget", now)
		return ErrMinuteBudgetExceeded
	}

	if !bl.hourBucket.tryAcquire(now) {
		bl.minuteBucket.release()
		bl.reject("hour budget", now)
		return ErrHourBudgetExceeded
	}

	if !bl.dayBucket.tryAcquire(now) {
		bl.minuteBucket.release()
		bl.hourBucket.release()
		bl.reject("day budget", now)
		return ErrDayBudgetExceeded
	}

	bl.currentActive++

	bl.logger.Debug("model call budget acquired",
		zap.Int("active", bl.currentActive),
		zap.Int("minute_remaining", bl.minuteBucket.remaining()),
		zap.Int("hour_remaining", bl.hourBucket.remaining()),
		zap.Int("day_remaining", bl.dayBucket.remaining()),
	)

	return nil
}

// Release returns a concurrency slot after a model call completes.
func (bl *BudgetLimiter) Release() {
	bl.mu.Lock()
	defer bl.mu.Unlock()

	if bl.currentActive > 0 {
		bl.currentActive--
	}
}

// reject records a rejection.
func (bl *BudgetLimiter) reject(reason string, t time.Time) {
	bl.totalRejected++
	bl.lastRejectedAt = t
	bl.rejectionReason = reason

	bl.logger.Warn("model call budget exceeded",
		zap.String("reason", reason),
		zap.Int64("total_rejected", bl.totalRejected),
	)
}

// Stats returns current budget limiter statistics.
func (bl *BudgetLimiter) Stats() BudgetStats {
	bl.mu.RLock()
	defer bl.mu.RUnlock()

	now := time.Now()
	return BudgetStats{
		CurrentActive:       bl.currentActive,
		MaxConcurrent:       bl.maxConcurrent,
		MinuteRemaining:     bl.minuteBucket.remaining(),
		MinuteMax:           bl.maxPerMinute,
		HourRemaining:       bl.hourBucket.remaining(),
		HourMax:             bl.maxPerHour,
		DayRemaining:        bl.dayBucket.remaining(),
		DayMax:              bl.maxPerDay,
		TotalRequests:       bl.totalRequests,
		TotalRejected:       bl.totalRejected,
		LastRejectedAt:      bl.lastRejectedAt,
		LastRejectionReason: bl.rejectionReason,
		MinuteResetIn:       bl.minuteBucket.resetIn(now),
		HourResetIn:         bl.hourBucket.resetIn(now),
		DayResetIn:          bl.dayBucket.resetIn(now),
	}
}

// BudgetStats holds statistics about the budget limiter.
type BudgetStats struct {
	CurrentActive       int           `json:"current_active"`
	MaxConcurrent       int           `json:"max_concurrent"`
	MinuteRemaining     int           `json:"minute_remaining"`
	MinuteMax           int           `json:"minute_max"`
	HourRemaining       int           `json:"hour_remaining"`
	HourMax             int           `json:"hour_max"`
	DayRemaining        int           `json:"day_remaining"`
	DayMax              int           `json:"day_max"`
	TotalRequests       int64         `json:"total_requests"`
	TotalRejected       int64         `json:"total_rejected"`
	LastRejectedAt      time.Time     `json:"last_rejected_at,omitempty"`
	LastRejectionReason string        `json:"last_rejection_reason,omitempty"`
	MinuteResetIn       time.Duration `json:"minute_reset_in"`
	HourResetIn         time.Duration `json:"hour_reset_in"`
	DayResetIn          time.Duration `json:"day_reset_in"`
}

// tokenBucket is a simple fixed-window token bucket.
type tokenBucket struct {
	max       int
	period    time.Duration
	tokens    int
	lastReset time.Time
}

func newTokenBucket(maxTokens int, period time.Duration, now time.Time) *tokenBucket {
	return &tokenBucket{
		max:       maxTokens,
		period:    period,
		tokens:    maxTokens,
		lastReset: now,
	}
}

func (b *tokenBucket) tryAcquire(now time.Time) bool {
	b.refill(now)
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

func (b *tokenBucket) release() {
	if b.tokens < b.max {
		b.tokens++
	}
}

func (b *tokenBucket) remaining() int {
	return b.tokens
}

func (b *tokenBucket) resetIn(now time.Time) time.Duration {
	elapsed := now.Sub(b.lastReset)
	remaining := b.period - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (b *tokenBucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastReset)
	if elapsed >= b.period {
		b.tokens = b.max
		b.lastReset = now
	}
}
