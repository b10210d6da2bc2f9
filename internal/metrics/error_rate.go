package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// ErrorCategory labels the failure domains the tracker distinguishes.
type ErrorCategory string

const (
	// ErrorCategoryDatabase counts failed lead and quote writes.
	ErrorCategoryDatabase ErrorCategory = "database"
	// ErrorCategoryHTTP counts 5xx responses.
	ErrorCategoryHTTP ErrorCategory = "http"
	// ErrorCategoryValidation counts 4xx responses from malformed input.
	ErrorCategoryValidation ErrorCategory = "validation"
	// ErrorCategoryExternal counts model API failures that forced the
	// deterministic fallback path.
	ErrorCategoryExternal ErrorCategory = "external"
	// ErrorCategoryAuth counts 401 and 403 responses.
	ErrorCategoryAuth ErrorCategory = "auth"
	// ErrorCategoryRateLimit counts 429 responses.
	ErrorCategoryRateLimit ErrorCategory = "rate_limit"
)

// ErrorRateConfig configures the error rate tracker.
type ErrorRateConfig struct {
	// WindowDuration is the time window for rate calculation (default: 1 minute)
	WindowDuration time.Duration

	// BucketCount is the number of buckets within the window (default: 60)
	// More buckets = finer granularity but more memory
	BucketCount int
}

// DefaultErrorRateConfig returns sensible defaults.
func DefaultErrorRateConfig() ErrorRateConfig {
	return ErrorRateConfig{
		WindowDuration: time.Minute,
		BucketCount:    60,
	}
}

// ErrorRateTracker keeps windowed error counts per category. The Prometheus
// counters only ever grow; this gives the health endpoint a recent-window
// view so a burst of failures shows up as degradation.
type ErrorRateTracker struct {
	config   ErrorRateConfig
	counters map[ErrorCategory]*slidingWindow
	mu       sync.RWMutex

	// Aggregate counters for total errors
	totalErrors   atomic.Int64
	totalRequests atomic.Int64
}

// NewErrorRateTracker creates a new error rate tracker.
func NewErrorRateTracker(config ErrorRateConfig) *ErrorRateTracker {
	if config.WindowDuration == 0 {
		config.WindowDuration = time.Minute
	}
	if config.BucketCount == 0 {
		config.BucketCount = 60
	}

	return &ErrorRateTracker{
		config:   config,
		counters: make(map[ErrorCategory]*slidingWindow),
	}
}

// RecordError records an error in the specified category.
func (t *ErrorRateTracker) RecordError(category ErrorCategory) {
	t.totalErrors.Add(1)
	t.getOrCreateWindow(category).increment()
}

// RecordRequest records a request (for calculating error percentage).
func (t *ErrorRateTracker) RecordRequest() {
	t.totalRequests.Add(1)
}

// Rate returns the current error rate (errors per second) for a category.
func (t *ErrorRateTracker) Rate(category ErrorCategory) float64 {
	t.mu.RLock()
	window, ok := t.counters[category]
	t.mu.RUnlock()

	if !ok {
		return 0
	}

	count := window.count()
	return float64(count) / t.config.WindowDuration.Seconds()
}

// Count returns the error count in the current window for a category.
func (t *ErrorRateTracker) Count(category ErrorCategory) int64 {
	t.mu.RLock()
	window, ok := t.counters[category]
	t.mu.RUnlock()

	if !ok {
		return 0
	}

	return window.count()
}

// TotalRate returns the aggregate error rate across all categories.
func (t *ErrorRateTracker) TotalRate() float64 {
	var total int64
	t.mu.RLock()
	for _, window := range t.counters {
		total += window.count()
	}
	t.mu.RUnlock()

	return float64(total) / t.config.WindowDuration.Seconds()
}

// ErrorPercentage returns the percentage of requests that resulted in errors.
// Returns 0 if no requests have been recorded.
func (t *ErrorRateTracker) ErrorPercentage() float64 {
	requests := t.totalRequests.Load()
	if requests == 0 {
		return 0
	}
	errors := t.totalErrors.Load()
	return (float64(errors) / float64(requests)) * 100
}

// Snapshot returns a point-in-time snapshot of all error rates.
func (t *ErrorRateTracker) Snapshot() map[ErrorCategory]ErrorRateSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[ErrorCategory]ErrorRateSnapshot, len(t.counters))
	for category, window := range t.counters {
		count := window.count()
		result[category] = ErrorRateSnapshot{
			Category: category,
			Count:    count,
			Rate:     float64(count) / t.config.WindowDuration.Seconds(),
		}
	}

	return result
}

// ErrorRateSnapshot represents a point-in-time error rate for a category.
type ErrorRateSnapshot struct {
	Category ErrorCategory
	Count    int64
	Rate     float64
}

// getOrCreateWindow gets or creates a sliding window for a category.
func (t *ErrorRateTracker) getOrCreateWindow(category ErrorCategory) *slidingWindow {
	t.mu.RLock()
	window, ok := t.counters[category]
	t.mu.RUnlock()

	if ok {
		return window
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Double-check after acquiring write lock
	if window, ok = t.counters[category]; ok {
		return window
	}

	window = newSlidingWindow(t.config.WindowDuration, t.config.BucketCount)
	t.counters[category] = window
	return window
}

// slidingWindow implements a time-based sliding window counter.
type slidingWindow struct {
	mu           sync.Mutex
	buckets      []int64
	bucketDur    time.Duration
	windowDur    time.Duration
	currentIndex int
	lastUpdate   time.Time
}

func newSlidingWindow(windowDur time.Duration, bucketCount int) *slidingWindow {
	return &slidingWindow{
		buckets:    make([]int64, bucketCount),
		bucketDur:  windowDur / time.Duration(bucketCount),
		windowDur:  windowDur,
		lastUpdate: time.Now(),
	}
}

// increment adds one to the current bucket.
func (w *slidingWindow) increment() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.rotate()
	w.buckets[w.currentIndex]++
}

// count returns the total count across all buckets.
func (w *slidingWindow) count() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.rotate()

	var total int64
	for _, count := range w.buckets {
		total += count
	}
	return total
}

// rotate advances the window if needed, clearing old buckets.
func (w *slidingWindow) rotate() {
	now := time.Now()
	elapsed := now.Sub(w.lastUpdate)

	bucketsPassed := int(elapsed / w.bucketDur)
	if bucketsPassed == 0 {
		return
	}

	// Cap at window size to avoid unnecessary iterations
	if bucketsPassed > len(w.buckets) {
		bucketsPassed = len(w.buckets)
	}

	for i := 0; i < bucketsPassed; i++ {
		w.currentIndex = (w.currentIndex + 1) % len(w.buckets)
		w.buckets[w.currentIndex] = 0
	}

	w.lastUpdate = now
}
