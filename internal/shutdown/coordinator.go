// Package shutdown coordinates graceful shutdown of the portal's services.
package shutdown

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Service is anything that can be shut down gracefully.
type Service interface {
	// Name returns the service name for logging.
	Name() string
	// Shutdown performs graceful shutdown. It should return when shutdown is complete.
	Shutdown(ctx context.Context) error
}

// ServiceFunc wraps a function to implement the Service interface.
type ServiceFunc struct {
	ServiceName string
	ShutdownFn  func(ctx context.Context) error
}

func (s ServiceFunc) Name() string                       { return s.ServiceName }
func (s ServiceFunc) Shutdown(ctx context.Context) error { return s.ShutdownFn(ctx) }

// Phase represents a shutdown phase. Services in the same phase are shut
// down concurrently; phases run in order.
type Phase int

const (
	// PhaseDrain lets in-flight quote and chat requests complete.
	PhaseDrain Phase = iota
	// PhaseCleanup closes connections and stops background loops.
	PhaseCleanup
)

func (p Phase) String() string {
	switch p {
	case PhaseDrain:
		return "drain"
	case PhaseCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// Coordinator manages graceful shutdown of multiple services.
type Coordinator struct {
	mu       sync.Mutex
	services map[Phase][]Service
	timeout  time.Duration
	logger   *zap.Logger

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}
}

// Config holds configuration for the shutdown coordinator.
type Config struct {
	// Timeout is the total time allowed for shutdown.
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}

// NewCoordinator creates a new shutdown coordinator.
func NewCoordinator(cfg *Config, logger *zap.Logger) *Coordinator {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	return &Coordinator{
		services:   make(map[Phase][]Service),
		timeout:    cfg.Timeout,
		logger:     logger,
		shutdownCh: make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Register adds a service to be shut down in the specified phase.
func (c *Coordinator) Register(phase Phase, svc Service) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.services[phase] = append(c.services[phase], svc)
	c.logger.Debug("registered service for shutdown",
		zap.String("service", svc.Name()),
		zap.String("phase", phase.String()),
	)
}

// RegisterFunc is a convenience method to register a shutdown function.
func (c *Coordinator) RegisterFunc(phase Phase, name string, fn func(ctx context.Context) error) {
	c.Register(phase, ServiceFunc{ServiceName: name, ShutdownFn: fn})
}

// Shutdown initiates graceful shutdown of all registered services.
// It runs phases sequentially, but services within each phase run concurrently.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.shutdownOnce.Do(func() {
		close(c.shutdownCh)
		go c.runShutdown()
	})

	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ShutdownCh returns a channel that is closed when shutdown is initiated.
// Background loops such as session cleanup select on it to stop.
func (c *Coordinator) ShutdownCh() <-chan struct{} {
	return c.shutdownCh
}

func (c *Coordinator) runShutdown() {
	defer close(c.done)

	// A fresh context so shutdown gets its full timeout even when the
	// caller's context is already cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	c.logger.Info("starting graceful shutdown",
		zap.Duration("timeout", c.timeout),
	)

	phases := []Phase{PhaseDrain, PhaseCleanup}
	var errors []error

	for _, phase := range phases {
		c.mu.Lock()
		services := c.services[phase]
		c.mu.Unlock()

		if len(services) == 0 {
			continue
		}

		c.logger.Info("executing shutdown phase",
			zap.String("phase", phase.String()),
			zap.Int("services", len(services)),
		)

		phaseErrors := c.shutdownPhase(ctx, phase, services)
		errors = append(errors, phaseErrors...)

		if ctx.Err() != nil {
			c.logger.Error("shutdown timeout exceeded",
				zap.String("phase", phase.String()),
				zap.Error(ctx.Err()),
			)
			break
		}
	}

	if len(errors) > 0 {
		c.logger.Error("shutdown completed with errors",
			zap.Int("error_count", len(errors)),
		)
	} else {
		c.logger.Info("graceful shutdown complete")
	}
}

// shutdownPhase shuts down all services in a phase concurrently.
func (c *Coordinator) shutdownPhase(ctx context.Context, phase Phase, services []Service) []error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(services))

	for _, svc := range services {
		wg.Add(1)
		go func(s Service) {
			defer wg.Done()

			start := time.Now()
			c.logger.Debug("shutting down service",
				zap.String("service", s.Name()),
				zap.String("phase", phase.String()),
			)

			if err := s.Shutdown(ctx); err != nil {
				c.logger.Error("service shutdown failed",
					zap.String("service", s.Name()),
					zap.String("phase", phase.String()),
					zap.Duration("duration", time.Since(start)),
					zap.Error(err),
				)
				errCh <- fmt.Errorf("%s: %w", s.Name(), err)
				return
			}

			c.logger.Debug("service shutdown complete",
				zap.String("service", s.Name()),
				zap.String("phase", phase.String()),
				zap.Duration("duration", time.Since(start)),
			)
		}(svc)
	}

	wg.Wait()
	close(errCh)

	errors := make([]error, 0, len(services))
	for err := range errCh {
		errors = append(errors, err)
	}

	return errors
}

// ReadinessProbe flips to not-ready as soon as shutdown starts, so the load
// balancer stops routing traffic while in-flight requests drain.
type ReadinessProbe struct {
	coordinator *Coordinator
	draining    atomic.Bool
}

// NewReadinessProbe creates a probe watching the coordinator's shutdown signal.
func NewReadinessProbe(coordinator *Coordinator) *ReadinessProbe {
	rp := &ReadinessProbe{
		coordinator: coordinator,
	}

	go rp.watchShutdown()

	return rp
}

func (rp *ReadinessProbe) watchShutdown() {
	<-rp.coordinator.ShutdownCh()
	rp.draining.Store(true)
}

// IsReady returns true if the service is ready to accept traffic.
func (rp *ReadinessProbe) IsReady() bool {
	return !rp.draining.Load()
}
