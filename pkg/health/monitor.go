package health

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Status represents health check status
type Status int

const (
	StatusUnknown Status = iota
	StatusHealthy
	StatusUnhealthy
	StatusDegraded
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "HEALTHY"
	case StatusUnhealthy:
		return "UNHEALTHY"
	case StatusDegraded:
		return "DEGRADED"
	default:
		return "UNKNOWN"
	}
}

// CheckResult represents the result of a health check
type CheckResult struct {
	Name         string
	Status       Status
	Latency      time.Duration
	LastCheck    time.Time
	LastError    error
	CheckCount   int
	FailureCount int
}

// Checker interface for health checks
type Checker interface {
	Check(ctx context.Context) CheckResult
}

// DatabaseChecker pings the SQL connection behind gorm.
type DatabaseChecker struct {
	Name string
	DB   *gorm.DB
}

func (c *DatabaseChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      c.Name,
		LastCheck: start,
	}

	sqlDB, err := c.DB.DB()
	if err != nil {
		result.Status = StatusUnhealthy
		result.LastError = err
		result.Latency = time.Since(start)
		return result
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		result.Status = StatusUnhealthy
		result.LastError = err
	} else {
		result.Status = StatusHealthy
	}
	result.Latency = time.Since(start)
	return result
}

// PingChecker probes anything exposing a Ping method, like the redis client.
type PingChecker struct {
	Name   string
	Pinger interface {
		Ping(ctx context.Context) error
	}
}

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      c.Name,
		LastCheck: start,
	}

	if err := c.Pinger.Ping(ctx); err != nil {
		result.Status = StatusUnhealthy
		result.LastError = err
	} else {
		result.Status = StatusHealthy
	}
	result.Latency = time.Since(start)
	return result
}

// TCPChecker verifies a remote endpoint accepts connections. Used for the
// SMTP relay, which has no cheap application-level probe.
type TCPChecker struct {
	Name    string
	Address string
	Timeout time.Duration
}

func (c *TCPChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      c.Name,
		LastCheck: start,
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.Address)
	result.Latency = time.Since(start)

	if err != nil {
		result.Status = StatusUnhealthy
		result.LastError = err
		return result
	}
	_ = conn.Close()

	result.Status = StatusHealthy
	return result
}

// Monitor runs the registered checkers on an interval and keeps the latest
// results for reporting.
type Monitor struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	results  map[string]*CheckResult
	interval time.Duration
	logger   *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	running  bool
}

// NewMonitor creates a new health monitor
func NewMonitor(interval time.Duration, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Monitor{
		checkers: make(map[string]Checker),
		results:  make(map[string]*CheckResult),
		interval: interval,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Register adds a checker under a name, replacing any existing one.
func (m *Monitor) Register(name string, checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkers[name] = checker

	m.logger.Info("Registered health checker",
		zap.String("name", name),
	)
}

// Start starts the health monitor
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	go m.runChecks()
}

// Stop stops the health monitor
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	m.running = false
	m.cancel()
}

// runChecks runs health checks periodically
func (m *Monitor) runChecks() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Run initial checks
	m.checkAll()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.checkAll()
		}
	}
}

// checkAll checks all registered dependencies
func (m *Monitor) checkAll() {
	m.mu.RLock()
	checkers := make(map[string]Checker)
	for name, checker := range m.checkers {
		checkers[name] = checker
	}
	m.mu.RUnlock()

	for name, checker := range checkers {
		ctx, cancel := context.WithTimeout(m.ctx, 5*time.Second)
		result := checker.Check(ctx)
		cancel()

		m.mu.Lock()
		if existing, ok := m.results[name]; ok {
			result.CheckCount = existing.CheckCount + 1
			if result.Status == StatusUnhealthy {
				result.FailureCount = existing.FailureCount + 1
			} else {
				result.FailureCount = existing.FailureCount
			}
		} else {
			result.CheckCount = 1
			if result.Status == StatusUnhealthy {
				result.FailureCount = 1
			}
		}
		m.results[name] = &result
		m.mu.Unlock()

		if result.Status != StatusHealthy {
			m.logger.Warn("Health check failed",
				zap.String("name", name),
				zap.String("status", result.Status.String()),
				zap.Duration("latency", result.Latency),
				zap.Error(result.LastError),
			)
		}
	}
}

// IsHealthy checks if a dependency is healthy
func (m *Monitor) IsHealthy(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if result, ok := m.results[name]; ok {
		return result.Status == StatusHealthy
	}
	return true // Assume healthy if not tracked
}

// GetResult gets health check result for a dependency
func (m *Monitor) GetResult(name string) (*CheckResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result, exists := m.results[name]
	if !exists {
		return nil, false
	}
	resultCopy := *result
	return &resultCopy, true
}

// GetAllResults returns all health check results
func (m *Monitor) GetAllResults() map[string]*CheckResult {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make(map[string]*CheckResult)
	for name, result := range m.results {
		resultCopy := *result
		results[name] = &resultCopy
	}
	return results
}
