package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"lead-dedup-service/pkg/logging"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusUnknown   HealthStatus = "unknown"
)

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Name        string                 `json:"name"`
	Status      HealthStatus           `json:"status"`
	Message     string                 `json:"message,omitempty"`
	LastChecked time.Time              `json:"last_checked"`
	Duration    time.Duration          `json:"duration"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// SystemHealth represents the overall system health
type SystemHealth struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Uptime     time.Duration              `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
	Summary    HealthSummary              `json:"summary"`
}

// HealthSummary provides aggregated health information
type HealthSummary struct {
	TotalComponents int `json:"total_components"`
	HealthyCount    int `json:"healthy_count"`
	DegradedCount   int `json:"degraded_count"`
	UnhealthyCount  int `json:"unhealthy_count"`
	UnknownCount    int `json:"unknown_count"`
}

// HealthChecker defines the interface for health check functions
type HealthChecker interface {
	Check(ctx context.Context) ComponentHealth
	Name() string
}

// HealthCheckFunc adapts a plain function to HealthChecker
type HealthCheckFunc struct {
	name string
	fn   func(ctx context.Context) ComponentHealth
}

func (hcf HealthCheckFunc) Check(ctx context.Context) ComponentHealth { return hcf.fn(ctx) }
func (hcf HealthCheckFunc) Name() string                              { return hcf.name }

func NewHealthCheckFunc(name string, fn func(ctx context.Context) ComponentHealth) HealthChecker {
	return HealthCheckFunc{name: name, fn: fn}
}

// HealthManager manages health checks for all system components
type HealthManager struct {
	checkers  map[string]HealthChecker
	results   map[string]ComponentHealth
	startTime time.Time
	version   string
	timeout   time.Duration
	logger    *logging.ComponentLogger
	mu        sync.RWMutex
}

// HealthConfig holds configuration for the health manager
type HealthConfig struct {
	Timeout time.Duration `json:"timeout"`
	Version string        `json:"version"`
}

// DefaultHealthConfig returns sensible defaults
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		Timeout: 30 * time.Second,
		Version: "1.0.0",
	}
}

// NewHealthManager creates a new health manager
func NewHealthManager(config HealthConfig, logger *logging.Logger) *HealthManager {
	return &HealthManager{
		checkers:  make(map[string]HealthChecker),
		results:   make(map[string]ComponentHealth),
		startTime: time.Now(),
		version:   config.Version,
		timeout:   config.Timeout,
		logger:    logger.WithComponent("health"),
	}
}

// RegisterChecker registers a health checker
func (hm *HealthManager) RegisterChecker(checker HealthChecker) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	name := checker.Name()
	hm.checkers[name] = checker
	hm.results[name] = ComponentHealth{
		Name:   name,
		Status: HealthStatusUnknown,
	}

	hm.logger.Info("Registered health checker", logging.String("checker", name))
}

// CheckAll runs all health checks concurrently
func (hm *HealthManager) CheckAll(ctx context.Context) SystemHealth {
	start := time.Now()

	hm.mu.RLock()
	checkers := make([]HealthChecker, 0, len(hm.checkers))
	for _, checker := range hm.checkers {
		checkers = append(checkers, checker)
	}
	hm.mu.RUnlock()

	results := make(chan ComponentHealth, len(checkers))
	var wg sync.WaitGroup

	for _, checker := range checkers {
		wg.Add(1)
		go func(c HealthChecker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, hm.timeout)
			defer cancel()

			results <- c.Check(checkCtx)
		}(checker)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	components := make(map[string]ComponentHealth)
	for result := range results {
		components[result.Name] = result

		hm.mu.Lock()
		hm.results[result.Name] = result
		hm.mu.Unlock()
	}

	systemStatus := determineSystemHealth(components)
	summary := calculateSummary(components)

	hm.logger.Debug("Completed health check",
		logging.String("status", string(systemStatus)),
		logging.Duration("duration", time.Since(start)),
		logging.Int("components", len(components)))

	return SystemHealth{
		Status:     systemStatus,
		Timestamp:  time.Now(),
		Version:    hm.version,
		Uptime:     time.Since(hm.startTime),
		Components: components,
		Summary:    summary,
	}
}

// GetCachedHealth returns the last known health status
func (hm *HealthManager) GetCachedHealth() SystemHealth {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	components := make(map[string]ComponentHealth)
	for name, result := range hm.results {
		components[name] = result
	}

	return SystemHealth{
		Status:     determineSystemHealth(components),
		Timestamp:  time.Now(),
		Version:    hm.version,
		Uptime:     time.Since(hm.startTime),
		Components: components,
		Summary:    calculateSummary(components),
	}
}

func determineSystemHealth(components map[string]ComponentHealth) HealthStatus {
	if len(components) == 0 {
		return HealthStatusUnknown
	}

	healthyCount := 0
	for _, component := range components {
		switch component.Status {
		case HealthStatusUnhealthy:
			return HealthStatusUnhealthy
		case HealthStatusHealthy:
			healthyCount++
		case HealthStatusDegraded:
			return HealthStatusDegraded
		}
	}

	if healthyCount == len(components) {
		return HealthStatusHealthy
	}
	return HealthStatusUnknown
}

func calculateSummary(components map[string]ComponentHealth) HealthSummary {
	summary := HealthSummary{TotalComponents: len(components)}
	for _, component := range components {
		switch component.Status {
		case HealthStatusHealthy:
			summary.HealthyCount++
		case HealthStatusDegraded:
			summary.DegradedCount++
		case HealthStatusUnhealthy:
			summary.UnhealthyCount++
		default:
			summary.UnknownCount++
		}
	}
	return summary
}

// DatabaseHealthChecker checks database connectivity
type DatabaseHealthChecker struct {
	db   *sql.DB
	name string
}

func NewDatabaseHealthChecker(db *sql.DB, name string) *DatabaseHealthChecker {
	return &DatabaseHealthChecker{db: db, name: name}
}

func (dhc *DatabaseHealthChecker) Name() string { return dhc.name }

func (dhc *DatabaseHealthChecker) Check(ctx context.Context) ComponentHealth {
	start := time.Now()

	result := ComponentHealth{
		Name:        dhc.name,
		LastChecked: time.Now(),
		Metadata:    make(map[string]interface{}),
	}

	if err := dhc.db.PingContext(ctx); err != nil {
		result.Status = HealthStatusUnhealthy
		result.Error = err.Error()
		result.Message = "Database connection failed"
		result.Duration = time.Since(start)
		return result
	}

	var one int
	if err := dhc.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		result.Status = HealthStatusDegraded
		result.Error = err.Error()
		result.Message = "Database query failed"
	} else {
		result.Status = HealthStatusHealthy
		result.Message = "Database connection successful"
	}

	stats := dhc.db.Stats()
	result.Metadata["open_connections"] = stats.OpenConnections
	result.Metadata["in_use"] = stats.InUse
	result.Metadata["idle"] = stats.Idle
	result.Metadata["wait_count"] = stats.WaitCount
	result.Metadata["wait_duration"] = stats.WaitDuration.String()

	result.Duration = time.Since(start)
	return result
}

// ScannerHealthChecker reports on the duplicate scan engine via a stats
// callback; nil stats means no scan has run yet, which is not a failure.
type ScannerHealthChecker struct {
	getStats func() interface{}
	name     string
}

func NewScannerHealthChecker(name string, getStats func() interface{}) *ScannerHealthChecker {
	return &ScannerHealthChecker{getStats: getStats, name: name}
}

func (shc *ScannerHealthChecker) Name() string { return shc.name }

func (shc *ScannerHealthChecker) Check(ctx context.Context) ComponentHealth {
	start := time.Now()

	result := ComponentHealth{
		Name:        shc.name,
		LastChecked: time.Now(),
		Metadata:    make(map[string]interface{}),
	}

	if shc.getStats == nil {
		result.Status = HealthStatusUnknown
		result.Message = "Unable to get scanner statistics"
		result.Duration = time.Since(start)
		return result
	}

	if stats := shc.getStats(); stats != nil {
		result.Metadata["last_scan"] = stats
		result.Message = "Scanner is running normally"
	} else {
		result.Message = "Scanner idle, no scan run yet"
	}
	result.Status = HealthStatusHealthy

	result.Duration = time.Since(start)
	return result
}

// HealthServer provides HTTP endpoints for health checks
type HealthServer struct {
	manager *HealthManager
	server  *http.Server
	logger  *logging.ComponentLogger
}

// NewHealthServer creates a new health check HTTP server
func NewHealthServer(manager *HealthManager, addr string, logger *logging.Logger) *HealthServer {
	mux := http.NewServeMux()
	hs := &HealthServer{
		manager: manager,
		logger:  logger.WithComponent("health_server"),
	}

	mux.HandleFunc("/health", hs.handleHealth)
	mux.HandleFunc("/health/live", hs.handleLiveness)
	mux.HandleFunc("/health/ready", hs.handleReadiness)
	mux.HandleFunc("/health/components", hs.handleComponents)

	hs.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	return hs
}

// Start starts the health server
func (hs *HealthServer) Start() error {
	hs.logger.Info("Starting health server", logging.String("addr", hs.server.Addr))

	go func() {
		if err := hs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			hs.logger.Error("Health server error", err)
		}
	}()

	return nil
}

// Stop gracefully stops the health server
func (hs *HealthServer) Stop(ctx context.Context) error {
	hs.logger.Info("Stopping health server")
	return hs.server.Shutdown(ctx)
}

func (hs *HealthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := hs.manager.CheckAll(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if health.Status == HealthStatusUnhealthy || health.Status == HealthStatusUnknown {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(health)
}

func (hs *HealthServer) handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now(),
		"uptime":    time.Since(hs.manager.startTime).String(),
	})
}

func (hs *HealthServer) handleReadiness(w http.ResponseWriter, r *http.Request) {
	health := hs.manager.CheckAll(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if health.Status == HealthStatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":     health.Status,
		"ready":      health.Status != HealthStatusUnhealthy,
		"timestamp":  health.Timestamp,
		"components": len(health.Components),
	})
}

func (hs *HealthServer) handleComponents(w http.ResponseWriter, r *http.Request) {
	var health SystemHealth
	if r.URL.Query().Get("cached") == "true" {
		health = hs.manager.GetCachedHealth()
	} else {
		health = hs.manager.CheckAll(r.Context())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"components": health.Components,
		"summary":    health.Summary,
		"timestamp":  health.Timestamp,
	})
}
