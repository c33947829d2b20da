package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

const readinessTimeout = 5 * time.Second

// HealthStatus is the body of the readiness probe
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Version      string                      `json:"version,omitempty"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus reports one probed dependency
type DependencyStatus struct {
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Latency   time.Duration `json:"latency_ms,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// probe checks one dependency. A failing critical probe makes the service
// unhealthy; any other failure only degrades it.
type probe struct {
	name     string
	critical bool
	check    func(ctx context.Context) DependencyStatus
}

// HealthChecker serves liveness and readiness probes
type HealthChecker struct {
	version string
	probes  []probe
}

// NewHealthChecker probes the database (critical) and Redis, which only
// carries notifications and rate limits. Either may be nil.
func NewHealthChecker(db *sql.DB, redisClient redis.UniversalClient, version string) *HealthChecker {
	h := &HealthChecker{version: version}
	if db != nil {
		h.probes = append(h.probes, probe{name: "database", critical: true, check: databaseProbe(db)})
	}
	if redisClient != nil {
		h.probes = append(h.probes, probe{name: "redis", check: redisProbe(redisClient)})
	}
	return h
}

// Liveness answers 200 while the process serves requests
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, HealthStatus{Status: StatusHealthy, Timestamp: time.Now()})
}

// Readiness runs every probe; 503 when unhealthy
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := h.Check(ctx)
	code := http.StatusOK
	if status.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeHealth(w, code, status)
}

// Check runs the probes and folds their results into one status
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:       StatusHealthy,
		Timestamp:    time.Now(),
		Version:      h.version,
		Dependencies: make(map[string]DependencyStatus, len(h.probes)),
	}

	for _, p := range h.probes {
		dep := p.check(ctx)
		status.Dependencies[p.name] = dep
		status.Status = worse(status.Status, effective(dep.Status, p.critical))
	}
	return status
}

// effective caps a non-critical failure at degraded
func effective(status string, critical bool) string {
	if status == StatusUnhealthy && !critical {
		return StatusDegraded
	}
	return status
}

func worse(a, b string) string {
	rank := map[string]int{StatusHealthy: 0, StatusDegraded: 1, StatusUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

func databaseProbe(db *sql.DB) func(ctx context.Context) DependencyStatus {
	return func(ctx context.Context) DependencyStatus {
		start := time.Now()
		var one int
		err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
		dep := DependencyStatus{Status: StatusHealthy, Latency: time.Since(start), Timestamp: start}
		if err != nil {
			dep.Status = StatusUnhealthy
			dep.Message = "query failed: " + err.Error()
			return dep
		}

		if stats := db.Stats(); stats.MaxOpenConnections > 0 && stats.InUse >= stats.MaxOpenConnections {
			dep.Status = StatusDegraded
			dep.Message = "connection pool exhausted"
		}
		return dep
	}
}

func redisProbe(client redis.UniversalClient) func(ctx context.Context) DependencyStatus {
	return func(ctx context.Context) DependencyStatus {
		start := time.Now()
		err := client.Ping(ctx).Err()
		dep := DependencyStatus{Status: StatusHealthy, Latency: time.Since(start), Timestamp: start}
		if err != nil {
			dep.Status = StatusUnhealthy
			dep.Message = err.Error()
		}
		return dep
	}
}

func writeHealth(w http.ResponseWriter, code int, status HealthStatus) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}
