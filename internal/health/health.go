// Package health aggregates readiness checks over the service's
// external dependencies.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

type ComponentHealth struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Latency int64  `json:"latency_ms"`
	Error   string `json:"error,omitempty"`
}

type Response struct {
	Status     Status            `json:"status"`
	Components []ComponentHealth `json:"components,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

type Checker struct {
	checks map[string]CheckFunc
}

func NewChecker() *Checker {
	return &Checker{checks: make(map[string]CheckFunc)}
}

func (c *Checker) WithDatabase(pool *pgxpool.Pool) *Checker {
	c.checks["database"] = pool.Ping
	return c
}

func (c *Checker) WithRedis(client *redis.Client) *Checker {
	c.checks["redis"] = func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
	return c
}

func (c *Checker) WithStorage(check CheckFunc) *Checker {
	c.checks["storage"] = check
	return c
}

// WithEngine registers a probe for the media engine binaries.
func (c *Checker) WithEngine(check CheckFunc) *Checker {
	c.checks["engine"] = check
	return c
}

// CheckAll probes every dependency concurrently under a shared 5s budget.
func (c *Checker) CheckAll(ctx context.Context) Response {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	components := make([]ComponentHealth, 0, len(c.checks))

	for name, check := range c.checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()
			start := time.Now()
			err := check(ctx)
			comp := ComponentHealth{
				Name:    name,
				Status:  StatusHealthy,
				Latency: time.Since(start).Milliseconds(),
			}
			if err != nil {
				comp.Status = StatusUnhealthy
				comp.Error = err.Error()
			}
			mu.Lock()
			components = append(components, comp)
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	status := StatusHealthy
	for _, comp := range components {
		if comp.Status == StatusUnhealthy {
			status = StatusUnhealthy
			break
		}
	}
	return Response{Status: status, Components: components, Timestamp: time.Now()}
}

func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}
}

func ReadinessHandler(checker *Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := checker.CheckAll(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
