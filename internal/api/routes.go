package api

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/clipforge/clipforge/internal/health"
	"github.com/clipforge/clipforge/internal/metrics"
	"github.com/clipforge/clipforge/internal/realtime"
	"github.com/clipforge/clipforge/internal/render"
	"github.com/clipforge/clipforge/internal/storage"
	"github.com/clipforge/clipforge/internal/store"
)

type Config struct {
	Pool        *pgxpool.Pool
	RedisClient *redis.Client
	Storage     storage.Storage
	Store       *store.CompositionStore
	Broker      Broker
	Tracker     *render.Tracker
	Hub         *realtime.Hub
	EngineCheck health.CheckFunc

	Environment string
	ResultTTL   time.Duration
	RateLimit   int
	RateBurst   int
}

func NewRouter(cfg *Config) http.Handler {
	mux := http.NewServeMux()

	checker := health.NewChecker().
		WithDatabase(cfg.Pool).
		WithRedis(cfg.RedisClient).
		WithStorage(cfg.Storage.HealthCheck)
	if cfg.EngineCheck != nil {
		checker.WithEngine(cfg.EngineCheck)
	}
	mux.HandleFunc("GET /health", health.ReadinessHandler(checker))
	mux.HandleFunc("GET /health/live", health.LivenessHandler())
	mux.HandleFunc("GET /health/ready", health.ReadinessHandler(checker))
	mux.Handle("GET /metrics", promhttp.Handler())

	compositionCfg := &CompositionConfig{
		Broker:   cfg.Broker,
		Store:    cfg.Store,
		Progress: cfg.Tracker,
		Jobs:     NewRedisJobIndex(cfg.RedisClient, cfg.ResultTTL),
	}

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /v1/compositions/{id}/render", RenderCompositionHandler(compositionCfg))
	apiMux.HandleFunc("GET /v1/compositions/{id}", GetCompositionHandler(compositionCfg))
	apiMux.HandleFunc("GET /v1/jobs/{id}", GetJobHandler(compositionCfg))

	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = 100
	}
	rateBurst := cfg.RateBurst
	if rateBurst <= 0 {
		rateBurst = 200
	}
	limiter := NewRateLimiter(rateLimit, rateBurst)
	devMode := cfg.Environment != "production"

	handler := RequestLogger(RateLimit(limiter)(CORSWithOrigins(devMode)(apiMux)))
	mux.Handle("/v1/", metrics.HTTPMetricsMiddleware(handler))

	// Progress subscriptions bypass the rate limiter; the heartbeat
	// owns their lifecycle.
	mux.HandleFunc("GET /ws/compositions/{id}", func(w http.ResponseWriter, r *http.Request) {
		cfg.Hub.HandleSubscribe(w, r, r.PathValue("id"))
	})

	return mux
}
