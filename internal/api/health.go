package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports process liveness and dependency readiness. Postgres
// is a hard dependency; Redis only guards the booking critical section, so
// losing it degrades the service instead of taking it out of rotation.
type HealthHandler struct {
	pgProbe    func(context.Context) error
	redisProbe func(context.Context) error
	env        string
	version    string
}

func NewHealthHandler(pgPool *pgxpool.Pool, rdb *redis.Client, env, version string) *HealthHandler {
	return &HealthHandler{
		pgProbe: pgPool.Ping,
		redisProbe: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
		env:     env,
		version: version,
	}
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Env     string            `json:"env,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
		Env:     h.env,
	})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"postgres": probe(r.Context(), h.pgProbe),
		"redis":    probe(r.Context(), h.redisProbe),
	}

	status := "ok"
	httpStatus := http.StatusOK
	if checks["redis"] != "ok" {
		status = "degraded"
	}
	if checks["postgres"] != "ok" {
		status = "error"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  status,
		Version: h.version,
		Env:     h.env,
		Checks:  checks,
	})
}

func probe(ctx context.Context, ping func(context.Context) error) string {
	pctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if err := ping(pctx); err != nil {
		return "down"
	}
	return "ok"
}
