package controllers

import (
	"context"
	"net/http"

	"github.com/recophone/recophone-backend/api/responses"
	"github.com/recophone/recophone-backend/pkg/config"
	"github.com/recophone/recophone-backend/pkg/db"
	"github.com/recophone/recophone-backend/pkg/logger"
	"github.com/recophone/recophone-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RecoPhone-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the backing stores; a dependency failure answers
// 503 so the load balancer stops routing here.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RecoPhone-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		var dbPing, redisPing func(context.Context) error
		if dbP != nil {
			dbPing = dbP.Ping
		}
		if redisP != nil {
			redisPing = redisP.Ping
		}
		checks["db"] = pingStatus(r.Context(), logg, "db", dbPing, &healthy)
		checks["redis"] = pingStatus(r.Context(), logg, "redis", redisPing, &healthy)

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": statusLabel(healthy),
			"checks": checks,
		})
	}
}

func pingStatus(ctx context.Context, logg *logger.Logger, name string, ping func(context.Context) error, healthy *bool) string {
	if ping == nil {
		return "skipped"
	}
	if err := ping(ctx); err != nil {
		*healthy = false
		if logg != nil {
			logg.Error(logg.WithField(ctx, "check", name), "readiness check failed", err)
		}
		return "down"
	}
	return "up"
}

func statusLabel(healthy bool) string {
	if healthy {
		return "ready"
	}
	return "degraded"
}
