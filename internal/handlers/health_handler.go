package handlers

import (
	"context"
	"net/http"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"

	"ticket-marketplace/utils"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports store and Redis reachability. Redis is optional, so
// only the store decides the status code.
type HealthHandler struct {
	store pinger
	redis redis.Cmdable
}

func NewHealthHandler(store pinger, redisClient redis.Cmdable) *HealthHandler {
	return &HealthHandler{store: store, redis: redisClient}
}

func (h *HealthHandler) Health(e *core.RequestEvent) error {
	body := map[string]string{"status": "healthy", "store": "ok", "redis": "disabled"}

	if h.redis != nil {
		body["redis"] = "ok"
		if err := utils.RedisHealthCheck(h.redis); err != nil {
			body["redis"] = err.Error()
		}
	}

	if err := h.store.Ping(e.Request.Context()); err != nil {
		body["status"] = "unhealthy"
		body["store"] = err.Error()
		return e.JSON(http.StatusServiceUnavailable, body)
	}

	return e.JSON(http.StatusOK, body)
}
