package api

import (
	"context"
	"net/http"
	"time"

	"libraryapi/internal/api/response"
	"libraryapi/pkg/factory"
	"libraryapi/pkg/logger"
)

const healthCheckTimeout = 2 * time.Second

type HealthHandler struct {
	factory factory.Factory
	logger  logger.Logger
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]interface{} `json:"services"`
	Version   string                 `json:"version"`
}

func NewHealthHandler(factory factory.Factory, logger logger.Logger) *HealthHandler {
	return &HealthHandler{
		factory: factory,
		logger:  logger,
	}
}

func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	services := map[string]interface{}{
		"database": h.checkDatabaseHealth(ctx),
	}
	if h.factory.GetRedisClient() != nil {
		services["redis"] = h.checkRedisHealth(ctx)
	}

	status := "healthy"
	for _, svc := range services {
		if svc.(map[string]interface{})["status"] != "healthy" {
			status = "degraded"
			break
		}
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	response.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Services:  services,
		Version:   "1.0.0",
	})
}

func (h *HealthHandler) checkDatabaseHealth(ctx context.Context) map[string]interface{} {
	cm := h.factory.GetConnectionManager()

	if err := cm.DB().PingContext(ctx); err != nil {
		h.logger.WarnContext(ctx, "Database health check failed", map[string]interface{}{"error": err.Error()})
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	}

	result := cm.GetStats()
	result["status"] = "healthy"
	return result
}

func (h *HealthHandler) checkRedisHealth(ctx context.Context) map[string]interface{} {
	client := h.factory.GetRedisClient()

	if err := client.Ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "Redis health check failed", map[string]interface{}{"error": err.Error()})
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	}

	poolStats := client.Client.PoolStats()
	return map[string]interface{}{
		"status":      "healthy",
		"hits":        poolStats.Hits,
		"misses":      poolStats.Misses,
		"timeouts":    poolStats.Timeouts,
		"total_conns": poolStats.TotalConns,
		"idle_conns":  poolStats.IdleConns,
	}
}

func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}

func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	issues := make([]string, 0)

	if err := h.factory.GetDB().PingContext(ctx); err != nil {
		issues = append(issues, "database: "+err.Error())
	}

	if client := h.factory.GetRedisClient(); client != nil {
		if err := client.Ping(ctx); err != nil {
			issues = append(issues, "redis: "+err.Error())
		}
	}

	body := map[string]interface{}{
		"timestamp": time.Now().UTC(),
	}

	if len(issues) == 0 {
		body["status"] = "ready"
		response.JSON(w, http.StatusOK, body)
		return
	}

	body["status"] = "not_ready"
	body["issues"] = issues
	response.JSON(w, http.StatusServiceUnavailable, body)
}

func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /health/live", h.LivenessCheck)
	mux.HandleFunc("GET /health/ready", h.ReadinessCheck)
}
