package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/modelsmith-ai/modelsmith/pkg/adapters/warehouse"
	"github.com/modelsmith-ai/modelsmith/pkg/config"
)

// healthCheckTimeout bounds each reachability probe so a hung warehouse
// cannot hang the health endpoint.
const healthCheckTimeout = 2 * time.Second

// HealthResponse reports service status plus reachability of the
// warehouse and stage connections.
type HealthResponse struct {
	Status    string `json:"status"`
	Warehouse string `json:"warehouse,omitempty"`
	Stage     string `json:"stage,omitempty"`
}

// PingResponse contains service status and version information.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
}

// HealthHandler handles health check and ping endpoints. Discoverer and
// store are optional; when nil the corresponding check is skipped.
type HealthHandler struct {
	cfg        *config.Config
	discoverer warehouse.SchemaDiscoverer
	store      warehouse.StageStore
	logger     *zap.Logger
}

// NewHealthHandler creates a new HealthHandler with the given configuration.
func NewHealthHandler(cfg *config.Config, discoverer warehouse.SchemaDiscoverer, store warehouse.StageStore, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		cfg:        cfg,
		discoverer: discoverer,
		store:      store,
		logger:     logger,
	}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/ping", h.Ping)
}

// Health handles GET /health requests.
// Probes the warehouse and stage connections and returns 503 when
// either is unreachable.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{Status: "ok"}
	healthy := true

	if h.discoverer != nil {
		response.Warehouse = h.check(r.Context(), h.discoverer.Ping)
		if response.Warehouse != "ok" {
			healthy = false
		}
	}
	if h.store != nil {
		response.Stage = h.check(r.Context(), h.store.Ping)
		if response.Stage != "ok" {
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		response.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	if err := WriteJSON(w, status, response); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}

func (h *HealthHandler) check(ctx context.Context, ping func(context.Context) error) string {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := ping(ctx); err != nil {
		h.logger.Warn("Health check probe failed", zap.Error(err))
		return "unreachable"
	}
	return "ok"
}

// Ping handles GET /ping requests.
// Returns detailed service information including version and environment.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     "modelsmith",
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
