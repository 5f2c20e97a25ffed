package api

import (
	"log/slog"
	"net/http"

	"github.com/CrashBytes/cloudflare-monitor/internal/api/common"
	"github.com/CrashBytes/cloudflare-monitor/internal/status"
	"github.com/CrashBytes/cloudflare-monitor/internal/versions"
)

// Component names reported by /health
const (
	ComponentPolling = "polling"
	ComponentCache   = "cache"
	ComponentEvents  = "events"
	ComponentStore   = "store"
)

type healthHandler struct {
	deps Dependencies
}

// health handles GET /health. The overall status is the worst component status,
// and any component being down turns the response into a 503.
func (h *healthHandler) health(w http.ResponseWriter, r *http.Request) {
	storeHealth := status.HealthOperational
	if err := h.deps.Service.CheckReadiness(r.Context()); err != nil {
		slog.Warn("Store health check failed", "error", err)
		storeHealth = status.HealthDown
	}

	components := []status.ComponentHealth{
		{Name: ComponentPolling, Status: h.deps.Coordinator.Status().Health()},
		{Name: ComponentCache, Status: h.deps.Service.CacheHealth()},
		{Name: ComponentEvents, Status: h.deps.Hub.HealthStatus()},
		{Name: ComponentStore, Status: storeHealth},
	}

	overall := status.HealthOperational
	for _, c := range components {
		overall = status.Worst(overall, c.Status)
	}

	code := http.StatusOK
	if overall == status.HealthDown {
		code = http.StatusServiceUnavailable
	}
	common.WriteJSONResponse(w, HealthResponse{Status: overall, Components: components}, code)
}

// readiness handles GET /readiness
func (h *healthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Service.CheckReadiness(r.Context()); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	common.WriteJSONResponse(w, ReadinessResponse{Status: "ready"}, http.StatusOK)
}

// versionHandler handles GET /version
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	info := versions.GetVersionInfo()
	common.WriteJSONResponse(w, VersionResponse{
		Version:   info.Version,
		Commit:    info.Commit,
		BuildDate: info.BuildDate,
		GoVersion: info.GoVersion,
		Platform:  info.Platform,
		Release:   info.Release,
	}, http.StatusOK)
}
