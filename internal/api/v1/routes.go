// Package v1 provides the REST and event-stream handlers of the monitor API.
package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/CrashBytes/cloudflare-monitor/internal/api/common"
	"github.com/CrashBytes/cloudflare-monitor/internal/cache"
	"github.com/CrashBytes/cloudflare-monitor/internal/events"
	"github.com/CrashBytes/cloudflare-monitor/internal/models"
	"github.com/CrashBytes/cloudflare-monitor/internal/service"
	"github.com/CrashBytes/cloudflare-monitor/internal/status"
	"github.com/CrashBytes/cloudflare-monitor/internal/sync/coordinator"
)

// EventHub is the part of events.Hub the API uses
type EventHub interface {
	Subscribe(topics []string) (*events.Subscription, error)
	Unsubscribe(id string) bool
	Stats() events.Stats
	HealthStatus() status.Health
}

// ProjectListResponse is the body of GET /projects
type ProjectListResponse struct {
	Projects []models.Project `json:"projects"`
	Count    int              `json:"count"`
}

// DeploymentListResponse is the body of the deployment listings
type DeploymentListResponse struct {
	Deployments []models.Deployment `json:"deployments"`
	Count       int                 `json:"count"`
}

// PollStatusResponse is the body of GET /poll/status
type PollStatusResponse struct {
	coordinator.Status
	Health status.Health `json:"health"`
}

// StatsResponse is the body of GET /stats
type StatsResponse struct {
	Cache  map[string]cache.Stats `json:"cache"`
	Events events.Stats           `json:"events"`
}

// Routes holds the handlers' dependencies
type Routes struct {
	service     service.MonitorService
	coordinator coordinator.Coordinator
	hub         EventHub
}

// Router creates the v1 router. Every route except the event stream is bounded by
// requestTimeout; zero disables the bound.
func Router(
	svc service.MonitorService,
	coord coordinator.Coordinator,
	hub EventHub,
	requestTimeout time.Duration,
) http.Handler {
	routes := &Routes{service: svc, coordinator: coord, hub: hub}

	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		if requestTimeout > 0 {
			r.Use(middleware.Timeout(requestTimeout))
		}

		r.Get("/projects", routes.listProjects)
		r.Get("/projects/{id}", routes.getProject)
		r.Get("/projects/{id}/deployments", routes.listProjectDeployments)
		r.Get("/deployments", routes.listDeployments)
		r.Get("/summary", routes.getSummary)
		r.Post("/poll", routes.triggerPoll)
		r.Get("/poll/status", routes.getPollStatus)
		r.Get("/stats", routes.getStats)
	})

	// long-lived; must not be cut by the request timeout
	r.Get("/events", routes.streamEvents)

	return r
}

// listProjects handles GET /api/v1/projects
func (rr *Routes) listProjects(w http.ResponseWriter, r *http.Request) {
	filter := service.ProjectFilter{
		Status: models.DeploymentStatus(r.URL.Query().Get("status")),
	}

	projects, err := rr.service.ListProjects(r.Context(), filter)
	if err != nil {
		rr.writeServiceError(w, "Failed to list projects", err)
		return
	}

	common.WriteJSONResponse(w, ProjectListResponse{Projects: projects, Count: len(projects)}, http.StatusOK)
}

// getProject handles GET /api/v1/projects/{id}
func (rr *Routes) getProject(w http.ResponseWriter, r *http.Request) {
	id, err := common.PathParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	project, err := rr.service.GetProject(r.Context(), id)
	if err != nil {
		rr.writeServiceError(w, "Failed to get project", err)
		return
	}

	common.WriteJSONResponse(w, project, http.StatusOK)
}

// listProjectDeployments handles GET /api/v1/projects/{id}/deployments
func (rr *Routes) listProjectDeployments(w http.ResponseWriter, r *http.Request) {
	id, err := common.PathParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	// 404 for unknown projects rather than an empty list
	if _, err := rr.service.GetProject(r.Context(), id); err != nil {
		rr.writeServiceError(w, "Failed to get project", err)
		return
	}

	filter, err := deploymentFilter(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	filter.ProjectID = id

	rr.writeDeployments(w, r, filter)
}

// listDeployments handles GET /api/v1/deployments
func (rr *Routes) listDeployments(w http.ResponseWriter, r *http.Request) {
	filter, err := deploymentFilter(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	filter.ProjectID = r.URL.Query().Get("projectId")

	rr.writeDeployments(w, r, filter)
}

func (rr *Routes) writeDeployments(w http.ResponseWriter, r *http.Request, filter service.DeploymentFilter) {
	deployments, err := rr.service.ListDeployments(r.Context(), filter)
	if err != nil {
		rr.writeServiceError(w, "Failed to list deployments", err)
		return
	}

	common.WriteJSONResponse(w, DeploymentListResponse{Deployments: deployments, Count: len(deployments)}, http.StatusOK)
}

// getSummary handles GET /api/v1/summary
func (rr *Routes) getSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := rr.service.Summary(r.Context())
	if err != nil {
		rr.writeServiceError(w, "Failed to build summary", err)
		return
	}

	common.WriteJSONResponse(w, summary, http.StatusOK)
}

// triggerPoll handles POST /api/v1/poll
func (rr *Routes) triggerPoll(w http.ResponseWriter, r *http.Request) {
	result := rr.coordinator.TriggerImmediatePoll(r.Context())
	common.WriteJSONResponse(w, result, http.StatusOK)
}

// getPollStatus handles GET /api/v1/poll/status
func (rr *Routes) getPollStatus(w http.ResponseWriter, _ *http.Request) {
	st := rr.coordinator.Status()
	common.WriteJSONResponse(w, PollStatusResponse{Status: st, Health: st.Health()}, http.StatusOK)
}

// getStats handles GET /api/v1/stats
func (rr *Routes) getStats(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, StatsResponse{
		Cache:  rr.service.CacheStats(),
		Events: rr.hub.Stats(),
	}, http.StatusOK)
}

func deploymentFilter(r *http.Request) (service.DeploymentFilter, error) {
	limit, err := common.QueryInt(r, "limit")
	if err != nil {
		return service.DeploymentFilter{}, err
	}
	return service.DeploymentFilter{
		Status: models.DeploymentStatus(r.URL.Query().Get("status")),
		Limit:  limit,
	}, nil
}

// writeServiceError maps service errors onto HTTP status codes
func (*Routes) writeServiceError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, service.ErrProjectNotFound):
		common.WriteErrorResponse(w, "Project not found", http.StatusNotFound)
	case errors.Is(err, service.ErrInvalidFilter):
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error(message, "error", err)
		common.WriteErrorResponse(w, message, http.StatusInternalServerError)
	}
}
