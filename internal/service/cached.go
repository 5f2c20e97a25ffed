package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/CrashBytes/cloudflare-monitor/internal/cache"
	"github.com/CrashBytes/cloudflare-monitor/internal/models"
	"github.com/CrashBytes/cloudflare-monitor/internal/status"
	"github.com/CrashBytes/cloudflare-monitor/internal/storage"
)

// Cache names reported in stats and metrics
const (
	CacheProjects    = "projects"
	CacheProject     = "project"
	CacheDeployments = "deployments"
	CacheSummary     = "summary"
)

const summaryKey = "summary"

// cachedService serves reads from per-query caches in front of the store.
// Failed store reads are never cached.
type cachedService struct {
	store storage.Store

	projects    *cache.Cache[ProjectFilter, []models.Project]
	project     *cache.Cache[string, *models.Project]
	deployments *cache.Cache[DeploymentFilter, []models.Deployment]
	summary     *cache.Cache[string, *models.Summary]
}

var _ MonitorService = (*cachedService)(nil)

// New creates a MonitorService reading from store
func New(store storage.Store, opts ...Option) (MonitorService, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}

	o := &options{
		cacheSize: DefaultCacheSize,
		cacheTTL:  DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(o)
	}

	cacheOpts := func(name string) []cache.Option {
		out := []cache.Option{cache.WithName(name), cache.WithMetrics(o.metrics)}
		if o.clock != nil {
			out = append(out, cache.WithClock(o.clock))
		}
		return out
	}

	s := &cachedService{store: store}
	var err error
	if s.projects, err = cache.New[ProjectFilter, []models.Project](
		o.cacheSize, o.cacheTTL, cacheOpts(CacheProjects)...); err != nil {
		return nil, fmt.Errorf("failed to create %s cache: %w", CacheProjects, err)
	}
	if s.project, err = cache.New[string, *models.Project](
		o.cacheSize, o.cacheTTL, cacheOpts(CacheProject)...); err != nil {
		return nil, fmt.Errorf("failed to create %s cache: %w", CacheProject, err)
	}
	if s.deployments, err = cache.New[DeploymentFilter, []models.Deployment](
		o.cacheSize, o.cacheTTL, cacheOpts(CacheDeployments)...); err != nil {
		return nil, fmt.Errorf("failed to create %s cache: %w", CacheDeployments, err)
	}
	if s.summary, err = cache.New[string, *models.Summary](
		o.cacheSize, o.cacheTTL, cacheOpts(CacheSummary)...); err != nil {
		return nil, fmt.Errorf("failed to create %s cache: %w", CacheSummary, err)
	}

	return s, nil
}

// CheckReadiness pings the store
func (s *cachedService) CheckReadiness(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store not ready: %w", err)
	}
	return nil
}

// ListProjects implements MonitorService.ListProjects
func (s *cachedService) ListProjects(ctx context.Context, filter ProjectFilter) ([]models.Project, error) {
	if filter.Status != "" {
		if _, ok := models.ParseStatus(string(filter.Status)); !ok {
			return nil, errors.Join(ErrInvalidFilter, fmt.Errorf("unknown status %s", filter.Status))
		}
	}

	if cached, ok := s.projects.Get(filter); ok {
		return cloneProjects(cached), nil
	}

	var (
		projects []models.Project
		err      error
	)
	if filter.Status == "" {
		projects, err = s.store.ListProjects(ctx)
	} else {
		projects, err = s.store.ListProjectsByStatus(ctx, filter.Status)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	s.projects.Set(filter, cloneProjects(projects))
	return projects, nil
}

// GetProject implements MonitorService.GetProject
func (s *cachedService) GetProject(ctx context.Context, id string) (*models.Project, error) {
	if cached, ok := s.project.Get(id); ok {
		return cached.Clone(), nil
	}

	project, err := s.store.GetProject(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project %s: %w", id, err)
	}

	s.project.Set(id, project.Clone())
	return project, nil
}

// ListDeployments implements MonitorService.ListDeployments
func (s *cachedService) ListDeployments(ctx context.Context, filter DeploymentFilter) ([]models.Deployment, error) {
	filter, err := filter.normalize()
	if err != nil {
		return nil, err
	}

	if cached, ok := s.deployments.Get(filter); ok {
		return cloneDeployments(cached), nil
	}

	deployments, err := s.queryDeployments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	s.deployments.Set(filter, cloneDeployments(deployments))
	return deployments, nil
}

func (s *cachedService) queryDeployments(ctx context.Context, filter DeploymentFilter) ([]models.Deployment, error) {
	switch {
	case filter.ProjectID != "" && filter.Status != "":
		// the store has no combined query; narrow by project and filter here
		all, err := s.store.ListDeploymentsByProject(ctx, filter.ProjectID, 0)
		if err != nil {
			return nil, err
		}
		out := make([]models.Deployment, 0, min(len(all), filter.Limit))
		for _, d := range all {
			if d.Status == filter.Status {
				out = append(out, d)
				if len(out) == filter.Limit {
					break
				}
			}
		}
		return out, nil
	case filter.ProjectID != "":
		return s.store.ListDeploymentsByProject(ctx, filter.ProjectID, filter.Limit)
	case filter.Status != "":
		return s.store.ListDeploymentsByStatus(ctx, filter.Status, filter.Limit)
	default:
		return s.store.ListDeployments(ctx, filter.Limit)
	}
}

// Summary implements MonitorService.Summary
func (s *cachedService) Summary(ctx context.Context) (*models.Summary, error) {
	if cached, ok := s.summary.Get(summaryKey); ok {
		return cloneSummary(cached), nil
	}

	summary := &models.Summary{
		ProjectsByStatus:    make(map[models.DeploymentStatus]int, len(models.AllStatuses)),
		DeploymentsByStatus: make(map[models.DeploymentStatus]int, len(models.AllStatuses)),
	}

	var err error
	if summary.Projects, err = s.store.CountProjects(ctx); err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}
	if summary.Deployments, err = s.store.CountDeployments(ctx); err != nil {
		return nil, fmt.Errorf("failed to count deployments: %w", err)
	}
	for _, st := range models.AllStatuses {
		n, err := s.store.CountProjectsByStatus(ctx, st)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s projects: %w", st, err)
		}
		summary.ProjectsByStatus[st] = n

		if n, err = s.store.CountDeploymentsByStatus(ctx, st); err != nil {
			return nil, fmt.Errorf("failed to count %s deployments: %w", st, err)
		}
		summary.DeploymentsByStatus[st] = n
	}

	s.summary.Set(summaryKey, cloneSummary(summary))
	return summary, nil
}

// CacheStats implements MonitorService.CacheStats
func (s *cachedService) CacheStats() map[string]cache.Stats {
	return map[string]cache.Stats{
		CacheProjects:    s.projects.Stats(),
		CacheProject:     s.project.Stats(),
		CacheDeployments: s.deployments.Stats(),
		CacheSummary:     s.summary.Stats(),
	}
}

// CacheHealth classifies the combined hit rate of every cache
func (s *cachedService) CacheHealth() status.Health {
	var hits, misses uint64
	for _, st := range s.CacheStats() {
		hits += st.Hits
		misses += st.Misses
	}
	return cache.HealthFor(hits, misses)
}

// EvictExpired implements MonitorService.EvictExpired
func (s *cachedService) EvictExpired() int {
	n := s.projects.EvictExpired() +
		s.project.EvictExpired() +
		s.deployments.EvictExpired() +
		s.summary.EvictExpired()
	if n > 0 {
		slog.Debug("Evicted expired query results", "count", n)
	}
	return n
}

func cloneProjects(in []models.Project) []models.Project {
	out := make([]models.Project, 0, len(in))
	for i := range in {
		out = append(out, *in[i].Clone())
	}
	return out
}

func cloneDeployments(in []models.Deployment) []models.Deployment {
	out := make([]models.Deployment, 0, len(in))
	for i := range in {
		out = append(out, *in[i].Clone())
	}
	return out
}

func cloneSummary(in *models.Summary) *models.Summary {
	out := *in
	out.ProjectsByStatus = maps.Clone(in.ProjectsByStatus)
	out.DeploymentsByStatus = maps.Clone(in.DeploymentsByStatus)
	return &out
}
