// Package memory provides an in-process storage.Store, used when no database is configured
// and in tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/CrashBytes/cloudflare-monitor/internal/models"
	"github.com/CrashBytes/cloudflare-monitor/internal/storage"
)

// Store keeps records in maps guarded by a RWMutex. Records are copied on the way in and
// out, so callers never share memory with the store.
type Store struct {
	mu          sync.RWMutex
	projects    map[string]*models.Project
	deployments map[string]*models.Deployment
	closed      bool
}

var _ storage.Store = (*Store)(nil)

// New creates an empty store
func New() *Store {
	return &Store{
		projects:    make(map[string]*models.Project),
		deployments: make(map[string]*models.Deployment),
	}
}

// UpsertProject inserts or replaces a project
func (s *Store) UpsertProject(ctx context.Context, project models.Project) error {
	return s.UpsertProjects(ctx, []models.Project{project})
}

// UpsertProjects inserts or replaces every project in one step
func (s *Store) UpsertProjects(_ context.Context, projects []models.Project) error {
	for i := range projects {
		if projects[i].ID == "" {
			return fmt.Errorf("project[%d]: id is required", i)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed
	}
	for i := range projects {
		s.projects[projects[i].ID] = projects[i].Clone()
	}
	return nil
}

// ListProjects returns every project ordered by name
func (s *Store) ListProjects(_ context.Context) ([]models.Project, error) {
	return s.filterProjects(func(*models.Project) bool { return true })
}

// GetProject returns one project or storage.ErrNotFound
func (s *Store) GetProject(_ context.Context, id string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, storage.ErrNotFound)
	}
	return p.Clone(), nil
}

// ListProjectsByStatus returns the projects in status, ordered by name
func (s *Store) ListProjectsByStatus(_ context.Context, status models.DeploymentStatus) ([]models.Project, error) {
	return s.filterProjects(func(p *models.Project) bool { return p.Status == status })
}

// CountProjects returns the number of projects
func (s *Store) CountProjects(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.projects), nil
}

// CountProjectsByStatus returns the number of projects in status
func (s *Store) CountProjectsByStatus(_ context.Context, status models.DeploymentStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, p := range s.projects {
		if p.Status == status {
			n++
		}
	}
	return n, nil
}

// UpsertDeployment inserts or replaces a deployment
func (s *Store) UpsertDeployment(ctx context.Context, deployment models.Deployment) error {
	return s.UpsertDeployments(ctx, []models.Deployment{deployment})
}

// UpsertDeployments inserts or replaces every deployment in one step. The batch is rejected
// as a whole when any deployment references an unknown project.
func (s *Store) UpsertDeployments(_ context.Context, deployments []models.Deployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed
	}

	for i := range deployments {
		d := &deployments[i]
		if d.ID == "" {
			return fmt.Errorf("deployment[%d]: id is required", i)
		}
		if _, ok := s.projects[d.ProjectID]; !ok {
			return fmt.Errorf("deployment %s references project %q: %w", d.ID, d.ProjectID, storage.ErrUnknownProject)
		}
	}

	for i := range deployments {
		s.deployments[deployments[i].ID] = deployments[i].Clone()
	}
	return nil
}

// ListDeployments returns deployments newest first
func (s *Store) ListDeployments(_ context.Context, limit int) ([]models.Deployment, error) {
	return s.filterDeployments(limit, func(*models.Deployment) bool { return true })
}

// ListDeploymentsByProject returns the deployments of a project, newest first
func (s *Store) ListDeploymentsByProject(_ context.Context, projectID string, limit int) ([]models.Deployment, error) {
	return s.filterDeployments(limit, func(d *models.Deployment) bool { return d.ProjectID == projectID })
}

// ListDeploymentsByStatus returns the deployments in status, newest first
func (s *Store) ListDeploymentsByStatus(
	_ context.Context, status models.DeploymentStatus, limit int,
) ([]models.Deployment, error) {
	return s.filterDeployments(limit, func(d *models.Deployment) bool { return d.Status == status })
}

// CountDeployments returns the number of deployments
func (s *Store) CountDeployments(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.deployments), nil
}

// CountDeploymentsByStatus returns the number of deployments in status
func (s *Store) CountDeploymentsByStatus(_ context.Context, status models.DeploymentStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, d := range s.deployments {
		if d.Status == status {
			n++
		}
	}
	return n, nil
}

// Ping fails once the store is closed
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errClosed
	}
	return nil
}

// Close rejects further writes; reads keep working on the retained data
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

var errClosed = fmt.Errorf("memory store is closed")

func (s *Store) filterProjects(keep func(*models.Project) bool) ([]models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if keep(p) {
			out = append(out, *p.Clone())
		}
	}
	slices.SortFunc(out, func(a, b models.Project) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) filterDeployments(limit int, keep func(*models.Deployment) bool) ([]models.Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Deployment, 0)
	for _, d := range s.deployments {
		if keep(d) {
			out = append(out, *d.Clone())
		}
	}
	slices.SortFunc(out, func(a, b models.Deployment) int {
		// newest first, ID breaks ties so the order is stable
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
