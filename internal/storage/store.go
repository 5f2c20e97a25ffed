// Package storage defines the persistence collaborator the coordinator writes to and the
// read service queries. Implementations live in the memory and postgres subpackages.
package storage

import (
	"context"
	"errors"

	"github.com/CrashBytes/cloudflare-monitor/internal/models"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")

	// ErrUnknownProject is returned when a deployment references a project that was never stored
	ErrUnknownProject = errors.New("unknown project")
)

// Store persists projects and deployments. Upserts are keyed by ID and idempotent; a bulk
// upsert is applied entirely or not at all. List methods return deployments newest first and
// projects ordered by name. A non-positive limit means no limit.
type Store interface {
	UpsertProject(ctx context.Context, project models.Project) error
	UpsertProjects(ctx context.Context, projects []models.Project) error
	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjectsByStatus(ctx context.Context, status models.DeploymentStatus) ([]models.Project, error)
	CountProjects(ctx context.Context) (int, error)
	CountProjectsByStatus(ctx context.Context, status models.DeploymentStatus) (int, error)

	UpsertDeployment(ctx context.Context, deployment models.Deployment) error
	UpsertDeployments(ctx context.Context, deployments []models.Deployment) error
	ListDeployments(ctx context.Context, limit int) ([]models.Deployment, error)
	ListDeploymentsByProject(ctx context.Context, projectID string, limit int) ([]models.Deployment, error)
	ListDeploymentsByStatus(ctx context.Context, status models.DeploymentStatus, limit int) ([]models.Deployment, error)
	CountDeployments(ctx context.Context) (int, error)
	CountDeploymentsByStatus(ctx context.Context, status models.DeploymentStatus) (int, error)

	// Ping reports whether the store can serve requests
	Ping(ctx context.Context) error

	// Close releases the store's resources
	Close()
}
