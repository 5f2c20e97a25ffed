// Package service provides the read side of the monitor: cached queries over the store
package service

import (
	"context"
	"errors"

	"github.com/CrashBytes/cloudflare-monitor/internal/cache"
	"github.com/CrashBytes/cloudflare-monitor/internal/models"
	"github.com/CrashBytes/cloudflare-monitor/internal/status"
)

var (
	// ErrProjectNotFound is returned when a project is not found
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidFilter is returned when a query filter cannot be served
	ErrInvalidFilter = errors.New("invalid filter")
)

const (
	// DefaultDeploymentLimit is used when a deployment query sets no limit
	DefaultDeploymentLimit = 50
	// MaxDeploymentLimit caps the number of deployments a single query returns
	MaxDeploymentLimit = 500
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go MonitorService

// MonitorService defines the read operations served over HTTP
type MonitorService interface {
	// CheckReadiness checks if the store can serve requests
	CheckReadiness(ctx context.Context) error

	// ListProjects returns the projects matching filter, ordered by name
	ListProjects(ctx context.Context, filter ProjectFilter) ([]models.Project, error)

	// GetProject returns one project or ErrProjectNotFound
	GetProject(ctx context.Context, id string) (*models.Project, error)

	// ListDeployments returns the deployments matching filter, newest first
	ListDeployments(ctx context.Context, filter DeploymentFilter) ([]models.Deployment, error)

	// Summary returns record counts per status
	Summary(ctx context.Context) (*models.Summary, error)

	// CacheStats returns the statistics of every cache, keyed by cache name
	CacheStats() map[string]cache.Stats

	// CacheHealth classifies the combined hit rate of the caches
	CacheHealth() status.Health

	// EvictExpired drops expired entries from every cache and returns how many were removed
	EvictExpired() int
}

// ProjectFilter selects projects. An empty Status matches every project.
type ProjectFilter struct {
	Status models.DeploymentStatus
}

// DeploymentFilter selects deployments. Empty fields match everything; a zero Limit
// means DefaultDeploymentLimit.
type DeploymentFilter struct {
	ProjectID string
	Status    models.DeploymentStatus
	Limit     int
}

// normalize validates the filter and applies limit defaults
func (f DeploymentFilter) normalize() (DeploymentFilter, error) {
	if f.Limit < 0 {
		return f, errors.Join(ErrInvalidFilter, errors.New("limit must not be negative"))
	}
	if f.Status != "" {
		if _, ok := models.ParseStatus(string(f.Status)); !ok {
			return f, errors.Join(ErrInvalidFilter, errors.New("unknown status "+string(f.Status)))
		}
	}
	if f.Limit == 0 {
		f.Limit = DefaultDeploymentLimit
	}
	f.Limit = min(f.Limit, MaxDeploymentLimit)
	return f, nil
}
