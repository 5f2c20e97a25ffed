// Package storagetest holds behaviour checks every storage.Store implementation must pass.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrashBytes/cloudflare-monitor/internal/models"
	"github.com/CrashBytes/cloudflare-monitor/internal/storage"
)

var epoch = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

// Project returns a project fixture
func Project(id, name string, st models.DeploymentStatus) models.Project {
	return models.Project{
		ID:        id,
		Name:      name,
		Domains:   []string{name + ".example.com"},
		Status:    st,
		CreatedAt: epoch,
		Metadata:  map[string]any{"sourceType": "github"},
	}
}

// Deployment returns a deployment fixture created age after the fixture epoch
func Deployment(id, projectID string, st models.DeploymentStatus, age time.Duration) models.Deployment {
	return models.Deployment{
		ID:          id,
		ProjectID:   projectID,
		ProjectName: projectID + "-name",
		Environment: "production",
		Branch:      "main",
		Status:      st,
		CreatedAt:   epoch.Add(age),
		Metadata:    map[string]any{"trigger": "github:push"},
	}
}

// Run exercises a fresh store returned by newStore for every subtest
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Helper()

	t.Run("upsert and get project", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		p := Project("p1", "docs", models.StatusSuccess)
		require.NoError(t, s.UpsertProject(ctx, p))

		got, err := s.GetProject(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "docs", got.Name)
		assert.Equal(t, []string{"docs.example.com"}, got.Domains)
		assert.Equal(t, "github", got.Metadata["sourceType"])
		assert.True(t, got.CreatedAt.Equal(epoch))

		_, err = s.GetProject(ctx, "missing")
		assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
	})

	t.Run("upsert is idempotent and replaces", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		p := Project("p1", "docs", models.StatusBuilding)
		require.NoError(t, s.UpsertProjects(ctx, []models.Project{p, Project("p2", "blog", models.StatusSuccess)}))
		require.NoError(t, s.UpsertProjects(ctx, []models.Project{p}))

		p.Status = models.StatusFailure
		require.NoError(t, s.UpsertProjects(ctx, []models.Project{p}))

		count, err := s.CountProjects(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		got, err := s.GetProject(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, models.StatusFailure, got.Status)
	})

	t.Run("projects by status", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.UpsertProjects(ctx, []models.Project{
			Project("p1", "zeta", models.StatusSuccess),
			Project("p2", "alpha", models.StatusSuccess),
			Project("p3", "mid", models.StatusFailure),
		}))

		all, err := s.ListProjects(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"alpha", "mid", "zeta"}, []string{all[0].Name, all[1].Name, all[2].Name})

		ok, err := s.ListProjectsByStatus(ctx, models.StatusSuccess)
		require.NoError(t, err)
		require.Len(t, ok, 2)
		assert.Equal(t, "alpha", ok[0].Name)

		n, err := s.CountProjectsByStatus(ctx, models.StatusFailure)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = s.CountProjectsByStatus(ctx, models.StatusQueued)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("deployments ordering and filters", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.UpsertProjects(ctx, []models.Project{
			Project("p1", "docs", models.StatusSuccess),
			Project("p2", "blog", models.StatusFailure),
		}))
		require.NoError(t, s.UpsertDeployments(ctx, []models.Deployment{
			Deployment("d1", "p1", models.StatusSuccess, time.Minute),
			Deployment("d2", "p1", models.StatusFailure, 3*time.Minute),
			Deployment("d3", "p2", models.StatusFailure, 2*time.Minute),
		}))

		all, err := s.ListDeployments(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"d2", "d3", "d1"}, deploymentIDs(all))

		limited, err := s.ListDeployments(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"d2", "d3"}, deploymentIDs(limited))

		byProject, err := s.ListDeploymentsByProject(ctx, "p1", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"d2", "d1"}, deploymentIDs(byProject))
		assert.Equal(t, "main", byProject[0].Branch)
		assert.Equal(t, "github:push", byProject[0].Metadata["trigger"])

		failed, err := s.ListDeploymentsByStatus(ctx, models.StatusFailure, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"d2"}, deploymentIDs(failed))

		total, err := s.CountDeployments(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, total)

		n, err := s.CountDeploymentsByStatus(ctx, models.StatusFailure)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("deployment upsert replaces", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.UpsertProject(ctx, Project("p1", "docs", models.StatusBuilding)))
		d := Deployment("d1", "p1", models.StatusBuilding, 0)
		require.NoError(t, s.UpsertDeployment(ctx, d))

		d.Status = models.StatusSuccess
		require.NoError(t, s.UpsertDeployment(ctx, d))

		got, err := s.ListDeploymentsByProject(ctx, "p1", 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, models.StatusSuccess, got[0].Status)
	})

	t.Run("unknown project rejects whole batch", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.UpsertProject(ctx, Project("p1", "docs", models.StatusSuccess)))

		err := s.UpsertDeployments(ctx, []models.Deployment{
			Deployment("d1", "p1", models.StatusSuccess, 0),
			Deployment("d2", "ghost", models.StatusSuccess, 0),
		})
		require.Error(t, err)

		n, err := s.CountDeployments(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("empty batches", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.UpsertProjects(ctx, nil))
		require.NoError(t, s.UpsertDeployments(ctx, nil))

		all, err := s.ListDeployments(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Ping(context.Background()))
	})
}

func deploymentIDs(deployments []models.Deployment) []string {
	ids := make([]string, 0, len(deployments))
	for _, d := range deployments {
		ids = append(ids, d.ID)
	}
	return ids
}
