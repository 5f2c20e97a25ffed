package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrashBytes/cloudflare-monitor/internal/cloudflare"
	"github.com/CrashBytes/cloudflare-monitor/internal/models"
)

func TestStageStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		stage *cloudflare.Stage
		want  models.DeploymentStatus
	}{
		{name: "no stage", stage: nil, want: models.StatusUnknown},
		{name: "idle", stage: &cloudflare.Stage{Name: "queued", Status: "idle"}, want: models.StatusQueued},
		{name: "active build", stage: &cloudflare.Stage{Name: "build", Status: "active"}, want: models.StatusBuilding},
		{name: "active deploy", stage: &cloudflare.Stage{Name: "deploy", Status: "active"}, want: models.StatusDeploying},
		{name: "success", stage: &cloudflare.Stage{Name: "deploy", Status: "success"}, want: models.StatusSuccess},
		{name: "failure", stage: &cloudflare.Stage{Name: "build", Status: "failure"}, want: models.StatusFailure},
		{name: "canceled", stage: &cloudflare.Stage{Name: "build", Status: "canceled"}, want: models.StatusCanceled},
		{name: "skipped", stage: &cloudflare.Stage{Name: "build", Status: "skipped"}, want: models.StatusSkipped},
		{name: "unrecognised", stage: &cloudflare.Stage{Name: "build", Status: "exploded"}, want: models.StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, StageStatus(tt.stage))
		})
	}
}

func TestNormalizeProject(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	modified := created.Add(time.Hour)

	t.Run("with latest deployment and source", func(t *testing.T) {
		t.Parallel()

		got := NormalizeProject(cloudflare.Project{
			ID:               "p1",
			Name:             "docs",
			Subdomain:        "docs.pages.dev",
			Domains:          []string{"docs.example.com"},
			ProductionBranch: "main",
			CreatedOn:        created,
			LatestDeployment: &cloudflare.Deployment{
				ID:          "d9",
				ModifiedOn:  &modified,
				LatestStage: &cloudflare.Stage{Name: "deploy", Status: "failure"},
			},
			Source: &cloudflare.Source{
				Type:   "github",
				Config: cloudflare.SourceConfig{Owner: "acme", RepoName: "docs"},
			},
		})

		assert.Equal(t, "p1", got.ID)
		assert.Equal(t, []string{"docs.example.com"}, got.Domains)
		assert.Equal(t, models.StatusFailure, got.Status)
		assert.Equal(t, created, got.CreatedAt)
		require.NotNil(t, got.ModifiedAt)
		assert.Equal(t, modified, *got.ModifiedAt)
		assert.Equal(t, "d9", got.Metadata["latestDeploymentId"])
		assert.Equal(t, "github", got.Metadata["sourceType"])
		assert.Equal(t, "acme/docs", got.Metadata["repository"])
	})

	t.Run("without deployments", func(t *testing.T) {
		t.Parallel()

		got := NormalizeProject(cloudflare.Project{ID: "p2", Name: "empty", CreatedOn: created})

		assert.Equal(t, models.StatusUnknown, got.Status)
		assert.Nil(t, got.ModifiedAt)
		assert.NotNil(t, got.Domains)
		assert.Empty(t, got.Metadata)
	})
}

func TestNormalizeDeployment(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ended := created.Add(2 * time.Minute)
	parent := models.Project{ID: "p1", Name: "docs"}

	t.Run("full record", func(t *testing.T) {
		t.Parallel()

		got := NormalizeDeployment(cloudflare.Deployment{
			ID:          "d1",
			ShortID:     "d1short",
			ProjectID:   "p1",
			ProjectName: "docs",
			Environment: "production",
			URL:         "https://d1short.docs.pages.dev",
			CreatedOn:   created,
			LatestStage: &cloudflare.Stage{Name: "deploy", Status: "success", EndedOn: &ended},
			DeploymentTrigger: cloudflare.DeploymentTrigger{
				Type: "github:push",
				Metadata: cloudflare.TriggerMetadata{
					Branch:        "main",
					CommitHash:    "abc123",
					CommitMessage: "fix typo",
				},
			},
			Aliases: []string{"https://main.docs.pages.dev"},
		}, parent)

		assert.Equal(t, models.StatusSuccess, got.Status)
		assert.Equal(t, "main", got.Branch)
		assert.Equal(t, "abc123", got.CommitHash)
		assert.Equal(t, "fix typo", got.CommitMessage)
		require.NotNil(t, got.ModifiedAt)
		assert.Equal(t, ended, *got.ModifiedAt)
		assert.Equal(t, "d1short", got.Metadata["shortId"])
		assert.Equal(t, "github:push", got.Metadata["trigger"])
		assert.Equal(t, "deploy", got.Metadata["stage"])
		assert.Equal(t, []string{"https://main.docs.pages.dev"}, got.Metadata["aliases"])
	})

	t.Run("parent fills missing references", func(t *testing.T) {
		t.Parallel()

		got := NormalizeDeployment(cloudflare.Deployment{ID: "d2", CreatedOn: created}, parent)

		assert.Equal(t, "p1", got.ProjectID)
		assert.Equal(t, "docs", got.ProjectName)
		assert.Equal(t, models.StatusUnknown, got.Status)
		assert.Nil(t, got.ModifiedAt)
	})

	t.Run("skipped flag wins over stage", func(t *testing.T) {
		t.Parallel()

		got := NormalizeDeployment(cloudflare.Deployment{
			ID:          "d3",
			IsSkipped:   true,
			LatestStage: &cloudflare.Stage{Name: "build", Status: "active"},
		}, parent)

		assert.Equal(t, models.StatusSkipped, got.Status)
	})
}
