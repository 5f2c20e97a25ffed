package sync

import (
	"time"

	"github.com/CrashBytes/cloudflare-monitor/internal/cloudflare"
	"github.com/CrashBytes/cloudflare-monitor/internal/models"
)

const deployStageName = "deploy"

// StageStatus maps a Cloudflare pipeline stage onto a DeploymentStatus
func StageStatus(stage *cloudflare.Stage) models.DeploymentStatus {
	if stage == nil {
		return models.StatusUnknown
	}

	switch stage.Status {
	case "idle":
		return models.StatusQueued
	case "active":
		if stage.Name == deployStageName {
			return models.StatusDeploying
		}
		return models.StatusBuilding
	case "success":
		return models.StatusSuccess
	case "failure":
		return models.StatusFailure
	case "canceled":
		return models.StatusCanceled
	case "skipped":
		return models.StatusSkipped
	default:
		return models.StatusUnknown
	}
}

// NormalizeProject converts an upstream project
func NormalizeProject(p cloudflare.Project) models.Project {
	out := models.Project{
		ID:               p.ID,
		Name:             p.Name,
		Subdomain:        p.Subdomain,
		Domains:          append([]string{}, p.Domains...),
		ProductionBranch: p.ProductionBranch,
		Status:           models.StatusUnknown,
		CreatedAt:        p.CreatedOn,
		Metadata:         map[string]any{},
	}

	if latest := p.LatestDeployment; latest != nil {
		out.Status = deploymentStatus(*latest)
		out.ModifiedAt = latestTime(latest)
		out.Metadata["latestDeploymentId"] = latest.ID
	}

	if p.Source != nil {
		out.Metadata["sourceType"] = p.Source.Type
		if p.Source.Config.Owner != "" {
			out.Metadata["repository"] = p.Source.Config.Owner + "/" + p.Source.Config.RepoName
		}
	}

	return out
}

// NormalizeDeployment converts an upstream deployment of parent. The parent fills in
// the project reference when the API leaves it empty.
func NormalizeDeployment(d cloudflare.Deployment, parent models.Project) models.Deployment {
	out := models.Deployment{
		ID:            d.ID,
		ProjectID:     d.ProjectID,
		ProjectName:   d.ProjectName,
		Environment:   d.Environment,
		URL:           d.URL,
		Branch:        d.DeploymentTrigger.Metadata.Branch,
		CommitHash:    d.DeploymentTrigger.Metadata.CommitHash,
		CommitMessage: d.DeploymentTrigger.Metadata.CommitMessage,
		Status:        deploymentStatus(d),
		CreatedAt:     d.CreatedOn,
		ModifiedAt:    latestTime(&d),
		Metadata:      map[string]any{},
	}
	if out.ProjectID == "" {
		out.ProjectID = parent.ID
	}
	if out.ProjectName == "" {
		out.ProjectName = parent.Name
	}

	if d.ShortID != "" {
		out.Metadata["shortId"] = d.ShortID
	}
	if d.DeploymentTrigger.Type != "" {
		out.Metadata["trigger"] = d.DeploymentTrigger.Type
	}
	if d.LatestStage != nil {
		out.Metadata["stage"] = d.LatestStage.Name
	}
	if len(d.Aliases) > 0 {
		out.Metadata["aliases"] = append([]string{}, d.Aliases...)
	}

	return out
}

func deploymentStatus(d cloudflare.Deployment) models.DeploymentStatus {
	if d.IsSkipped {
		return models.StatusSkipped
	}
	return StageStatus(d.LatestStage)
}

// latestTime prefers the API's modification time and falls back to the end of the latest stage
func latestTime(d *cloudflare.Deployment) *time.Time {
	if d.ModifiedOn != nil {
		t := *d.ModifiedOn
		return &t
	}
	if d.LatestStage != nil && d.LatestStage.EndedOn != nil {
		t := *d.LatestStage.EndedOn
		return &t
	}
	return nil
}
