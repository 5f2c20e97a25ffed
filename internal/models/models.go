// Package models defines the normalized records the monitor persists and serves.
package models

import (
	"time"
)

// DeploymentStatus is the normalized state of a deployment
type DeploymentStatus string

const (
	// StatusQueued means the deployment has not started building yet
	StatusQueued DeploymentStatus = "queued"
	// StatusBuilding means a pre-deploy stage (clone, build) is running
	StatusBuilding DeploymentStatus = "building"
	// StatusDeploying means the deploy stage is running
	StatusDeploying DeploymentStatus = "deploying"
	// StatusSuccess means the deployment finished successfully
	StatusSuccess DeploymentStatus = "success"
	// StatusFailure means a stage failed
	StatusFailure DeploymentStatus = "failure"
	// StatusCanceled means the deployment was canceled
	StatusCanceled DeploymentStatus = "canceled"
	// StatusSkipped means the deployment was skipped
	StatusSkipped DeploymentStatus = "skipped"
	// StatusUnknown is used when no status can be derived
	StatusUnknown DeploymentStatus = "unknown"
)

// AllStatuses lists every status in display order
var AllStatuses = []DeploymentStatus{
	StatusQueued,
	StatusBuilding,
	StatusDeploying,
	StatusSuccess,
	StatusFailure,
	StatusCanceled,
	StatusSkipped,
	StatusUnknown,
}

// ParseStatus converts s to a DeploymentStatus, reporting whether it is a known value
func ParseStatus(s string) (DeploymentStatus, bool) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return StatusUnknown, false
}

// IsTerminal reports whether the status can no longer change
func (s DeploymentStatus) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailure, StatusCanceled, StatusSkipped:
		return true
	default:
		return false
	}
}

// Project is a Cloudflare Pages project, the top-level monitored resource
type Project struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Subdomain        string           `json:"subdomain,omitempty"`
	Domains          []string         `json:"domains"`
	ProductionBranch string           `json:"productionBranch,omitempty"`
	Status           DeploymentStatus `json:"status"`
	CreatedAt        time.Time        `json:"createdAt"`
	ModifiedAt       *time.Time       `json:"modifiedAt,omitempty"`
	Metadata         map[string]any   `json:"metadata,omitempty"`
}

// Deployment is one deployment of a project
type Deployment struct {
	ID            string           `json:"id"`
	ProjectID     string           `json:"projectId"`
	ProjectName   string           `json:"projectName"`
	Environment   string           `json:"environment"`
	URL           string           `json:"url,omitempty"`
	Branch        string           `json:"branch,omitempty"`
	CommitHash    string           `json:"commitHash,omitempty"`
	CommitMessage string           `json:"commitMessage,omitempty"`
	Status        DeploymentStatus `json:"status"`
	CreatedAt     time.Time        `json:"createdAt"`
	ModifiedAt    *time.Time       `json:"modifiedAt,omitempty"`
	Metadata      map[string]any   `json:"metadata,omitempty"`
}

// Clone returns a deep copy of p
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	out := *p
	out.Domains = append([]string(nil), p.Domains...)
	out.ModifiedAt = cloneTime(p.ModifiedAt)
	out.Metadata = cloneMetadata(p.Metadata)
	return &out
}

// Clone returns a deep copy of d
func (d *Deployment) Clone() *Deployment {
	if d == nil {
		return nil
	}
	out := *d
	out.ModifiedAt = cloneTime(d.ModifiedAt)
	out.Metadata = cloneMetadata(d.Metadata)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// cloneMetadata copies the top level of m; nested values are shared
func cloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Summary aggregates record counts by status
type Summary struct {
	Projects            int                      `json:"projects"`
	Deployments         int                      `json:"deployments"`
	ProjectsByStatus    map[DeploymentStatus]int `json:"projectsByStatus"`
	DeploymentsByStatus map[DeploymentStatus]int `json:"deploymentsByStatus"`
}
