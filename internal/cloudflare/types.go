package cloudflare

import (
	"encoding/json"
	"time"
)

// envelope is the response wrapper every Cloudflare v4 endpoint returns
type envelope struct {
	Success    bool            `json:"success"`
	Errors     []Message       `json:"errors"`
	Messages   []Message       `json:"messages"`
	Result     json.RawMessage `json:"result"`
	ResultInfo *ResultInfo     `json:"result_info,omitempty"`
}

// Message is an error or informational entry of the response envelope
type Message struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ResultInfo carries the pagination state of a list response
type ResultInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Count      int `json:"count"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// Project is a Pages project as returned by the API
type Project struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Subdomain        string      `json:"subdomain"`
	Domains          []string    `json:"domains"`
	ProductionBranch string      `json:"production_branch"`
	CreatedOn        time.Time   `json:"created_on"`
	LatestDeployment *Deployment `json:"latest_deployment,omitempty"`
	Source           *Source     `json:"source,omitempty"`
}

// Source describes the repository a project builds from
type Source struct {
	Type   string       `json:"type"`
	Config SourceConfig `json:"config"`
}

// SourceConfig holds the repository coordinates of a Source
type SourceConfig struct {
	Owner    string `json:"owner"`
	RepoName string `json:"repo_name"`
}

// Deployment is a Pages deployment as returned by the API
type Deployment struct {
	ID                string            `json:"id"`
	ShortID           string            `json:"short_id"`
	ProjectID         string            `json:"project_id"`
	ProjectName       string            `json:"project_name"`
	Environment       string            `json:"environment"`
	URL               string            `json:"url"`
	CreatedOn         time.Time         `json:"created_on"`
	ModifiedOn        *time.Time        `json:"modified_on,omitempty"`
	LatestStage       *Stage            `json:"latest_stage,omitempty"`
	DeploymentTrigger DeploymentTrigger `json:"deployment_trigger"`
	Aliases           []string          `json:"aliases,omitempty"`
	IsSkipped         bool              `json:"is_skipped"`
}

// Stage is one step of a deployment pipeline
type Stage struct {
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	StartedOn *time.Time `json:"started_on,omitempty"`
	EndedOn   *time.Time `json:"ended_on,omitempty"`
}

// DeploymentTrigger describes what started a deployment
type DeploymentTrigger struct {
	Type     string          `json:"type"`
	Metadata TriggerMetadata `json:"metadata"`
}

// TriggerMetadata holds the commit information of a trigger
type TriggerMetadata struct {
	Branch        string `json:"branch"`
	CommitHash    string `json:"commit_hash"`
	CommitMessage string `json:"commit_message"`
}
