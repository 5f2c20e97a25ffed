package sync

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	gosync "sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/CrashBytes/cloudflare-monitor/internal/models"
)

// DefaultDetectorSize bounds how many record fingerprints are remembered
const DefaultDetectorSize = 10000

// ChangeKind says whether a record is new or modified
type ChangeKind string

const (
	// ChangeCreated is reported for a record seen for the first time
	ChangeCreated ChangeKind = "created"
	// ChangeUpdated is reported for a known record whose content changed
	ChangeUpdated ChangeKind = "updated"
)

// ProjectChange describes a changed project
type ProjectChange struct {
	Kind           ChangeKind
	Project        models.Project
	PreviousStatus models.DeploymentStatus
}

// DeploymentChange describes a changed deployment
type DeploymentChange struct {
	Kind           ChangeKind
	Deployment     models.Deployment
	PreviousStatus models.DeploymentStatus
}

type fingerprint struct {
	hash   string
	status models.DeploymentStatus
}

// ChangeDetector compares records against the fingerprints of the previous observation.
// Fingerprints live in an LRU so a long-running monitor does not grow without bound; a record
// evicted from it is reported as created when it shows up again.
type ChangeDetector struct {
	mu   gosync.Mutex
	seen *simplelru.LRU[string, fingerprint]
}

// NewChangeDetector creates a detector remembering at most size records
func NewChangeDetector(size int) (*ChangeDetector, error) {
	if size < 1 {
		return nil, fmt.Errorf("detector size must be positive, got %d", size)
	}
	seen, err := simplelru.NewLRU[string, fingerprint](size, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create fingerprint store: %w", err)
	}
	return &ChangeDetector{seen: seen}, nil
}

// DetectProjects records the projects and returns those that are new or changed, in input order
func (d *ChangeDetector) DetectProjects(projects []models.Project) []ProjectChange {
	d.mu.Lock()
	defer d.mu.Unlock()

	var changes []ProjectChange
	for _, p := range projects {
		kind, prev, changed := d.observe("project:"+p.ID, p, p.Status)
		if changed {
			changes = append(changes, ProjectChange{Kind: kind, Project: p, PreviousStatus: prev})
		}
	}
	return changes
}

// DetectDeployments records the deployments and returns those that are new or changed, in input order
func (d *ChangeDetector) DetectDeployments(deployments []models.Deployment) []DeploymentChange {
	d.mu.Lock()
	defer d.mu.Unlock()

	var changes []DeploymentChange
	for _, dep := range deployments {
		kind, prev, changed := d.observe("deployment:"+dep.ID, dep, dep.Status)
		if changed {
			changes = append(changes, DeploymentChange{Kind: kind, Deployment: dep, PreviousStatus: prev})
		}
	}
	return changes
}

// Len returns the number of remembered records
func (d *ChangeDetector) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen.Len()
}

// Reset forgets every fingerprint
func (d *ChangeDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen.Purge()
}

func (d *ChangeDetector) observe(key string, record any, st models.DeploymentStatus) (ChangeKind, models.DeploymentStatus, bool) {
	current := fingerprint{hash: hashRecord(record), status: st}

	prev, ok := d.seen.Get(key)
	d.seen.Add(key, current)

	switch {
	case !ok:
		return ChangeCreated, "", true
	case prev.hash != current.hash:
		return ChangeUpdated, prev.status, true
	default:
		return "", "", false
	}
}

// hashRecord returns the SHA256 of the record's JSON form. Map keys are sorted by
// encoding/json, so equal records always hash the same.
func hashRecord(record any) string {
	data, err := json.Marshal(record)
	if err != nil {
		// metadata that cannot be encoded falls back to the Go syntax form
		data = fmt.Appendf(nil, "%#v", record)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
