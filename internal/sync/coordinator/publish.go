package coordinator

import (
	"github.com/CrashBytes/cloudflare-monitor/internal/models"
	pkgsync "github.com/CrashBytes/cloudflare-monitor/internal/sync"
)

// Topics the coordinator publishes on
const (
	TopicProjects    = "projects"
	TopicDeployments = "deployments"
	TopicPoll        = "poll"
)

// Events the coordinator publishes
const (
	EventProjectUpdated    = "project.updated"
	EventDeploymentCreated = "deployment.created"
	EventDeploymentUpdated = "deployment.updated"
	EventPollCompleted     = "poll.completed"
)

// Publisher receives change events. events.Hub implements it.
type Publisher interface {
	Broadcast(topic, event string, data any) int
}

// ProjectEvent is the payload of project.updated
type ProjectEvent struct {
	Change         pkgsync.ChangeKind      `json:"change"`
	Project        models.Project          `json:"project"`
	PreviousStatus models.DeploymentStatus `json:"previousStatus,omitempty"`
}

// DeploymentEvent is the payload of deployment.created and deployment.updated
type DeploymentEvent struct {
	Deployment     models.Deployment       `json:"deployment"`
	PreviousStatus models.DeploymentStatus `json:"previousStatus,omitempty"`
}

func (c *defaultCoordinator) publish(topic, event string, data any) {
	if c.publisher == nil {
		return
	}
	c.publisher.Broadcast(topic, event, data)
}

// detectChanges publishes an event per new or changed record. Cycles only record
// fingerprints until one completes without fetch errors, so records missed by a partial
// first cycle are not reported as created later.
func (c *defaultCoordinator) detectChanges(projects []models.Project, deployments []models.Deployment, complete bool) {
	if c.detector == nil {
		return
	}

	projectChanges := c.detector.DetectProjects(projects)
	deploymentChanges := c.detector.DetectDeployments(deployments)

	c.mu.Lock()
	baseline := !c.baselined
	if complete {
		c.baselined = true
	}
	c.mu.Unlock()

	if baseline {
		return
	}

	for _, ch := range projectChanges {
		c.publish(TopicProjects, EventProjectUpdated, ProjectEvent{
			Change:         ch.Kind,
			Project:        ch.Project,
			PreviousStatus: ch.PreviousStatus,
		})
	}
	for _, ch := range deploymentChanges {
		event := EventDeploymentUpdated
		if ch.Kind == pkgsync.ChangeCreated {
			event = EventDeploymentCreated
		}
		c.publish(TopicDeployments, event, DeploymentEvent{
			Deployment:     ch.Deployment,
			PreviousStatus: ch.PreviousStatus,
		})
	}
}
