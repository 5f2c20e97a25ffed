package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/CrashBytes/cloudflare-monitor/internal/models"
	"github.com/CrashBytes/cloudflare-monitor/internal/otel"
	pkgsync "github.com/CrashBytes/cloudflare-monitor/internal/sync"
)

// poll executes one cycle. It never panics and never returns nil.
func (c *defaultCoordinator) poll(ctx context.Context) *PollResult {
	// Detach from the caller so Stop or a disconnecting client does not abort the cycle
	ctx = context.WithoutCancel(ctx)
	if c.cycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cycleTimeout)
		defer cancel()
	}

	ctx, span := otel.StartSpan(ctx, c.tracer, "coordinator.Poll")
	defer span.End()

	start := c.clock.Now()
	result := newPollResult(start)

	slog.Debug("Starting poll cycle")

	if err := c.syncAll(ctx, result); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Critical failure: %v", err))
		otel.RecordError(span, err)
		slog.Error("Poll cycle failed", "error", err)
	}

	duration := c.clock.Now().Sub(start)
	result.DurationMs = duration.Milliseconds()
	result.Success = len(result.Errors) == 0

	c.setLastResult(result)

	span.SetAttributes(
		attribute.Int("projects", result.ResourceCounts[ResourceProjects]),
		attribute.Int("deployments", result.ResourceCounts[ResourceDeployments]),
		otel.AttrErrorCount.Int(len(result.Errors)),
	)

	c.pollMetrics.RecordPollDuration(ctx, duration, result.Success)
	c.pollMetrics.RecordPollErrors(ctx, len(result.Errors))
	for resource, count := range result.ResourceCounts {
		c.pollMetrics.RecordRecordsSynced(ctx, resource, int64(count))
	}

	c.publish(TopicPoll, EventPollCompleted, result.Clone())

	slog.Info("Poll cycle completed",
		"success", result.Success,
		"projects", result.ResourceCounts[ResourceProjects],
		"deployments", result.ResourceCounts[ResourceDeployments],
		"error_count", len(result.Errors),
		"duration_ms", result.DurationMs)

	return result
}

// syncAll fetches and persists projects and deployments. Upstream failures are recorded on
// result; the returned error is reserved for failures that end the cycle.
func (c *defaultCoordinator) syncAll(ctx context.Context, result *PollResult) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	raw, fetchErr := c.client.ListProjects(ctx)
	if fetchErr != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to fetch projects: %v", fetchErr))
		slog.Warn("Failed to fetch projects", "error", fetchErr)
		raw = nil
	}
	if len(raw) == 0 {
		return nil
	}

	projects := make([]models.Project, 0, len(raw))
	for _, p := range raw {
		project := pkgsync.NormalizeProject(p)
		if ok, reason := c.projectFilter.Allows(project.Name); !ok {
			slog.Debug("Skipping project", "project", project.Name, "reason", reason)
			continue
		}
		projects = append(projects, project)
	}
	if len(projects) == 0 {
		return nil
	}

	if err := c.store.UpsertProjects(ctx, projects); err != nil {
		return fmt.Errorf("failed to persist projects: %w", err)
	}
	result.ResourceCounts[ResourceProjects] = len(projects)

	deployments, fetchErrs := c.fetchDeployments(ctx, projects)
	result.Errors = append(result.Errors, fetchErrs...)

	if len(deployments) > 0 {
		if err := c.store.UpsertDeployments(ctx, deployments); err != nil {
			return fmt.Errorf("failed to persist deployments: %w", err)
		}
	}
	result.ResourceCounts[ResourceDeployments] = len(deployments)

	c.detectChanges(projects, deployments, len(fetchErrs) == 0)
	return nil
}

// fetchDeployments reads the deployments of every project in parallel. A failing project
// contributes an error entry and no records; errors are returned in project order.
func (c *defaultCoordinator) fetchDeployments(
	ctx context.Context, projects []models.Project,
) ([]models.Deployment, []string) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "coordinator.fetchDeployments")
	defer span.End()

	perProject := make([][]models.Deployment, len(projects))
	failures := make([]error, len(projects))

	var g errgroup.Group
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}

	for i, project := range projects {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					failures[i] = fmt.Errorf("panic: %v", r)
				}
			}()

			raw, err := c.client.ListDeployments(ctx, project.Name)
			if err != nil {
				failures[i] = err
				return nil
			}
			deployments := make([]models.Deployment, 0, len(raw))
			for _, d := range raw {
				deployments = append(deployments, pkgsync.NormalizeDeployment(d, project))
			}
			perProject[i] = deployments
			return nil
		})
	}
	// goroutines record failures per project instead of returning them
	_ = g.Wait()

	var (
		all  []models.Deployment
		errs []string
	)
	for i, project := range projects {
		if failures[i] != nil {
			errs = append(errs, fmt.Sprintf("Failed to fetch deployments for project %s: %v", project.Name, failures[i]))
			slog.Warn("Failed to fetch deployments",
				"project", project.Name,
				"error", failures[i])
			continue
		}
		all = append(all, perProject[i]...)
	}

	span.SetAttributes(
		otel.AttrDeploymentCount.Int(len(all)),
		otel.AttrErrorCount.Int(len(errs)),
	)
	return all, errs
}
