// Package postgres provides a PostgreSQL-backed storage.Store on top of pgxpool.
// The schema is managed by the migrations of the database package.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/CrashBytes/cloudflare-monitor/internal/models"
	"github.com/CrashBytes/cloudflare-monitor/internal/otel"
	"github.com/CrashBytes/cloudflare-monitor/internal/storage"
)

// foreignKeyViolation is the SQLSTATE of a foreign key violation
const foreignKeyViolation = "23503"

const projectColumns = `id, name, subdomain, domains, production_branch, status, created_at, modified_at, metadata`

const deploymentColumns = `id, project_id, project_name, environment, url, branch, commit_hash,
	commit_message, status, created_at, modified_at, metadata`

const upsertProjectSQL = `
INSERT INTO projects (` + projectColumns + `, synced_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	subdomain = EXCLUDED.subdomain,
	domains = EXCLUDED.domains,
	production_branch = EXCLUDED.production_branch,
	status = EXCLUDED.status,
	created_at = EXCLUDED.created_at,
	modified_at = EXCLUDED.modified_at,
	metadata = EXCLUDED.metadata,
	synced_at = now()`

const upsertDeploymentSQL = `
INSERT INTO deployments (` + deploymentColumns + `, synced_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
ON CONFLICT (id) DO UPDATE SET
	project_id = EXCLUDED.project_id,
	project_name = EXCLUDED.project_name,
	environment = EXCLUDED.environment,
	url = EXCLUDED.url,
	branch = EXCLUDED.branch,
	commit_hash = EXCLUDED.commit_hash,
	commit_message = EXCLUDED.commit_message,
	status = EXCLUDED.status,
	created_at = EXCLUDED.created_at,
	modified_at = EXCLUDED.modified_at,
	metadata = EXCLUDED.metadata,
	synced_at = now()`

// options holds configuration options for the store
type options struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// Option is a functional option for configuring the store
type Option func(*options) error

// WithConnectionPool sets the pgx pool. The store takes ownership and closes it on Close.
func WithConnectionPool(pool *pgxpool.Pool) Option {
	return func(o *options) error {
		if pool == nil {
			return fmt.Errorf("pgx pool is required")
		}
		o.pool = pool
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		o.tracer = tracer
		return nil
	}
}

// Store implements storage.Store with PostgreSQL
type Store struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

var _ storage.Store = (*Store)(nil)

// New creates a store with the given options
func New(opts ...Option) (*Store, error) {
	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}

	return &Store{pool: o.pool, tracer: o.tracer}, nil
}

type projectRow struct {
	ID               string     `db:"id"`
	Name             string     `db:"name"`
	Subdomain        string     `db:"subdomain"`
	Domains          []string   `db:"domains"`
	ProductionBranch string     `db:"production_branch"`
	Status           string     `db:"status"`
	CreatedAt        time.Time  `db:"created_at"`
	ModifiedAt       *time.Time `db:"modified_at"`
	Metadata         []byte     `db:"metadata"`
}

type deploymentRow struct {
	ID            string     `db:"id"`
	ProjectID     string     `db:"project_id"`
	ProjectName   string     `db:"project_name"`
	Environment   string     `db:"environment"`
	URL           string     `db:"url"`
	Branch        string     `db:"branch"`
	CommitHash    string     `db:"commit_hash"`
	CommitMessage string     `db:"commit_message"`
	Status        string     `db:"status"`
	CreatedAt     time.Time  `db:"created_at"`
	ModifiedAt    *time.Time `db:"modified_at"`
	Metadata      []byte     `db:"metadata"`
}

// UpsertProject inserts or updates a project
func (s *Store) UpsertProject(ctx context.Context, project models.Project) error {
	return s.UpsertProjects(ctx, []models.Project{project})
}

// UpsertProjects inserts or updates the projects in one transaction
func (s *Store) UpsertProjects(ctx context.Context, projects []models.Project) (err error) {
	ctx, span := s.startSpan(ctx, "postgres.UpsertProjects",
		trace.WithAttributes(otel.AttrResultCount.Int(len(projects))))
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	if len(projects) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range projects {
		p := &projects[i]
		metadata, err := marshalMetadata(p.Metadata)
		if err != nil {
			return fmt.Errorf("project %s: %w", p.ID, err)
		}
		batch.Queue(upsertProjectSQL,
			p.ID, p.Name, p.Subdomain, nonNil(p.Domains), p.ProductionBranch,
			string(p.Status), p.CreatedAt, p.ModifiedAt, metadata)
	}

	return s.sendBatch(ctx, batch)
}

// ListProjects returns every project ordered by name
func (s *Store) ListProjects(ctx context.Context) (_ []models.Project, err error) {
	ctx, span := s.startSpan(ctx, "postgres.ListProjects")
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	return s.queryProjects(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY name, id`)
}

// GetProject returns one project or storage.ErrNotFound
func (s *Store) GetProject(ctx context.Context, id string) (_ *models.Project, err error) {
	ctx, span := s.startSpan(ctx, "postgres.GetProject",
		trace.WithAttributes(otel.AttrProjectID.String(id)))
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	rows, err := s.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query project: %w", err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[projectRow])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}

	p, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjectsByStatus returns the projects in status, ordered by name
func (s *Store) ListProjectsByStatus(ctx context.Context, status models.DeploymentStatus) (_ []models.Project, err error) {
	ctx, span := s.startSpan(ctx, "postgres.ListProjectsByStatus",
		trace.WithAttributes(otel.AttrStatus.String(string(status))))
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	return s.queryProjects(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE status = $1 ORDER BY name, id`, string(status))
}

// CountProjects returns the number of projects
func (s *Store) CountProjects(ctx context.Context) (int, error) {
	return s.count(ctx, "postgres.CountProjects", `SELECT count(*) FROM projects`)
}

// CountProjectsByStatus returns the number of projects in status
func (s *Store) CountProjectsByStatus(ctx context.Context, status models.DeploymentStatus) (int, error) {
	return s.count(ctx, "postgres.CountProjectsByStatus",
		`SELECT count(*) FROM projects WHERE status = $1`, string(status))
}

// UpsertDeployment inserts or updates a deployment
func (s *Store) UpsertDeployment(ctx context.Context, deployment models.Deployment) error {
	return s.UpsertDeployments(ctx, []models.Deployment{deployment})
}

// UpsertDeployments inserts or updates the deployments in one transaction. A deployment of
// an unknown project aborts the whole batch with storage.ErrUnknownProject.
func (s *Store) UpsertDeployments(ctx context.Context, deployments []models.Deployment) (err error) {
	ctx, span := s.startSpan(ctx, "postgres.UpsertDeployments",
		trace.WithAttributes(otel.AttrDeploymentCount.Int(len(deployments))))
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	if len(deployments) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range deployments {
		d := &deployments[i]
		metadata, err := marshalMetadata(d.Metadata)
		if err != nil {
			return fmt.Errorf("deployment %s: %w", d.ID, err)
		}
		batch.Queue(upsertDeploymentSQL,
			d.ID, d.ProjectID, d.ProjectName, d.Environment, d.URL, d.Branch, d.CommitHash,
			d.CommitMessage, string(d.Status), d.CreatedAt, d.ModifiedAt, metadata)
	}

	return s.sendBatch(ctx, batch)
}

// ListDeployments returns deployments newest first
func (s *Store) ListDeployments(ctx context.Context, limit int) (_ []models.Deployment, err error) {
	ctx, span := s.startSpan(ctx, "postgres.ListDeployments")
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	return s.queryDeployments(ctx,
		`SELECT `+deploymentColumns+` FROM deployments ORDER BY created_at DESC, id LIMIT $1`,
		limitArg(limit))
}

// ListDeploymentsByProject returns the deployments of a project, newest first
func (s *Store) ListDeploymentsByProject(
	ctx context.Context, projectID string, limit int,
) (_ []models.Deployment, err error) {
	ctx, span := s.startSpan(ctx, "postgres.ListDeploymentsByProject",
		trace.WithAttributes(otel.AttrProjectID.String(projectID)))
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	return s.queryDeployments(ctx,
		`SELECT `+deploymentColumns+` FROM deployments WHERE project_id = $1
		ORDER BY created_at DESC, id LIMIT $2`,
		projectID, limitArg(limit))
}

// ListDeploymentsByStatus returns the deployments in status, newest first
func (s *Store) ListDeploymentsByStatus(
	ctx context.Context, status models.DeploymentStatus, limit int,
) (_ []models.Deployment, err error) {
	ctx, span := s.startSpan(ctx, "postgres.ListDeploymentsByStatus",
		trace.WithAttributes(otel.AttrStatus.String(string(status))))
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	return s.queryDeployments(ctx,
		`SELECT `+deploymentColumns+` FROM deployments WHERE status = $1
		ORDER BY created_at DESC, id LIMIT $2`,
		string(status), limitArg(limit))
}

// CountDeployments returns the number of deployments
func (s *Store) CountDeployments(ctx context.Context) (int, error) {
	return s.count(ctx, "postgres.CountDeployments", `SELECT count(*) FROM deployments`)
}

// CountDeploymentsByStatus returns the number of deployments in status
func (s *Store) CountDeploymentsByStatus(ctx context.Context, status models.DeploymentStatus) (int, error) {
	return s.count(ctx, "postgres.CountDeploymentsByStatus",
		`SELECT count(*) FROM deployments WHERE status = $1`, string(status))
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Close closes the pool
func (s *Store) Close() {
	s.pool.Close()
}

// sendBatch runs batch inside a transaction
func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// no-op once committed
		_ = tx.Rollback(ctx)
	}()

	results := tx.SendBatch(ctx, batch)
	for range batch.Len() {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return translateError(err)
		}
	}
	if err := results.Close(); err != nil {
		return translateError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) queryProjects(ctx context.Context, sql string, args ...any) ([]models.Project, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[projectRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan projects: %w", err)
	}

	out := make([]models.Project, 0, len(records))
	for _, r := range records {
		p, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) queryDeployments(ctx context.Context, sql string, args ...any) ([]models.Deployment, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query deployments: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[deploymentRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan deployments: %w", err)
	}

	out := make([]models.Deployment, 0, len(records))
	for _, r := range records {
		d, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Store) count(ctx context.Context, name, sql string, args ...any) (n int, err error) {
	ctx, span := s.startSpan(ctx, name)
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	if err := s.pool.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return n, nil
}

func (r *projectRow) toModel() (models.Project, error) {
	metadata, err := unmarshalMetadata(r.Metadata)
	if err != nil {
		return models.Project{}, fmt.Errorf("project %s: %w", r.ID, err)
	}
	return models.Project{
		ID:               r.ID,
		Name:             r.Name,
		Subdomain:        r.Subdomain,
		Domains:          nonNil(r.Domains),
		ProductionBranch: r.ProductionBranch,
		Status:           models.DeploymentStatus(r.Status),
		CreatedAt:        r.CreatedAt,
		ModifiedAt:       r.ModifiedAt,
		Metadata:         metadata,
	}, nil
}

func (r *deploymentRow) toModel() (models.Deployment, error) {
	metadata, err := unmarshalMetadata(r.Metadata)
	if err != nil {
		return models.Deployment{}, fmt.Errorf("deployment %s: %w", r.ID, err)
	}
	return models.Deployment{
		ID:            r.ID,
		ProjectID:     r.ProjectID,
		ProjectName:   r.ProjectName,
		Environment:   r.Environment,
		URL:           r.URL,
		Branch:        r.Branch,
		CommitHash:    r.CommitHash,
		CommitMessage: r.CommitMessage,
		Status:        models.DeploymentStatus(r.Status),
		CreatedAt:     r.CreatedAt,
		ModifiedAt:    r.ModifiedAt,
		Metadata:      metadata,
	}, nil
}

// translateError maps foreign key violations onto storage.ErrUnknownProject
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return fmt.Errorf("%s: %w", pgErr.Detail, storage.ErrUnknownProject)
	}
	return fmt.Errorf("failed to execute batch: %w", err)
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return data, nil
}

func unmarshalMetadata(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return m, nil
}

// limitArg returns nil for "no limit"; LIMIT NULL is unbounded in PostgreSQL
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
