package v1

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/CrashBytes/cloudflare-monitor/internal/cache"
	"github.com/CrashBytes/cloudflare-monitor/internal/events"
	"github.com/CrashBytes/cloudflare-monitor/internal/models"
	"github.com/CrashBytes/cloudflare-monitor/internal/service"
	"github.com/CrashBytes/cloudflare-monitor/internal/service/mocks"
	"github.com/CrashBytes/cloudflare-monitor/internal/status"
	"github.com/CrashBytes/cloudflare-monitor/internal/sync/coordinator"
)

type fakeCoordinator struct {
	result    *coordinator.PollResult
	status    coordinator.Status
	triggered atomic.Int32
}

func (*fakeCoordinator) Start(context.Context) error { return nil }
func (*fakeCoordinator) Stop() error                 { return nil }

func (f *fakeCoordinator) Poll(context.Context) *coordinator.PollResult {
	return f.result
}

func (f *fakeCoordinator) TriggerImmediatePoll(ctx context.Context) *coordinator.PollResult {
	f.triggered.Add(1)
	return f.Poll(ctx)
}

func (f *fakeCoordinator) Status() coordinator.Status {
	return f.status
}

type testRouter struct {
	handler http.Handler
	svc     *mocks.MockMonitorService
	coord   *fakeCoordinator
	hub     *events.Hub
}

func newTestRouter(t *testing.T, hubOpts ...events.Option) *testRouter {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockMonitorService(ctrl)
	coord := &fakeCoordinator{}
	hub := events.NewHub(hubOpts...)
	t.Cleanup(hub.Stop)

	return &testRouter{
		handler: Router(svc, coord, hub, 5*time.Second),
		svc:     svc,
		coord:   coord,
		hub:     hub,
	}
}

func (tr *testRouter) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	tr.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestListProjects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		target     string
		filter     service.ProjectFilter
		projects   []models.Project
		err        error
		wantStatus int
		wantCount  int
	}{
		{
			name:       "all projects",
			target:     "/projects",
			projects:   []models.Project{{ID: "p1", Name: "blog"}, {ID: "p2", Name: "docs"}},
			wantStatus: http.StatusOK,
			wantCount:  2,
		},
		{
			name:       "status filter",
			target:     "/projects?status=failure",
			filter:     service.ProjectFilter{Status: models.StatusFailure},
			projects:   []models.Project{{ID: "p2", Name: "docs", Status: models.StatusFailure}},
			wantStatus: http.StatusOK,
			wantCount:  1,
		},
		{
			name:       "invalid status",
			target:     "/projects?status=bogus",
			filter:     service.ProjectFilter{Status: "bogus"},
			err:        errors.Join(service.ErrInvalidFilter, errors.New("unknown status bogus")),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "store failure",
			target:     "/projects",
			err:        errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tr := newTestRouter(t)
			tr.svc.EXPECT().ListProjects(gomock.Any(), tt.filter).Return(tt.projects, tt.err)

			rec := tr.do(t, http.MethodGet, tt.target)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				body := decode[map[string]string](t, rec)
				assert.NotEmpty(t, body["error"])
				// internal details stay in the logs
				assert.NotContains(t, body["error"], "connection refused")
				return
			}
			body := decode[ProjectListResponse](t, rec)
			assert.Equal(t, tt.wantCount, body.Count)
			assert.Len(t, body.Projects, tt.wantCount)
		})
	}
}

func TestGetProject(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)
		tr.svc.EXPECT().GetProject(gomock.Any(), "p1").
			Return(&models.Project{ID: "p1", Name: "docs", Status: models.StatusSuccess}, nil)

		rec := tr.do(t, http.MethodGet, "/projects/p1")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		p := decode[models.Project](t, rec)
		assert.Equal(t, "docs", p.Name)
		assert.Equal(t, models.StatusSuccess, p.Status)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)
		tr.svc.EXPECT().GetProject(gomock.Any(), "ghost").Return(nil, service.ErrProjectNotFound)

		rec := tr.do(t, http.MethodGet, "/projects/ghost")

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Project not found", decode[map[string]string](t, rec)["error"])
	})

	t.Run("escaped id", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)
		tr.svc.EXPECT().GetProject(gomock.Any(), "a/b").Return(&models.Project{ID: "a/b"}, nil)

		rec := tr.do(t, http.MethodGet, "/projects/a%2Fb")

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("blank id", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodGet, "/projects/%20")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListProjectDeployments(t *testing.T) {
	t.Parallel()

	t.Run("filters by project", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)
		tr.svc.EXPECT().GetProject(gomock.Any(), "p1").Return(&models.Project{ID: "p1"}, nil)
		tr.svc.EXPECT().ListDeployments(gomock.Any(), service.DeploymentFilter{
			ProjectID: "p1",
			Status:    models.StatusSuccess,
			Limit:     10,
		}).Return([]models.Deployment{{ID: "d1", ProjectID: "p1"}}, nil)

		rec := tr.do(t, http.MethodGet, "/projects/p1/deployments?status=success&limit=10")

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode[DeploymentListResponse](t, rec)
		assert.Equal(t, 1, body.Count)
		assert.Equal(t, "d1", body.Deployments[0].ID)
	})

	t.Run("unknown project", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)
		tr.svc.EXPECT().GetProject(gomock.Any(), "ghost").Return(nil, service.ErrProjectNotFound)

		rec := tr.do(t, http.MethodGet, "/projects/ghost/deployments")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad limit", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)
		tr.svc.EXPECT().GetProject(gomock.Any(), "p1").Return(&models.Project{ID: "p1"}, nil)

		rec := tr.do(t, http.MethodGet, "/projects/p1/deployments?limit=-1")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListDeployments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		target     string
		filter     *service.DeploymentFilter
		err        error
		wantStatus int
	}{
		{
			name:       "defaults",
			target:     "/deployments",
			filter:     &service.DeploymentFilter{},
			wantStatus: http.StatusOK,
		},
		{
			name:       "all filters",
			target:     "/deployments?projectId=p1&status=failure&limit=5",
			filter:     &service.DeploymentFilter{ProjectID: "p1", Status: models.StatusFailure, Limit: 5},
			wantStatus: http.StatusOK,
		},
		{
			name:       "non numeric limit",
			target:     "/deployments?limit=ten",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid status",
			target:     "/deployments?status=bogus",
			filter:     &service.DeploymentFilter{Status: "bogus"},
			err:        errors.Join(service.ErrInvalidFilter, errors.New("unknown status bogus")),
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tr := newTestRouter(t)
			if tt.filter != nil {
				tr.svc.EXPECT().ListDeployments(gomock.Any(), *tt.filter).Return([]models.Deployment{}, tt.err)
			}

			rec := tr.do(t, http.MethodGet, tt.target)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusOK {
				body := decode[DeploymentListResponse](t, rec)
				assert.Equal(t, 0, body.Count)
				assert.NotNil(t, body.Deployments)
			}
		})
	}
}

func TestGetSummary(t *testing.T) {
	t.Parallel()

	tr := newTestRouter(t)
	tr.svc.EXPECT().Summary(gomock.Any()).Return(&models.Summary{
		Projects:            2,
		Deployments:         3,
		ProjectsByStatus:    map[models.DeploymentStatus]int{models.StatusSuccess: 2},
		DeploymentsByStatus: map[models.DeploymentStatus]int{models.StatusFailure: 3},
	}, nil)

	rec := tr.do(t, http.MethodGet, "/summary")

	require.Equal(t, http.StatusOK, rec.Code)
	s := decode[models.Summary](t, rec)
	assert.Equal(t, 2, s.Projects)
	assert.Equal(t, 3, s.DeploymentsByStatus[models.StatusFailure])
}

func TestTriggerPoll(t *testing.T) {
	t.Parallel()

	tr := newTestRouter(t)
	tr.coord.result = &coordinator.PollResult{
		Success:        true,
		ResourceCounts: map[string]int{coordinator.ResourceProjects: 2, coordinator.ResourceDeployments: 7},
		Errors:         []string{},
	}

	rec := tr.do(t, http.MethodPost, "/poll")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), tr.coord.triggered.Load())
	result := decode[coordinator.PollResult](t, rec)
	assert.True(t, result.Success)
	assert.Equal(t, 7, result.ResourceCounts[coordinator.ResourceDeployments])

	// GET is not routed
	assert.Equal(t, http.StatusMethodNotAllowed, tr.do(t, http.MethodGet, "/poll").Code)
}

func TestGetPollStatus(t *testing.T) {
	t.Parallel()

	tr := newTestRouter(t)
	tr.coord.status = coordinator.Status{
		IsRunning:  true,
		LastResult: &coordinator.PollResult{Success: false, Errors: []string{"Failed to fetch deployments for project docs: boom"}},
	}

	rec := tr.do(t, http.MethodGet, "/poll/status")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["isRunning"])
	assert.Equal(t, string(status.HealthDegraded), body["health"])
	assert.NotNil(t, body["lastResult"])
}

func TestGetStats(t *testing.T) {
	t.Parallel()

	tr := newTestRouter(t, events.WithMaxConnections(10))
	tr.svc.EXPECT().CacheStats().Return(map[string]cache.Stats{
		"projects": {Size: 1, MaxSize: 100, Hits: 3, Misses: 1},
	})
	_, err := tr.hub.Subscribe([]string{"projects"})
	require.NoError(t, err)

	rec := tr.do(t, http.MethodGet, "/stats")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[StatsResponse](t, rec)
	assert.Equal(t, uint64(3), body.Cache["projects"].Hits)
	assert.Equal(t, 1, body.Events.TotalConnections)
	assert.Equal(t, 10, body.Events.MaxConnections)
	assert.Equal(t, 1, body.Events.TopicDistribution["projects"])
}

type sseFrame struct {
	event string
	data  string
}

func readFrame(t *testing.T, r *bufio.Reader) sseFrame {
	t.Helper()
	var f sseFrame
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			return f
		case strings.HasPrefix(line, "event: "):
			f.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			f.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func newStreamServer(t *testing.T, tr *testRouter) *httptest.Server {
	t.Helper()
	srv := httptest.NewUnstartedServer(tr.handler)
	srv.Config.SetKeepAlivesEnabled(false)
	srv.Start()
	t.Cleanup(srv.Close)
	return srv
}

func TestStreamEvents(t *testing.T) {
	t.Parallel()

	tr := newTestRouter(t)
	srv := newStreamServer(t, tr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?topics=projects", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	r := bufio.NewReader(resp.Body)

	connected := readFrame(t, r)
	assert.Equal(t, events.EventConnected, connected.event)
	var envelope events.Message
	require.NoError(t, json.Unmarshal([]byte(connected.data), &envelope))
	assert.Equal(t, events.EventConnected, envelope.Event)
	assert.NotEmpty(t, envelope.Timestamp)

	// other topics are filtered out, so the next frame is the project update
	tr.hub.Broadcast("deployments", "deployment.created", map[string]string{"id": "d1"})
	require.Equal(t, 1, tr.hub.Broadcast("projects", "project.updated", map[string]string{"id": "p1"}))

	update := readFrame(t, r)
	assert.Equal(t, "project.updated", update.event)
	assert.Contains(t, update.data, `"id":"p1"`)

	// closing the client unsubscribes
	cancel()
	require.Eventually(t, func() bool { return tr.hub.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestStreamEvents_HubStopClosesStream(t *testing.T) {
	t.Parallel()

	tr := newTestRouter(t)
	srv := newStreamServer(t, tr)

	resp, err := srv.Client().Get(srv.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	r := bufio.NewReader(resp.Body)
	assert.Equal(t, events.EventConnected, readFrame(t, r).event)

	tr.hub.Stop()

	_, err = r.ReadString('\n')
	assert.Error(t, err)
}

func TestStreamEvents_Rejected(t *testing.T) {
	t.Parallel()

	t.Run("capacity", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t, events.WithMaxConnections(1))
		_, err := tr.hub.Subscribe(nil)
		require.NoError(t, err)

		rec := tr.do(t, http.MethodGet, "/events")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	})

	t.Run("stopped", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)
		tr.hub.Stop()

		rec := tr.do(t, http.MethodGet, "/events")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
