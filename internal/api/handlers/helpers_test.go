package handlers_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-attend/internal/api"
	"github.com/hugh/go-attend/internal/attendance"
	"github.com/hugh/go-attend/internal/auth"
	"github.com/hugh/go-attend/internal/identity"
	"github.com/hugh/go-attend/internal/reports"
	"github.com/hugh/go-attend/internal/tasks"
	"github.com/hugh/go-attend/internal/testutil"
	"github.com/hugh/go-attend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

var fixedNow = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

type recordingEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (e *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: tasks.QueueLow, Type: task.Type()}, nil
}

type testServer struct {
	*testutil.TestSetup
	Router   *api.Router
	Enqueuer *recordingEnqueuer
	Registry *prometheus.Registry
}

type serverOption func(*api.RouterConfig)

func withoutEnqueuer() serverOption {
	return func(c *api.RouterConfig) { c.Enqueuer = nil }
}

func withRateLimit(reqs int) serverOption {
	return func(c *api.RouterConfig) {
		c.RateLimitReqs = reqs
		c.RateLimitSecs = 60
	}
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	tc := testutil.NewTestContext(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	att := attendance.NewService(
		attendance.NewRepository(tc.DB),
		attendance.Policy{Location: time.UTC},
		logger,
		attendance.WithClock(func() time.Time { return fixedNow }),
		attendance.WithRecorder(m),
	)
	enq := &recordingEnqueuer{}

	cfg := api.RouterConfig{
		DB:          tc.DB,
		Logger:      logger,
		JWTService:  tc.JWTService,
		AuthService: auth.NewService(tc.DB, tc.JWTService),
		Attendance:  att,
		Identity:    identity.NewService(tc.DB, logger),
		Reports:     reports.NewService(tc.DB, att, logger, reports.WithClock(func() time.Time { return fixedNow })),
		Enqueuer:    enq,
		Metrics:     m,
		Gatherer:    reg,
		TokenExpiry: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	router := api.NewRouter(cfg)
	t.Cleanup(router.Stop)

	return &testServer{
		TestSetup: tc,
		Router:    router,
		Enqueuer:  enq,
		Registry:  reg,
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	return rr
}
