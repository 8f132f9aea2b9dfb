package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"workcore/internal/core"
	"workcore/internal/identity"
	"workcore/internal/infra/persistence/memory"
	"workcore/pkg/domain"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *errorBody      `json:"error"`
}

type apiFixture struct {
	t      *testing.T
	router *gin.Engine
	tokens *identity.Tokens
}

func newAPI(t *testing.T, mutate func(*Deps)) *apiFixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics, err := core.NewPrometheusMetricsRecorder(reg)
	require.NoError(t, err)
	svc, err := core.NewService(memory.NewStore(core.NewDefaultRulesEngine()), core.WithMetricsRecorder(metrics))
	require.NoError(t, err)
	tokens, err := identity.NewTokens("test-secret", "workcore", time.Hour)
	require.NoError(t, err)
	deps := Deps{Service: svc, Tokens: tokens, Gatherer: reg}
	if mutate != nil {
		mutate(&deps)
	}
	router, err := NewRouter(deps)
	require.NoError(t, err)
	return &apiFixture{t: t, router: router, tokens: tokens}
}

func (f *apiFixture) do(user, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	f.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		token, err := f.tokens.Issue(domain.Principal{ID: user, Role: domain.SystemRoleUser})
		require.NoError(f.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (f *apiFixture) create(user, path string, body any) domain.Created {
	f.t.Helper()
	rec, env := f.do(user, http.MethodPost, path, body)
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	var created domain.Created
	require.NoError(f.t, json.Unmarshal(env.Data, &created))
	return created
}

func TestNewRouterRequiresDependencies(t *testing.T) {
	_, err := NewRouter(Deps{})
	assert.Error(t, err)
}

func TestAPIRequiresBearerToken(t *testing.T) {
	f := newAPI(t, nil)
	rec, env := f.do("", http.MethodGet, "/api/v1/projects", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "unauthenticated", env.Error.Kind)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIProjectLifecycle(t *testing.T) {
	f := newAPI(t, nil)
	project := f.create("alice", "/api/v1/projects", map[string]any{"title": "Launch"})
	assert.True(t, strings.HasPrefix(project.PublicID, "prj_"))

	rec, env := f.do("alice", http.MethodGet, "/api/v1/projects/"+project.PublicID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Project
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, project.ID, got.ID)
	assert.Equal(t, domain.ProjectStatusActive, got.Status)

	rec, env = f.do("alice", http.MethodPatch, "/api/v1/projects/"+project.ID, map[string]any{"title": "Launch v2"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Launch v2", got.Title)

	rec, env = f.do("alice", http.MethodPut, "/api/v1/projects/"+project.ID+"/progress", map[string]any{"completed_tasks": 1, "total_tasks": 4})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 25, got.Progress.Percentage)

	rec, env = f.do("alice", http.MethodPost, "/api/v1/projects/"+project.ID+"/progress/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 0, got.Progress.TotalTasks)

	rec, _ = f.do("alice", http.MethodDelete, "/api/v1/projects/"+project.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, env = f.do("alice", http.MethodGet, "/api/v1/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page domain.Page[domain.Project]
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Zero(t, page.Total)

	rec, _ = f.do("alice", http.MethodPost, "/api/v1/projects/"+project.ID+"/restore", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = f.do("alice", http.MethodGet, "/api/v1/projects?summary=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries domain.Page[domain.ProjectSummary]
	require.NoError(t, json.Unmarshal(env.Data, &summaries))
	require.Len(t, summaries.Items, 1)
	assert.Equal(t, domain.RoleOwner, summaries.Items[0].ViewerRole)

	rec, env = f.do("alice", http.MethodGet, "/api/v1/projects/"+project.ID+"/audit?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var audit domain.Page[domain.AuditLogEntry]
	require.NoError(t, json.Unmarshal(env.Data, &audit))
	assert.Equal(t, "project.restored", audit.Items[0].Action)
}

func TestAPIBulkDeleteReportsPerItemOutcome(t *testing.T) {
	f := newAPI(t, nil)
	project := f.create("alice", "/api/v1/projects", map[string]any{"title": "Ops"})
	t1 := f.create("alice", "/api/v1/projects/"+project.ID+"/tasks", map[string]any{"title": "one"})
	t2 := f.create("alice", "/api/v1/projects/"+project.ID+"/tasks", map[string]any{"title": "two"})

	rec, env := f.do("alice", http.MethodPost, "/api/v1/tasks/bulk/delete", map[string]any{
		"ids": []string{t1.ID, t2.PublicID, "tsk_missing"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res bulkResponse[string]
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 2, res.SucceededCount)
	assert.Equal(t, 1, res.FailedCount)
	assert.Equal(t, []domain.BulkFailure{{ID: "tsk_missing", Reason: "Not found"}}, res.Failed)

	rec, env = f.do("alice", http.MethodGet, "/api/v1/projects/"+project.ID+"/tasks?include_deleted=true&filter[status]=todo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page domain.Page[domain.Task]
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 2, page.Total)
}

func TestAPIMapsErrorKindsToStatus(t *testing.T) {
	f := newAPI(t, nil)
	project := f.create("alice", "/api/v1/projects", map[string]any{"title": "Private"})

	rec, env := f.do("mallory", http.MethodGet, "/api/v1/projects/"+project.ID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "permission_denied", env.Error.Kind)

	rec, env = f.do("alice", http.MethodGet, "/api/v1/tasks/tsk_nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error.Kind)

	rec, env = f.do("alice", http.MethodPost, "/api/v1/projects", map[string]any{"title": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "validation_failed", env.Error.Kind)
	assert.NotEmpty(t, env.Error.Violations)

	rec, env = f.do("alice", http.MethodPost, "/api/v1/projects/"+project.ID+"/members", map[string]any{"user_id": "bob", "role": "member"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, env = f.do("alice", http.MethodPost, "/api/v1/projects/"+project.ID+"/members", map[string]any{"user_id": "bob", "role": "viewer"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", env.Error.Kind)

	rec, _ = f.do("alice", http.MethodGet, "/api/v1/projects?limit=ten", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", strings.NewReader("{"))
	token, err := f.tokens.Issue(domain.Principal{ID: "alice"})
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIMilestoneDeliverables(t *testing.T) {
	f := newAPI(t, nil)
	project := f.create("alice", "/api/v1/projects", map[string]any{"title": "Roadmap"})
	ms := f.create("alice", "/api/v1/projects/"+project.ID+"/milestones", map[string]any{
		"title":        "Beta",
		"deliverables": []map[string]any{{"title": "docs"}, {"title": "demo"}},
	})

	rec, env := f.do("alice", http.MethodPut, "/api/v1/milestones/"+ms.ID+"/deliverables/1", map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got domain.Milestone
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 50, got.Progress)

	rec, _ = f.do("alice", http.MethodPut, "/api/v1/milestones/"+ms.ID+"/deliverables/x", map[string]any{"completed": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = f.do("alice", http.MethodPut, "/api/v1/milestones/"+ms.ID+"/status", map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 100, got.Progress)
}

func TestAPIMyTasks(t *testing.T) {
	f := newAPI(t, nil)
	project := f.create("alice", "/api/v1/projects", map[string]any{"title": "Home"})
	f.create("alice", "/api/v1/projects/"+project.ID+"/tasks", map[string]any{"title": "mine", "assignee_id": "alice"})
	f.create("alice", "/api/v1/projects/"+project.ID+"/tasks", map[string]any{"title": "theirs", "assignee_id": "bob"})

	rec, env := f.do("alice", http.MethodGet, "/api/v1/me/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page domain.Page[domain.Task]
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "mine", page.Items[0].Title)
}

func TestAPIRateLimitsPerPrincipal(t *testing.T) {
	f := newAPI(t, func(d *Deps) {
		d.RateLimit = 0.001
		d.RateBurst = 2
	})
	for i := 0; i < 2; i++ {
		rec, _ := f.do("alice", http.MethodGet, "/api/v1/projects", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, env := f.do("alice", http.MethodGet, "/api/v1/projects", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", env.Error.Kind)

	rec, _ = f.do("bob", http.MethodGet, "/api/v1/projects", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "buckets are per principal")
}

func TestHealthReadinessAndMetrics(t *testing.T) {
	ready := false
	f := newAPI(t, func(d *Deps) {
		d.Ready = func(ctx context.Context) error {
			if !ready {
				return errors.New("store offline")
			}
			return nil
		}
	})
	rec, _ := f.do("", http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do("", http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	ready = true
	rec, _ = f.do("", http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	f.create("alice", "/api/v1/projects", map[string]any{"title": "Measured"})
	rec, _ = f.do("", http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `operation="create_project"`)
}
