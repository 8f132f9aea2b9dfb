package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
	"workcore/internal/identity"
	"workcore/internal/ids"
	"workcore/internal/infra/persistence/memory"
	"workcore/pkg/domain"

	"github.com/stretchr/testify/require"
)

var (
	owner    = domain.Principal{ID: "u-owner", Role: domain.SystemRoleUser}
	member   = domain.Principal{ID: "u-member", Role: domain.SystemRoleUser}
	viewer   = domain.Principal{ID: "u-viewer", Role: domain.SystemRoleUser}
	outsider = domain.Principal{ID: "u-outsider", Role: domain.SystemRoleUser}
	guest    = domain.Principal{ID: "u-guest", Role: domain.SystemRoleGuest}
	sysadmin = domain.Principal{ID: "u-admin", Role: domain.SystemRoleAdmin}
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	t     *testing.T
	store *memory.Store
	svc   *Service
	clock *fakeClock
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	clock := &fakeClock{now: baseTime}
	store := memory.NewStore(NewDefaultRulesEngine())
	var mu sync.Mutex
	counter := 0
	gen := ids.Func(func(kind domain.EntityType) string {
		mu.Lock()
		defer mu.Unlock()
		counter++
		return fmt.Sprintf("%s%04d", ids.Prefix(kind), counter)
	})
	base := []Option{WithClock(clock), WithIDGenerator(gen)}
	svc, err := NewService(store, append(base, opts...)...)
	require.NoError(t, err)
	return &fixture{t: t, store: store, svc: svc, clock: clock}
}

func as(p domain.Principal) context.Context {
	return identity.WithPrincipal(context.Background(), p)
}

func (f *fixture) project(title string) domain.Created {
	f.t.Helper()
	created, err := f.svc.CreateProject(as(owner), domain.ProjectInput{Title: title})
	require.NoError(f.t, err)
	return created
}

func (f *fixture) join(projectID string, p domain.Principal, role domain.MemberRole) {
	f.t.Helper()
	_, err := f.svc.AddMember(as(owner), projectID, domain.MemberInput{UserID: p.ID, Role: role})
	require.NoError(f.t, err)
}

func (f *fixture) task(projectID, title string) domain.Created {
	f.t.Helper()
	created, err := f.svc.CreateTask(as(owner), domain.TaskInput{ProjectID: projectID, Title: title})
	require.NoError(f.t, err)
	return created
}

func (f *fixture) loadProject(id string) domain.Project {
	f.t.Helper()
	p, ok := f.store.ExportState().Projects[id]
	require.True(f.t, ok, "project %s missing", id)
	return p
}

func (f *fixture) auditActions() []string {
	var out []string
	for _, e := range f.store.ExportState().AuditLog {
		out = append(out, e.Action)
	}
	return out
}

func ptr[T any](v T) *T { return &v }
