package redisstream

import (
	"context"
	"testing"
	"time"
	"workcore/pkg/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPublisher(t *testing.T, maxLen int64) (*Publisher, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	pub, err := New(NewClient(Config{Addr: mr.Addr()}), "", maxLen)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close() })
	return pub, mr
}

func entry(id, action string) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		ID:        id,
		ActorID:   "u1",
		Action:    action,
		Entity:    domain.EntityTask,
		ProjectID: "p1",
		CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		Metadata:  map[string]string{"from": "todo", "to": "completed"},
	}
}

func TestPublishAppendsOneMessagePerEntry(t *testing.T) {
	pub, mr := setupPublisher(t, 0)
	ctx := context.Background()

	require.NoError(t, pub.Publish(ctx, []domain.AuditLogEntry{
		entry("a1", "task.created"),
		entry("a2", "task.status_updated"),
	}))
	require.NoError(t, pub.Publish(ctx, nil))

	stream, err := mr.Stream(DefaultStream)
	require.NoError(t, err)
	require.Len(t, stream, 2)

	msgs, err := pub.Tail(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "a1", msgs[0].Entry.ID)
	assert.Equal(t, "task.status_updated", msgs[1].Entry.Action)
	assert.Equal(t, "completed", msgs[1].Entry.Metadata["to"])
	assert.Equal(t, entry("a2", "").CreatedAt, msgs[1].Entry.CreatedAt)
}

func TestTailReturnsNewestWindow(t *testing.T) {
	pub, _ := setupPublisher(t, 0)
	ctx := context.Background()
	for _, id := range []string{"a1", "a2", "a3"} {
		require.NoError(t, pub.Publish(ctx, []domain.AuditLogEntry{entry(id, "project.updated")}))
	}
	msgs, err := pub.Tail(ctx, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "a2", msgs[0].Entry.ID)
	assert.Equal(t, "a3", msgs[1].Entry.ID)
}

func TestPublishReportsUnreachableServer(t *testing.T) {
	pub, mr := setupPublisher(t, 0)
	mr.Close()
	err := pub.Publish(context.Background(), []domain.AuditLogEntry{entry("a1", "task.created")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), DefaultStream)
	assert.Error(t, pub.Ping(context.Background(), 50*time.Millisecond))
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(nil, "s", 0)
	assert.Error(t, err)
}
