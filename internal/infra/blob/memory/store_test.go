package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"workcore/internal/blob/core"
)

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	if s.Driver() != core.DriverMemory {
		t.Fatalf("unexpected driver %s", s.Driver())
	}
	info, err := s.Put(ctx, "audit/a.jsonl", strings.NewReader("hello"), core.PutOptions{ContentType: "application/x-ndjson", Metadata: map[string]string{"k": "v"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 5 || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := s.Put(ctx, "audit/a.jsonl", strings.NewReader("again"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	_, rc, err := s.Get(ctx, "audit/a.jsonl")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "hello" {
		t.Fatalf("unexpected body %q", body)
	}
	head, err := s.Head(ctx, "audit/a.jsonl")
	if err != nil || head.Metadata["k"] != "v" {
		t.Fatalf("head: %+v %v", head, err)
	}
	head.Metadata["k"] = "mutated"
	again, _ := s.Head(ctx, "audit/a.jsonl")
	if again.Metadata["k"] != "v" {
		t.Fatalf("metadata aliased")
	}

	if _, err := s.Put(ctx, "other/b", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put b: %v", err)
	}
	list, _ := s.List(ctx, "audit/")
	if len(list) != 1 || list[0].Key != "audit/a.jsonl" {
		t.Fatalf("unexpected list %+v", list)
	}
	if ok, _ := s.Delete(ctx, "audit/a.jsonl"); !ok {
		t.Fatalf("expected delete to report existing key")
	}
	if ok, _ := s.Delete(ctx, "audit/a.jsonl"); ok {
		t.Fatalf("second delete should report missing key")
	}
	if _, err := s.Head(ctx, "audit/a.jsonl"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := s.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutRejectsBadKeys(t *testing.T) {
	if _, err := New().Put(context.Background(), "../x", strings.NewReader(""), core.PutOptions{}); err == nil {
		t.Fatalf("expected key validation error")
	}
}
