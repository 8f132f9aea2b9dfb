package core

import "testing"

func TestCleanKey(t *testing.T) {
	for _, bad := range []string{"", "  ", "/abs", "../up", "a/../../b"} {
		if _, err := CleanKey(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
	got, err := CleanKey("audit//2024/./log.jsonl")
	if err != nil {
		t.Fatalf("CleanKey: %v", err)
	}
	if got != "audit/2024/log.jsonl" {
		t.Fatalf("unexpected clean key %q", got)
	}
}

func TestCloneMetadata(t *testing.T) {
	if CloneMetadata(nil) != nil {
		t.Fatalf("nil metadata should stay nil")
	}
	src := map[string]string{"a": "1"}
	dst := CloneMetadata(src)
	dst["a"] = "2"
	if src["a"] != "1" {
		t.Fatalf("clone aliases source")
	}
}
