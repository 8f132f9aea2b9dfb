package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestRules(t *testing.T) {
	cases := []struct {
		rule ImportRule
		path string
		want bool
	}{
		{InternalPackage, "workcore/internal/core", true},
		{InternalPackage, "workcore/pkg/domain", false},
		{ThirdParty, "github.com/gin-gonic/gin", true},
		{ThirdParty, "net/http", false},
		{Prefixed("workcore/internal/httpapi"), "workcore/internal/httpapi", true},
		{Prefixed("workcore/internal/http"), "workcore/internal/httpapi", false},
		{AnyOf(ThirdParty, InternalPackage), "workcore/internal/ids", true},
		{AnyOf(), "fmt", false},
	}
	for _, tc := range cases {
		if got := tc.rule(tc.path); got != tc.want {
			t.Fatalf("rule(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestForbiddenImportsSkipsTestsAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.go", "package x\n\nimport (\n\t\"workcore/internal/z\"\n\t\"fmt\"\n)\n")
	writeFile(t, dir, "a.go", "package x\n\nimport \"workcore/internal/a\"\n")
	writeFile(t, dir, "a_test.go", "package x\n\nimport \"workcore/internal/ignored\"\n")

	found, err := ForbiddenImports(dir, InternalPackage)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := []string{"workcore/internal/a (in a.go)", "workcore/internal/z (in b.go)"}
	if len(found) != len(want) {
		t.Fatalf("found %v, want %v", found, want)
	}
	for i := range want {
		if found[i] != want[i] {
			t.Fatalf("found %v, want %v", found, want)
		}
	}
}

func TestForbiddenImportsReportsParseErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.go", "package")
	if _, err := ForbiddenImports(dir, ThirdParty); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := ForbiddenImports(filepath.Join(dir, "missing"), ThirdParty); err == nil {
		t.Fatalf("expected read error")
	}
}
