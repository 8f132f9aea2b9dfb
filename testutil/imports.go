// Package testutil holds helpers that keep package layering honest in tests.
package testutil

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
)

// ImportRule reports whether an import path is forbidden.
type ImportRule func(path string) bool

// InternalPackage matches any path with an internal/ segment.
func InternalPackage(path string) bool {
	return strings.Contains(path, "/internal/") || strings.HasPrefix(path, "internal/")
}

// ThirdParty matches paths whose first element looks like a host name.
func ThirdParty(path string) bool {
	first, _, _ := strings.Cut(path, "/")
	return strings.Contains(first, ".")
}

// Prefixed matches paths equal to or below any of prefixes.
func Prefixed(prefixes ...string) ImportRule {
	return func(path string) bool {
		for _, p := range prefixes {
			if path == p || strings.HasPrefix(path, p+"/") {
				return true
			}
		}
		return false
	}
}

// AnyOf matches when at least one rule matches.
func AnyOf(rules ...ImportRule) ImportRule {
	return func(path string) bool {
		for _, r := range rules {
			if r(path) {
				return true
			}
		}
		return false
	}
}

// ForbiddenImports lists "path (in file)" for every import of a non-test Go
// file in dir that rule rejects, sorted.
func ForbiddenImports(dir string, rule ImportRule) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var found []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		for _, spec := range file.Imports {
			path, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				return nil, fmt.Errorf("import in %s: %w", name, err)
			}
			if rule(path) {
				found = append(found, path+" (in "+name+")")
			}
		}
	}
	sort.Strings(found)
	return found, nil
}

// AssertImports fails t when any file in dir imports a path rule rejects.
func AssertImports(t testing.TB, dir string, rule ImportRule, reason string) {
	t.Helper()
	found, err := ForbiddenImports(dir, rule)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	if len(found) > 0 {
		t.Fatalf("forbidden imports (%s):\n%s", reason, strings.Join(found, "\n"))
	}
}
