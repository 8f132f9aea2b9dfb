package identity

import (
	"context"
	"errors"
	"testing"
	"time"
	"workcore/pkg/domain"
)

func TestPrincipalContextRoundTrip(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatalf("empty context must not carry a principal")
	}
	if _, err := Require(context.Background()); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	ctx := WithPrincipal(context.Background(), domain.Principal{ID: "u1", Role: domain.SystemRoleUser})
	p, err := Require(ctx)
	if err != nil || p.ID != "u1" {
		t.Fatalf("unexpected principal %+v err %v", p, err)
	}
	if _, ok := FromContext(WithPrincipal(context.Background(), domain.Principal{})); ok {
		t.Fatalf("principal without id must count as absent")
	}
}

func TestTokensIssueAndParse(t *testing.T) {
	tokens, err := NewTokens("s3cret", "workcore", time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	raw, err := tokens.Issue(domain.Principal{ID: "u1", Role: domain.SystemRoleAdmin, Permissions: []string{"projects.create"}})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	p, err := tokens.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.ID != "u1" || p.Role != domain.SystemRoleAdmin || !p.HasPermission("projects.create") {
		t.Fatalf("unexpected principal %+v", p)
	}
}

func TestTokensRejectForeignAndExpired(t *testing.T) {
	a, _ := NewTokens("one", "", time.Hour)
	b, _ := NewTokens("two", "", time.Hour)
	raw, err := a.Issue(domain.Principal{ID: "u1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := b.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected signature failure, got %v", err)
	}

	a.now = func() time.Time { return time.Now().UTC().Add(-2 * time.Hour) }
	stale, err := a.Issue(domain.Principal{ID: "u1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	a.now = func() time.Time { return time.Now().UTC() }
	if _, err := a.Parse(stale); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expiry failure, got %v", err)
	}
}

func TestNewTokensRequiresSecret(t *testing.T) {
	if _, err := NewTokens("", "", 0); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  xyz ": "xyz",
		"Basic abc":    "",
		"":             "",
		"Bearer":       "",
	}
	for header, want := range cases {
		if got := BearerToken(header); got != want {
			t.Fatalf("BearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
