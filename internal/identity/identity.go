// Package identity carries the authenticated principal through request
// contexts and verifies the bearer tokens that establish it.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"workcore/pkg/domain"

	"github.com/golang-jwt/jwt/v5"
)

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx. A principal with an empty
// ID counts as absent.
func FromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	if !ok || p.ID == "" {
		return domain.Principal{}, false
	}
	return p, true
}

// Require returns the principal in ctx or an Unauthenticated error.
func Require(ctx context.Context) (domain.Principal, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return domain.Principal{}, domain.Unauthenticated()
	}
	return p, nil
}

// Claims is the token payload.
type Claims struct {
	jwt.RegisteredClaims
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// ErrInvalidToken wraps every token verification failure.
var ErrInvalidToken = errors.New("invalid token")

// Tokens issues and verifies HS256 bearer tokens.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens constructs a token codec. The secret must not be empty.
func NewTokens(secret, issuer string, ttl time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("identity: no secret configured")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Issue signs a token for p.
func (t *Tokens) Issue(p domain.Principal) (string, error) {
	if p.ID == "" {
		return "", errors.New("identity: principal id is required")
	}
	role := p.Role
	if role == "" {
		role = domain.SystemRoleUser
	}
	now := t.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Role:        string(role),
		Permissions: p.Permissions,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse verifies raw and returns the principal it names.
func (t *Tokens) Parse(raw string) (domain.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return domain.Principal{}, ErrInvalidToken
	}
	role := domain.SystemRole(claims.Role)
	if role == "" {
		role = domain.SystemRoleUser
	}
	if !role.Valid() {
		return domain.Principal{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return domain.Principal{ID: claims.Subject, Role: role, Permissions: claims.Permissions}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
