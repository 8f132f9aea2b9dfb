// Package core implements the lifecycle controllers for projects, milestones,
// tasks and memberships. Every mutation runs as one store transaction:
// load, soft-delete precondition, authorization, validation, transition side
// effects, write, progress propagation and audit, in that order.
package core

import (
	"context"
	"errors"
	"strings"
	"time"
	"workcore/internal/access"
	"workcore/internal/identity"
	"workcore/internal/ids"
	"workcore/pkg/domain"

	"go.uber.org/zap"
)

// Clock supplies timestamps for side effects and audit entries.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Authorizer is the permission capability every controller depends on.
// *access.Evaluator is the implementation.
type Authorizer interface {
	access.Viewer
	RequireCreateProject(p domain.Principal) error
	RequireView(dir access.Directory, p domain.Principal, target domain.Authorizable) error
	RequireEdit(dir access.Directory, p domain.Principal, target domain.Authorizable) error
	RequireDelete(dir access.Directory, p domain.Principal, target domain.Authorizable) error
	RequireManageTeam(dir access.Directory, p domain.Principal, project domain.Project, targetRole domain.MemberRole) error
	RequireSystemAdmin(p domain.Principal, module, action string) error
}

// AuditPublisher receives audit entries after their transaction committed.
type AuditPublisher interface {
	Publish(ctx context.Context, entries []domain.AuditLogEntry) error
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder sets the per-operation metrics sink.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer sets the span recorder.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithAuditPublisher forwards committed audit entries to p.
func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithAuthorizer replaces the default permission evaluator.
func WithAuthorizer(a Authorizer) Option {
	return func(s *Service) {
		if a != nil {
			s.authz = a
		}
	}
}

// WithIDGenerator replaces the public identifier generator.
func WithIDGenerator(g ids.Generator) Option {
	return func(s *Service) {
		if g != nil {
			s.ids = g
		}
	}
}

// WithFanout bounds the concurrent reads used to enrich listings.
func WithFanout(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fanout = n
		}
	}
}

// Service exposes the lifecycle operations over a persistent store.
type Service struct {
	store     domain.PersistentStore
	authz     Authorizer
	ids       ids.Generator
	clock     Clock
	logger    *zap.Logger
	metrics   MetricsRecorder
	tracer    Tracer
	publisher AuditPublisher
	fanout    int
}

// NewService constructs a service backed by store. Without WithAuthorizer
// the default system policy is used.
func NewService(store domain.PersistentStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("core: store is required")
	}
	s := &Service{
		store:   store,
		ids:     ids.UUID{},
		clock:   systemClock{},
		logger:  zap.NewNop(),
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		fanout:  8,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.authz == nil {
		evaluator, err := access.NewEvaluator(nil)
		if err != nil {
			return nil, err
		}
		s.authz = evaluator
	}
	return s, nil
}

// Store returns the underlying persistent store.
func (s *Service) Store() domain.PersistentStore { return s.store }

func (s *Service) now() time.Time { return s.clock.Now().UTC() }

// run wraps an operation with authentication, tracing, metrics and logging.
func (s *Service) run(ctx context.Context, op string, fn func(ctx context.Context, p domain.Principal) error) error {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, op)
	p, err := identity.Require(ctx)
	if err == nil {
		err = fn(ctx, p)
	}
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	if err != nil {
		s.logger.Debug("operation failed",
			zap.String("operation", op),
			zap.String("principal", p.ID),
			zap.String("kind", string(domain.KindOf(err))),
			zap.Error(err),
		)
		return err
	}
	s.logger.Debug("operation completed", zap.String("operation", op), zap.String("principal", p.ID))
	return nil
}

// mutation carries the per-transaction state handed to controller bodies.
type mutation struct {
	tx    domain.Transaction
	actor domain.Principal
	now   time.Time
	trail *auditTrail
}

// mutate runs fn in one transaction and publishes its audit entries once
// the transaction committed.
func (s *Service) mutate(ctx context.Context, p domain.Principal, fn func(m *mutation) error) error {
	var trail *auditTrail
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		now := s.now()
		trail = newAuditTrail(tx, p.ID, now)
		return fn(&mutation{tx: tx, actor: p, now: now, trail: trail})
	})
	if err != nil {
		return translateCommitError(err)
	}
	s.logViolations(res)
	if trail != nil {
		s.publish(ctx, trail.entries)
	}
	return nil
}

func (s *Service) view(ctx context.Context, fn func(v domain.TransactionView) error) error {
	return s.store.View(ctx, fn)
}

func (s *Service) logViolations(res domain.Result) {
	for _, v := range res.Violations {
		s.logger.Warn("rule violation",
			zap.String("rule", v.Rule),
			zap.String("severity", string(v.Severity)),
			zap.String("entity", string(v.Entity)),
			zap.String("entity_id", v.EntityID),
			zap.String("message", v.Message),
		)
	}
}

func (s *Service) publish(ctx context.Context, entries []domain.AuditLogEntry) {
	if s.publisher == nil || len(entries) == 0 {
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), entries); err != nil {
		s.logger.Error("publish audit entries", zap.Int("entries", len(entries)), zap.Error(err))
	}
}

// translateCommitError maps blocking rule results onto InvalidState.
func translateCommitError(err error) error {
	var rv domain.RuleViolationError
	if !errors.As(err, &rv) {
		return err
	}
	msgs := make([]string, 0, len(rv.Result.Violations))
	var entity domain.EntityType
	var id string
	for _, v := range rv.Result.Violations {
		if v.Severity != domain.SeverityBlock {
			continue
		}
		if entity == "" {
			entity, id = v.Entity, v.EntityID
		}
		msgs = append(msgs, v.Message)
	}
	out := domain.InvalidState(entity, id, "commit blocked: %s", strings.Join(msgs, "; "))
	out.Err = err
	return out
}
