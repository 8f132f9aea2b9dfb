// Package memory provides an in-memory implementation of the workcore
// persistence store used for tests, ephemeral environments and as the
// working set of the snapshotting SQL stores.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
	"workcore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Project aliases domain.Project for in-memory persistence operations.
	Project = domain.Project
	// Milestone aliases domain.Milestone.
	Milestone = domain.Milestone
	// Task aliases domain.Task.
	Task = domain.Task
	// ProjectMember aliases domain.ProjectMember.
	ProjectMember = domain.ProjectMember
	// AuditLogEntry aliases domain.AuditLogEntry.
	AuditLogEntry = domain.AuditLogEntry
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	projects   map[string]Project
	milestones map[string]Milestone
	tasks      map[string]Task
	members    map[string]ProjectMember
	audit      []AuditLogEntry
}

// Snapshot captures a serializable copy of the store contents. The SQL stores
// persist one bucket per field.
type Snapshot struct {
	Projects   map[string]Project       `json:"projects"`
	Milestones map[string]Milestone     `json:"milestones"`
	Tasks      map[string]Task          `json:"tasks"`
	Members    map[string]ProjectMember `json:"members"`
	AuditLog   []AuditLogEntry          `json:"audit_log"`
}

func newMemoryState() memoryState {
	return memoryState{
		projects:   make(map[string]Project),
		milestones: make(map[string]Milestone),
		tasks:      make(map[string]Task),
		members:    make(map[string]ProjectMember),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.projects {
		cloned.projects[k] = cloneProject(v)
	}
	for k, v := range s.milestones {
		cloned.milestones[k] = cloneMilestone(v)
	}
	for k, v := range s.tasks {
		cloned.tasks[k] = cloneTask(v)
	}
	for k, v := range s.members {
		cloned.members[k] = cloneMember(v)
	}
	cloned.audit = make([]AuditLogEntry, 0, len(s.audit))
	for _, e := range s.audit {
		cloned.audit = append(cloned.audit, cloneAuditEntry(e))
	}
	return cloned
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	cloned := state.clone()
	return Snapshot{
		Projects:   cloned.projects,
		Milestones: cloned.milestones,
		Tasks:      cloned.tasks,
		Members:    cloned.members,
		AuditLog:   cloned.audit,
	}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := memoryState{
		projects:   s.Projects,
		milestones: s.Milestones,
		tasks:      s.Tasks,
		members:    s.Members,
		audit:      s.AuditLog,
	}
	if state.projects == nil {
		state.projects = map[string]Project{}
	}
	if state.milestones == nil {
		state.milestones = map[string]Milestone{}
	}
	if state.tasks == nil {
		state.tasks = map[string]Task{}
	}
	if state.members == nil {
		state.members = map[string]ProjectMember{}
	}
	return state.clone()
}

// Store provides an in-memory transactional store for the workcore domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState returns a deep copy of the current state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the configured engine so callers can register rules.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used for store-assigned timestamps.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc overrides the time provider.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.nowFn = fn
	s.mu.Unlock()
}

// CommitFunc receives the state a transaction is about to publish. It runs
// under the store lock before the swap; an error leaves the live state as it
// was.
type CommitFunc func(ctx context.Context, next Snapshot) error

// RunInTransaction executes fn against a private copy of the state. The copy
// replaces the live state only when fn succeeds, the context is still alive
// and no blocking rule violation is reported.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	return s.RunInTransactionWithCommit(ctx, fn, nil)
}

// RunInTransactionWithCommit behaves like RunInTransaction and additionally
// calls commit with the pending state before it becomes visible.
func (s *Store) RunInTransactionWithCommit(ctx context.Context, fn func(tx Transaction) error, commit CommitFunc) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}
	tx.transactionView = transactionView{state: &tx.state}
	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if commit != nil {
		if err := commit(context.WithoutCancel(ctx), snapshotFromMemoryState(tx.state)); err != nil {
			return Result{}, err
		}
	}
	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(ctx context.Context, fn func(TransactionView) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	return fn(newTransactionView(&snapshot))
}
