package core

import "workcore/pkg/domain"

// NewDefaultRulesEngine builds a rules engine with the built-in invariant set.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(StatusValidityRule())
	engine.Register(TaskCompletionRule())
	engine.Register(MilestoneCompletionRule())
	engine.Register(ProjectProgressRule())
	engine.Register(MilestoneProgressRule())
	return engine
}

// changeAs extracts the typed record carried by a change payload. Pointer
// payloads are accepted as well.
func changeAs[T any](payload any) (T, bool) {
	switch v := payload.(type) {
	case T:
		return v, true
	case *T:
		if v != nil {
			return *v, true
		}
	}
	var zero T
	return zero, false
}
