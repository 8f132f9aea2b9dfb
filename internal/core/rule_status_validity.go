package core

import (
	"context"
	"fmt"
	"workcore/pkg/domain"
)

// StatusValidityRule blocks records whose status falls outside their enum.
func StatusValidityRule() domain.Rule {
	return statusValidityRule{}
}

type statusValidityRule struct{}

type statusMachine struct {
	label     string
	extractor func(payload any) (id string, state string, valid bool, ok bool)
}

var statusMachines = map[domain.EntityType]statusMachine{
	domain.EntityProject: {
		label: "project",
		extractor: func(payload any) (string, string, bool, bool) {
			p, ok := changeAs[domain.Project](payload)
			return p.ID, string(p.Status), p.Status.Valid(), ok
		},
	},
	domain.EntityMilestone: {
		label: "milestone",
		extractor: func(payload any) (string, string, bool, bool) {
			m, ok := changeAs[domain.Milestone](payload)
			return m.ID, string(m.Status), m.Status.Valid(), ok
		},
	},
	domain.EntityTask: {
		label: "task",
		extractor: func(payload any) (string, string, bool, bool) {
			t, ok := changeAs[domain.Task](payload)
			return t.ID, string(t.Status), t.Status.Valid(), ok
		},
	},
	domain.EntityMember: {
		label: "member",
		extractor: func(payload any) (string, string, bool, bool) {
			m, ok := changeAs[domain.ProjectMember](payload)
			return m.ID, string(m.Status), m.Status.Valid() && m.Role.Valid(), ok
		},
	},
}

func (statusValidityRule) Name() string { return "status_validity" }

func (statusValidityRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		machine, ok := statusMachines[change.Entity]
		if !ok || change.After == nil {
			continue
		}
		id, state, valid, ok := machine.extractor(change.After)
		if !ok || valid {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "status_validity",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("%s %s is set to invalid state %q", machine.label, id, state),
			Entity:   change.Entity,
			EntityID: id,
		})
	}
	return res, nil
}
