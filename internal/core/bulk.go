package core

import (
	"context"
	"errors"
	"workcore/pkg/domain"
)

// bulkReason converts a per-item failure into the reason reported to callers.
func bulkReason(err error) string {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return "Not found"
	case domain.KindPermissionDenied:
		return "Permission denied"
	case domain.KindInvalidState:
		if errors.Is(err, errAlreadyDeleted) {
			return "Already deleted"
		}
	}
	return err.Error()
}

// runBulk applies item to every ref in its own transaction. Items never
// write audit entries; a failure is collected and the batch moves on. The
// returned project id is set when every succeeded item belongs to the same
// project.
func runBulk[T any](ctx context.Context, s *Service, p domain.Principal, refs []string, item func(m *mutation, ref string) (T, string, error)) (domain.BulkResult[T], string) {
	result := domain.BulkResult[T]{Succeeded: []T{}, Failed: []domain.BulkFailure{}}
	projectID, mixed := "", false
	for _, ref := range refs {
		var (
			out   T
			owner string
		)
		err := s.mutate(ctx, p, func(m *mutation) error {
			m.trail = nil
			var err error
			out, owner, err = item(m, ref)
			return err
		})
		if err != nil {
			result.Failed = append(result.Failed, domain.BulkFailure{ID: ref, Reason: bulkReason(err)})
			continue
		}
		result.Succeeded = append(result.Succeeded, out)
		switch {
		case projectID == "":
			projectID = owner
		case projectID != owner:
			mixed = true
		}
	}
	if mixed {
		projectID = ""
	}
	return result, projectID
}
