package memory

import (
	"encoding/json"
	"fmt"
)

// Buckets lists the snapshot sections in the order the SQL stores write them.
var Buckets = []string{"projects", "milestones", "tasks", "members", "audit_log"}

func (s *Snapshot) target(bucket string) (any, bool) {
	switch bucket {
	case "projects":
		return &s.Projects, true
	case "milestones":
		return &s.Milestones, true
	case "tasks":
		return &s.Tasks, true
	case "members":
		return &s.Members, true
	case "audit_log":
		return &s.AuditLog, true
	}
	return nil, false
}

// EncodeBucket marshals one snapshot section to JSON.
func (s Snapshot) EncodeBucket(bucket string) ([]byte, error) {
	target, ok := s.target(bucket)
	if !ok {
		return nil, fmt.Errorf("unknown bucket %q", bucket)
	}
	data, err := json.Marshal(target)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", bucket, err)
	}
	return data, nil
}

// DecodeBucket unmarshals one snapshot section. Unknown buckets are ignored
// so older tables with retired sections still load.
func (s *Snapshot) DecodeBucket(bucket string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	target, ok := s.target(bucket)
	if !ok {
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode %s: %w", bucket, err)
	}
	return nil
}
