// Package ids generates public identifiers for workcore entities.
package ids

import (
	"strings"
	"workcore/pkg/domain"

	"github.com/google/uuid"
)

// Generator produces a storage-independent public identifier per entity kind.
type Generator interface {
	NewPublicID(kind domain.EntityType) string
}

// Prefix returns the public identifier prefix for kind.
func Prefix(kind domain.EntityType) string {
	switch kind {
	case domain.EntityProject:
		return "prj_"
	case domain.EntityMilestone:
		return "mil_"
	case domain.EntityTask:
		return "tsk_"
	case domain.EntityMember:
		return "mbr_"
	case domain.EntityAuditLog:
		return "aud_"
	}
	return "id_"
}

// UUID generates random version 4 identifiers with the kind prefix.
type UUID struct{}

// NewPublicID implements Generator.
func (UUID) NewPublicID(kind domain.EntityType) string {
	return Prefix(kind) + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Func adapts a plain function to Generator.
type Func func(kind domain.EntityType) string

// NewPublicID implements Generator.
func (f Func) NewPublicID(kind domain.EntityType) string { return f(kind) }

// Valid reports whether id carries the prefix of kind followed by a UUID.
func Valid(kind domain.EntityType, id string) bool {
	rest, ok := strings.CutPrefix(id, Prefix(kind))
	if !ok {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil
}
