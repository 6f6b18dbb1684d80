package promotion

import (
	"errors"
	"time"

	"github.com/atlas-collective/portal-backend/internal/workflow"
)

// RelationPromotedTo is currently the only provenance relationship.
const RelationPromotedTo = "promoted_to"

// Entity kinds appearing on a provenance edge.
const (
	KindProject      = "project"
	KindTrendCluster = "trend_cluster"
)

// Ref is an immutable provenance edge: it is written exactly once by
// the operation that created the target entity and never updated.
type Ref struct {
	ID               string              `json:"id"`
	SourceDepartment workflow.Department `json:"source_department"`
	SourceKind       string              `json:"source_kind"`
	SourceID         string              `json:"source_id"`
	TargetDepartment workflow.Department `json:"target_department"`
	TargetKind       string              `json:"target_kind"`
	TargetID         string              `json:"target_id"`
	Relation         string              `json:"relation"`
	Metadata         map[string]string   `json:"metadata,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

var (
	ErrTerminalDepartment = errors.New("creative projects cannot be promoted further")
	ErrDuplicate          = errors.New("a promotion edge for this source and target department already exists")
)

// PathError reports an invalid promotion target or type, carrying the
// allowed set for client display.
type PathError struct {
	Reason  string
	Allowed []string
}

const (
	ReasonInvalidPath = "invalid_promotion_path"
	ReasonInvalidType = "invalid_type"
)

func (e *PathError) Error() string {
	return e.Reason
}
