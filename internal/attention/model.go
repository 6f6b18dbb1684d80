package attention

import (
	"time"

	"github.com/atlas-collective/portal-backend/internal/workflow"
)

// Priority buckets, ordered by severity.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

func priorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Item types.
const (
	TypeTrendNeedsBrief        = "trend_needs_brief"
	TypeResearchNotPromoted    = "research_not_promoted"
	TypeNarrativePendingReview = "narrative_pending_review"
	TypePitchappPendingReview  = "pitchapp_pending_review"
	TypeResearchPendingReview  = "research_pending_review"
)

// Item is one computed action-required entry. It is never persisted:
// Key is a deterministic composite of the source entity and item type,
// used only for dedup and client-side dismissal within a session.
type Item struct {
	Key        string              `json:"key"`
	Type       string              `json:"type"`
	Priority   string              `json:"priority"`
	Title      string              `json:"title"`
	EntityID   string              `json:"entity_id"`
	Department workflow.Department `json:"department,omitempty"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func newItem(entityID, typ, priority, title string, dept workflow.Department, updatedAt time.Time) Item {
	return Item{
		Key:        entityID + ":" + typ,
		Type:       typ,
		Priority:   priority,
		Title:      title,
		EntityID:   entityID,
		Department: dept,
		UpdatedAt:  updatedAt,
	}
}
