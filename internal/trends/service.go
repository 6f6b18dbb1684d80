package trends

import (
	"context"
	"fmt"

	"github.com/atlas-collective/portal-backend/internal/projects/domain"
	"github.com/atlas-collective/portal-backend/internal/promotion"
	"github.com/atlas-collective/portal-backend/internal/workflow"
)

// ProjectStore is the slice of the project repository brief creation
// needs.
type ProjectStore interface {
	Create(ctx context.Context, p *domain.Project) error
}

// RefStore writes the trend -> brief provenance edge.
type RefStore interface {
	Create(ctx context.Context, ref *promotion.Ref) error
}

// Service turns externally-detected trend clusters into strategy
// briefs. The brief is an ordinary strategy project; the provenance
// edge is what marks the trend as triaged so the attention queue stops
// surfacing it.
type Service struct {
	trends   *Repo
	projects ProjectStore
	refs     RefStore
	cfg      *workflow.Config
}

func NewService(trends *Repo, projects ProjectStore, refs RefStore, cfg *workflow.Config) *Service {
	return &Service{trends: trends, projects: projects, refs: refs, cfg: cfg}
}

type BriefResult struct {
	Project *domain.Project `json:"project"`
	Ref     *promotion.Ref  `json:"ref"`
}

// CreateBrief creates a trend_brief strategy project from a cluster
// and records the promoted_to edge. Unlike project promotion the edge
// here is load-bearing for dedup, so its write is strict.
func (s *Service) CreateBrief(ctx context.Context, actorID, trendID string) (*BriefResult, error) {
	cluster, err := s.trends.Get(ctx, trendID)
	if err != nil {
		return nil, err
	}

	v := workflow.NewValidator(s.cfg)
	p := &domain.Project{
		OwnerID:    actorID,
		Department: workflow.DeptStrategy,
		Type:       workflow.TypeTrendBrief,
		Status:     v.InitialStatus(workflow.DeptStrategy),
		Name:       fmt.Sprintf("Brief: %s", cluster.Label),
		Notes:      cluster.Summary,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, err
	}

	ref := &promotion.Ref{
		SourceDepartment: workflow.DeptIntelligence,
		SourceKind:       promotion.KindTrendCluster,
		SourceID:         cluster.ID,
		TargetDepartment: workflow.DeptStrategy,
		TargetKind:       promotion.KindProject,
		TargetID:         p.PublicID,
		Relation:         promotion.RelationPromotedTo,
		Metadata: map[string]string{
			"promoted_by":    actorID,
			"trend_velocity": fmt.Sprintf("%.2f", cluster.Velocity),
		},
	}
	if err := s.refs.Create(ctx, ref); err != nil {
		return nil, fmt.Errorf("write trend provenance: %w", err)
	}

	return &BriefResult{Project: p, Ref: ref}, nil
}
