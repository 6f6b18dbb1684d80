package sweep

import (
	"context"
	"errors"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/atlas-collective/portal-backend/internal/projects/domain"
	"github.com/atlas-collective/portal-backend/internal/promotion"
	"github.com/atlas-collective/portal-backend/internal/workflow"
)

type PromotionScanner interface {
	UnreconciledPromotions(ctx context.Context) ([]UnreconciledPromotion, error)
}

type ProjectStore interface {
	GetByPublicID(ctx context.Context, publicID string) (*domain.Project, error)
}

type RefStore interface {
	Create(ctx context.Context, ref *promotion.Ref) error
}

// Reconciler repairs provenance edges lost during promotion. A target
// project always records where it came from (promoted_from), so a
// missing ref can be rebuilt from the target side.
type Reconciler struct {
	scanner  PromotionScanner
	projects ProjectStore
	refs     RefStore
}

func NewReconciler(scanner PromotionScanner, projects ProjectStore, refs RefStore) *Reconciler {
	return &Reconciler{scanner: scanner, projects: projects, refs: refs}
}

// Run performs one reconciliation pass and returns how many edges it
// restored. A single broken row never stops the pass.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	missing, err := r.scanner.UnreconciledPromotions(ctx)
	if err != nil {
		return 0, err
	}

	restored := 0
	for _, m := range missing {
		ref, err := r.rebuild(ctx, m)
		if err != nil {
			log.Printf("[sweep] skip %s -> %s: %v", m.SourceID, m.TargetPublicID, err)
			continue
		}
		if err := r.refs.Create(ctx, ref); err != nil {
			if errors.Is(err, promotion.ErrDuplicate) {
				continue // another pass or a retry beat us to it
			}
			log.Printf("[sweep] write ref %s -> %s: %v", m.SourceID, m.TargetPublicID, err)
			continue
		}
		restored++
	}
	if restored > 0 {
		log.Printf("[sweep] restored %d provenance ref(s)", restored)
	}
	return restored, nil
}

// rebuild reconstructs the lost edge. Sources that resolve to a project
// keep that project's department; anything else was a trend cluster
// handed off by the intelligence desk.
func (r *Reconciler) rebuild(ctx context.Context, m UnreconciledPromotion) (*promotion.Ref, error) {
	ref := &promotion.Ref{
		SourceKind:       promotion.KindTrendCluster,
		SourceDepartment: workflow.DeptIntelligence,
		SourceID:         m.SourceID,
		TargetDepartment: workflow.Department(m.TargetDepartment),
		TargetKind:       promotion.KindProject,
		TargetID:         m.TargetPublicID,
		Relation:         promotion.RelationPromotedTo,
		Metadata:         map[string]string{"reconciled": "true"},
	}

	src, err := r.projects.GetByPublicID(ctx, m.SourceID)
	switch {
	case err == nil:
		ref.SourceKind = promotion.KindProject
		ref.SourceDepartment = src.Department
	case errors.Is(err, domain.ErrNotFound):
		// not a project id; keep the trend cluster shape
	default:
		return nil, err
	}
	return ref, nil
}

// Scheduler runs the reconciler on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler(rec *Reconciler, schedule string) (*Scheduler, error) {
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(schedule, func() {
		if _, err := rec.Run(context.Background()); err != nil {
			log.Printf("[sweep] pass failed: %v", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	log.Println("[sweep] scheduler started")
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}
