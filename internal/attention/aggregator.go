package attention

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/atlas-collective/portal-backend/internal/projects/domain"
	"github.com/atlas-collective/portal-backend/internal/trends"
	"github.com/atlas-collective/portal-backend/internal/workflow"
)

// TrendSource reads externally-produced trend clusters.
type TrendSource interface {
	ListAboveVelocityPercentile(ctx context.Context, percentile float64) ([]trends.Cluster, error)
}

// ProjectSource scans projects by department and status, optionally
// scoped to rows a user has membership on.
type ProjectSource interface {
	ListByStatus(ctx context.Context, dept workflow.Department, status, scopeUserID string) ([]domain.Project, error)
}

// RefSource answers the provenance anti-join: which of these source
// ids already have a promoted_to edge newer than since.
type RefSource interface {
	PromotedSourceIDs(ctx context.Context, ids []string, since time.Time) (map[string]bool, error)
}

// Caller identifies who is asking. Admins see the unscoped union;
// everyone else sees only entities they have membership on.
type Caller struct {
	UserID string
	Admin  bool
}

const (
	hotTrendPercentile = 0.8
	// a trend this fast is always worth a brief today
	highVelocity = 90.0
	// a brief written within this window counts as recent triage
	recentBriefWindow = 14 * 24 * time.Hour
)

// Aggregator merges independent attention sources into one ranked
// list. Each source runs concurrently with its own deadline; a source
// that fails or times out contributes zero items instead of poisoning
// the call.
type Aggregator struct {
	trends        TrendSource
	projects      ProjectSource
	refs          RefSource
	sourceTimeout time.Duration
}

func NewAggregator(trendSrc TrendSource, projects ProjectSource, refs RefSource, sourceTimeout time.Duration) *Aggregator {
	if sourceTimeout <= 0 {
		sourceTimeout = 3 * time.Second
	}
	return &Aggregator{trends: trendSrc, projects: projects, refs: refs, sourceTimeout: sourceTimeout}
}

// GetItems runs every source and returns the merged, ranked list.
func (a *Aggregator) GetItems(ctx context.Context, caller Caller) ([]Item, error) {
	sources := []struct {
		name string
		run  func(context.Context) ([]Item, error)
	}{
		{"untriaged_trends", func(ctx context.Context) ([]Item, error) { return a.trendItems(ctx, caller) }},
		{"unpromoted_research", func(ctx context.Context) ([]Item, error) { return a.researchItems(ctx, caller) }},
		{"pending_reviews", func(ctx context.Context) ([]Item, error) { return a.reviewItems(ctx, caller) }},
	}

	var (
		mu    sync.Mutex
		items []Item
		wg    sync.WaitGroup
	)
	for _, src := range sources {
		wg.Add(1)
		go func(name string, run func(context.Context) ([]Item, error)) {
			defer wg.Done()

			srcCtx, cancel := context.WithTimeout(ctx, a.sourceTimeout)
			defer cancel()

			got, err := run(srcCtx)
			if err != nil {
				log.Printf("[attention] source %s failed: %v", name, err)
				return
			}
			mu.Lock()
			items = append(items, got...)
			mu.Unlock()
		}(src.name, src.run)
	}
	wg.Wait()

	sortItems(items)
	return items, nil
}

// trendItems surfaces high-velocity clusters with no recent brief.
// Trend clusters carry no membership, so only admins see them.
func (a *Aggregator) trendItems(ctx context.Context, caller Caller) ([]Item, error) {
	if !caller.Admin {
		return nil, nil
	}

	clusters, err := a.trends.ListAboveVelocityPercentile(ctx, hotTrendPercentile)
	if err != nil {
		return nil, err
	}
	if len(clusters) == 0 {
		return nil, nil
	}

	ids := make([]string, len(clusters))
	for i, c := range clusters {
		ids[i] = c.ID
	}
	// anti-join before emission: a cluster with a recent brief never
	// becomes an item, regardless of velocity
	briefed, err := a.refs.PromotedSourceIDs(ctx, ids, time.Now().Add(-recentBriefWindow))
	if err != nil {
		return nil, err
	}

	out := make([]Item, 0, len(clusters))
	for _, c := range clusters {
		if briefed[c.ID] {
			continue
		}
		priority := PriorityMedium
		if c.Velocity >= highVelocity {
			priority = PriorityHigh
		}
		out = append(out, newItem(c.ID, TypeTrendNeedsBrief, priority,
			fmt.Sprintf("Trend %q needs a brief", c.Label),
			workflow.DeptIntelligence, c.UpdatedAt))
	}
	return out, nil
}

// researchItems surfaces completed strategy research that was never
// handed off.
func (a *Aggregator) researchItems(ctx context.Context, caller Caller) ([]Item, error) {
	scope := caller.UserID
	if caller.Admin {
		scope = ""
	}

	done, err := a.projects.ListByStatus(ctx, workflow.DeptStrategy, workflow.StatusResearchComplete, scope)
	if err != nil {
		return nil, err
	}
	if len(done) == 0 {
		return nil, nil
	}

	ids := make([]string, len(done))
	for i, p := range done {
		ids[i] = p.PublicID
	}
	promoted, err := a.refs.PromotedSourceIDs(ctx, ids, time.Time{})
	if err != nil {
		return nil, err
	}

	out := make([]Item, 0, len(done))
	for _, p := range done {
		if promoted[p.PublicID] {
			continue
		}
		out = append(out, newItem(p.PublicID, TypeResearchNotPromoted, PriorityMedium,
			fmt.Sprintf("Research %q is complete but not promoted", p.Name),
			p.Department, p.UpdatedAt))
	}
	return out, nil
}

// reviewItems surfaces projects parked in an awaiting-human-decision
// status. Reviews are always high priority.
func (a *Aggregator) reviewItems(ctx context.Context, caller Caller) ([]Item, error) {
	scope := caller.UserID
	if caller.Admin {
		scope = ""
	}

	gates := []struct {
		dept     workflow.Department
		status   string
		itemType string
	}{
		{workflow.DeptCreative, workflow.StatusNarrativeReview, TypeNarrativePendingReview},
		{workflow.DeptCreative, workflow.StatusReview, TypePitchappPendingReview},
		{workflow.DeptStrategy, workflow.StatusResearchReview, TypeResearchPendingReview},
	}

	out := make([]Item, 0, 8)
	for _, g := range gates {
		ps, err := a.projects.ListByStatus(ctx, g.dept, g.status, scope)
		if err != nil {
			return nil, err
		}
		for _, p := range ps {
			out = append(out, newItem(p.PublicID, g.itemType, PriorityHigh,
				fmt.Sprintf("%s is awaiting review", p.Name),
				p.Department, p.UpdatedAt))
		}
	}
	return out, nil
}

// sortItems orders by severity, then recency, then key so equal
// (priority, timestamp) pairs stay deterministic.
func sortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := priorityRank(items[i].Priority), priorityRank(items[j].Priority)
		if ri != rj {
			return ri < rj
		}
		if !items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
			return items[i].UpdatedAt.After(items[j].UpdatedAt)
		}
		return items[i].Key < items[j].Key
	})
}
