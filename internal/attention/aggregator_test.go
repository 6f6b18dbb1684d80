package attention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-collective/portal-backend/internal/projects/domain"
	"github.com/atlas-collective/portal-backend/internal/trends"
	"github.com/atlas-collective/portal-backend/internal/workflow"
)

type fakeTrends struct {
	clusters []trends.Cluster
	err      error
}

func (f *fakeTrends) ListAboveVelocityPercentile(_ context.Context, _ float64) ([]trends.Cluster, error) {
	return f.clusters, f.err
}

type fakeProjects struct {
	// keyed by department + "/" + status
	byStatus map[string][]domain.Project
	err      error
	// membership scoping: project public ids visible to each user
	visible map[string]map[string]bool
}

func (f *fakeProjects) ListByStatus(_ context.Context, dept workflow.Department, status, scopeUserID string) ([]domain.Project, error) {
	if f.err != nil {
		return nil, f.err
	}
	all := f.byStatus[string(dept)+"/"+status]
	if scopeUserID == "" {
		return all, nil
	}
	out := []domain.Project{}
	for _, p := range all {
		if f.visible[scopeUserID][p.PublicID] {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeRefs struct {
	promoted map[string]time.Time // source id -> ref creation time
	err      error
}

func (f *fakeRefs) PromotedSourceIDs(_ context.Context, ids []string, since time.Time) (map[string]bool, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]bool{}
	for _, id := range ids {
		if at, ok := f.promoted[id]; ok && !at.Before(since) {
			out[id] = true
		}
	}
	return out, nil
}

var admin = Caller{UserID: "admin-1", Admin: true}

func ts(minutesAgo int) time.Time {
	return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC).Add(-time.Duration(minutesAgo) * time.Minute)
}

func strategyDone(publicID, name string, updatedAt time.Time) domain.Project {
	return domain.Project{
		PublicID:   publicID,
		Name:       name,
		Department: workflow.DeptStrategy,
		Status:     workflow.StatusResearchComplete,
		UpdatedAt:  updatedAt,
	}
}

func newAgg(t *fakeTrends, p *fakeProjects, r *fakeRefs) *Aggregator {
	if t == nil {
		t = &fakeTrends{}
	}
	if p == nil {
		p = &fakeProjects{}
	}
	if r == nil {
		r = &fakeRefs{promoted: map[string]time.Time{}}
	}
	return NewAggregator(t, p, r, time.Second)
}

func TestGetItems_UnpromotedResearchAppearsOnce(t *testing.T) {
	projects := &fakeProjects{byStatus: map[string][]domain.Project{
		"strategy/research_complete": {strategyDone("atlas-1", "Q3 Scan", ts(5))},
	}}
	refs := &fakeRefs{promoted: map[string]time.Time{}}
	agg := newAgg(nil, projects, refs)

	items, err := agg.GetItems(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, TypeResearchNotPromoted, items[0].Type)
	assert.Equal(t, "atlas-1", items[0].EntityID)
	assert.Equal(t, "atlas-1:research_not_promoted", items[0].Key)

	// after a promotion the item disappears
	refs.promoted["atlas-1"] = ts(1)
	items, err = agg.GetItems(context.Background(), admin)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGetItems_Ordering(t *testing.T) {
	// priorities [low-ish medium, high, medium, high] with mixed timestamps:
	// both highs first ordered by recency, then mediums
	projects := &fakeProjects{byStatus: map[string][]domain.Project{
		"strategy/research_complete": {
			strategyDone("atlas-med-old", "Old Research", ts(60)),
			strategyDone("atlas-med-new", "New Research", ts(10)),
		},
		"creative/review": {
			{PublicID: "atlas-high-old", Name: "Old Pitch", Department: workflow.DeptCreative,
				Status: workflow.StatusReview, UpdatedAt: ts(120)},
		},
		"creative/narrative_review": {
			{PublicID: "atlas-high-new", Name: "New Script", Department: workflow.DeptCreative,
				Status: workflow.StatusNarrativeReview, UpdatedAt: ts(2)},
		},
	}}
	agg := newAgg(nil, projects, nil)

	items, err := agg.GetItems(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, "atlas-high-new", items[0].EntityID)
	assert.Equal(t, "atlas-high-old", items[1].EntityID)
	assert.Equal(t, "atlas-med-new", items[2].EntityID)
	assert.Equal(t, "atlas-med-old", items[3].EntityID)

	assert.Equal(t, PriorityHigh, items[0].Priority)
	assert.Equal(t, PriorityHigh, items[1].Priority)
	assert.Equal(t, PriorityMedium, items[2].Priority)
	assert.Equal(t, PriorityMedium, items[3].Priority)
}

func TestGetItems_StableForEqualPriorityAndTimestamp(t *testing.T) {
	at := ts(30)
	projects := &fakeProjects{byStatus: map[string][]domain.Project{
		"strategy/research_complete": {
			strategyDone("atlas-b", "B", at),
			strategyDone("atlas-a", "A", at),
		},
	}}
	agg := newAgg(nil, projects, nil)

	for i := 0; i < 3; i++ {
		items, err := agg.GetItems(context.Background(), admin)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "atlas-a", items[0].EntityID)
		assert.Equal(t, "atlas-b", items[1].EntityID)
	}
}

func TestGetItems_TrendDedupAgainstRecentBriefs(t *testing.T) {
	now := time.Now().UTC()
	trendsSrc := &fakeTrends{clusters: []trends.Cluster{
		{ID: "tc-hot", Label: "hot", Velocity: 95, UpdatedAt: now},
		{ID: "tc-briefed", Label: "briefed", Velocity: 97, UpdatedAt: now},
		{ID: "tc-stale-brief", Label: "stale brief", Velocity: 60, UpdatedAt: now},
	}}
	refs := &fakeRefs{promoted: map[string]time.Time{
		"tc-briefed":     now.Add(-time.Hour),           // recent -> suppressed
		"tc-stale-brief": now.Add(-30 * 24 * time.Hour), // outside window -> surfaces
	}}
	agg := newAgg(trendsSrc, nil, refs)

	items, err := agg.GetItems(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, items, 2)

	byID := map[string]Item{}
	for _, it := range items {
		byID[it.EntityID] = it
	}
	require.Contains(t, byID, "tc-hot")
	require.Contains(t, byID, "tc-stale-brief")
	assert.NotContains(t, byID, "tc-briefed")

	// velocity magnitude drives trend priority
	assert.Equal(t, PriorityHigh, byID["tc-hot"].Priority)
	assert.Equal(t, PriorityMedium, byID["tc-stale-brief"].Priority)
}

func TestGetItems_FailingSourceContributesNothing(t *testing.T) {
	trendsSrc := &fakeTrends{err: errors.New("redis down")}
	projects := &fakeProjects{byStatus: map[string][]domain.Project{
		"creative/review": {
			{PublicID: "atlas-1", Name: "Pitch", Department: workflow.DeptCreative,
				Status: workflow.StatusReview, UpdatedAt: ts(1)},
		},
	}}
	agg := newAgg(trendsSrc, projects, nil)

	items, err := agg.GetItems(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, TypePitchappPendingReview, items[0].Type)
}

func TestGetItems_NonAdminScoping(t *testing.T) {
	projects := &fakeProjects{
		byStatus: map[string][]domain.Project{
			"strategy/research_complete": {
				strategyDone("atlas-mine", "Mine", ts(5)),
				strategyDone("atlas-theirs", "Theirs", ts(5)),
			},
		},
		visible: map[string]map[string]bool{
			"user-1": {"atlas-mine": true},
		},
	}
	trendsSrc := &fakeTrends{clusters: []trends.Cluster{
		{ID: "tc-1", Label: "hot", Velocity: 95, UpdatedAt: time.Now()},
	}}
	agg := newAgg(trendsSrc, projects, nil)

	items, err := agg.GetItems(context.Background(), Caller{UserID: "user-1"})
	require.NoError(t, err)

	// only the member project; trends are admin-only
	require.Len(t, items, 1)
	assert.Equal(t, "atlas-mine", items[0].EntityID)
}
