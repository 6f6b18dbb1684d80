package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-collective/portal-backend/internal/audit"
	"github.com/atlas-collective/portal-backend/internal/notifications"
	"github.com/atlas-collective/portal-backend/internal/projects/domain"
	"github.com/atlas-collective/portal-backend/internal/projects/repository"
	"github.com/atlas-collective/portal-backend/internal/workflow"
)

type fakeProjects struct {
	byPublicID map[string]*domain.Project
	escalated  map[string]bool
}

func newFakeProjects(ps ...*domain.Project) *fakeProjects {
	f := &fakeProjects{byPublicID: map[string]*domain.Project{}, escalated: map[string]bool{}}
	for _, p := range ps {
		f.byPublicID[p.PublicID] = p
	}
	return f
}

func (f *fakeProjects) Create(_ context.Context, p *domain.Project) error {
	p.ID = "id-" + p.Name
	p.PublicID = "atlas-" + p.Name
	p.Version = 1
	f.byPublicID[p.PublicID] = p
	return nil
}

func (f *fakeProjects) GetByPublicID(_ context.Context, publicID string) (*domain.Project, error) {
	p, ok := f.byPublicID[publicID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjects) List(_ context.Context, _ repository.ListFilter) ([]domain.Project, error) {
	return nil, nil
}

func (f *fakeProjects) UpdateStatus(_ context.Context, id string, version int, status, artifactURL string) (*domain.Project, error) {
	for _, p := range f.byPublicID {
		if p.ID == id {
			if p.Version != version {
				return nil, domain.ErrVersionConflict
			}
			p.Status = status
			if artifactURL != "" {
				p.ArtifactURL = artifactURL
			}
			p.Version++
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProjects) SetEscalated(_ context.Context, id string, escalated bool) error {
	f.escalated[id] = escalated
	return nil
}

type fakeCollabs struct {
	roles map[string]string // userID -> role
}

func (f *fakeCollabs) RoleOf(_ context.Context, p *domain.Project, userID string) (string, error) {
	if p.OwnerID == userID {
		return domain.RoleOwner, nil
	}
	return f.roles[userID], nil
}

func (f *fakeCollabs) List(_ context.Context, _ string) ([]domain.Collaborator, error) {
	return nil, nil
}
func (f *fakeCollabs) Add(_ context.Context, _, _, _ string) error { return nil }
func (f *fakeCollabs) Remove(_ context.Context, _, _ string) (bool, error) {
	return true, nil
}

type fakeAdmins struct{ ids []string }

func (f *fakeAdmins) ListAdminIDs(_ context.Context) ([]string, error) { return f.ids, nil }

type sentNotification struct {
	Recipients []string
	ProjectID  string
	Type       string
}

type fakeNotifier struct{ sent []sentNotification }

func (f *fakeNotifier) Notify(_ context.Context, recipients []string, projectID, typ, _, _ string) {
	f.sent = append(f.sent, sentNotification{Recipients: recipients, ProjectID: projectID, Type: typ})
}

type fakeAudit struct{ entries []audit.Entry }

func (f *fakeAudit) Append(_ context.Context, e *audit.Entry) error {
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeAudit) ListByProject(_ context.Context, projectID string) ([]audit.Entry, error) {
	out := []audit.Entry{}
	for _, e := range f.entries {
		if e.ProjectID == projectID {
			out = append(out, e)
		}
	}
	return out, nil
}

func newService(store *fakeProjects, collabs *fakeCollabs, notifier *fakeNotifier, auditLog *fakeAudit, adminIDs ...string) *ProjectService {
	if collabs == nil {
		collabs = &fakeCollabs{}
	}
	return NewProjectService(store, collabs, &fakeAdmins{ids: adminIDs}, notifier, auditLog, workflow.DefaultConfig())
}

func creativeProject(status string) *domain.Project {
	return &domain.Project{
		ID:         "id-pitch",
		PublicID:   "atlas-11111-2222",
		OwnerID:    "owner-1",
		Department: workflow.DeptCreative,
		Type:       workflow.TypeInvestorPitch,
		Status:     status,
		Name:       "Northwind Pitch",
		Version:    3,
	}
}

func TestCreate_AssignsInitialStatusAndDefaultType(t *testing.T) {
	store := newFakeProjects()
	svc := newService(store, nil, &fakeNotifier{}, &fakeAudit{})

	p, err := svc.Create(context.Background(), domain.CreateProjectRequest{
		OwnerID:    "owner-1",
		Department: workflow.DeptStrategy,
		Name:       "q3-research",
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusResearchQueued, p.Status)
	assert.Equal(t, workflow.TypeMarketResearch, p.Type)
}

func TestCreate_RejectsForeignType(t *testing.T) {
	svc := newService(newFakeProjects(), nil, &fakeNotifier{}, &fakeAudit{})

	_, err := svc.Create(context.Background(), domain.CreateProjectRequest{
		OwnerID:    "owner-1",
		Department: workflow.DeptCreative,
		Type:       workflow.TypeMarketResearch,
		Name:       "bad",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestChangeStatus_HappyPath(t *testing.T) {
	p := creativeProject(workflow.StatusRequested)
	store := newFakeProjects(p)
	auditLog := &fakeAudit{}
	svc := newService(store, nil, &fakeNotifier{}, auditLog)

	updated, err := svc.ChangeStatus(context.Background(), false, p.PublicID, domain.StatusChangeRequest{
		ActorID: "owner-1",
		Status:  workflow.StatusInProgress,
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusInProgress, updated.Status)
	assert.Equal(t, 4, updated.Version)
	require.Len(t, auditLog.entries, 1)
	assert.Equal(t, audit.ActionStatusChanged, auditLog.entries[0].Action)
}

func TestChangeStatus_IllegalTransition(t *testing.T) {
	p := creativeProject(workflow.StatusRequested)
	svc := newService(newFakeProjects(p), nil, &fakeNotifier{}, &fakeAudit{})

	_, err := svc.ChangeStatus(context.Background(), false, p.PublicID, domain.StatusChangeRequest{
		ActorID: "owner-1",
		Status:  workflow.StatusLive,
	})

	var terr *workflow.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, workflow.ReasonIllegalTransition, terr.Reason)
	assert.Equal(t, []string{workflow.StatusInProgress}, terr.Allowed)
}

func TestChangeStatus_RejectsBadArtifactURL(t *testing.T) {
	p := creativeProject(workflow.StatusReview)
	svc := newService(newFakeProjects(p), nil, &fakeNotifier{}, &fakeAudit{})

	_, err := svc.ChangeStatus(context.Background(), false, p.PublicID, domain.StatusChangeRequest{
		ActorID:     "owner-1",
		Status:      workflow.StatusLive,
		ArtifactURL: "not a url",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestChangeStatus_NonMemberGetsNotFound(t *testing.T) {
	p := creativeProject(workflow.StatusRequested)
	svc := newService(newFakeProjects(p), &fakeCollabs{}, &fakeNotifier{}, &fakeAudit{})

	_, err := svc.ChangeStatus(context.Background(), false, p.PublicID, domain.StatusChangeRequest{
		ActorID: "stranger",
		Status:  workflow.StatusInProgress,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChangeStatus_ViewerForbidden(t *testing.T) {
	p := creativeProject(workflow.StatusRequested)
	collabs := &fakeCollabs{roles: map[string]string{"viewer-1": domain.RoleViewer}}
	svc := newService(newFakeProjects(p), collabs, &fakeNotifier{}, &fakeAudit{})

	_, err := svc.ChangeStatus(context.Background(), false, p.PublicID, domain.StatusChangeRequest{
		ActorID: "viewer-1",
		Status:  workflow.StatusInProgress,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestApproval_ApproveCreativeReviewGoesLive(t *testing.T) {
	p := creativeProject(workflow.StatusReview)
	store := newFakeProjects(p)
	notifier := &fakeNotifier{}
	svc := newService(store, nil, notifier, &fakeAudit{}, "admin-1", "admin-2")

	updated, err := svc.Approval(context.Background(), true, p.PublicID, domain.ApprovalRequest{
		ActorID: "admin-1",
		Action:  domain.ActionApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusLive, updated.Status)

	// owner gets status_live, admins get client_approved
	require.Len(t, notifier.sent, 2)
	assert.Equal(t, []string{"owner-1"}, notifier.sent[0].Recipients)
	assert.Equal(t, notifications.TypeStatusLive, notifier.sent[0].Type)
	assert.Equal(t, []string{"admin-1", "admin-2"}, notifier.sent[1].Recipients)
	assert.Equal(t, notifications.TypeClientApproved, notifier.sent[1].Type)
}

func TestApproval_RequestChangesMovesToRevisions(t *testing.T) {
	p := creativeProject(workflow.StatusReview)
	notifier := &fakeNotifier{}
	svc := newService(newFakeProjects(p), nil, notifier, &fakeAudit{}, "admin-1")

	updated, err := svc.Approval(context.Background(), true, p.PublicID, domain.ApprovalRequest{
		ActorID: "admin-1",
		Action:  domain.ActionRequestChanges,
		Message: "tighten the deck",
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRevisions, updated.Status)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notifications.TypeChangesRequested, notifier.sent[0].Type)
}

func TestApproval_EscalateKeepsStatus(t *testing.T) {
	p := creativeProject(workflow.StatusReview)
	store := newFakeProjects(p)
	notifier := &fakeNotifier{}
	svc := newService(store, nil, notifier, &fakeAudit{}, "admin-1")

	updated, err := svc.Approval(context.Background(), true, p.PublicID, domain.ApprovalRequest{
		ActorID: "admin-1",
		Action:  domain.ActionEscalate,
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusReview, updated.Status)
	assert.True(t, updated.Escalated)
	assert.True(t, store.escalated[p.ID])

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notifications.TypeEscalationRaised, notifier.sent[0].Type)
}

func TestApproval_OutsideReviewIsConflict(t *testing.T) {
	p := creativeProject(workflow.StatusInProgress)
	store := newFakeProjects(p)
	notifier := &fakeNotifier{}
	svc := newService(store, nil, notifier, &fakeAudit{}, "admin-1")

	_, err := svc.Approval(context.Background(), true, p.PublicID, domain.ApprovalRequest{
		ActorID: "admin-1",
		Action:  domain.ActionApprove,
	})
	assert.ErrorIs(t, err, domain.ErrNotInReview)

	// no mutation, no notifications
	current, _ := store.GetByPublicID(context.Background(), p.PublicID)
	assert.Equal(t, workflow.StatusInProgress, current.Status)
	assert.Equal(t, 3, current.Version)
	assert.Empty(t, notifier.sent)
}

func TestApproval_StrategyResearchReview(t *testing.T) {
	p := &domain.Project{
		ID:         "id-res",
		PublicID:   "atlas-33333-4444",
		OwnerID:    "owner-2",
		Department: workflow.DeptStrategy,
		Type:       workflow.TypeMarketResearch,
		Status:     workflow.StatusResearchReview,
		Name:       "Q3 Market Scan",
		Version:    1,
	}
	notifier := &fakeNotifier{}
	svc := newService(newFakeProjects(p), nil, notifier, &fakeAudit{}, "admin-1")

	updated, err := svc.Approval(context.Background(), true, p.PublicID, domain.ApprovalRequest{
		ActorID: "admin-1",
		Action:  domain.ActionApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusResearchComplete, updated.Status)

	// strategy has no live status, so the owner sees client_approved
	require.NotEmpty(t, notifier.sent)
	assert.Equal(t, notifications.TypeClientApproved, notifier.sent[0].Type)
}

func TestHistory_ReturnsTrailForMembers(t *testing.T) {
	p := creativeProject(workflow.StatusInProgress)
	store := newFakeProjects(p)
	audits := &fakeAudit{}
	svc := newService(store, nil, &fakeNotifier{}, audits)

	_, err := svc.ChangeStatus(context.Background(), false, p.PublicID, domain.StatusChangeRequest{
		ActorID: "owner-1",
		Status:  workflow.StatusNarrativeReview,
	})
	require.NoError(t, err)

	entries, err := svc.History(context.Background(), "owner-1", false, p.PublicID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionStatusChanged, entries[0].Action)
	assert.Equal(t, workflow.StatusNarrativeReview, entries[0].Detail["to"])

	_, err = svc.History(context.Background(), "stranger", false, p.PublicID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
