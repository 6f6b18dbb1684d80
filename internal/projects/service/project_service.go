package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/atlas-collective/portal-backend/internal/audit"
	"github.com/atlas-collective/portal-backend/internal/notifications"
	"github.com/atlas-collective/portal-backend/internal/projects/domain"
	"github.com/atlas-collective/portal-backend/internal/projects/repository"
	"github.com/atlas-collective/portal-backend/internal/workflow"
)

// ProjectStore is the persistence surface the service needs; satisfied
// by repository.ProjectRepository.
type ProjectStore interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByPublicID(ctx context.Context, publicID string) (*domain.Project, error)
	List(ctx context.Context, f repository.ListFilter) ([]domain.Project, error)
	UpdateStatus(ctx context.Context, id string, version int, status, artifactURL string) (*domain.Project, error)
	SetEscalated(ctx context.Context, id string, escalated bool) error
}

// CollaboratorStore resolves and mutates project membership.
type CollaboratorStore interface {
	RoleOf(ctx context.Context, p *domain.Project, userID string) (string, error)
	List(ctx context.Context, projectID string) ([]domain.Collaborator, error)
	Add(ctx context.Context, projectID, userID, role string) error
	Remove(ctx context.Context, projectID, userID string) (bool, error)
}

// AdminDirectory lists notification recipients holding the admin role.
type AdminDirectory interface {
	ListAdminIDs(ctx context.Context) ([]string, error)
}

// Notifier is the best-effort fan-out surface; satisfied by
// notifications.Dispatcher.
type Notifier interface {
	Notify(ctx context.Context, recipients []string, projectID, typ, title, body string)
}

// AuditLog appends and reads immutable audit entries.
type AuditLog interface {
	Append(ctx context.Context, e *audit.Entry) error
	ListByProject(ctx context.Context, projectID string) ([]audit.Entry, error)
}

// ProjectService carries the per-department lifecycle rules: creation,
// status changes and approval actions. Promotion lives in its own
// coordinator.
type ProjectService struct {
	projects  ProjectStore
	collabs   CollaboratorStore
	admins    AdminDirectory
	notifier  Notifier
	auditLog  AuditLog
	cfg       *workflow.Config
	validator *workflow.Validator
}

func NewProjectService(
	projects ProjectStore,
	collabs CollaboratorStore,
	admins AdminDirectory,
	notifier Notifier,
	auditLog AuditLog,
	cfg *workflow.Config,
) *ProjectService {
	return &ProjectService{
		projects:  projects,
		collabs:   collabs,
		admins:    admins,
		notifier:  notifier,
		auditLog:  auditLog,
		cfg:       cfg,
		validator: workflow.NewValidator(cfg),
	}
}

// Create registers a human submission. Status is always the
// department's initial status; the type must belong to the
// department's enum.
func (s *ProjectService) Create(ctx context.Context, req domain.CreateProjectRequest) (*domain.Project, error) {
	if !s.cfg.KnownDepartment(req.Department) {
		return nil, fmt.Errorf("%w: unknown department %q", domain.ErrInvalidPayload, req.Department)
	}

	typ := req.Type
	if typ == "" {
		typ = s.cfg.DefaultType(req.Department)
	}
	if !s.cfg.ValidType(req.Department, typ) {
		return nil, fmt.Errorf("%w: type %q not valid for %s (allowed: %s)",
			domain.ErrInvalidPayload, typ, req.Department, strings.Join(s.cfg.Types(req.Department), ", "))
	}

	p := &domain.Project{
		OwnerID:    req.OwnerID,
		Department: req.Department,
		Type:       typ,
		Status:     s.validator.InitialStatus(req.Department),
		Name:       strings.TrimSpace(req.Name),
		Company:    req.Company,
		Audience:   req.Audience,
		Notes:      req.Notes,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get loads a project the caller may see. Non-members get ErrNotFound
// rather than ErrForbidden so the listing does not leak existence.
func (s *ProjectService) Get(ctx context.Context, callerID string, admin bool, publicID string) (*domain.Project, []domain.Collaborator, error) {
	p, err := s.projects.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, nil, err
	}

	if !admin {
		role, err := s.collabs.RoleOf(ctx, p, callerID)
		if err != nil {
			return nil, nil, err
		}
		if role == "" {
			return nil, nil, domain.ErrNotFound
		}
	}

	cols, err := s.collabs.List(ctx, p.ID)
	if err != nil {
		return nil, nil, err
	}
	return p, cols, nil
}

func (s *ProjectService) List(ctx context.Context, f repository.ListFilter) ([]domain.Project, error) {
	return s.projects.List(ctx, f)
}

// History returns the project's audit trail. Same visibility rule as
// Get: any member or an admin.
func (s *ProjectService) History(ctx context.Context, callerID string, admin bool, publicID string) ([]audit.Entry, error) {
	p, err := s.projects.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	if !admin {
		role, err := s.collabs.RoleOf(ctx, p, callerID)
		if err != nil {
			return nil, err
		}
		if role == "" {
			return nil, domain.ErrNotFound
		}
	}

	return s.auditLog.ListByProject(ctx, p.PublicID)
}

// ChangeStatus validates and applies a lifecycle move. Everything up to
// the status write is strict; the audit entry and notification after it
// are best-effort.
func (s *ProjectService) ChangeStatus(ctx context.Context, admin bool, publicID string, req domain.StatusChangeRequest) (*domain.Project, error) {
	p, err := s.projects.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	if err := s.requireEditor(ctx, p, req.ActorID, admin); err != nil {
		return nil, err
	}

	if req.ArtifactURL != "" {
		if err := validateArtifactURL(req.ArtifactURL); err != nil {
			return nil, err
		}
	}

	if err := s.validator.Validate(p.Department, p.Status, req.Status); err != nil {
		return nil, err
	}

	prior := p.Status
	updated, err := s.projects.UpdateStatus(ctx, p.ID, p.Version, req.Status, req.ArtifactURL)
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, &audit.Entry{
		ActorID:   req.ActorID,
		Action:    audit.ActionStatusChanged,
		ProjectID: updated.PublicID,
		Detail:    map[string]string{"from": prior, "to": updated.Status},
	})

	if updated.OwnerID != req.ActorID {
		s.notifier.Notify(ctx, []string{updated.OwnerID}, updated.PublicID,
			notifications.TypeStatusChanged,
			fmt.Sprintf("%s moved to %s", updated.Name, updated.Status), "")
	}

	return updated, nil
}

// Approval resolves a review gate. Only valid while the project sits in
// one of its department's review statuses; everything else is a
// conflict with no mutation and no notifications.
func (s *ProjectService) Approval(ctx context.Context, admin bool, publicID string, req domain.ApprovalRequest) (*domain.Project, error) {
	p, err := s.projects.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	if err := s.requireEditor(ctx, p, req.ActorID, admin); err != nil {
		return nil, err
	}

	outcome, inReview := s.cfg.ReviewOutcome(p.Department, p.Status)
	if !inReview {
		return nil, domain.ErrNotInReview
	}

	switch req.Action {
	case domain.ActionApprove:
		return s.resolveApprove(ctx, p, req, outcome)
	case domain.ActionRequestChanges:
		return s.resolveRequestChanges(ctx, p, req, outcome)
	case domain.ActionEscalate:
		return s.resolveEscalate(ctx, p, req)
	default:
		return nil, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidPayload, req.Action)
	}
}

func (s *ProjectService) resolveApprove(ctx context.Context, p *domain.Project, req domain.ApprovalRequest, outcome workflow.ApprovalOutcome) (*domain.Project, error) {
	updated, err := s.projects.UpdateStatus(ctx, p.ID, p.Version, outcome.Approved, "")
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, &audit.Entry{
		ActorID:   req.ActorID,
		Action:    audit.ActionApproval,
		ProjectID: updated.PublicID,
		Detail:    map[string]string{"action": req.Action, "from": p.Status, "to": updated.Status},
	})

	ownerType := notifications.TypeClientApproved
	ownerTitle := fmt.Sprintf("%s was approved", updated.Name)
	if updated.Status == s.cfg.LiveStatus(updated.Department) {
		ownerType = notifications.TypeStatusLive
		ownerTitle = fmt.Sprintf("%s is live", updated.Name)
	}
	s.notifier.Notify(ctx, []string{updated.OwnerID}, updated.PublicID, ownerType, ownerTitle, req.Message)

	admins := s.adminRecipients(ctx)
	s.notifier.Notify(ctx, admins, updated.PublicID, notifications.TypeClientApproved,
		fmt.Sprintf("%s approved (%s)", updated.Name, updated.Status), req.Message)

	return updated, nil
}

func (s *ProjectService) resolveRequestChanges(ctx context.Context, p *domain.Project, req domain.ApprovalRequest, outcome workflow.ApprovalOutcome) (*domain.Project, error) {
	updated, err := s.projects.UpdateStatus(ctx, p.ID, p.Version, outcome.ChangesRequested, "")
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, &audit.Entry{
		ActorID:   req.ActorID,
		Action:    audit.ActionApproval,
		ProjectID: updated.PublicID,
		Detail:    map[string]string{"action": req.Action, "from": p.Status, "to": updated.Status},
	})

	admins := s.adminRecipients(ctx)
	s.notifier.Notify(ctx, admins, updated.PublicID, notifications.TypeChangesRequested,
		fmt.Sprintf("Changes requested on %s", updated.Name), req.Message)

	return updated, nil
}

func (s *ProjectService) resolveEscalate(ctx context.Context, p *domain.Project, req domain.ApprovalRequest) (*domain.Project, error) {
	// escalation never moves the status
	if err := s.projects.SetEscalated(ctx, p.ID, true); err != nil {
		return nil, err
	}
	p.Escalated = true

	s.appendAudit(ctx, &audit.Entry{
		ActorID:   req.ActorID,
		Action:    audit.ActionApproval,
		ProjectID: p.PublicID,
		Detail:    map[string]string{"action": req.Action, "status": p.Status},
	})

	admins := s.adminRecipients(ctx)
	s.notifier.Notify(ctx, admins, p.PublicID, notifications.TypeEscalationRaised,
		fmt.Sprintf("Escalation raised on %s", p.Name), req.Message)

	return p, nil
}

// AddCollaborator and RemoveCollaborator require owner or admin.
func (s *ProjectService) AddCollaborator(ctx context.Context, callerID string, admin bool, publicID, userID, role string) error {
	p, err := s.projects.GetByPublicID(ctx, publicID)
	if err != nil {
		return err
	}
	if !admin && p.OwnerID != callerID {
		return domain.ErrForbidden
	}

	switch role {
	case domain.RoleEditor, domain.RoleViewer:
	default:
		return fmt.Errorf("%w: role must be %s or %s", domain.ErrInvalidPayload, domain.RoleEditor, domain.RoleViewer)
	}
	return s.collabs.Add(ctx, p.ID, userID, role)
}

func (s *ProjectService) RemoveCollaborator(ctx context.Context, callerID string, admin bool, publicID, userID string) error {
	p, err := s.projects.GetByPublicID(ctx, publicID)
	if err != nil {
		return err
	}
	if !admin && p.OwnerID != callerID {
		return domain.ErrForbidden
	}

	removed, err := s.collabs.Remove(ctx, p.ID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return domain.ErrNotFound
	}
	return nil
}

// requireEditor allows admins, owners and editors through; viewers and
// non-members are rejected.
func (s *ProjectService) requireEditor(ctx context.Context, p *domain.Project, callerID string, admin bool) error {
	if admin {
		return nil
	}
	role, err := s.collabs.RoleOf(ctx, p, callerID)
	if err != nil {
		return err
	}
	if role == domain.RoleOwner || role == domain.RoleEditor {
		return nil
	}
	if role == "" {
		return domain.ErrNotFound
	}
	return domain.ErrForbidden
}

func (s *ProjectService) adminRecipients(ctx context.Context) []string {
	admins, err := s.admins.ListAdminIDs(ctx)
	if err != nil {
		log.Printf("[projects] list admin recipients failed: %v", err)
		return nil
	}
	return admins
}

func (s *ProjectService) appendAudit(ctx context.Context, e *audit.Entry) {
	if err := s.auditLog.Append(ctx, e); err != nil {
		log.Printf("[projects] audit append action=%s project=%s failed: %v", e.Action, e.ProjectID, err)
	}
}

func validateArtifactURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: artifact_url must be an absolute http(s) url", domain.ErrInvalidPayload)
	}
	return nil
}
