package promotion

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/atlas-collective/portal-backend/internal/audit"
	"github.com/atlas-collective/portal-backend/internal/notifications"
	"github.com/atlas-collective/portal-backend/internal/projects/domain"
	"github.com/atlas-collective/portal-backend/internal/workflow"
)

// ProjectStore is the slice of the project repository the coordinator
// needs.
type ProjectStore interface {
	GetByPublicID(ctx context.Context, publicID string) (*domain.Project, error)
	Create(ctx context.Context, p *domain.Project) error
	BumpVersion(ctx context.Context, id string, version int) error
}

// CollaboratorStore copies membership edges and resolves roles.
type CollaboratorStore interface {
	RoleOf(ctx context.Context, p *domain.Project, userID string) (string, error)
	CopyTo(ctx context.Context, fromProjectID, toProjectID string) (int, error)
}

// RefStore writes and reads provenance edges.
type RefStore interface {
	Create(ctx context.Context, ref *Ref) error
	ListBySource(ctx context.Context, sourceID, relation string) ([]Ref, error)
}

type AdminDirectory interface {
	ListAdminIDs(ctx context.Context) ([]string, error)
}

type Notifier interface {
	Notify(ctx context.Context, recipients []string, projectID, typ, title, body string)
}

type AuditLog interface {
	Append(ctx context.Context, e *audit.Entry) error
}

// PromoteRequest carries the caller's overrides for the new entity.
type PromoteRequest struct {
	ActorID          string
	TargetDepartment workflow.Department
	Type             string // empty -> department default
	Name             string // empty -> inherit
	Company          string // empty -> inherit
}

// Result reports what the promotion produced. Warnings list the
// best-effort steps that failed after the target was created; their
// presence makes the response degraded, not failed.
type Result struct {
	Project  *domain.Project `json:"project"`
	Ref      *Ref            `json:"ref,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}

// Coordinator runs the promotion handoff as an ordered saga. Every
// check runs before the first durable write; once the target project
// exists, the remaining steps (collaborator copy, provenance edge,
// audit entry, notifications) are individually best-effort and never
// roll the target back. A missing provenance edge is repaired later by
// the consistency sweep.
type Coordinator struct {
	projects  ProjectStore
	collabs   CollaboratorStore
	refs      RefStore
	admins    AdminDirectory
	notifier  Notifier
	auditLog  AuditLog
	cfg       *workflow.Config
	validator *workflow.Validator
}

func NewCoordinator(
	projects ProjectStore,
	collabs CollaboratorStore,
	refs RefStore,
	admins AdminDirectory,
	notifier Notifier,
	auditLog AuditLog,
	cfg *workflow.Config,
) *Coordinator {
	return &Coordinator{
		projects:  projects,
		collabs:   collabs,
		refs:      refs,
		admins:    admins,
		notifier:  notifier,
		auditLog:  auditLog,
		cfg:       cfg,
		validator: workflow.NewValidator(cfg),
	}
}

// Promote hands a project off to a target department.
func (c *Coordinator) Promote(ctx context.Context, admin bool, sourcePublicID string, req PromoteRequest) (*Result, error) {
	source, err := c.projects.GetByPublicID(ctx, sourcePublicID)
	if err != nil {
		return nil, err
	}

	if err := c.requireEditor(ctx, source, req.ActorID, admin); err != nil {
		return nil, err
	}

	targets := c.cfg.PromotionTargets(source.Department)
	if len(targets) == 0 {
		return nil, ErrTerminalDepartment
	}

	if !containsDept(targets, req.TargetDepartment) {
		return nil, &PathError{Reason: ReasonInvalidPath, Allowed: deptStrings(targets)}
	}

	targetType := req.Type
	if targetType == "" {
		targetType = c.cfg.DefaultType(req.TargetDepartment)
	} else if !c.cfg.ValidType(req.TargetDepartment, targetType) {
		return nil, &PathError{Reason: ReasonInvalidType, Allowed: c.cfg.Types(req.TargetDepartment)}
	}

	// Claim the source row before writing anything: a concurrent
	// promotion or status change invalidates the version and this
	// request fails with a conflict instead of producing duplicates.
	if err := c.projects.BumpVersion(ctx, source.ID, source.Version); err != nil {
		return nil, err
	}

	target := &domain.Project{
		OwnerID:      source.OwnerID,
		Department:   req.TargetDepartment,
		Type:         targetType,
		Status:       c.validator.InitialStatus(req.TargetDepartment),
		Name:         firstNonEmpty(strings.TrimSpace(req.Name), source.Name),
		Company:      firstNonEmpty(req.Company, source.Company),
		Audience:     source.Audience,
		Notes:        source.Notes,
		PromotedFrom: source.PublicID,
	}
	if err := c.projects.Create(ctx, target); err != nil {
		return nil, fmt.Errorf("create target project: %w", err)
	}

	// Everything below is best-effort: the target exists and stays.
	res := &Result{Project: target}

	if _, err := c.collabs.CopyTo(ctx, source.ID, target.ID); err != nil {
		c.degrade(res, "copy collaborators", err)
	}

	ref := &Ref{
		SourceDepartment: source.Department,
		SourceKind:       KindProject,
		SourceID:         source.PublicID,
		TargetDepartment: target.Department,
		TargetKind:       KindProject,
		TargetID:         target.PublicID,
		Relation:         RelationPromotedTo,
		Metadata: map[string]string{
			"promoted_by":   req.ActorID,
			"source_status": source.Status,
		},
	}
	if err := c.refs.Create(ctx, ref); err != nil {
		c.degrade(res, "write provenance ref", err)
	} else {
		res.Ref = ref
	}

	if err := c.auditLog.Append(ctx, &audit.Entry{
		ActorID:   req.ActorID,
		Action:    audit.ActionPromotion,
		ProjectID: source.PublicID,
		Detail: map[string]string{
			"target":            target.PublicID,
			"target_department": string(target.Department),
			"source_status":     source.Status,
		},
	}); err != nil {
		c.degrade(res, "append audit entry", err)
	}

	if admins, err := c.admins.ListAdminIDs(ctx); err != nil {
		c.degrade(res, "list admin recipients", err)
	} else {
		c.notifier.Notify(ctx, admins, target.PublicID, notifications.TypePromotionCreated,
			fmt.Sprintf("%s promoted to %s", source.Name, target.Department),
			fmt.Sprintf("Source: %s (%s)", source.PublicID, source.Department))
	}
	c.notifier.Notify(ctx, []string{req.ActorID}, target.PublicID, notifications.TypePromotionConfirm,
		fmt.Sprintf("Promotion of %s complete", source.Name), "")

	return res, nil
}

// Refs lists the promotion edges leaving a project. Same visibility
// rule as reading the project itself: any member or an admin.
func (c *Coordinator) Refs(ctx context.Context, admin bool, callerID, sourcePublicID string) ([]Ref, error) {
	source, err := c.projects.GetByPublicID(ctx, sourcePublicID)
	if err != nil {
		return nil, err
	}

	if !admin {
		role, err := c.collabs.RoleOf(ctx, source, callerID)
		if err != nil {
			return nil, err
		}
		if role == "" {
			return nil, domain.ErrNotFound
		}
	}

	return c.refs.ListBySource(ctx, source.PublicID, RelationPromotedTo)
}

func (c *Coordinator) requireEditor(ctx context.Context, p *domain.Project, callerID string, admin bool) error {
	if admin {
		return nil
	}
	role, err := c.collabs.RoleOf(ctx, p, callerID)
	if err != nil {
		return err
	}
	switch role {
	case domain.RoleOwner, domain.RoleEditor:
		return nil
	case "":
		return domain.ErrNotFound
	default:
		return domain.ErrForbidden
	}
}

func (c *Coordinator) degrade(res *Result, step string, err error) {
	log.Printf("[promotion] %s failed for target=%s: %v", step, res.Project.PublicID, err)
	res.Warnings = append(res.Warnings, step+" failed")
}

func containsDept(ds []workflow.Department, d workflow.Department) bool {
	for _, v := range ds {
		if v == d {
			return true
		}
	}
	return false
}

func deptStrings(ds []workflow.Department) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = string(d)
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
