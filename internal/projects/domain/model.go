package domain

import (
	"time"

	"github.com/atlas-collective/portal-backend/internal/workflow"
)

// Project is the central entity of the portal. One struct serves all
// three departments; Department tags the row and the store boundary
// enforces that Type and Status belong to that department's enums.
type Project struct {
	ID           string              `json:"-"`
	PublicID     string              `json:"public_id"`
	OwnerID      string              `json:"owner_id"`
	Department   workflow.Department `json:"department"`
	Type         string              `json:"type"`
	Status       string              `json:"status"`
	Name         string              `json:"name"`
	Company      string              `json:"company,omitempty"`
	Audience     string              `json:"audience,omitempty"`
	Notes        string              `json:"notes,omitempty"`
	ArtifactURL  string              `json:"artifact_url,omitempty"`
	Escalated    bool                `json:"escalated"`
	PromotedFrom string              `json:"promoted_from,omitempty"`
	Version      int                 `json:"version"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// Collaborator links a user to a project with a role.
type Collaborator struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Collaborator roles.
const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// CreateProjectRequest carries a human submission.
type CreateProjectRequest struct {
	OwnerID    string
	Department workflow.Department
	Type       string
	Name       string
	Company    string
	Audience   string
	Notes      string
}

// StatusChangeRequest carries a requested lifecycle move.
type StatusChangeRequest struct {
	ActorID     string
	Status      string
	ArtifactURL string
}

// Approval actions on a review-gated project.
const (
	ActionApprove        = "approve"
	ActionRequestChanges = "request_changes"
	ActionEscalate       = "escalate"
)

type ApprovalRequest struct {
	ActorID string
	Action  string
	Message string
}
