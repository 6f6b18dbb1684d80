package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-collective/portal-backend/internal/projects/domain"
)

// CollaboratorRepository manages the membership edges of a project.
type CollaboratorRepository struct {
	db *pgxpool.Pool
}

func NewCollaboratorRepository(db *pgxpool.Pool) *CollaboratorRepository {
	return &CollaboratorRepository{db: db}
}

func (r *CollaboratorRepository) Add(ctx context.Context, projectID, userID, role string) error {
	const q = `
insert into project_collaborators (project_id, user_id, role)
values ($1::uuid, $2::uuid, $3)
on conflict (project_id, user_id) do update set role = excluded.role;
`
	_, err := r.db.Exec(ctx, q, projectID, userID, role)
	return err
}

func (r *CollaboratorRepository) Remove(ctx context.Context, projectID, userID string) (bool, error) {
	const q = `delete from project_collaborators where project_id = $1::uuid and user_id = $2::uuid;`
	ct, err := r.db.Exec(ctx, q, projectID, userID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *CollaboratorRepository) List(ctx context.Context, projectID string) ([]domain.Collaborator, error) {
	const q = `
select user_id::text, role, created_at
from project_collaborators
where project_id = $1::uuid
order by created_at;
`
	rows, err := r.db.Query(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Collaborator, 0, 8)
	for rows.Next() {
		var col domain.Collaborator
		if err := rows.Scan(&col.UserID, &col.Role, &col.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, col)
	}
	return out, rows.Err()
}

// CopyTo clones every collaborator edge from one project onto another
// with identical roles. Used by promotion.
func (r *CollaboratorRepository) CopyTo(ctx context.Context, fromProjectID, toProjectID string) (int, error) {
	const q = `
insert into project_collaborators (project_id, user_id, role)
select $2::uuid, user_id, role
from project_collaborators
where project_id = $1::uuid
on conflict (project_id, user_id) do nothing;
`
	ct, err := r.db.Exec(ctx, q, fromProjectID, toProjectID)
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}

// RoleOf resolves the caller's effective role: owner beats any
// collaborator row; no membership yields "".
func (r *CollaboratorRepository) RoleOf(ctx context.Context, p *domain.Project, userID string) (string, error) {
	if p.OwnerID == userID {
		return domain.RoleOwner, nil
	}

	const q = `select role from project_collaborators where project_id = $1::uuid and user_id = $2::uuid;`
	var role string
	err := r.db.QueryRow(ctx, q, p.ID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return role, nil
}
