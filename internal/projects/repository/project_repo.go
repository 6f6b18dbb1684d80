package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-collective/portal-backend/internal/projects/domain"
	"github.com/atlas-collective/portal-backend/internal/workflow"
)

const projectColumns = `
id::text, public_id, owner_id::text, department, type, status, name,
coalesce(company,''), coalesce(audience,''), coalesce(notes,''),
coalesce(artifact_url,''), escalated, coalesce(promoted_from,''),
version, created_at, updated_at`

// ProjectRepository persists projects. Department/type/status enum
// membership is enforced here, at the store boundary, so no row can
// carry a status outside its department's lifecycle.
type ProjectRepository struct {
	db  *pgxpool.Pool
	cfg *workflow.Config
}

func NewProjectRepository(db *pgxpool.Pool, cfg *workflow.Config) *ProjectRepository {
	return &ProjectRepository{db: db, cfg: cfg}
}

func (r *ProjectRepository) checkEnums(p *domain.Project) error {
	if !r.cfg.KnownDepartment(p.Department) {
		return fmt.Errorf("%w: unknown department %q", domain.ErrInvalidPayload, p.Department)
	}
	if !r.cfg.ValidType(p.Department, p.Type) {
		return fmt.Errorf("%w: type %q not valid for department %q", domain.ErrInvalidPayload, p.Type, p.Department)
	}
	if !r.cfg.ValidStatus(p.Department, p.Status) {
		return fmt.Errorf("%w: status %q not valid for department %q", domain.ErrInvalidPayload, p.Status, p.Department)
	}
	return nil
}

// Create inserts a project, retrying on public-id collision.
func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name required", domain.ErrInvalidPayload)
	}
	if err := r.checkEnums(p); err != nil {
		return err
	}

	for i := 0; i < 5; i++ {
		publicID, err := domain.NewPublicID("atlas")
		if err != nil {
			return err
		}

		const q = `
insert into projects (public_id, owner_id, department, type, status, name, company, audience, notes, promoted_from)
values ($1, $2::uuid, $3, $4, $5, $6, nullif($7,''), nullif($8,''), nullif($9,''), nullif($10,''))
returning ` + projectColumns + `;`

		err = r.db.QueryRow(ctx, q,
			publicID, p.OwnerID, p.Department, p.Type, p.Status,
			p.Name, p.Company, p.Audience, p.Notes, p.PromotedFrom,
		).Scan(scanTargets(p)...)

		if err == nil {
			return nil
		}

		// unique violation on public_id → retry
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "public_id") {
			continue
		}
		return err
	}

	return fmt.Errorf("failed to generate unique project id")
}

func (r *ProjectRepository) GetByPublicID(ctx context.Context, publicID string) (*domain.Project, error) {
	const q = `select ` + projectColumns + ` from projects where public_id = $1;`

	var p domain.Project
	err := r.db.QueryRow(ctx, q, publicID).Scan(scanTargets(&p)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListFilter scopes a project listing. When Admin is false only rows
// the user owns or collaborates on are returned. Query is a capped
// case-insensitive substring match over name and company.
type ListFilter struct {
	UserID     string
	Admin      bool
	Department workflow.Department
	Query      string
}

const maxQueryLen = 64

func (r *ProjectRepository) List(ctx context.Context, f ListFilter) ([]domain.Project, error) {
	q := `select ` + projectColumns + ` from projects p where true`
	args := []any{}

	if !f.Admin {
		args = append(args, f.UserID)
		q += fmt.Sprintf(` and (p.owner_id = $%d::uuid or exists (
			select 1 from project_collaborators pc
			where pc.project_id = p.id and pc.user_id = $%d::uuid))`, len(args), len(args))
	}
	if f.Department != "" {
		args = append(args, string(f.Department))
		q += fmt.Sprintf(" and p.department = $%d", len(args))
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		if len(s) > maxQueryLen {
			s = s[:maxQueryLen]
		}
		args = append(args, "%"+s+"%")
		q += fmt.Sprintf(" and (p.name ilike $%d or p.company ilike $%d)", len(args), len(args))
	}
	q += " order by p.updated_at desc limit 200;"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProjects(rows)
}

// ListByStatus returns projects in one department+status, optionally
// restricted to rows scopeUserID has membership on (empty = unscoped).
func (r *ProjectRepository) ListByStatus(ctx context.Context, dept workflow.Department, status, scopeUserID string) ([]domain.Project, error) {
	q := `select ` + projectColumns + ` from projects p where p.department = $1 and p.status = $2`
	args := []any{string(dept), status}

	if scopeUserID != "" {
		args = append(args, scopeUserID)
		q += fmt.Sprintf(` and (p.owner_id = $%d::uuid or exists (
			select 1 from project_collaborators pc
			where pc.project_id = p.id and pc.user_id = $%d::uuid))`, len(args), len(args))
	}
	q += " order by p.updated_at desc;"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProjects(rows)
}

// UpdateStatus applies an already-validated status change with an
// optimistic version check. Zero rows with the project present means a
// concurrent writer won the race.
func (r *ProjectRepository) UpdateStatus(ctx context.Context, id string, version int, status, artifactURL string) (*domain.Project, error) {
	const q = `
update projects
set status = $3,
    artifact_url = coalesce(nullif($4,''), artifact_url),
    version = version + 1,
    updated_at = now()
where id = $1::uuid and version = $2
returning ` + projectColumns + `;`

	var p domain.Project
	err := r.db.QueryRow(ctx, q, id, version, status, artifactURL).Scan(scanTargets(&p)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVersionConflict
		}
		return nil, err
	}
	return &p, nil
}

// BumpVersion claims the source row for a promotion; a failed check
// means a concurrent promotion or status change got there first.
func (r *ProjectRepository) BumpVersion(ctx context.Context, id string, version int) error {
	const q = `
update projects
set version = version + 1, updated_at = now()
where id = $1::uuid and version = $2;
`
	ct, err := r.db.Exec(ctx, q, id, version)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

// SetEscalated raises or clears the admin-visible escalation flag
// without touching status or version.
func (r *ProjectRepository) SetEscalated(ctx context.Context, id string, escalated bool) error {
	const q = `update projects set escalated = $2, updated_at = now() where id = $1::uuid;`
	_, err := r.db.Exec(ctx, q, id, escalated)
	return err
}

func scanTargets(p *domain.Project) []any {
	return []any{
		&p.ID, &p.PublicID, &p.OwnerID, &p.Department, &p.Type, &p.Status, &p.Name,
		&p.Company, &p.Audience, &p.Notes, &p.ArtifactURL, &p.Escalated,
		&p.PromotedFrom, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	}
}

func collectProjects(rows pgx.Rows) ([]domain.Project, error) {
	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(scanTargets(&p)...); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
