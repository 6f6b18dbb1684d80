package sweep

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UnreconciledPromotion is a promotion whose target project exists but
// whose provenance edge was lost (the ref write is best-effort during
// the promotion itself).
type UnreconciledPromotion struct {
	SourceID         string
	TargetPublicID   string
	TargetDepartment string
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// UnreconciledPromotions finds projects carrying a promoted_from marker
// with no matching promoted_to ref pointing at them.
func (r *Repo) UnreconciledPromotions(ctx context.Context) ([]UnreconciledPromotion, error) {
	const q = `
select p.promoted_from, p.public_id, p.department
from projects p
where p.promoted_from is not null
  and not exists (
    select 1 from cross_department_refs ref
    where ref.relation = 'promoted_to'
      and ref.source_id = p.promoted_from
      and ref.target_id = p.public_id
  )
order by p.created_at;
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]UnreconciledPromotion, 0, 4)
	for rows.Next() {
		var u UnreconciledPromotion
		if err := rows.Scan(&u.SourceID, &u.TargetPublicID, &u.TargetDepartment); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
