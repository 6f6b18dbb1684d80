package promotion

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RefRepository persists cross-department provenance edges. Rows are
// insert-only; there is no update path.
type RefRepository struct {
	db *pgxpool.Pool
}

func NewRefRepository(db *pgxpool.Pool) *RefRepository {
	return &RefRepository{db: db}
}

func (r *RefRepository) Create(ctx context.Context, ref *Ref) error {
	meta := ref.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	const q = `
insert into cross_department_refs
  (source_department, source_kind, source_id, target_department, target_kind, target_id, relation, metadata)
values ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
returning id::text, created_at;
`
	err = r.db.QueryRow(ctx, q,
		ref.SourceDepartment, ref.SourceKind, ref.SourceID,
		ref.TargetDepartment, ref.TargetKind, ref.TargetID,
		ref.Relation, raw,
	).Scan(&ref.ID, &ref.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

// ListBySource returns every edge leaving one source entity.
func (r *RefRepository) ListBySource(ctx context.Context, sourceID, relation string) ([]Ref, error) {
	const q = `
select id::text, source_department, source_kind, source_id,
       target_department, target_kind, target_id, relation, metadata, created_at
from cross_department_refs
where source_id = $1 and relation = $2
order by created_at;
`
	rows, err := r.db.Query(ctx, q, sourceID, relation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Ref, 0, 4)
	for rows.Next() {
		var ref Ref
		var raw []byte
		if err := rows.Scan(&ref.ID, &ref.SourceDepartment, &ref.SourceKind, &ref.SourceID,
			&ref.TargetDepartment, &ref.TargetKind, &ref.TargetID, &ref.Relation, &raw, &ref.CreatedAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &ref.Metadata)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// PromotedSourceIDs filters ids down to those that already have a
// promoted_to edge created since the given time (zero time = ever).
// This is the anti-join the attention aggregator runs before emitting
// items, so already-handled entities never surface.
func (r *RefRepository) PromotedSourceIDs(ctx context.Context, ids []string, since time.Time) (map[string]bool, error) {
	if len(ids) == 0 {
		return map[string]bool{}, nil
	}

	const q = `
select distinct source_id
from cross_department_refs
where relation = $1 and source_id = any($2) and created_at >= $3;
`
	rows, err := r.db.Query(ctx, q, RelationPromotedTo, ids, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]bool, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}
