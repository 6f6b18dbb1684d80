package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

type Entry struct {
	ID        string            `json:"id"`
	ActorID   string            `json:"actor_id"`
	Action    string            `json:"action"`
	ProjectID string            `json:"project_id,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

const (
	ActionStatusChanged = "status_changed"
	ActionApproval      = "approval"
	ActionPromotion     = "promotion"
)

// Append writes one audit entry. Append-only; there is no update or
// delete path.
func (r *Repo) Append(ctx context.Context, e *Entry) error {
	detail := e.Detail
	if detail == nil {
		detail = map[string]string{}
	}
	raw, err := json.Marshal(detail)
	if err != nil {
		return err
	}

	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	const q = `
insert into audit_entries (id, actor_id, action, project_id, detail)
values ($1::uuid, $2::uuid, $3, nullif($4,''), $5::jsonb)
returning created_at;
`
	return r.db.QueryRow(ctx, q, e.ID, e.ActorID, e.Action, e.ProjectID, raw).
		Scan(&e.CreatedAt)
}

// ListByProject returns the audit trail for one project, newest first.
func (r *Repo) ListByProject(ctx context.Context, projectID string) ([]Entry, error) {
	const q = `
select id::text, actor_id::text, action, coalesce(project_id,''), detail, created_at
from audit_entries
where project_id = $1
order by created_at desc
limit 500;
`
	rows, err := r.db.Query(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0, 16)
	for rows.Next() {
		var e Entry
		var raw []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.ProjectID, &raw, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &e.Detail)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
