package notifications

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProjectID string    `json:"project_id,omitempty"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification type tags.
const (
	TypeStatusLive       = "status_live"
	TypeClientApproved   = "client_approved"
	TypeChangesRequested = "changes_requested"
	TypeEscalationRaised = "escalation_raised"
	TypePromotionCreated = "promotion_created"
	TypePromotionConfirm = "promotion_confirmed"
	TypeStatusChanged    = "status_changed"
)

func (r *Repo) Create(ctx context.Context, n *Notification) error {
	const q = `
insert into notifications (user_id, project_id, type, title, body)
values ($1::uuid, nullif($2,''), $3, $4, $5)
returning id::text, read, created_at;
`
	return r.db.QueryRow(ctx, q, n.UserID, n.ProjectID, n.Type, n.Title, n.Body).
		Scan(&n.ID, &n.Read, &n.CreatedAt)
}

func (r *Repo) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error) {
	q := `
select id::text, user_id::text, coalesce(project_id,''), type, title, coalesce(body,''), read, created_at
from notifications
where user_id = $1::uuid
`
	if unreadOnly {
		q += " and not read"
	}
	q += " order by created_at desc limit 200;"

	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Notification, 0, 16)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.ProjectID, &n.Type, &n.Title, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flips the read flag. The user filter enforces that only the
// owning recipient can mutate it.
func (r *Repo) MarkRead(ctx context.Context, userID, notificationID string) (bool, error) {
	const q = `
update notifications
set read = true
where id = $1::uuid and user_id = $2::uuid and not read;
`
	ct, err := r.db.Exec(ctx, q, notificationID, userID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
