package notifications

import (
	"context"
	"log"
)

// Creator is the write surface the dispatcher needs; satisfied by Repo.
type Creator interface {
	Create(ctx context.Context, n *Notification) error
}

// Dispatcher fans a typed notification out to a recipient list.
// Delivery is best-effort: a failed recipient is logged and skipped,
// and the triggering operation never sees an error.
type Dispatcher struct {
	store Creator
}

func NewDispatcher(store Creator) *Dispatcher {
	return &Dispatcher{store: store}
}

// Notify writes one notification per recipient. Duplicate recipient
// ids collapse to a single delivery.
func (d *Dispatcher) Notify(ctx context.Context, recipients []string, projectID, typ, title, body string) {
	seen := make(map[string]bool, len(recipients))
	for _, uid := range recipients {
		if uid == "" || seen[uid] {
			continue
		}
		seen[uid] = true

		n := &Notification{
			UserID:    uid,
			ProjectID: projectID,
			Type:      typ,
			Title:     title,
			Body:      body,
		}
		if err := d.store.Create(ctx, n); err != nil {
			log.Printf("[notify] deliver type=%s user=%s failed: %v", typ, uid, err)
		}
	}
}
