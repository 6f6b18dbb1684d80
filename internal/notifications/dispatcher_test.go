package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeStore struct {
	created []Notification
	failFor map[string]bool
}

func (f *fakeStore) Create(_ context.Context, n *Notification) error {
	if f.failFor[n.UserID] {
		return errors.New("store down")
	}
	f.created = append(f.created, *n)
	return nil
}

func TestNotify_FansOutToAllRecipients(t *testing.T) {
	store := &fakeStore{}
	d := NewDispatcher(store)

	d.Notify(context.Background(), []string{"u1", "u2", "u3"}, "proj-1", TypeClientApproved, "Approved", "")

	assert.Len(t, store.created, 3)
	for _, n := range store.created {
		assert.Equal(t, TypeClientApproved, n.Type)
		assert.Equal(t, "proj-1", n.ProjectID)
	}
}

func TestNotify_PartialFailureIsSkipped(t *testing.T) {
	store := &fakeStore{failFor: map[string]bool{"u2": true}}
	d := NewDispatcher(store)

	// must not panic or propagate the u2 failure
	d.Notify(context.Background(), []string{"u1", "u2", "u3"}, "", TypeStatusLive, "Live", "body")

	assert.Len(t, store.created, 2)
	assert.Equal(t, "u1", store.created[0].UserID)
	assert.Equal(t, "u3", store.created[1].UserID)
}

func TestNotify_DeduplicatesRecipients(t *testing.T) {
	store := &fakeStore{}
	d := NewDispatcher(store)

	d.Notify(context.Background(), []string{"u1", "u1", "", "u1"}, "", TypeStatusChanged, "t", "")

	assert.Len(t, store.created, 1)
}
