package inmemory

import (
	"context"
	"testing"

	"github.com/malecare/trialmatch/models"
)

func TestGetUnknownSessionReturnsEmptyState(t *testing.T) {
	t.Parallel()
	store := NewInMemorySessionStore()

	state, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if state.IntakeComplete || state.CancerType != "" {
		t.Fatalf("unknown session must yield the empty state, got %+v", state)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()
	store := NewInMemorySessionStore()
	ctx := context.Background()

	want := models.ConversationState{
		CancerType:     "breast cancer",
		Stage:          "2",
		Age:            45,
		Sex:            "female",
		Location:       "Boston Massachusetts",
		IntakeComplete: true,
	}
	if err := store.Put(ctx, "s1", want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CancerType != want.CancerType || !got.IntakeComplete {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	// The store hands out copies; mutating the returned state must not
	// leak back without a Put.
	got.CancerType = "changed"
	again, _ := store.Get(ctx, "s1")
	if again.CancerType != "breast cancer" {
		t.Fatalf("caller mutation leaked into the store: %+v", again)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	t.Parallel()
	store := NewInMemorySessionStore()
	ctx := context.Background()

	if err := store.Delete(ctx, "missing"); err != nil {
		t.Fatalf("deleting a missing session must be a no-op: %v", err)
	}

	_ = store.Put(ctx, "s1", models.ConversationState{IntakeComplete: true})
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}

	state, _ := store.Get(ctx, "s1")
	if state.IntakeComplete {
		t.Fatalf("deleted session still present: %+v", state)
	}
}
