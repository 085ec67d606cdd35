package inbox

import (
	"testing"
	"time"
)

func ts(sec int) time.Time {
	return time.Date(2026, 3, 1, 12, 0, sec, 0, time.UTC)
}

func TestMergeSortsAscending(t *testing.T) {
	tl := newTimeline()
	tl.merge([]Message{
		{ID: "m3", CreatedAt: ts(3)},
		{ID: "m1", CreatedAt: ts(1)},
		{ID: "m2", CreatedAt: ts(2)},
	})

	got := tl.list()
	if len(got) != 3 {
		t.Fatalf("got %d messages, want 3", len(got))
	}
	for i, want := range []string{"m1", "m2", "m3"} {
		if got[i].ID != want {
			t.Errorf("position %d = %q, want %q", i, got[i].ID, want)
		}
	}
}

func TestMergeIdempotent(t *testing.T) {
	batch := []Message{
		{ID: "m1", Content: "one", CreatedAt: ts(1)},
		{ID: "m2", Content: "two", CreatedAt: ts(2)},
	}

	tl := newTimeline()
	tl.merge(batch)
	once := tl.list()

	tl.merge(batch)
	twice := tl.list()

	if len(once) != len(twice) {
		t.Fatalf("double merge changed length: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("position %d differs after second merge: %+v vs %+v", i, once[i], twice[i])
		}
	}
}

func TestMergeOverwritesByID(t *testing.T) {
	tl := newTimeline()
	tl.merge([]Message{{ID: "m1", Content: "old", CreatedAt: ts(1)}})
	tl.merge([]Message{{ID: "m1", Content: "new", CreatedAt: ts(1)}})

	got := tl.list()
	if len(got) != 1 {
		t.Fatalf("got %d messages, want 1", len(got))
	}
	if got[0].Content != "new" {
		t.Errorf("content = %q, want new", got[0].Content)
	}
}

func TestNoDuplicateIDsAfterMerges(t *testing.T) {
	tl := newTimeline()
	tl.merge([]Message{
		{ID: "m1", CreatedAt: ts(1)},
		{ID: "m2", CreatedAt: ts(2)},
	})
	tl.merge([]Message{
		{ID: "m2", CreatedAt: ts(5)},
		{ID: "m3", CreatedAt: ts(3)},
	})
	tl.merge([]Message{{ID: "m1", CreatedAt: ts(4)}})

	seen := make(map[string]bool)
	prev := time.Time{}
	for _, m := range tl.list() {
		if seen[m.ID] {
			t.Errorf("duplicate id %q", m.ID)
		}
		seen[m.ID] = true
		if m.CreatedAt.Before(prev) {
			t.Errorf("timeline not ascending at %q", m.ID)
		}
		prev = m.CreatedAt
	}
}

func TestReplaceIDSwapsProvisionalForConfirmed(t *testing.T) {
	tl := newTimeline()
	tl.merge([]Message{{ID: "tmp-1", Content: "hello", CreatedAt: ts(1), Delivery: DeliverySending}})

	tl.replaceID("tmp-1", Message{ID: "srv-1", Content: "hello", CreatedAt: ts(2), Delivery: DeliverySent})

	got := tl.list()
	if len(got) != 1 {
		t.Fatalf("got %d messages, want 1", len(got))
	}
	if got[0].ID != "srv-1" || got[0].Delivery != DeliverySent {
		t.Errorf("got %+v, want confirmed srv-1", got[0])
	}
	if _, ok := tl.get("tmp-1"); ok {
		t.Error("provisional id still resolvable after swap")
	}
}

func TestReplaceIDWhenConfirmedAlreadyMerged(t *testing.T) {
	// A push event for the confirmed message can land before the send's own
	// success response. The swap must still leave exactly one row.
	tl := newTimeline()
	tl.merge([]Message{{ID: "tmp-1", Content: "hello", CreatedAt: ts(1), Delivery: DeliverySending}})
	tl.merge([]Message{{ID: "srv-1", Content: "hello", CreatedAt: ts(2)}})

	tl.replaceID("tmp-1", Message{ID: "srv-1", Content: "hello", CreatedAt: ts(2), Delivery: DeliverySent})

	got := tl.list()
	if len(got) != 1 {
		t.Fatalf("got %d messages, want 1", len(got))
	}
	if got[0].ID != "srv-1" {
		t.Errorf("id = %q, want srv-1", got[0].ID)
	}
}

func TestSetDelivery(t *testing.T) {
	tl := newTimeline()
	tl.merge([]Message{{ID: "m1", Content: "hi", CreatedAt: ts(1), Delivery: DeliverySending}})

	if !tl.setDelivery("m1", DeliveryFailed) {
		t.Fatal("setDelivery returned false for existing id")
	}
	m, _ := tl.get("m1")
	if m.Delivery != DeliveryFailed || m.Content != "hi" {
		t.Errorf("got %+v, want failed with content intact", m)
	}
	if tl.setDelivery("nope", DeliverySent) {
		t.Error("setDelivery returned true for unknown id")
	}
}

func TestClear(t *testing.T) {
	tl := newTimeline()
	tl.merge([]Message{{ID: "m1", CreatedAt: ts(1)}})
	tl.clear()

	if len(tl.list()) != 0 {
		t.Error("timeline not empty after clear")
	}
	tl.merge([]Message{{ID: "m1", CreatedAt: ts(1)}})
	if len(tl.list()) != 1 {
		t.Error("merge after clear failed")
	}
}
