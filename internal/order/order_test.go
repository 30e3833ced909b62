package order_test

import (
	"testing"

	"dayline/internal/order"
)

func TestReconcileAppendsMissingAndDropsStale(t *testing.T) {
	stored := []string{"c", "a", "gone"}
	existing := []string{"a", "b", "c"}
	got := order.Reconcile(stored, existing)
	want := []string{"c", "a", "b"}
	if !order.Equal(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	existing := []string{"a", "b", "c", "d"}
	once := order.Reconcile([]string{"d", "b"}, existing)
	twice := order.Reconcile(once, existing)
	if !order.Equal(once, twice) {
		t.Fatalf("not idempotent: %v then %v", once, twice)
	}
	// result must be a permutation of existing
	if len(once) != len(existing) {
		t.Fatalf("expected permutation, got %v", once)
	}
	for _, id := range existing {
		if !order.Contains(once, id) {
			t.Fatalf("missing %s in %v", id, once)
		}
	}
}

func TestReconcileDedupes(t *testing.T) {
	got := order.Reconcile([]string{"a", "a", "b"}, []string{"a", "b"})
	if !order.Equal(got, []string{"a", "b"}) {
		t.Fatalf("got %v", got)
	}
}

func TestReorderMovesAndClamps(t *testing.T) {
	cur := []string{"a", "b", "c", "d"}
	got, changed := order.Reorder(cur, "d", 0)
	if !changed || !order.Equal(got, []string{"d", "a", "b", "c"}) {
		t.Fatalf("got %v changed=%v", got, changed)
	}
	got, changed = order.Reorder(cur, "a", 99)
	if !changed || !order.Equal(got, []string{"b", "c", "d", "a"}) {
		t.Fatalf("clamp high: got %v changed=%v", got, changed)
	}
	got, changed = order.Reorder(cur, "b", -5)
	if !changed || !order.Equal(got, []string{"b", "a", "c", "d"}) {
		t.Fatalf("clamp low: got %v changed=%v", got, changed)
	}
}

func TestReorderNoopOnSameIndex(t *testing.T) {
	cur := []string{"a", "b", "c"}
	got, changed := order.Reorder(cur, "b", 1)
	if changed {
		t.Fatalf("expected no-op, got %v", got)
	}
	if _, changed := order.Reorder(cur, "missing", 0); changed {
		t.Fatalf("unknown id must be a no-op")
	}
}

func TestReorderInverseRestoresOriginal(t *testing.T) {
	cur := []string{"a", "b", "c", "d", "e"}
	moved, changed := order.Reorder(cur, "d", 1)
	if !changed {
		t.Fatal("expected change")
	}
	back, changed := order.Reorder(moved, "d", 3)
	if !changed || !order.Equal(back, cur) {
		t.Fatalf("inverse did not restore: %v", back)
	}
}

func TestMoveAcross(t *testing.T) {
	src := []string{"t1", "t2", "t3"}
	dst := []string{"x1"}
	newSrc, newDst := order.Move(src, dst, "t2", 0)
	if !order.Equal(newSrc, []string{"t1", "t3"}) {
		t.Fatalf("src: %v", newSrc)
	}
	if !order.Equal(newDst, []string{"t2", "x1"}) {
		t.Fatalf("dst: %v", newDst)
	}
}

func TestMoveAppendsByDefault(t *testing.T) {
	newSrc, newDst := order.Move([]string{"a"}, []string{"b", "c"}, "a", -1)
	if len(newSrc) != 0 {
		t.Fatalf("src: %v", newSrc)
	}
	if !order.Equal(newDst, []string{"b", "c", "a"}) {
		t.Fatalf("dst: %v", newDst)
	}
}

func TestMoveRetrySafe(t *testing.T) {
	// replaying a move after it already applied must not duplicate the id
	src := []string{"t1"}
	dst := []string{"t2", "t0"}
	src, dst = order.Move(src, dst, "t2", 1)
	if !order.Equal(dst, []string{"t0", "t2"}) || len(src) != 1 {
		t.Fatalf("replay produced src=%v dst=%v", src, dst)
	}
}
