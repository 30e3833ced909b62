// Package order holds the pure list algorithms behind column and task
// ordering. Stored order arrays are the source of truth for display order;
// every function here takes the current order and returns a new slice,
// leaving persistence to the engine.
package order

// Reconcile repairs a stored order array against the set of ids that
// actually exist: ids present in the set but missing from the order are
// appended in discovery order, ids no longer existing are dropped. The
// result is a permutation of existing. Reconcile is idempotent and never
// mutates its inputs; callers must not treat a repaired order as a write.
func Reconcile(stored, existing []string) []string {
	known := make(map[string]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}
	out := make([]string, 0, len(existing))
	seen := make(map[string]bool, len(existing))
	for _, id := range stored {
		if known[id] && !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	for _, id := range existing {
		if !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	return out
}

// Reorder removes id from its current position and reinserts it at target
// (clamped to the valid range). The second return reports whether the order
// actually changed; a move onto the current index is a no-op and callers
// must not emit a mutation for it.
func Reorder(current []string, id string, target int) ([]string, bool) {
	from := IndexOf(current, id)
	if from < 0 {
		return current, false
	}
	without := remove(current, id)
	target = clamp(target, len(without))
	if target == from {
		return current, false
	}
	return insertAt(without, id, target), true
}

// Move takes id out of src and inserts it into dst at target; target < 0
// appends. Returns the new source and destination orders. When id is absent
// from src the source is returned unchanged, so a retried move stays
// idempotent.
func Move(src, dst []string, id string, target int) ([]string, []string) {
	newSrc := remove(src, id)
	newDst := remove(dst, id) // a replayed move may find id already in dst
	if target < 0 {
		target = len(newDst)
	}
	return newSrc, insertAt(newDst, id, clamp(target, len(newDst)))
}

// Equal reports whether two order arrays are identical.
func Equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// IndexOf returns the position of id in the order, or -1.
func IndexOf(order []string, id string) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}

// Contains reports whether the order holds id.
func Contains(order []string, id string) bool {
	return IndexOf(order, id) >= 0
}

func remove(order []string, id string) []string {
	out := make([]string, 0, len(order))
	for _, v := range order {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func insertAt(order []string, id string, at int) []string {
	out := make([]string, 0, len(order)+1)
	out = append(out, order[:at]...)
	out = append(out, id)
	out = append(out, order[at:]...)
	return out
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
