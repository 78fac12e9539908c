package service

// ComputeLocks derives lock state over an ordered lesson sequence from a
// completion snapshot. The first lesson is never locked; every later
// lesson is locked while its predecessor chain contains an incomplete
// lesson. Lessons absent from the snapshot count as incomplete. The walk
// is a pure function of ordering and snapshot, so it never mutates state
// and repeated calls always agree for the same inputs.
func ComputeLocks(orderedIDs []string, completed map[string]bool) map[string]bool {
	locks := make(map[string]bool, len(orderedIDs))
	locked := false
	for i, id := range orderedIDs {
		if i == 0 {
			locks[id] = false
		} else {
			prev := orderedIDs[i-1]
			locked = locked || !completed[prev]
			locks[id] = locked
		}
	}
	return locks
}

// AllCompleted reports whether every ID in the list is completed in the
// snapshot. An empty list counts as completed, matching the zero-lesson
// rollup policy where an empty chapter never blocks its successor.
func AllCompleted(ids []string, completed map[string]bool) bool {
	for _, id := range ids {
		if !completed[id] {
			return false
		}
	}
	return true
}
