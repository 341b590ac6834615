package domain

// MergeEvents concatenates batches into a new slice, preserving batch order.
func MergeEvents(batches ...[]Event) []Event {
	n := 0
	for _, b := range batches {
		n += len(b)
	}
	merged := make([]Event, 0, n)
	for _, b := range batches {
		merged = append(merged, b...)
	}
	return merged
}

// FilterByAffectedPlaces returns the events with at least minPlaces
// geometries, in their original order. A threshold of zero or less returns
// events unchanged. The input slice is never modified.
func FilterByAffectedPlaces(events []Event, minPlaces int) []Event {
	if minPlaces <= 0 {
		return events
	}
	kept := make([]Event, 0, len(events))
	for _, ev := range events {
		if ev.AffectedPlaces() >= minPlaces {
			kept = append(kept, ev)
		}
	}
	return kept
}
