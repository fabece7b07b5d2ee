package search

// Operation classifies a conversational turn. The backend reports which
// operation it performed; the selection arithmetic itself happens here, in
// Selection.Apply, so the invariants hold regardless of what the backend
// returned.
type Operation string

const (
	OpAdded    Operation = "added"
	OpFiltered Operation = "filtered"
	OpReplaced Operation = "replaced"
	OpRemoved  Operation = "removed"
	OpNoChange Operation = "no_change"
)

// Selection is the running conversational context carried between turns.
// Committed holds dishes the user has decided on; Pending holds alternatives
// shown during exploration that the user has not yet chosen from;
// Constraints are standing preference/allergy statements that persist until
// countermanded.
type Selection struct {
	Committed   []Record `json:"committed"`
	Pending     []Record `json:"pending"`
	Constraints []string `json:"constraints,omitempty"`
}

// Records returns the full visible selection: committed dishes followed by
// pending alternatives, deduplicated by (restaurant_id, dish_name).
func (s Selection) Records() []Record {
	merged := make([]Record, 0, len(s.Committed)+len(s.Pending))
	merged = append(merged, s.Committed...)
	merged = append(merged, s.Pending...)
	return Dedupe(merged)
}

// Apply folds one turn into the selection. results is the backend's entity
// extraction for the turn; op is its intent classification. The semantics:
//
//   - added: prior selection is preserved; results are appended to the
//     pending alternatives (exploring a new category keeps both everything
//     already chosen and everything already shown).
//   - filtered: the user committed to specific items among the shown
//     alternatives; those items move to committed and remaining pending
//     siblings are dropped. Unrelated committed items are untouched.
//   - replaced: results supersede the pending alternatives; committed items
//     stay unless restated in results.
//   - removed: only items absent from results are dropped; nothing is
//     removed implicitly.
//   - no_change (or anything unrecognized): prior selection unchanged.
func (s Selection) Apply(op Operation, results []Record) Selection {
	next := Selection{Constraints: s.Constraints}

	switch op {
	case OpAdded:
		next.Committed = s.Committed
		merged := append(append([]Record{}, s.Pending...), results...)
		next.Pending = subtract(Dedupe(merged), keySet(s.Committed))
	case OpFiltered:
		chosen := Dedupe(results)
		next.Committed = Dedupe(append(append([]Record{}, s.Committed...), chosen...))
		next.Pending = nil
	case OpReplaced:
		next.Committed = s.Committed
		next.Pending = subtract(Dedupe(results), keySet(s.Committed))
	case OpRemoved:
		keep := keySet(results)
		next.Committed = intersect(s.Committed, keep)
		next.Pending = intersect(s.Pending, keep)
	default:
		next.Committed = s.Committed
		next.Pending = s.Pending
	}

	return next
}

// Dedupe removes records with duplicate (restaurant_id, dish_name) keys,
// preserving first-seen order.
func Dedupe(records []Record) []Record {
	seen := make(map[string]bool, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if seen[r.Key()] {
			continue
		}
		seen[r.Key()] = true
		out = append(out, r)
	}
	return out
}

// Truncate caps records at limit, preserving order. A limit <= 0 means no cap.
func Truncate(records []Record, limit int) []Record {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}

func keySet(records []Record) map[string]bool {
	set := make(map[string]bool, len(records))
	for _, r := range records {
		set[r.Key()] = true
	}
	return set
}

func subtract(records []Record, exclude map[string]bool) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if !exclude[r.Key()] {
			out = append(out, r)
		}
	}
	return out
}

func intersect(records []Record, keep map[string]bool) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if keep[r.Key()] {
			out = append(out, r)
		}
	}
	return out
}
