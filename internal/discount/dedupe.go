package discount

import "teo-client-go/internal/models"

// Dedupe keeps the first snapshot per pending decision id. Snapshots without
// a decision id are all kept. When no snapshot carries a decision id the input
// is returned unchanged. Dedupe(Dedupe(x)) == Dedupe(x).
func Dedupe(snapshots []models.DiscountSnapshot) []models.DiscountSnapshot {
	linked := false
	for _, s := range snapshots {
		if s.PendingDecisionID != nil {
			linked = true
			break
		}
	}
	if !linked {
		return snapshots
	}

	seen := make(map[models.DecisionID]struct{}, len(snapshots))
	out := make([]models.DiscountSnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if s.PendingDecisionID == nil {
			out = append(out, s)
			continue
		}
		if _, dup := seen[*s.PendingDecisionID]; dup {
			continue
		}
		seen[*s.PendingDecisionID] = struct{}{}
		out = append(out, s)
	}
	return out
}

// findSnapshot returns the snapshot with id, if listed.
func findSnapshot(snapshots []models.DiscountSnapshot, id models.SnapshotID) (models.DiscountSnapshot, bool) {
	for _, s := range snapshots {
		if s.ID == id {
			return s, true
		}
	}
	return models.DiscountSnapshot{}, false
}

// findByDecision returns the first snapshot pointing at decision id.
func findByDecision(snapshots []models.DiscountSnapshot, id models.DecisionID) (models.DiscountSnapshot, bool) {
	for _, s := range snapshots {
		if s.PendingDecisionID != nil && *s.PendingDecisionID == id {
			return s, true
		}
	}
	return models.DiscountSnapshot{}, false
}

// setKey identifies a logical entry for change detection.
func setKey(s models.DiscountSnapshot) string {
	if s.PendingDecisionID != nil {
		return "d:" + s.PendingDecisionID.String()
	}
	return "s:" + s.ID.String()
}
