package streak

// UnlockNewly returns the ids of badges that became eligible at the given day
// count and are not yet in the unlocked set. Calling it again after the ids
// have been merged yields an empty slice, so the unlock reaction is idempotent.
func UnlockNewly(days int, catalog []Badge, unlocked map[string]bool) []string {
	var newly []string
	for _, badge := range catalog {
		if days >= badge.Days && !unlocked[badge.ID] {
			newly = append(newly, badge.ID)
		}
	}
	return newly
}

// MergeUnlocked unions the ids into the persisted unlocked set. Ids are never
// removed, even when a relapse later drops the active day count below their
// thresholds; badges are trophies, not live indicators.
func MergeUnlocked(state *ProgressionState, ids []string) {
	if len(ids) == 0 {
		return
	}
	if state.UnlockedBadges == nil {
		state.UnlockedBadges = map[string]bool{}
	}
	for _, id := range ids {
		state.UnlockedBadges[id] = true
	}
}
