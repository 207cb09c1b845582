package streak

// badgeBonusMultiplier converts a badge's day threshold into its point bonus.
const badgeBonusMultiplier = 10

// ComputePoints derives the score from the current elapsed time: one point per
// full hour plus a bonus for every catalog badge whose threshold the current
// day count meets. It is recomputed on every tick rather than accumulated, so
// the value is restart-invariant and resets with the streak after a relapse.
func ComputePoints(elapsedSeconds int64, days int, catalog []Badge) int64 {
	points := elapsedSeconds / 3600
	for _, badge := range catalog {
		if days >= badge.Days {
			points += int64(badge.Days) * badgeBonusMultiplier
		}
	}
	return points
}
