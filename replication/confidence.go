package replication

// Confidence is a heuristic of how far a placement drifted from its ideal
// slot, not a statistical measure.
const (
	MinConfidence = 70
	MaxConfidence = 99

	baseConfidence    = 95
	driftPenalty      = 2
	maxDriftPenalty   = 15
	nearIdentityBonus = 3
)

// Score rates a placement in [MinConfidence, MaxConfidence].
func Score(idealIndex, finalIndex int, f Factor) int {
	drift := idealIndex - finalIndex
	if drift < 0 {
		drift = -drift
	}

	score := baseConfidence - min(drift*driftPenalty, maxDriftPenalty)
	if f.NearIdentity() {
		score += nearIdentityBonus
	}
	return max(MinConfidence, min(score, MaxConfidence))
}
