package dispatch

import "time"

const (
	// The trainer only checks its time budget between generations, so the
	// requested wall time carries a margin to avoid truncation mid-generation.
	wallTimeSafetyMargin = 30 * time.Minute

	// When stopping on generation count the expected duration is unknown, but
	// the scheduler still needs a hard cap.
	generationWallTimeCeiling = 24 * time.Hour
)

// WallTime computes the wall time requested from the scheduler for a unit.
func WallTime(criterion StopCriterion, trainingTime time.Duration) time.Duration {
	if criterion == StopByTime {
		return trainingTime + wallTimeSafetyMargin
	}
	return generationWallTimeCeiling
}
