package monitor

import "time"

// EstimateProductionRate converts a block count observed over windowMinutes
// into blocks per minute. A non-positive window yields 0.
func EstimateProductionRate(count uint64, windowMinutes float64) float64 {
	if windowMinutes <= 0 {
		return 0
	}
	return float64(count) / windowMinutes
}

// ProductionRate counts BlockMarker lines emitted within window and returns
// blocks per minute.
func ProductionRate(lines []string, window time.Duration) float64 {
	return EstimateProductionRate(CountMarker(lines, BlockMarker), window.Minutes())
}
