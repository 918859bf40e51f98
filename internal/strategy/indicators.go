package strategy

// trailingSMA returns the arithmetic mean of the last period values
// ending at index end (inclusive). ok is false when fewer than period
// values precede end, mirroring a rolling mean's undefined leading
// region.
func trailingSMA(values []float64, end, period int) (float64, bool) {
	if period <= 0 || end < period-1 || end >= len(values) {
		return 0, false
	}
	sum := 0.0
	for _, v := range values[end-period+1 : end+1] {
		sum += v
	}
	return sum / float64(period), true
}
