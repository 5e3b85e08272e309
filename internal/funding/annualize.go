// Package funding converts periodic funding rates between their native
// settlement interval and a one-year basis for cross-venue comparison.
package funding

// hoursPerYear uses the 365-day convention shared by the venues we track.
const hoursPerYear = 365 * 24

// Annualize scales a periodic funding rate to a one-year basis given the
// venue's funding interval in hours. No rounding or clamping is applied:
// rates may be negative or exceed 100%.
func Annualize(periodicRate, intervalHours float64) float64 {
	return periodicRate * (hoursPerYear / intervalHours)
}

// Deannualize is the exact inverse of Annualize.
func Deannualize(annualizedRate, intervalHours float64) float64 {
	return annualizedRate / (hoursPerYear / intervalHours)
}
