package petoneer

import "math"

const secondsPerDay = 24 * 60 * 60

// Maintenance intervals, in seconds.
const (
	WaterChangeInterval  int64 = 5 * secondsPerDay
	FilterChangeInterval int64 = 30 * secondsPerDay
	PumpCleanInterval    int64 = 60 * secondsPerDay
)

// RemainingLife counts down toward a maintenance threshold. Both fields go
// negative once the item is overdue.
type RemainingLife struct {
	DaysRemaining    int `json:"days_remaining"`
	PercentRemaining int `json:"percent_remaining"`
}

// ComputeRemainingLife derives the countdown for a feature last reset at
// featureTS, as seen from the device clock currentTS. Non-positive inputs
// yield the zero value.
//
// Timestamps are subtracted as plain epoch seconds; the device and the caller
// must share a time base.
func ComputeRemainingLife(currentTS, featureTS, thresholdSeconds int64) RemainingLife {
	if currentTS <= 0 || featureTS <= 0 || thresholdSeconds <= 0 {
		return RemainingLife{}
	}

	left := float64(thresholdSeconds - (currentTS - featureTS))
	return RemainingLife{
		DaysRemaining:    int(math.Ceil(left / secondsPerDay)),
		PercentRemaining: int(math.RoundToEven(left / float64(thresholdSeconds) * 100)),
	}
}

// Due reports whether the item needs attention. This is an exact match on
// zero percent: items already below zero are not reported as due.
func (r RemainingLife) Due() bool {
	return r.PercentRemaining == 0
}
