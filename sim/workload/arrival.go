// Package workload generates patient arrival streams.
//
// Emergency patients arrive around the clock with a rate that follows the
// hour of day, doubles on weekends and holidays, and drifts with a yearly
// sinusoid. Elective referrals only land in working hours and move inversely
// to the seasonal emergency load.
package workload

import (
	"math"
	"math/rand"
	"time"

	"github.com/admission-sim/admission-sim/sim/calendar"
)

// emergency hourly profile anchor points: observed relative arrival
// intensity at selected hours of the day, smoothed by a quartic fit.
var (
	profileHours     = []float64{0, 3, 6, 12, 15, 18}
	profileIntensity = []float64{0.8, 0.1, 0.7, 1, 0.5, 0.7}
)

const profileDegree = 4

// minHourlyFactor keeps the fitted rate positive where the quartic
// extrapolates below zero (late evening hours outside the anchor range).
const minHourlyFactor = 0.05

const baseArrivalRate = 1.0

// ArrivalModel samples inter-arrival times for both patient streams.
type ArrivalModel struct {
	hourly polynomial
}

// NewArrivalModel fits the hourly emergency profile and returns a model
// ready for sampling.
func NewArrivalModel() (*ArrivalModel, error) {
	poly, err := fitPolynomial(profileHours, profileIntensity, profileDegree)
	if err != nil {
		return nil, err
	}
	return &ArrivalModel{hourly: poly}, nil
}

// HourlyFactor returns the smoothed relative emergency intensity for an hour
// of day in [0, 24).
func (m *ArrivalModel) HourlyFactor(hourOfDay float64) float64 {
	f := m.hourly.eval(hourOfDay)
	if f < minHourlyFactor {
		return minHourlyFactor
	}
	return f
}

// SeasonalFactor returns the yearly modulation of the emergency arrival rate
// for a date.
func SeasonalFactor(d time.Time) float64 {
	const (
		amplitude = 0.5
		period    = 364.0
		offset    = 1.0
		phase     = -math.Pi / 2
	)
	x := float64(d.Day())
	return amplitude*math.Sin((2*math.Pi/period)*x+phase) + offset
}

// SampleEmergency returns the hours until the next emergency arrival after
// the given simulation hour.
func (m *ArrivalModel) SampleEmergency(rng *rand.Rand, hour float64) float64 {
	t := calendar.TimeOf(hour)

	hourlyFactor := m.HourlyFactor(calendar.HourOfDay(hour))

	holidayFactor := 1.0
	if calendar.IsWeekend(hour) || calendar.IsHoliday(t) {
		holidayFactor = 2.0
	}

	rate := baseArrivalRate * hourlyFactor * holidayFactor * SeasonalFactor(t)
	return rng.ExpFloat64() / rate
}

// SampleElective returns the hours until the next elective referral after
// the given simulation hour. The result always lands on a whole hour inside
// the working window of a working day.
func (m *ArrivalModel) SampleElective(rng *rand.Rand, hour float64) float64 {
	offset := calendar.NextWorkingOffset(hour)

	seasonal := 1.0 / SeasonalFactor(calendar.TimeOf(hour+offset))
	sample := offset + rng.ExpFloat64()/(baseArrivalRate*seasonal)

	// the sampled moment can fall outside working time; push it forward
	sample += calendar.NextWorkingOffset(hour + sample)

	// round to a whole hour to absorb floating point drift
	return math.Floor(sample + 0.5)
}
