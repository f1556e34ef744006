package workload

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/admission-sim/admission-sim/sim/calendar"
)

func newTestModel(t *testing.T) *ArrivalModel {
	t.Helper()
	m, err := NewArrivalModel()
	if err != nil {
		t.Fatalf("NewArrivalModel: %v", err)
	}
	return m
}

func TestHourlyFactor_FitsProfileAnchors(t *testing.T) {
	// GIVEN the fitted hourly profile
	m := newTestModel(t)

	// THEN it reproduces the anchor intensities closely
	for i, hour := range profileHours {
		got := m.HourlyFactor(hour)
		want := profileIntensity[i]
		if math.Abs(got-want) > 0.2 {
			t.Errorf("HourlyFactor(%v): got %v, want about %v", hour, got, want)
		}
	}
}

func TestHourlyFactor_AlwaysPositive(t *testing.T) {
	m := newTestModel(t)
	for hour := 0.0; hour < 24; hour += 0.25 {
		if got := m.HourlyFactor(hour); got < minHourlyFactor {
			t.Errorf("HourlyFactor(%v): got %v, want >= %v", hour, got, minHourlyFactor)
		}
	}
}

func TestSeasonalFactor_Bounds(t *testing.T) {
	for day := 1; day <= 31; day++ {
		d := time.Date(2018, time.March, day, 0, 0, 0, 0, time.UTC)
		f := SeasonalFactor(d)
		if f < 0.5 || f > 1.5 {
			t.Errorf("SeasonalFactor(day %d): got %v outside [0.5, 1.5]", day, f)
		}
	}
}

func TestSampleEmergency_PositiveAndFinite(t *testing.T) {
	m := newTestModel(t)
	rng := rand.New(rand.NewSource(1))

	hour := 0.0
	for i := 0; i < 1000; i++ {
		delta := m.SampleEmergency(rng, hour)
		if delta <= 0 || math.IsInf(delta, 0) || math.IsNaN(delta) {
			t.Fatalf("sample %d: got %v", i, delta)
		}
		hour += delta
	}
}

func TestSampleEmergency_WeekendRateHigher(t *testing.T) {
	// GIVEN many samples at the same hour of day on a weekday and a weekend
	m := newTestModel(t)

	mean := func(hour float64) float64 {
		rng := rand.New(rand.NewSource(7))
		sum := 0.0
		const n = 5000
		for i := 0; i < n; i++ {
			sum += m.SampleEmergency(rng, hour)
		}
		return sum / n
	}

	// Tuesday 12:00 vs Saturday 12:00 of the same week
	weekday := mean(24 + 12)
	weekend := mean(5*24 + 12)

	// THEN weekend interarrival times are clearly shorter
	if weekend >= weekday {
		t.Errorf("mean interarrival: weekend %v, weekday %v, want weekend smaller", weekend, weekday)
	}
}

func TestSampleElective_LandsInWorkingWindow(t *testing.T) {
	m := newTestModel(t)
	rng := rand.New(rand.NewSource(3))

	hour := 0.0
	for i := 0; i < 500; i++ {
		delta := m.SampleElective(rng, hour)
		if delta < 0 {
			t.Fatalf("sample %d: interarrival %v", i, delta)
		}
		hour += delta

		if hour != math.Floor(hour) {
			t.Fatalf("sample %d: arrival %v not on a whole hour", i, hour)
		}
		if !calendar.IsWorkingDay(hour) {
			t.Fatalf("sample %d: arrival %v on a non-working day", i, hour)
		}
		hod := calendar.HourOfDay(hour)
		if hod < calendar.WorkdayStart || hod > calendar.WorkdayEnd {
			t.Fatalf("sample %d: arrival %v at hour of day %v outside the window", i, hour, hod)
		}
	}
}
