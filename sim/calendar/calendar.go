// Package calendar maps continuous simulation hours onto the wall clock.
//
// The simulation starts at hour 0 = Monday 2018-01-01 00:00:00 and runs in
// hours. Arrival modelling and planning rules depend on hour-of-day,
// day-of-week, weekends and public holidays of the German state of Hesse.
package calendar

import (
	"math"
	"time"
)

// Epoch is simulation hour zero.
var Epoch = time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC)

// HoursPerDay and HoursPerWeek are the basic time units of the simulation.
const (
	HoursPerDay  = 24
	HoursPerWeek = 7 * 24
)

// Working day boundaries for elective patient flow, in hours of day.
const (
	WorkdayStart = 9
	WorkdayEnd   = 17
)

// TimeOf converts a simulation hour to wall-clock time.
func TimeOf(hour float64) time.Time {
	return Epoch.Add(time.Duration(hour * float64(time.Hour)))
}

// HourOf converts a wall-clock time back to simulation hours.
func HourOf(t time.Time) float64 {
	return t.Sub(Epoch).Hours()
}

// HourOfDay returns the fractional hour of day [0, 24) of a simulation hour.
func HourOfDay(hour float64) float64 {
	return math.Mod(math.Mod(hour, HoursPerDay)+HoursPerDay, HoursPerDay)
}

// DayOfWeek returns the day of week of a simulation hour, 0 = Monday.
func DayOfWeek(hour float64) int {
	day := int(math.Floor(hour/HoursPerDay)) % 7
	if day < 0 {
		day += 7
	}
	return day
}

// IsWeekend reports whether a simulation hour falls on Saturday or Sunday.
func IsWeekend(hour float64) bool {
	return DayOfWeek(hour) >= 5
}

// IsWorkingDay reports whether a simulation hour falls on a weekday that is
// not a public holiday.
func IsWorkingDay(hour float64) bool {
	return !IsWeekend(hour) && !IsHoliday(TimeOf(hour))
}

// IsHoliday reports whether the date of t is a public holiday in Hesse.
func IsHoliday(t time.Time) bool {
	y, m, d := t.Date()
	for _, h := range holidays(y) {
		hy, hm, hd := h.Date()
		if hy == y && hm == m && hd == d {
			return true
		}
	}
	return false
}

// holidays returns the Hessian public holidays of a year: the fixed dates
// plus the Easter-derived ones (Good Friday, Easter Monday, Ascension, Whit
// Monday, Corpus Christi).
func holidays(year int) []time.Time {
	easter := easterSunday(year)
	return []time.Time{
		time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		easter.AddDate(0, 0, -2),
		easter.AddDate(0, 0, 1),
		time.Date(year, time.May, 1, 0, 0, 0, 0, time.UTC),
		easter.AddDate(0, 0, 39),
		easter.AddDate(0, 0, 50),
		easter.AddDate(0, 0, 60),
		time.Date(year, time.October, 3, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 26, 0, 0, 0, 0, time.UTC),
	}
}

// easterSunday computes the Gregorian date of Easter Sunday using the
// anonymous Gregorian (Meeus/Jones/Butcher) algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// NextWorkingOffset returns how many hours after the given simulation hour
// the next elective working moment starts. A moment inside the working window
// of a working day has offset 0.
func NextWorkingOffset(hour float64) float64 {
	h := hour
	hod := HourOfDay(h)
	if hod > WorkdayEnd {
		h += float64(WorkdayStart) + (HoursPerDay - hod)
	} else if hod < WorkdayStart {
		h += float64(WorkdayStart) - hod
	}
	for !IsWorkingDay(h) {
		h += HoursPerDay
	}
	return h - hour
}

// NextDayAt returns the simulation hour of hourOfDay on the day daysAhead
// days after the given hour, and never earlier than hour+1.
func NextDayAt(hour float64, daysAhead int, hourOfDay int) float64 {
	dayStart := math.Floor(hour/HoursPerDay) * HoursPerDay
	target := dayStart + float64(daysAhead*HoursPerDay+hourOfDay)
	return math.Max(hour+1, target)
}

// NextMorning returns the first 08:00 at or after the given hour. Moments up
// to and including 08:00 map onto the same day's morning.
func NextMorning(hour float64) float64 {
	hod := HourOfDay(hour)
	dayStart := hour - hod
	if hod <= 8 {
		return dayStart + 8
	}
	return dayStart + 32
}
