// Package units holds the engine's unit conversions and calendar/time
// helpers: speed conversion, month lengths, pentad indexing, and sun
// elevation. Speed is km/h everywhere else in the engine; conversion to
// and from knots happens only at the edges (reported sector speeds,
// legacy thresholds expressed in knots).
package units

import (
	"errors"
	"math"

	"github.com/soniakeys/meeus/v3/julian"
)

// ErrInvalidDate names the condition of a (year, month, day) triple that
// cannot denote a real civil date. Nothing in this module returns it;
// DateValid reports validity as a bool.
var ErrInvalidDate = errors.New("units: invalid date")

// KnotsToKmh is the exact conversion factor from knots to km/h.
const KnotsToKmh = 1.852

// KnotsToKmPerH converts a speed in knots to km/h.
func KnotsToKmPerH(knots float64) float64 {
	return knots * KnotsToKmh
}

// KmPerHToKnots converts a speed in km/h to knots.
func KmPerHToKnots(kmh float64) float64 {
	return kmh / KnotsToKmh
}

// MonthLength returns the number of days in the given month of the given
// year, honouring the proleptic Gregorian leap rule. month is 1..12.
func MonthLength(year int, month int) int {
	lengths := [...]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	if month < 1 || month > 12 {
		return 0
	}
	n := lengths[month-1]
	if month == 2 && julian.LeapYearGregorian(year) {
		n = 29
	}
	return n
}

// DateValid reports whether (year, month, day) denotes a real civil date.
// It does not bound the year range; callers apply their own era limits.
func DateValid(year, month, day int) bool {
	if month < 1 || month > 12 {
		return false
	}
	if day < 1 {
		return false
	}
	return day <= MonthLength(year, month)
}

// DayOfYear returns the 1-based day-of-year for a valid (year, month, day).
func DayOfYear(year, month, day int) int {
	total := day
	for m := 1; m < month; m++ {
		total += MonthLength(year, m)
	}
	return total
}

var noLeapMonthLengths = [...]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Pentad maps (month, day) onto the 73-pentad climatological year, 1..73.
// Feb 29 folds into pentad 12, the pentad that covers Feb 25 - Mar 1 in
// the non-leap calendar; every other date is indexed against the fixed
// non-leap calendar so the grid never shifts between leap and non-leap
// years.
func Pentad(year, month, day int) int {
	if month == 2 && day == 29 {
		return 12
	}
	doy := day
	for m := 1; m < month; m++ {
		doy += noLeapMonthLengths[m-1]
	}
	p := (doy-1)/5 + 1
	if p > 73 {
		p = 73
	}
	return p
}

// PentadToMonthDay inverts Pentad, returning the (month, day) of the first
// day of the given pentad (1..73) in the fixed non-leap calendar used to
// index the climatology grid.
func PentadToMonthDay(pentad int) (month, day int) {
	if pentad < 1 {
		pentad = 1
	}
	if pentad > 73 {
		pentad = 73
	}
	doy := (pentad-1)*5 + 1
	m := 1
	for m < 12 && doy > noLeapMonthLengths[m-1] {
		doy -= noLeapMonthLengths[m-1]
		m++
	}
	return m, doy
}

// SunElevation computes the sun's elevation angle above the horizon, in
// degrees, for the given UTC instant and location. hour is decimal UTC
// hour-of-day in [0, 24). lat/lon are in degrees; lon is east-positive.
//
// This follows the standard low-precision solar position algorithm (mean
// longitude, mean anomaly, ecliptic longitude, declination, equation of
// time, hour angle) rather than a deeper call into meeus's fuller solar
// ephemeris, which the teacher's own usage of the library never exercises.
func SunElevation(year, month, day int, hour float64, lat, lon float64) float64 {
	doy := DayOfYear(year, month, day)
	// fractional day number since start of year, referenced to UTC noon
	gamma := 2.0 * math.Pi / 365.0 * (float64(doy-1) + (hour-12.0)/24.0)

	eqTime := 229.18 * (0.000075 +
		0.001868*math.Cos(gamma) - 0.032077*math.Sin(gamma) -
		0.014615*math.Cos(2*gamma) - 0.040849*math.Sin(2*gamma))

	decl := 0.006918 - 0.399912*math.Cos(gamma) + 0.070257*math.Sin(gamma) -
		0.006758*math.Cos(2*gamma) + 0.000907*math.Sin(2*gamma) -
		0.002697*math.Cos(3*gamma) + 0.00148*math.Sin(3*gamma)

	timeOffset := eqTime + 4*lon
	trueSolarTime := hour*60.0 + timeOffset
	hourAngleDeg := trueSolarTime/4.0 - 180.0

	latRad := lat * math.Pi / 180.0
	haRad := hourAngleDeg * math.Pi / 180.0

	sinElev := math.Sin(latRad)*math.Sin(decl) + math.Cos(latRad)*math.Cos(decl)*math.Cos(haRad)
	sinElev = math.Max(-1.0, math.Min(1.0, sinElev))

	return math.Asin(sinElev) * 180.0 / math.Pi
}
