// Package qcsingle implements the single-report QC predicates: position,
// date, time and day checks, the blacklist family, the generic
// climatology/hard-limit/freeze/supersaturation/wind-consistency checks,
// and the plain value check. Every predicate is a pure function: the checks
// return a report.Flag and the blacklist predicates return a bool; nothing
// here mutates a Report directly, so callers decide how results are stored.
package qcsingle

import (
	"math"
	"time"

	"github.com/metobs-qc/marineqc/report"
	"github.com/metobs-qc/marineqc/units"
)

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// PositionCheck fails when lat/lon fall outside the documented ICOADS
// range; untestable when either is missing (NaN).
func PositionCheck(lat, lon float64) report.Flag {
	if !finite(lat) || !finite(lon) {
		return report.Untestable
	}
	if lat < -90 || lat > 90 {
		return report.Fail
	}
	if lon < -180 || lon > 360 {
		return report.Fail
	}
	return report.Pass
}

// DateCheck fails when year is outside [1850, current year], month is
// outside [1, 12], or day exceeds the actual length of that month.
func DateCheck(year, month, day int) report.Flag {
	if year == 0 || month == 0 || day == 0 {
		return report.Untestable
	}
	if year < 1850 || year > time.Now().Year() {
		return report.Fail
	}
	if month < 1 || month > 12 {
		return report.Fail
	}
	if day < 1 || day > units.MonthLength(year, month) {
		return report.Fail
	}
	return report.Pass
}

// TimeCheck fails when hour is outside [0, 24).
func TimeCheck(hour float64) report.Flag {
	if !finite(hour) {
		return report.Untestable
	}
	if hour < 0 || hour >= 24 {
		return report.Fail
	}
	return report.Pass
}

// DayCheck decides whether a report was made during daytime, using the sun
// elevation one hour (elevOffsetHours, typically 1.0) before the nominal
// observation time. It degrades to the worse of the position/date/time
// checks when any of those are not a clean pass.
func DayCheck(year, month, day int, hour, lat, lon, elevOffsetHours, elevLimDeg float64) report.Flag {
	pos := PositionCheck(lat, lon)
	date := DateCheck(year, month, day)
	tim := TimeCheck(hour)

	if pos == report.Untestable || date == report.Untestable || tim == report.Untestable {
		return report.Untestable
	}
	if pos == report.Fail || date == report.Fail || tim == report.Fail {
		return report.Fail
	}

	adjYear, adjMonth, adjDay := year, month, day
	adjHour := hour - elevOffsetHours
	for adjHour < 0 {
		adjHour += 24
		adjDay--
		if adjDay < 1 {
			adjMonth--
			if adjMonth < 1 {
				adjMonth = 12
				adjYear--
			}
			adjDay = units.MonthLength(adjYear, adjMonth)
		}
	}
	elev := units.SunElevation(adjYear, adjMonth, adjDay, adjHour, lat, lon)
	if elev > elevLimDeg {
		return report.Pass // daytime
	}
	return report.Fail // night
}

// deck732Regions are the historical Deck 732 exclusion boxes, keyed 1..17,
// as (lonMin, latMin, lonMax, latMax). Longitude is in the folded
// [-180, 180] range, per spec.md §6.
var deck732Regions = map[int][4]float64{
	1:  {-175, 40, -170, 55},
	2:  {-165, 40, -160, 60},
	3:  {-145, 40, -140, 50},
	4:  {-140, 30, -135, 40},
	5:  {-140, 50, -130, 55},
	6:  {-70, 35, -60, 40},
	7:  {-50, 45, -40, 50},
	8:  {5, 70, 10, 80},
	9:  {0, -10, 10, 0},
	10: {-30, -25, -25, -20},
	11: {-60, -50, -55, -45},
	12: {75, -20, 80, -15},
	13: {50, -30, 60, -20},
	14: {30, -40, 40, -30},
	15: {20, 60, 25, 65},
	16: {0, -40, 10, -30},
	17: {-135, 30, -130, 40},
}

// deck732YearRegions maps a report year onto the subset of deck732Regions
// excluded for Deck 732 that year. Lifted verbatim from the legacy table;
// not generalised, per spec.md §9 Design Note (c).
var deck732YearRegions = map[int][]int{
	1958: {1, 2, 3, 4, 5, 6, 14, 15},
	1959: {1, 2, 3, 4, 5, 6, 14, 15},
	1960: {1, 2, 3, 5, 6, 9, 14, 15},
	1961: {1, 2, 3, 5, 6, 14, 15, 16},
	1962: {1, 2, 3, 5, 12, 13, 14, 15, 16},
	1963: {1, 2, 3, 5, 6, 12, 13, 14, 15, 16},
	1964: {1, 2, 3, 5, 6, 12, 13, 14, 16},
	1965: {1, 2, 6, 10, 12, 13, 14, 15, 16},
	1966: {1, 2, 6, 9, 14, 15, 16},
	1967: {1, 2, 5, 6, 9, 14, 15},
	1968: {1, 2, 3, 5, 6, 9, 14, 15},
	1969: {1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 13, 14, 15, 16},
	1970: {1, 2, 3, 4, 5, 6, 8, 9, 14, 15},
	1971: {1, 2, 3, 4, 5, 6, 7, 8, 9, 13, 14, 16},
	1972: {4, 7, 8, 9, 10, 11, 13, 16, 17},
	1973: {4, 7, 8, 10, 11, 13, 16, 17},
	1974: {4, 7, 8, 10, 11, 16, 17},
}

// buoyBlacklist2005 are the drifting-buoy ids blacklisted for Nov 2005 -
// Jan 2006 due to erroneous values in the Tropical Pacific.
var buoyBlacklist2005 = map[string]bool{
	"53521": true, "53522": true, "53566": true, "53567": true, "53568": true,
	"53571": true, "53578": true, "53580": true, "53582": true, "53591": true,
	"53592": true, "53593": true, "53594": true, "53595": true, "53596": true,
	"53599": true, "53600": true, "53601": true, "53602": true, "53603": true,
	"53604": true, "53605": true, "53606": true, "53607": true, "53608": true,
	"53609": true, "53901": true, "53902": true,
}

// foldLongitude folds a longitude into the ICOADS-style (-180, 180] range.
func foldLongitude(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon <= -180 {
		lon += 360
	}
	return lon
}

// Blacklist is the deterministic pure function over (id, deck, year, month,
// lat, lon, platform_type) encoding the historical exclusions of spec.md
// §4.6. It returns true when the report should be excluded.
func Blacklist(id string, deck, year, month int, lat, lon float64, platformType int) bool {
	lon = foldLongitude(lon)

	if lat == 0 && lon == 0 {
		return true
	}
	if platformType == 13 {
		return true
	}
	if id == "SUPERIGORINA" {
		return true
	}

	if deck == 732 {
		if regions, ok := deck732YearRegions[year]; ok {
			for _, regionID := range regions {
				box := deck732Regions[regionID]
				if lon >= box[0] && lon <= box[2] && lat >= box[1] && lat <= box[3] {
					return true
				}
			}
		}
	}

	if deck == 874 {
		return true
	}

	if (year == 2005 && (month == 11 || month == 12)) || (year == 2006 && month == 1) {
		if buoyBlacklist2005[id] {
			return true
		}
	}

	return false
}

// humidityEligiblePlatforms is the set of platform types eligible for
// humidity QC.
var humidityEligiblePlatforms = map[int]bool{
	0: true, 1: true, 2: true, 3: true, 4: true, 5: true,
	6: true, 8: true, 9: true, 10: true, 15: true,
}

// HumidityBlacklist returns true when the platform type is ineligible for
// humidity QC.
func HumidityBlacklist(platformType int) bool {
	return !humidityEligiblePlatforms[platformType]
}

// matExclusionBoxes are the five (lonMin, latMin, lonMax, latMax) regions
// excluded from MAT QC for Deck 193, 1880-1892 (spec.md §6, Kent et al.
// HadNMAT2 Fig 8).
var matExclusionBoxes = [5][4]float64{
	{-80, 40, 0, 55},
	{-10, 35, 30, 45},
	{15, -10, 45, 40},
	{15, -10, 95, 15},
	{95, -10, 105, 5},
}

// MatBlacklist flags reports ineligible for MAT (marine air temperature)
// QC: Deck 780 platform type 5 data (World Ocean Database provenance), and
// Deck 193 reports from 1880-1892 falling in one of the five historical
// exclusion boxes.
func MatBlacklist(platformType, deck int, lat, lon float64, year int) bool {
	if platformType == 5 && deck == 780 {
		return true
	}
	if deck == 193 && year >= 1880 && year <= 1892 {
		for _, box := range matExclusionBoxes {
			if lon >= box[0] && lon <= box[2] && lat >= box[1] && lat <= box[3] {
				return true
			}
		}
	}
	return false
}

// WindBlacklist flags decks known to carry unreliable wind observations.
func WindBlacklist(deck int) bool {
	return deck == 708 || deck == 780
}

// ClimatologyCheck implements spec.md §4.6's generalised climatology check.
// standardDeviation/standardDeviation's limits and lowbar are all optional.
func ClimatologyCheck(
	value, mean float64,
	maximumAnomaly float64,
	stdev report.Optional,
	stdevLower, stdevUpper float64,
	haveStdevLimits bool,
	lowbar float64,
	haveLowbar bool,
) report.Flag {
	if maximumAnomaly <= 0 {
		return report.Untestable
	}
	if haveStdevLimits && stdevUpper <= stdevLower {
		return report.Untestable
	}
	if !finite(value) || !finite(mean) {
		return report.Untestable
	}

	sd := 1.0
	if stdev.Valid {
		if !finite(stdev.Value) {
			return report.Untestable
		}
		sd = stdev.Value
		if haveStdevLimits {
			if sd < stdevLower {
				sd = stdevLower
			}
			if sd > stdevUpper {
				sd = stdevUpper
			}
		}
	}

	d := math.Abs(value - mean)
	if haveLowbar && d <= lowbar {
		return report.Pass
	}
	if d/sd > maximumAnomaly {
		return report.Fail
	}
	return report.Pass
}

// HardLimitCheck fails when val falls outside [lower, upper]; untestable
// when the limits are inverted or val is missing.
func HardLimitCheck(val, lower, upper float64) report.Flag {
	if upper <= lower {
		return report.Untestable
	}
	if !finite(val) {
		return report.Untestable
	}
	if val < lower || val > upper {
		return report.Fail
	}
	return report.Pass
}

// SSTFreezeCheck fails when sst is colder than freezingPoint - nSigma *
// uncertainty.
func SSTFreezeCheck(sst, uncertainty, freezingPoint, nSigma float64) report.Flag {
	if !finite(uncertainty) || !finite(freezingPoint) || !finite(nSigma) {
		return report.Untestable
	}
	if !finite(sst) {
		return report.Untestable
	}
	if sst < freezingPoint-nSigma*uncertainty {
		return report.Fail
	}
	return report.Pass
}

// SupersaturationCheck fails when the dew point exceeds the air
// temperature.
func SupersaturationCheck(dewPoint, airTemp float64) report.Flag {
	if !finite(dewPoint) || !finite(airTemp) {
		return report.Untestable
	}
	if dewPoint > airTemp {
		return report.Fail
	}
	return report.Pass
}

// WindConsistencyCheck fails when exactly one of (speed, direction) is
// zero while the other is non-zero: a calm must report both as zero.
func WindConsistencyCheck(speed, direction float64) report.Flag {
	if !finite(speed) || !finite(direction) {
		return report.Untestable
	}
	speedZero := speed == 0
	dirZero := direction == 0
	if speedZero != dirZero {
		return report.Fail
	}
	return report.Pass
}

// ValueCheck fails iff the value is missing.
func ValueCheck(value float64) report.Flag {
	if !finite(value) {
		return report.Fail
	}
	return report.Pass
}
