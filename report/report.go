// Package report defines the Report value, its typed variable set and QC
// flag table. In place of the source system's untyped per-report
// attribute dict, every known variable and extension attribute gets its
// own named, optional field.
package report

import "github.com/metobs-qc/marineqc/units"

// Optional is a present-or-missing float64.
type Optional struct {
	Value float64
	Valid bool
}

// Some wraps a present value.
func Some(v float64) Optional { return Optional{Value: v, Valid: true} }

// None is the missing value.
var None = Optional{}

// Var names a variable carried on a Report: either a directly observed
// quantity or a value derived from it (humidity variables, sector speed
// and course, or a drifter's matched background field).
type Var string

const (
	SST     Var = "sst"
	AT      Var = "at"
	AT2     Var = "at2"
	DPT     Var = "dpt"
	SLP     Var = "slp"
	WindSpd Var = "wind_speed"
	WindDir Var = "wind_direction"
	Shu     Var = "shu"
	Vap     Var = "vap"
	Crh     Var = "crh"
	Cwb     Var = "cwb"
	Dpd     Var = "dpd"
	DS      Var = "ds" // direction sector code
	VS      Var = "vs" // speed sector code

	// Derived/extension attributes, not part of the raw record.
	Speed      Var = "speed"       // derived course speed, km/h
	Course     Var = "course"      // derived course, degrees
	Distance   Var = "distance"    // segment distance, km
	TimeDiff   Var = "time_diff"   // segment time difference, hours
	Background Var = "background"  // matched background SST, degC
	BgVar      Var = "bgvar"       // background error variance
	IceFrac    Var = "ice"         // ice fraction at report location
)

// NormKind selects which climatological normal a caller wants.
type NormKind int

const (
	Mean NormKind = iota
	Stdev
)

// FlagKey identifies one QC flag slot by category (e.g. "POS", "SST") and
// name (e.g. "trk", "freez"). The zero value of a flag is 9 ("unset").
type FlagKey struct {
	Category string
	Name     string
}

// Flag is the three-valued outcome every single-report and track-level QC
// predicate returns. The engine widens it to the stored 0..9 flag range
// (4..9 are reserved for the buddy check's graded Bayesian posterior).
type Flag uint8

const (
	Pass       Flag = 0
	Fail       Flag = 1
	Untestable Flag = 2
)

// FlagUnset is the default value of a flag slot before any check runs.
const FlagUnset uint8 = 9

// Report is a single marine surface weather observation.
type Report struct {
	PlatformID string
	UniqueID   string

	Year  int
	Month int
	Day   int
	Hour  float64 // decimal UTC hour, [0, 24)

	Lat float64
	Lon float64

	Deck         int
	SourceID     int
	PlatformType int

	values map[Var]Optional
	means  map[Var]Optional
	stdevs map[Var]Optional
	flags  map[FlagKey]uint8
}

// New builds a Report with an empty variable and flag table. Longitude is
// folded to (-180, 180] as §3 requires.
func New(platformID, uniqueID string, year, month, day int, hour, lat, lon float64, deck, sourceID, platformType int) *Report {
	return &Report{
		PlatformID:   platformID,
		UniqueID:     uniqueID,
		Year:         year,
		Month:        month,
		Day:          day,
		Hour:         hour,
		Lat:          lat,
		Lon:          foldLongitude(lon),
		Deck:         deck,
		SourceID:     sourceID,
		PlatformType: platformType,
		values:       map[Var]Optional{},
		means:        map[Var]Optional{},
		stdevs:       map[Var]Optional{},
		flags:        map[FlagKey]uint8{},
	}
}

func foldLongitude(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon <= -180 {
		lon += 360
	}
	return lon
}

// Set stores a value for the named variable. An Optional with Valid=false
// clears the variable.
func (r *Report) Set(v Var, value Optional) {
	r.values[v] = value
}

// SetValue is a convenience wrapper around Set(v, Some(value)).
func (r *Report) SetValue(v Var, value float64) {
	r.Set(v, Some(value))
}

// Get returns the stored value for v, or None if never set.
func (r *Report) Get(v Var) Optional {
	val, ok := r.values[v]
	if !ok {
		return None
	}
	return val
}

// SetNorm attaches a climatological normal (mean or stdev) for variable v.
func (r *Report) SetNorm(v Var, kind NormKind, value Optional) {
	if kind == Mean {
		r.means[v] = value
	} else {
		r.stdevs[v] = value
	}
}

// GetNorm returns the attached climatological normal for v, or None.
func (r *Report) GetNorm(v Var, kind NormKind) Optional {
	var table map[Var]Optional
	if kind == Mean {
		table = r.means
	} else {
		table = r.stdevs
	}
	val, ok := table[v]
	if !ok {
		return None
	}
	return val
}

// Anomaly returns value(v) - mean(v), or None if either is missing.
func (r *Report) Anomaly(v Var) Optional {
	val := r.Get(v)
	mean := r.GetNorm(v, Mean)
	if !val.Valid || !mean.Valid {
		return None
	}
	return Some(val.Value - mean.Value)
}

// StandardisedAnomaly returns Anomaly(v) / stdev(v), or None if the
// anomaly or the stdev is missing, or the stdev is zero.
func (r *Report) StandardisedAnomaly(v Var) Optional {
	anom := r.Anomaly(v)
	sd := r.GetNorm(v, Stdev)
	if !anom.Valid || !sd.Valid || sd.Value == 0 {
		return None
	}
	return Some(anom.Value / sd.Value)
}

// SetFlag records the outcome of a QC check under (category, name).
func (r *Report) SetFlag(category, name string, value uint8) {
	r.flags[FlagKey{category, name}] = value
}

// GetFlag returns the stored flag for (category, name), or 9 (unset) if
// the check has not run.
func (r *Report) GetFlag(category, name string) uint8 {
	v, ok := r.flags[FlagKey{category, name}]
	if !ok {
		return 9
	}
	return v
}

// Flags returns a copy of the full flag table, for output/reporting.
func (r *Report) Flags() map[FlagKey]uint8 {
	out := make(map[FlagKey]uint8, len(r.flags))
	for k, v := range r.flags {
		out[k] = v
	}
	return out
}

// DateValid reports whether the report's Y/M/D denote a real civil date.
func (r *Report) DateValid() bool {
	return units.DateValid(r.Year, r.Month, r.Day)
}

// TimestampValid reports whether all four timestamp fields are present and
// together denote a real civil time, per §3's invariant.
func (r *Report) TimestampValid() bool {
	return r.DateValid() && r.Hour >= 0 && r.Hour < 24
}

// Pentad returns the report's pentad index, 1..73, valid only when
// TimestampValid is true.
func (r *Report) Pentad() int {
	return units.Pentad(r.Year, r.Month, r.Day)
}

// Less implements the ordering of §4.5: first by platform id
// lexicographically, then by timestamp.
func Less(a, b *Report) bool {
	if a.PlatformID != b.PlatformID {
		return a.PlatformID < b.PlatformID
	}
	return timeKey(a) < timeKey(b)
}

// Equal requires both platform id and timestamp to match.
func Equal(a, b *Report) bool {
	return a.PlatformID == b.PlatformID && timeKey(a) == timeKey(b)
}

func timeKey(r *Report) float64 {
	return float64(r.Year)*1e4 + float64(r.Month)*1e2 + float64(r.Day) + r.Hour/24.0
}
