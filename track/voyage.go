// Package track implements the platform-track QC procedures of spec.md
// §4.7: sorting a voyage, deriving segment kinematics, the MDS-style track
// check, the IQUAM track check, the spike check, and the saturated/
// repeated/rounded-value detectors. All of it operates on an owned
// report.Report slice; Voyage never aliases a Report across instances.
package track

import (
	"math"
	"sort"

	"github.com/metobs-qc/marineqc/report"
	"github.com/metobs-qc/marineqc/sphere"
	"github.com/metobs-qc/marineqc/units"
)

// Voyage is an ordered sequence of Reports sharing one platform id, plus
// the per-segment kinematics cached between consecutive reports.
type Voyage struct {
	Reports []*report.Report

	// Per-segment values between consecutive reports, length
	// len(Reports)-1. Segment i holds the values for the step from Reports[i] to
	// Reports[i+1].
	DistanceKm []float64
	CourseDeg  []float64
	TimeDiffH  []float64
	SpeedKmh   []float64

	// Alternate-pair values for the step from i-1 to i+1, indexed by the
	// interior report index i (1..len(Reports)-2); slot 0 and the last
	// slot are unused (zero value) as there is no such pair.
	AltDistanceKm []float64
	AltCourseDeg  []float64
	AltTimeDiffH  []float64
	AltSpeedKmh   []float64

	// Unprocessable records a NaN where None was expected, or a
	// non-monotone timestamp detected during Sort/DeriveKinematics, per
	// spec.md §7. When true every QC step on this Voyage is a no-op.
	Unprocessable bool
}

// New builds a Voyage from an unordered slice of Reports sharing one
// platform id. The caller retains no other reference to the slice.
func New(reports []*report.Report) *Voyage {
	return &Voyage{Reports: reports}
}

// Sort orders the Reports non-decreasing by timestamp (report.Less already
// orders by platform id then timestamp; within one Voyage the platform id
// is constant so this reduces to a timestamp sort).
func (v *Voyage) Sort() {
	sort.SliceStable(v.Reports, func(i, j int) bool {
		return report.Less(v.Reports[i], v.Reports[j])
	})
}

// daysFromCivil is Howard Hinnant's days-from-civil algorithm: the number
// of days since the epoch for a proleptic Gregorian (y, m, d), valid for
// any year. Used only to difference two timestamps; the epoch is
// arbitrary.
func daysFromCivil(y, m, d int) int64 {
	yy := int64(y)
	if m <= 2 {
		yy--
	}
	var era int64
	if yy >= 0 {
		era = yy / 400
	} else {
		era = (yy - 399) / 400
	}
	yoe := yy - era*400
	mp := (int64(m) + 9) % 12
	doy := (153*mp+2)/5 + int64(d) - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

func hoursBetween(a, b *report.Report) float64 {
	da := daysFromCivil(a.Year, a.Month, a.Day)
	db := daysFromCivil(b.Year, b.Month, b.Day)
	return float64(db-da)*24.0 + (b.Hour - a.Hour)
}

// DeriveKinematics computes the per-segment distance/course/time-diff/
// speed caches, plus the alternate (i-1 -> i+1) pairs. Reports sharing an
// identical timestamp produce a zero time-diff segment; its speed is set
// to the segment distance (the degenerate case spec.md §4.7 calls out)
// rather than dividing by zero.
func (v *Voyage) DeriveKinematics() {
	n := len(v.Reports)
	if n < 2 {
		return
	}
	v.DistanceKm = make([]float64, n-1)
	v.CourseDeg = make([]float64, n-1)
	v.TimeDiffH = make([]float64, n-1)
	v.SpeedKmh = make([]float64, n-1)

	for i := 0; i < n-1; i++ {
		a, b := v.Reports[i], v.Reports[i+1]
		d, err := sphere.Distance(a.Lat, a.Lon, b.Lat, b.Lon)
		if err != nil {
			v.Unprocessable = true
			continue
		}
		c, _ := sphere.Course(a.Lat, a.Lon, b.Lat, b.Lon)
		td := hoursBetween(a, b)
		if td < 0 {
			v.Unprocessable = true
		}
		v.DistanceKm[i] = d
		v.CourseDeg[i] = c
		v.TimeDiffH[i] = td
		if td == 0 {
			v.SpeedKmh[i] = d
		} else {
			v.SpeedKmh[i] = d / td
		}
	}

	if n < 3 {
		return
	}
	v.AltDistanceKm = make([]float64, n)
	v.AltCourseDeg = make([]float64, n)
	v.AltTimeDiffH = make([]float64, n)
	v.AltSpeedKmh = make([]float64, n)
	for i := 1; i < n-1; i++ {
		a, b := v.Reports[i-1], v.Reports[i+1]
		d, err := sphere.Distance(a.Lat, a.Lon, b.Lat, b.Lon)
		if err != nil {
			v.Unprocessable = true
			continue
		}
		c, _ := sphere.Course(a.Lat, a.Lon, b.Lat, b.Lon)
		td := hoursBetween(a, b)
		v.AltDistanceKm[i] = d
		v.AltCourseDeg[i] = c
		v.AltTimeDiffH[i] = td
		if td == 0 {
			v.AltSpeedKmh[i] = d
		} else {
			v.AltSpeedKmh[i] = d / td
		}
	}
}

// DecodeSectorSpeed converts the raw DS (direction sector) and VS (speed
// sector) codes into a derived true course in degrees and speed in km/h,
// resolving spec.md §9 Open Question (a): the conversion factor depends on
// the calendar year of the observation itself, per
// Extended_IMMA_sb.py:calculate_dsi_vsi.
func DecodeSectorSpeed(ds report.Optional, vs report.Optional, year int) (courseDeg, speedKmh float64, ok bool) {
	if !ds.Valid || !vs.Valid {
		return 0, 0, false
	}
	courseDeg = ds.Value

	var knots float64
	if vs.Value == 0 {
		knots = 0
	} else if year >= 1968 {
		knots = vs.Value*5.0 - 2.0
	} else {
		knots = vs.Value*3.0 - 1.0
	}
	speedKmh = units.KnotsToKmPerH(knots)
	return courseDeg, speedKmh, true
}

// idIsGeneric reports whether a platform id is one of the placeholder ids
// that carries no real per-platform track identity (historically these are
// ids that are entirely spaces, zeros, or the literal string "SHIP").
func idIsGeneric(id string) bool {
	if id == "" || id == "SHIP" {
		return true
	}
	allZero := true
	for _, c := range id {
		if c != '0' && c != ' ' {
			allZero = false
			break
		}
	}
	return allZero
}
