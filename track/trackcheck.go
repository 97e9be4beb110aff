package track

import (
	"math"

	"github.com/metobs-qc/marineqc/report"
	"github.com/metobs-qc/marineqc/sphere"
	"github.com/metobs-qc/marineqc/units"
)

// ModalSpeed computes the modal speed (spec.md §4.7, S3 in §8) from a set
// of reported sector speeds, already converted to km/h. Speeds are binned
// into 12 three-knot bins with centres {1.5, 4.5, ..., 34.5} knots; the
// reported modal speed is max(modal bin centre, 8.5 knots), returned in
// km/h. An empty input returns the 8.5-knot floor.
func ModalSpeed(speedsKmh []float64) float64 {
	var freq [12]int
	for _, s := range speedsKmh {
		knots := units.KmPerHToKnots(s)
		idx := int(math.Floor(knots / 3.0))
		if idx < 0 {
			idx = 0
		}
		if idx > 11 {
			idx = 11
		}
		freq[idx]++
	}

	modeIdx := 0
	best := -1
	for i, f := range freq {
		if f > best {
			best = f
			modeIdx = i
		}
	}
	centreKnots := float64(modeIdx)*3.0 + 1.5
	if centreKnots <= 8.5 {
		centreKnots = 8.5
	}
	return units.KnotsToKmPerH(centreKnots)
}

// SpeedLimits turns a modal speed (km/h) into the track check's (amax,
// amaxAbs, amin) speed limits, per spec.md §4.7. modal speeds at or below
// 8.51 knots get the fixed default limits (15, 20, 0) knots.
func SpeedLimits(modalKmh float64) (amax, amaxAbs, amin float64) {
	const defaultAmaxKnots = 15.0
	const defaultAmaxAbsKnots = 20.0
	modalKnots := units.KmPerHToKnots(modalKmh)
	if modalKnots <= 8.51 {
		return units.KnotsToKmPerH(defaultAmaxKnots), units.KnotsToKmPerH(defaultAmaxAbsKnots), 0
	}
	return modalKmh * 1.25, units.KnotsToKmPerH(30.0), modalKmh * 0.75
}

// TrackCheckParams bundles the MDS track check's tunables. TrackCheck uses
// the fields as given, so a zero value means zero thresholds;
// DefaultTrackCheckParams holds the spec.md §4.7 defaults. The 30 knot
// absolute ceiling of SpeedLimits is fixed and not configurable here.
type TrackCheckParams struct {
	MaxDirectionChangeDeg float64 // default 60
	MaxSpeedChangeKnots   float64 // default 10
	MaxAbsSpeedKnots      float64 // default 40
	MidDiscrepancyKm      float64 // default 150
}

// DefaultTrackCheckParams returns spec.md §4.7's documented constants.
func DefaultTrackCheckParams() TrackCheckParams {
	return TrackCheckParams{
		MaxDirectionChangeDeg: 60,
		MaxSpeedChangeKnots:   10,
		MaxAbsSpeedKnots:      40,
		MidDiscrepancyKm:      150,
	}
}

// circularDiffExceeds reports whether the minimal angular separation
// between a and b, both in degrees, exceeds max. Equivalent to
// direction_continuity's band test (max < |a-b| < 360-max on the raw,
// unfolded difference) but expressed on the folded [0,180] separation.
func circularDiffExceeds(a, b, max float64) bool {
	diff := math.Abs(a - b)
	if diff > 180 {
		diff = 360 - diff
	}
	return diff > max
}

// TrackCheck runs the MDS-style track check on a sorted Voyage with
// kinematics already derived, setting POS.trk and POS.few on every report.
// The voyage's reported sector speed/course (vsi/dsi, as decoded by
// DecodeSectorSpeed) is used for the reported-speed comparisons;
// reportedSpeedKmh/reportedCourseDeg give those per report, report.None
// where missing.
func TrackCheck(v *Voyage, reportedSpeedKmh, reportedCourseDeg []report.Optional, params TrackCheckParams) {
	n := len(v.Reports)
	if n == 0 {
		return
	}

	id := v.Reports[0].PlatformID
	if idIsGeneric(id) {
		for _, r := range v.Reports {
			r.SetFlag("POS", "trk", uint8(report.Pass))
		}
		return
	}
	pt := v.Reports[0].PlatformType
	if pt == 6 || pt == 7 {
		for _, r := range v.Reports {
			r.SetFlag("POS", "trk", uint8(report.Pass))
		}
		return
	}

	if n < 3 {
		fewFlag := uint8(1)
		if v.Reports[0].Deck == 720 && v.Reports[0].Year < 1891 {
			fewFlag = 0
		}
		for _, r := range v.Reports {
			r.SetFlag("POS", "few", fewFlag)
			r.SetFlag("POS", "trk", 0)
		}
		return
	}

	if v.Unprocessable {
		return
	}
	if v.AltSpeedKmh == nil {
		v.DeriveKinematics()
	}

	var allSpeeds []float64
	for _, s := range reportedSpeedKmh {
		if s.Valid {
			allSpeeds = append(allSpeeds, s.Value)
		}
	}
	modal := ModalSpeed(allSpeeds)
	amax, _, amin := SpeedLimits(modal)
	amaxAbsKmh := units.KnotsToKmPerH(params.MaxAbsSpeedKnots)

	for _, r := range v.Reports {
		r.SetFlag("POS", "few", 0)
	}

	hasAlt := func(j int) bool { return j >= 1 && j <= n-2 }

	for i := 1; i < n-1; i++ {
		// qc_a corroborates each excessive segment speed against the
		// alternate-pair speed spanning the same report, per the three
		// OR'd clauses in track_check (one excessive segment speed alone
		// is not enough to convict a report; it must be matched by the
		// alternate-pair speed or by the other adjacent segment speed).
		qcA := 0
		if v.SpeedKmh[i-1] > amax && hasAlt(i-1) && v.AltSpeedKmh[i-1] > amax {
			qcA++
		} else if v.SpeedKmh[i] > amax && hasAlt(i+1) && v.AltSpeedKmh[i+1] > amax {
			qcA++
		} else if v.SpeedKmh[i-1] > amax && v.SpeedKmh[i] > amax {
			qcA++
		}

		qcB := 0
		// Forward/reverse estimated-position distance, per
		// check_distance_from_estimate in track_check.py: estimate i's
		// position from i-1 via the reported course/speed, and again from
		// i+1 run backwards, then compare both to the reported position.
		fwd, rev := 0.0, 0.0
		if reportedSpeedKmh[i-1].Valid && reportedCourseDeg[i-1].Valid {
			fwdLat, fwdLon, errF := sphere.PositionFromCourseAndDistance(
				v.Reports[i-1].Lat, v.Reports[i-1].Lon, reportedCourseDeg[i-1].Value, reportedSpeedKmh[i-1].Value*v.TimeDiffH[i-1])
			if errF == nil {
				fwd, _ = sphere.Distance(v.Reports[i].Lat, v.Reports[i].Lon, fwdLat, fwdLon)
			}
		}
		if reportedSpeedKmh[i+1].Valid && reportedCourseDeg[i+1].Valid {
			revLat, revLon, errR := sphere.PositionFromCourseAndDistance(
				v.Reports[i+1].Lat, v.Reports[i+1].Lon, math.Mod(reportedCourseDeg[i+1].Value+180, 360), reportedSpeedKmh[i+1].Value*v.TimeDiffH[i])
			if errR == nil {
				rev, _ = sphere.Distance(v.Reports[i].Lat, v.Reports[i].Lon, revLat, revLon)
			}
		}
		if reportedSpeedKmh[i-1].Valid && reportedSpeedKmh[i].Valid && v.TimeDiffH[i-1] > 0 {
			allowed := v.TimeDiffH[i-1] * ((reportedSpeedKmh[i-1].Value + reportedSpeedKmh[i].Value) / 2.0)
			if fwd > allowed && rev > allowed {
				qcB++
			}
		}
		// direction_continuity: the segment course i-1->i (v.CourseDeg[i-1]
		// in this package's indexing) must agree with BOTH the reported
		// heading at i and the reported heading at i-1 (a disagreement
		// with either one counts); both dsi and
		// dsi_previous must be present for the comparison to run at all.
		if reportedCourseDeg[i].Valid && reportedCourseDeg[i-1].Valid {
			segCourse := v.CourseDeg[i-1]
			if circularDiffExceeds(reportedCourseDeg[i].Value, segCourse, params.MaxDirectionChangeDeg) ||
				circularDiffExceeds(reportedCourseDeg[i-1].Value, segCourse, params.MaxDirectionChangeDeg) {
				qcB++
			}
		}
		// speed_continuity: the segment speed i-1->i must differ from
		// BOTH the reported speed at i and the reported speed at i-1 by
		// more than the allowed change before it counts.
		if reportedSpeedKmh[i].Valid && reportedSpeedKmh[i-1].Valid {
			maxChangeKmh := units.KnotsToKmPerH(params.MaxSpeedChangeKnots)
			segSpeed := v.SpeedKmh[i-1]
			if math.Abs(reportedSpeedKmh[i].Value-segSpeed) > maxChangeKmh &&
				math.Abs(reportedSpeedKmh[i-1].Value-segSpeed) > maxChangeKmh {
				qcB++
			}
		}
		if v.SpeedKmh[i-1] > amaxAbsKmh {
			qcB++
		}

		midLat, midLon, errM := sphere.IntermediatePoint(
			v.Reports[i-1].Lat, v.Reports[i-1].Lon,
			v.Reports[i+1].Lat, v.Reports[i+1].Lon, 0.5)
		midDiscrepancy := 0.0
		if errM == nil {
			midDiscrepancy, _ = sphere.Distance(v.Reports[i].Lat, v.Reports[i].Lon, midLat, midLon)
		}

		flag := report.Pass
		if midDiscrepancy > params.MidDiscrepancyKm && qcA > 0 && qcB > 0 {
			flag = report.Fail
		}
		_ = amin
		v.Reports[i].SetFlag("POS", "trk", uint8(flag))
	}
	v.Reports[0].SetFlag("POS", "trk", 0)
	v.Reports[n-1].SetFlag("POS", "trk", 0)
}
