// Package drifter implements the drifter tracking QC checks of spec.md
// §4.8: aground, speed, SST tail, and bias/noise, all operating on a
// sorted Voyage known to be a drifter (platform type 7). Every check
// degrades to a no-op when the Voyage is too short to evaluate.
package drifter

import (
	"sort"

	"github.com/metobs-qc/marineqc/report"
	"github.com/metobs-qc/marineqc/sphere"
	"github.com/metobs-qc/marineqc/track"
)

// AgroundParams bundles the aground check's tunables (spec.md §4.8).
type AgroundParams struct {
	SmoothWin    int     // odd count, default 41
	MinWinPeriod float64 // days, default 8
	MaxWinPeriod float64 // days, default 10
}

// DefaultAgroundParams returns the legacy defaults.
func DefaultAgroundParams() AgroundParams {
	return AgroundParams{SmoothWin: 41, MinWinPeriod: 8, MaxWinPeriod: 10}
}

// agroundTolerance is the displacement from 1/100th-degree position
// jitter at the equator: the noise floor below which two smoothed
// positions are considered the same place.
var agroundTolerance = mustDistance(0, 0, 0.01, 0.01)

func mustDistance(lat1, lon1, lat2, lon2 float64) float64 {
	d, err := sphere.Distance(lat1, lon1, lat2, lon2)
	if err != nil {
		panic(err)
	}
	return d
}

func median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2.0
}

// smoothPositions builds a median-smoothed (lat, lon, cumulative-hours)
// series over a rolling window of smoothWin points, following
// AgroundChecker._preprocess_reps.
func smoothPositions(reps []*report.Report, cumHours []float64, smoothWin int) (lat, lon, hrs []float64) {
	n := len(reps)
	nSmooth := n - smoothWin + 1
	if nSmooth <= 0 {
		return nil, nil, nil
	}
	half := (smoothWin - 1) / 2
	lat = make([]float64, nSmooth)
	lon = make([]float64, nSmooth)
	hrs = make([]float64, nSmooth)
	for i := 0; i < nSmooth; i++ {
		lats := make([]float64, smoothWin)
		lons := make([]float64, smoothWin)
		for k := 0; k < smoothWin; k++ {
			lats[k] = reps[i+k].Lat
			lons[k] = reps[i+k].Lon
		}
		lat[i] = median(lats)
		lon[i] = median(lons)
		hrs[i] = cumHours[i+half]
	}
	return lat, lon, hrs
}

func cumulativeHours(timeDiffH []float64) []float64 {
	cum := make([]float64, len(timeDiffH)+1)
	for i, d := range timeDiffH {
		cum[i+1] = cum[i] + d
	}
	return cum
}

// AgroundCheck flags POS.drf_agr=1 on every report from the first detected
// grounding onward, per spec.md §4.8. v must be sorted with kinematics
// derived.
func AgroundCheck(v *track.Voyage, params AgroundParams) {
	n := len(v.Reports)
	for _, r := range v.Reports {
		r.SetFlag("POS", "drf_agr", 0)
	}
	if n <= params.SmoothWin {
		return
	}

	half := (params.SmoothWin - 1) / 2
	cum := cumulativeHours(v.TimeDiffH)
	latS, lonS, hrsS := smoothPositions(v.Reports, cum, params.SmoothWin)

	minH := params.MinWinPeriod * 24.0
	maxH := params.MaxWinPeriod * 24.0

	i := 0
	isAground := false
	iAground := -1
	for hrsS[len(hrsS)-1]-hrsS[i] >= minH {
		hi := i
		for hi+1 < len(hrsS) && hrsS[hi+1] <= hrsS[i]+maxH {
			hi++
		}
		winLen := hrsS[hi] - hrsS[i]
		if winLen < minH {
			i++
			continue
		}
		d := mustDistance(latS[i], lonS[i], latS[hi], lonS[hi])
		if d <= agroundTolerance {
			if !isAground {
				isAground = true
				iAground = i
			}
		} else {
			isAground = false
			iAground = -1
		}
		i++
	}

	if isAground && iAground > 0 {
		iAground += half
	}
	if isAground {
		for ind := range v.Reports {
			if ind >= iAground {
				v.Reports[ind].SetFlag("POS", "drf_agr", uint8(report.Fail))
			}
		}
	}
}

// NewAgroundCheck is the "og" aground variant: compares each smoothed
// point to the final smoothed position rather than the furthest point
// within the window, per NewAgroundChecker._do_aground_check.
func NewAgroundCheck(v *track.Voyage, smoothWin int, minWinPeriod float64) {
	n := len(v.Reports)
	for _, r := range v.Reports {
		r.SetFlag("POS", "drf_agr", 0)
	}
	if n <= smoothWin {
		return
	}

	half := (smoothWin - 1) / 2
	cum := cumulativeHours(v.TimeDiffH)
	latS, lonS, hrsS := smoothPositions(v.Reports, cum, smoothWin)
	minH := minWinPeriod * 24.0

	last := len(hrsS) - 1
	i := 0
	isAground := false
	iAground := -1
	for hrsS[last]-hrsS[i] >= minH {
		d := mustDistance(latS[i], lonS[i], latS[last], lonS[last])
		if d <= agroundTolerance {
			if !isAground {
				isAground = true
				iAground = i
			}
			i++
		} else {
			isAground = false
			iAground = -1
			i++
		}
	}

	if isAground && iAground > 0 {
		iAground += half
	}
	if isAground {
		for ind := range v.Reports {
			if ind >= iAground {
				v.Reports[ind].SetFlag("POS", "drf_agr", uint8(report.Fail))
			}
		}
	}
}
