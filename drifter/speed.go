package drifter

import (
	"github.com/metobs-qc/marineqc/report"
	"github.com/metobs-qc/marineqc/track"
)

// SpeedParams bundles the drifter speed check's tunables (spec.md §4.8).
type SpeedParams struct {
	SpeedLimitMS float64 // metres/second, default 2.5
	MinWinPeriod float64 // days, default 0.8
	MaxWinPeriod float64 // days, default 1.0
}

// DefaultSpeedParams returns the legacy defaults.
func DefaultSpeedParams() SpeedParams {
	return SpeedParams{SpeedLimitMS: 2.5, MinWinPeriod: 0.8, MaxWinPeriod: 1.0}
}

// SpeedCheck flags POS.drf_spd=1 on every report within a window where the
// straight-line speed between the window's endpoints exceeds the speed
// limit, per spec.md §4.8.
func SpeedCheck(v *track.Voyage, params SpeedParams) {
	n := len(v.Reports)
	for _, r := range v.Reports {
		r.SetFlag("POS", "drf_spd", 0)
	}
	if n <= 1 {
		return
	}

	cum := cumulativeHours(v.TimeDiffH)
	lat := make([]float64, n)
	lon := make([]float64, n)
	for i, r := range v.Reports {
		lat[i], lon[i] = r.Lat, r.Lon
	}

	minH := params.MinWinPeriod * 24.0
	maxH := params.MaxWinPeriod * 24.0

	i := 0
	for cum[n-1]-cum[i] >= minH {
		hi := i
		for hi+1 < n && cum[hi+1] <= cum[i]+maxH {
			hi++
		}
		winLen := cum[hi] - cum[i]
		if winLen < minH {
			i++
			continue
		}
		d := mustDistance(lat[i], lon[i], lat[hi], lon[hi])
		speedMS := (d / winLen) * 1000.0 / 3600.0
		if speedMS > params.SpeedLimitMS {
			for ix := i; ix <= hi; ix++ {
				if v.Reports[ix].GetFlag("POS", "drf_spd") == 0 {
					v.Reports[ix].SetFlag("POS", "drf_spd", uint8(report.Fail))
				}
			}
		}
		i++
	}
}

// NewSpeedCheck runs an IQUAM-as-ship pre-filter over a deep copy of the
// Voyage to drop positional outliers, then applies the speed rule at
// MinWinPeriod only, skipping reports the pre-filter rejected.
func NewSpeedCheck(v *track.Voyage, speedLimitMS, minWinPeriod float64) {
	n := len(v.Reports)
	for _, r := range v.Reports {
		r.SetFlag("POS", "drf_spd", 0)
	}
	if n <= 1 {
		return
	}

	shadow := cloneVoyageForPreFilter(v)
	track.IQUAMTrackCheck(shadow, track.IQUAMParams{
		BuoySpeedLimitKmh: 60, // pre-filter treats the drifter as a ship
		ShipSpeedLimitKmh: 60,
		DeltaDKm:          1.11,
		DeltaTHours:       0.01,
		NNeighbours:       5,
	})
	rejected := make([]bool, n)
	for i, r := range shadow.Reports {
		rejected[i] = r.GetFlag("POS", "iquam_trk") == uint8(report.Fail)
	}

	cum := cumulativeHours(v.TimeDiffH)
	minH := minWinPeriod * 24.0

	i := 0
	for cum[n-1]-cum[i] >= minH {
		if rejected[i] {
			i++
			continue
		}
		hi := i
		for hi+1 < n && cum[hi+1]-cum[i] < minH {
			hi++
		}
		if hi == i || rejected[hi] {
			i++
			continue
		}
		d := mustDistance(v.Reports[i].Lat, v.Reports[i].Lon, v.Reports[hi].Lat, v.Reports[hi].Lon)
		winLen := cum[hi] - cum[i]
		speedMS := (d / winLen) * 1000.0 / 3600.0
		if speedMS > speedLimitMS {
			for ix := i; ix <= hi; ix++ {
				if !rejected[ix] && v.Reports[ix].GetFlag("POS", "drf_spd") == 0 {
					v.Reports[ix].SetFlag("POS", "drf_spd", uint8(report.Fail))
				}
			}
		}
		i++
	}
}

// cloneVoyageForPreFilter builds a fresh Report from each report's base
// fields (ids, timestamp, position, deck, source, platform type) so the
// pre-filter's flags never mutate the caller's reports (spec.md §5's
// "aliasing a Report across Voyages is forbidden" is honoured by cloning
// the underlying Reports, not just the slice header).
func cloneVoyageForPreFilter(v *track.Voyage) *track.Voyage {
	clones := make([]*report.Report, len(v.Reports))
	for i, r := range v.Reports {
		c := report.New(r.PlatformID, r.UniqueID, r.Year, r.Month, r.Day, r.Hour, r.Lat, r.Lon, r.Deck, r.SourceID, r.PlatformType)
		clones[i] = c
	}
	shadow := track.New(clones)
	shadow.Sort()
	shadow.DeriveKinematics()
	return shadow
}
