package track

import (
	"github.com/metobs-qc/marineqc/report"
	"github.com/metobs-qc/marineqc/sphere"
)

// resolveViolations implements the iterative "remove the worst" resolution
// shared by the IQUAM track check and the spike check (spec.md §4.7,
// §4.9's note on deterministic ordering): repeatedly flag the report with
// the most outstanding violations, clear it from every neighbour's
// violation set, and continue until none remain. Ties are broken by the
// lowest index, matching np.argmax's first-occurrence behaviour.
func resolveViolations(violations [][]int) []bool {
	n := len(violations)
	flagged := make([]bool, n)
	counts := make([]int, n)
	for i, vs := range violations {
		counts[i] = len(vs)
	}

	for {
		worst := -1
		worstCount := 0
		for i, c := range counts {
			if c > worstCount {
				worstCount = c
				worst = i
			}
		}
		if worst == -1 {
			break
		}
		flagged[worst] = true
		for _, j := range violations[worst] {
			for k, v := range violations[j] {
				if v == worst {
					violations[j] = append(violations[j][:k], violations[j][k+1:]...)
					counts[j]--
					break
				}
			}
		}
		counts[worst] = 0
		violations[worst] = nil
	}
	return flagged
}

// IQUAMParams bundles the IQUAM track check's tunables (spec.md §4.7).
type IQUAMParams struct {
	BuoySpeedLimitKmh float64 // default 15
	ShipSpeedLimitKmh float64 // default 60
	DeltaDKm          float64 // default 1.11
	DeltaTHours       float64 // default 0.01
	NNeighbours       int     // default 5
}

// DefaultIQUAMParams returns spec.md §4.7's documented constants.
func DefaultIQUAMParams() IQUAMParams {
	return IQUAMParams{
		BuoySpeedLimitKmh: 15,
		ShipSpeedLimitKmh: 60,
		DeltaDKm:          1.11,
		DeltaTHours:       0.01,
		NNeighbours:       5,
	}
}

// IQUAMTrackCheck sets POS.iquam_trk on every report in a sorted Voyage.
// Skipped entirely (left at the default unset flag) for generic ids.
func IQUAMTrackCheck(v *Voyage, params IQUAMParams) {
	n := len(v.Reports)
	if n == 0 || idIsGeneric(v.Reports[0].PlatformID) {
		return
	}

	limit := params.ShipSpeedLimitKmh
	if v.Reports[0].PlatformType == 6 || v.Reports[0].PlatformType == 7 {
		limit = params.BuoySpeedLimitKmh
	}

	violations := make([][]int, n)
	for t1 := 0; t1 < n; t1++ {
		lo := t1 - params.NNeighbours
		if lo < 0 {
			lo = 0
		}
		hi := t1 + params.NNeighbours + 1
		if hi > n {
			hi = n
		}
		for t2 := lo; t2 < hi; t2++ {
			if t2 == t1 {
				continue
			}
			d, err := sphere.Distance(v.Reports[t1].Lat, v.Reports[t1].Lon, v.Reports[t2].Lat, v.Reports[t2].Lon)
			if err != nil {
				continue
			}
			td := hoursBetween(v.Reports[t1], v.Reports[t2])
			if td < 0 {
				td = -td
			}
			speed := (maxF(d-params.DeltaDKm, 0)) / (td + params.DeltaTHours)
			if speed > limit {
				violations[t1] = append(violations[t1], t2)
			}
		}
	}

	flagged := resolveViolations(violations)
	for i, r := range v.Reports {
		if flagged[i] {
			r.SetFlag("POS", "iquam_trk", uint8(report.Fail))
		} else {
			r.SetFlag("POS", "iquam_trk", uint8(report.Pass))
		}
	}
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// SpikeParams bundles the spike check's tunables (spec.md §4.7).
type SpikeParams struct {
	Variable         report.Var
	MaxGradientSpace float64 // K/km, default 0.5
	MaxGradientTime  float64 // K/h, default 1.0
	ShipDeltaT       float64 // K, default 2.0
	BuoyDeltaT       float64 // K, default 1.0
	NNeighbours      int     // default 5
}

// DefaultSpikeParams returns spec.md §4.7's documented constants for SST.
func DefaultSpikeParams() SpikeParams {
	return SpikeParams{
		Variable:         report.SST,
		MaxGradientSpace: 0.5,
		MaxGradientTime:  1.0,
		ShipDeltaT:       2.0,
		BuoyDeltaT:       1.0,
		NNeighbours:      5,
	}
}

// SpikeCheck sets <category>.spike on every report of a sorted Voyage for
// the configured variable, using the same iterative worst-first
// resolution as IQUAMTrackCheck.
func SpikeCheck(v *Voyage, category string, params SpikeParams) {
	n := len(v.Reports)
	if n == 0 {
		return
	}

	deltaT := params.ShipDeltaT
	if v.Reports[0].PlatformType == 6 || v.Reports[0].PlatformType == 7 {
		deltaT = params.BuoyDeltaT
	}

	violations := make([][]int, n)
	for t1 := 0; t1 < n; t1++ {
		v1 := v.Reports[t1].Get(params.Variable)
		if !v1.Valid {
			continue
		}
		lo := t1 - params.NNeighbours
		if lo < 0 {
			lo = 0
		}
		hi := t1 + params.NNeighbours + 1
		if hi > n {
			hi = n
		}
		for t2 := lo; t2 < hi; t2++ {
			if t2 == t1 {
				continue
			}
			v2 := v.Reports[t2].Get(params.Variable)
			if !v2.Valid {
				continue
			}
			d, err := sphere.Distance(v.Reports[t1].Lat, v.Reports[t1].Lon, v.Reports[t2].Lat, v.Reports[t2].Lon)
			if err != nil {
				continue
			}
			td := hoursBetween(v.Reports[t1], v.Reports[t2])
			if td < 0 {
				td = -td
			}
			bound := deltaT
			if b := d * params.MaxGradientSpace; b > bound {
				bound = b
			}
			if b := td * params.MaxGradientTime; b > bound {
				bound = b
			}
			if absF(v2.Value-v1.Value) > bound {
				violations[t1] = append(violations[t1], t2)
			}
		}
	}

	flagged := resolveViolations(violations)
	for i, r := range v.Reports {
		if flagged[i] {
			r.SetFlag(category, "spike", uint8(report.Fail))
		} else {
			r.SetFlag(category, "spike", uint8(report.Pass))
		}
	}
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
