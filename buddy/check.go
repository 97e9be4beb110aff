package buddy

import (
	"math"

	"github.com/metobs-qc/marineqc/clima"
	"github.com/metobs-qc/marineqc/report"
)

// BuildGrid accumulates the anomaly of every report for which anomalyOf
// returns a valid Optional into a fresh Grid and averages it, following
// Np_Super_Ob.add_rep / take_average. Reports anomalyOf marks invalid are
// skipped, matching QC_filter.test_report gating in the original buddy
// check: an excluded report never contributes to its neighbours' limits.
func BuildGrid(reps []*report.Report, anomalyOf func(*report.Report) clima.Optional) *Grid {
	g := NewGrid()
	for _, r := range reps {
		a := anomalyOf(r)
		if !a.Valid {
			continue
		}
		g.Add(r.Lat, r.Lon, r.Pentad(), a.Value)
	}
	g.Average()
	return g
}

// MDSBuddyCheck is the legacy graduated-search buddy check, following
// Deck.mds_buddy_check: a report fails when its anomaly differs from the
// neighbourhood mean by at least the neighbourhood-derived threshold.
// category/name select the flag slot each report is marked under, e.g.
// ("SST", "bud").
func MDSBuddyCheck(reps []*report.Report, anomalyOf func(*report.Report) clima.Optional, pentadStdev clima.Field, category, name string) {
	boxes, thresholds, multipliers := DefaultMDSBoxes()
	g := BuildGrid(reps, anomalyOf)
	g.ComputeMDSLimits(pentadStdev, boxes, thresholds, multipliers)

	for _, r := range reps {
		a := anomalyOf(r)
		if !a.Valid {
			r.SetFlag(category, name, 0)
			continue
		}
		bm, _ := g.BuddyMeanAt(r.Lat, r.Lon, r.Year, r.Month, r.Day)
		bsd, _ := g.BuddyStdevAt(r.Lat, r.Lon, r.Year, r.Month, r.Day)
		if math.Abs(a.Value-bm) >= bsd {
			r.SetFlag(category, name, uint8(report.Fail))
		} else {
			r.SetFlag(category, name, uint8(report.Pass))
		}
	}
}

// BayesianBuddyParams bundles the Bayesian buddy check's tunables,
// following Deck.bayesian_buddy_check's "parameters" dict.
type BayesianBuddyParams struct {
	PriorProbGrossError  float64 // p0
	QuantizationInterval float64 // q
	MeasurementError     float64 // sigma_m
	NoiseScaling         float64
	Limits               SearchBox
	MaximumAnomaly       float64 // defines the uniform gross-error interval [-max, max]
}

// DefaultBayesianBuddyParams returns the legacy HadSST-style defaults.
func DefaultBayesianBuddyParams(maximumAnomaly float64) BayesianBuddyParams {
	return BayesianBuddyParams{
		PriorProbGrossError:  0.05,
		QuantizationInterval: 0.1,
		MeasurementError:     1.0,
		NoiseScaling:         3.0,
		Limits:               SearchBox{LonDeg: 2, LatDeg: 2, Pentads: 4},
		MaximumAnomaly:       maximumAnomaly,
	}
}

// PGross computes the Bayesian posterior probability that an observed
// anomaly is a gross error, given a uniform gross-error density over
// [rLo, rHi] with prior p0 and a Gaussian good-data density centred on
// the neighbourhood mean bm with stdev bs. q is the quantization interval
// that converts both continuous densities into comparable discrete
// probabilities; it cancels in the ratio except where the gross-error
// density is zero outside the uniform interval.
func PGross(p0, q, rHi, rLo, x, bm, bs float64) float64 {
	d := x - bm
	var pDataGivenGross float64
	if d >= rLo && d <= rHi {
		pDataGivenGross = q / (rHi - rLo)
	}
	pDataGivenGood := (1.0 / (math.Sqrt(2*math.Pi) * bs)) * math.Exp(-(d*d)/(2*bs*bs)) * q

	denom := pDataGivenGross*p0 + pDataGivenGood*(1-p0)
	if denom <= 0 {
		return 0
	}
	return (pDataGivenGross * p0) / denom
}

// BayesianBuddyCheck is the graded buddy check of spec.md §4.9: each
// report is assigned a flag in 0..9 proportional to floor(10*p_gross),
// following Deck.bayesian_buddy_check. stdev1/stdev2/stdev3 are the
// grid-to-neighbourhood, point-to-grid, and neighbour-average-uncertainty
// climatology fields respectively.
func BayesianBuddyCheck(reps []*report.Report, anomalyOf func(*report.Report) clima.Optional, stdev1, stdev2, stdev3 clima.Field, category, name string, params BayesianBuddyParams) {
	g := BuildGrid(reps, anomalyOf)
	g.ComputeBayesianLimits(stdev1, stdev2, stdev3, params.Limits, params.MeasurementError, params.NoiseScaling)

	rHi := params.MaximumAnomaly
	rLo := -rHi

	for _, r := range reps {
		a := anomalyOf(r)
		if !a.Valid {
			r.SetFlag(category, name, 0)
			continue
		}
		bm, _ := g.BuddyMeanAt(r.Lat, r.Lon, r.Year, r.Month, r.Day)
		bsd, _ := g.BuddyStdevAt(r.Lat, r.Lon, r.Year, r.Month, r.Day)

		ppp := PGross(params.PriorProbGrossError, params.QuantizationInterval, rHi, rLo, a.Value, bm, bsd)
		if ppp > 0 {
			flag := int(math.Floor(ppp * 10))
			if flag > 9 {
				flag = 9
			}
			r.SetFlag(category, name, uint8(flag))
		} else {
			r.SetFlag(category, name, 0)
		}
	}
}
