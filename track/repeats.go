package track

import (
	"math"

	"github.com/metobs-qc/marineqc/report"
)

// SaturatedRuns flags DPT.repsat=1 on every report in a maximal run of
// consecutive reports where dpt == air_temperature, provided the run is
// longer than shortestRun reports and spans at least minTimeHours.
func SaturatedRuns(v *Voyage, shortestRun int, minTimeHours float64) {
	n := len(v.Reports)
	if n == 0 {
		return
	}

	isSaturated := func(i int) bool {
		dpt := v.Reports[i].Get(report.DPT)
		at := v.Reports[i].Get(report.AT)
		return dpt.Valid && at.Valid && dpt.Value == at.Value
	}

	cumHours := make([]float64, n)
	for i := 1; i < n; i++ {
		h := 0.0
		if i-1 < len(v.TimeDiffH) {
			h = v.TimeDiffH[i-1]
		}
		cumHours[i] = cumHours[i-1] + h
	}

	i := 0
	for i < n {
		if !isSaturated(i) {
			i++
			continue
		}
		start := i
		for i < n && isSaturated(i) {
			i++
		}
		end := i - 1 // inclusive
		runLen := end - start + 1
		span := cumHours[end] - cumHours[start]
		if runLen > shortestRun && span >= minTimeHours {
			for k := start; k <= end; k++ {
				v.Reports[k].SetFlag("DPT", "repsat", uint8(report.Fail))
			}
		}
	}
}

// RepeatedValues flags <VAR>.rep=1 on every report whose value matches the
// dominant value in the Voyage, when the non-missing count exceeds
// minCount and that value's share exceeds threshold (a fraction in
// (0, 1]).
func RepeatedValues(v *Voyage, varName report.Var, category string, minCount int, threshold float64) {
	counts := map[float64]int{}
	total := 0
	for _, r := range v.Reports {
		val := r.Get(varName)
		if !val.Valid {
			continue
		}
		counts[val.Value]++
		total++
	}
	if total <= minCount {
		return
	}

	var dominant float64
	best := 0
	for val, c := range counts {
		if c > best {
			best = c
			dominant = val
		}
	}
	if float64(best)/float64(total) <= threshold {
		return
	}

	for _, r := range v.Reports {
		val := r.Get(varName)
		if val.Valid && val.Value == dominant {
			r.SetFlag(category, "rep", uint8(report.Fail))
		}
	}
}

// RoundedValues flags <VAR>.round=1 on every report with an integer value,
// when the fraction of non-missing reports carrying an integer value meets
// or exceeds threshold over more than minCount non-missing reports.
func RoundedValues(v *Voyage, varName report.Var, category string, minCount int, threshold float64) {
	total := 0
	integerCount := 0
	for _, r := range v.Reports {
		val := r.Get(varName)
		if !val.Valid {
			continue
		}
		total++
		if val.Value == math.Trunc(val.Value) {
			integerCount++
		}
	}
	if total <= minCount {
		return
	}
	if float64(integerCount)/float64(total) < threshold {
		return
	}
	for _, r := range v.Reports {
		val := r.Get(varName)
		if val.Valid && val.Value == math.Trunc(val.Value) {
			r.SetFlag(category, "round", uint8(report.Fail))
		}
	}
}
