package drifter

import (
	"math"
	"sort"

	"github.com/metobs-qc/marineqc/report"
	"github.com/metobs-qc/marineqc/track"
	"github.com/metobs-qc/marineqc/units"
)

// TailParams bundles the SST tail check's tunables (spec.md §4.8).
type TailParams struct {
	LongWinLen       int     // default 121, must be odd
	LongErrStdN      float64 // default 3.0
	ShortWinLen      int     // default 30
	ShortErrStdN     float64 // default 3.0
	ShortWinNBad     int     // default 2
	DrifInter        float64 // default 0.29
	DrifIntra        float64 // default 1.00
	BackgroundErrLim float64 // default 0.3, degC squared
}

// DefaultTailParams returns the legacy defaults.
func DefaultTailParams() TailParams {
	return TailParams{
		LongWinLen:       121,
		LongErrStdN:      3.0,
		ShortWinLen:      30,
		ShortErrStdN:     3.0,
		ShortWinNBad:     2,
		DrifInter:        0.29,
		DrifIntra:        1.00,
		BackgroundErrLim: 0.3,
	}
}

func trimMean(vals []float64, trimFrac float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	k := int(float64(n) * trimFrac)
	trimmed := sorted[k : n-k]
	if len(trimmed) == 0 {
		trimmed = sorted
	}
	sum := 0.0
	for _, v := range trimmed {
		sum += v
	}
	return sum / float64(len(trimmed))
}

func trimStd(vals []float64, trimFrac float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	k := int(float64(n) * trimFrac)
	trimmed := sorted[k : n-k]
	if len(trimmed) == 0 {
		trimmed = sorted
	}
	mean := 0.0
	for _, v := range trimmed {
		mean += v
	}
	mean /= float64(len(trimmed))
	ss := 0.0
	for _, v := range trimmed {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(trimmed)))
}

// validBackgroundMatches selects the indices of reports eligible for
// comparison against the background SST field: night, non-missing
// background and background variance, ice <= 0.15.
func validBackgroundMatches(v *track.Voyage) (anom, bgErrStd []float64, origIdx []int) {
	for i, r := range v.Reports {
		bg := r.Get(report.Background)
		bgvar := r.Get(report.BgVar)
		ice := r.Get(report.IceFrac)
		iceVal := 0.0
		if ice.Valid {
			iceVal = ice.Value
		}
		if !bg.Valid || !bgvar.Valid || iceVal > 0.15 {
			continue
		}
		daytime := units.SunElevation(r.Year, r.Month, r.Day, r.Hour, r.Lat, r.Lon) > -2.5
		if daytime {
			continue
		}
		sst := r.Get(report.SST)
		if !sst.Valid {
			continue
		}
		anom = append(anom, sst.Value-bg.Value)
		bgErrStd = append(bgErrStd, math.Sqrt(bgvar.Value))
		origIdx = append(origIdx, i)
	}
	return anom, bgErrStd, origIdx
}

// SSTTailCheck implements the "og" tail-check variant resolved by spec.md
// §9 Open Question (b): the long-tail-check window loop stops extending
// the tail the moment a window sample exceeds BackgroundErrLim, but still
// uses the trimmed statistics of the last window evaluated rather than
// retroactively truncating it. Sets SST.drf_tail1 (start) and
// SST.drf_tail2 (end) on the original, un-smoothed report sequence.
func SSTTailCheck(v *track.Voyage, params TailParams) {
	for _, r := range v.Reports {
		r.SetFlag("SST", "drf_tail1", 0)
		r.SetFlag("SST", "drf_tail2", 0)
	}

	anom, bgErrStd, origIdx := validBackgroundMatches(v)
	nrep := len(anom)
	if nrep == 0 {
		return
	}

	startTailInd := -1 // last index (in anom/origIdx space) failing the start tail
	endTailInd := nrep // first index failing the end tail

	if nrep >= params.LongWinLen {
		startTailInd = longTailCheck(anom, bgErrStd, params, true)
		endRel := longTailCheck(reverse(anom), reverse(bgErrStd), params, true)
		if endRel >= 0 {
			endTailInd = (nrep - 1) - endRel
		}
	}

	if startTailInd < endTailInd {
		firstPass := startTailInd + 1
		lastPass := endTailInd - 1
		startTailInd = shortTailCheck(anom, bgErrStd, params, firstPass, lastPass, true, startTailInd)
		endTailInd = shortTailCheckReverse(anom, bgErrStd, params, firstPass, lastPass, endTailInd)
	}

	if startTailInd >= endTailInd {
		startTailInd = -1
		endTailInd = nrep
	}

	if startTailInd != -1 {
		for k := 0; k <= startTailInd; k++ {
			v.Reports[origIdx[k]].SetFlag("SST", "drf_tail1", uint8(report.Fail))
		}
	}
	if endTailInd != nrep {
		for k := endTailInd; k < nrep; k++ {
			v.Reports[origIdx[k]].SetFlag("SST", "drf_tail2", uint8(report.Fail))
		}
	}
}

func reverse(vals []float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[len(vals)-1-i] = v
	}
	return out
}

// longTailCheck slides the long window over anom/bgErrStd (already in the
// desired traversal order) and returns the last window's mid-point index
// at which the tail was still failing, or -1 if the very first window
// already passed.
func longTailCheck(anom, bgErrStd []float64, params TailParams, _ bool) int {
	n := len(anom)
	if n < params.LongWinLen {
		return -1
	}
	mid := (params.LongWinLen - 1) / 2
	tailEnd := -1
	for ix := 0; ix <= n-params.LongWinLen; ix++ {
		aw := anom[ix : ix+params.LongWinLen]
		bw := bgErrStd[ix : ix+params.LongWinLen]
		anyBad := false
		for _, b := range bw {
			if b > math.Sqrt(params.BackgroundErrLim) {
				anyBad = true
				break
			}
		}
		if anyBad {
			break
		}
		avg := trimMean(aw, 0.01)
		stdev := trimStd(aw, 0.01)
		bgAvg, bgRms := 0.0, 0.0
		for _, b := range bw {
			bgAvg += b
			bgRms += b * b
		}
		bgAvg /= float64(len(bw))
		bgRms = math.Sqrt(bgRms / float64(len(bw)))

		failBias := math.Abs(avg) > params.LongErrStdN*math.Sqrt(params.DrifInter*params.DrifInter+bgAvg*bgAvg)
		failNoise := stdev > math.Sqrt(params.DrifIntra*params.DrifIntra+bgRms*bgRms)
		if failBias || failNoise {
			tailEnd = ix + mid
		} else {
			break
		}
	}
	return tailEnd
}

func shortTailCheck(anom, bgErrStd []float64, params TailParams, firstPass, lastPass int, _ bool, startTailInd int) int {
	if firstPass > lastPass {
		return startTailInd
	}
	npass := lastPass - firstPass + 1
	if npass < params.ShortWinLen {
		return startTailInd
	}
	a := anom[firstPass : lastPass+1]
	b := bgErrStd[firstPass : lastPass+1]

	result := startTailInd
	for ix := 0; ix <= npass-params.ShortWinLen; ix++ {
		aw := a[ix : ix+params.ShortWinLen]
		bw := b[ix : ix+params.ShortWinLen]
		anyBad := false
		for _, bv := range bw {
			if bv > math.Sqrt(params.BackgroundErrLim) {
				anyBad = true
				break
			}
		}
		if anyBad {
			break
		}
		nBad := 0
		for i, av := range aw {
			limit := params.ShortErrStdN * math.Sqrt(bw[i]*bw[i]+params.DrifInter*params.DrifInter+params.DrifIntra*params.DrifIntra)
			if av > limit || av < -limit {
				nBad++
			}
		}
		if nBad >= params.ShortWinNBad {
			if ix == npass-params.ShortWinLen {
				result = firstPass + params.ShortWinLen - 1
			} else {
				result++
			}
		} else {
			break
		}
	}
	return result
}

func shortTailCheckReverse(anom, bgErrStd []float64, params TailParams, firstPass, lastPass int, endTailInd int) int {
	if firstPass > lastPass {
		return endTailInd
	}
	npass := lastPass - firstPass + 1
	if npass < params.ShortWinLen {
		return endTailInd
	}
	a := reverse(anom[firstPass : lastPass+1])
	b := reverse(bgErrStd[firstPass : lastPass+1])

	result := endTailInd
	for ix := 0; ix <= npass-params.ShortWinLen; ix++ {
		aw := a[ix : ix+params.ShortWinLen]
		bw := b[ix : ix+params.ShortWinLen]
		anyBad := false
		for _, bv := range bw {
			if bv > math.Sqrt(params.BackgroundErrLim) {
				anyBad = true
				break
			}
		}
		if anyBad {
			break
		}
		nBad := 0
		for i, av := range aw {
			limit := params.ShortErrStdN * math.Sqrt(bw[i]*bw[i]+params.DrifInter*params.DrifInter+params.DrifIntra*params.DrifIntra)
			if av > limit || av < -limit {
				nBad++
			}
		}
		if nBad >= params.ShortWinNBad {
			if ix == npass-params.ShortWinLen {
				result -= params.ShortWinLen
			} else {
				result--
			}
		} else {
			break
		}
	}
	return result
}

// BiasNoiseParams bundles the bias/noise check's tunables (spec.md §4.8).
type BiasNoiseParams struct {
	NEval            int     // default 30
	BiasLim          float64 // default 1.10
	DrifIntra        float64 // default 1.00
	DrifInter        float64 // default 0.29
	ErrStdN          float64 // default 3.0
	NBad             int     // default 2
	BackgroundErrLim float64 // default 0.3
}

// DefaultBiasNoiseParams returns the legacy defaults.
func DefaultBiasNoiseParams() BiasNoiseParams {
	return BiasNoiseParams{
		NEval:            30,
		BiasLim:          1.10,
		DrifIntra:        1.0,
		DrifInter:        0.29,
		ErrStdN:          3.0,
		NBad:             2,
		BackgroundErrLim: 0.3,
	}
}

// BiasNoiseCheck flags SST.drf_bias/drf_noise for long records, or
// SST.drf_short for short ones, per spec.md §4.8.
func BiasNoiseCheck(v *track.Voyage, params BiasNoiseParams) {
	for _, r := range v.Reports {
		r.SetFlag("SST", "drf_bias", 0)
		r.SetFlag("SST", "drf_noise", 0)
		r.SetFlag("SST", "drf_short", 0)
	}

	var anom, bgErrStd []float64
	bgvarMasked := false
	for _, r := range v.Reports {
		bg := r.Get(report.Background)
		bgvar := r.Get(report.BgVar)
		ice := r.Get(report.IceFrac)
		iceVal := 0.0
		if ice.Valid {
			iceVal = ice.Value
		}
		if bgvar.Valid && bgvar.Value > params.BackgroundErrLim {
			bgvarMasked = true
		}
		if !bg.Valid || !bgvar.Valid || iceVal > 0.15 {
			continue
		}
		if bgvar.Value > params.BackgroundErrLim {
			continue
		}
		daytime := units.SunElevation(r.Year, r.Month, r.Day, r.Hour, r.Lat, r.Lon) > -2.5
		if daytime {
			continue
		}
		sst := r.Get(report.SST)
		if !sst.Valid {
			continue
		}
		anom = append(anom, sst.Value-bg.Value)
		bgErrStd = append(bgErrStd, math.Sqrt(bgvar.Value))
	}

	if len(anom) >= params.NEval {
		mean, stdev := meanStd(anom)
		bgRms := 0.0
		for _, b := range bgErrStd {
			bgRms += b * b
		}
		bgRms = math.Sqrt(bgRms / float64(len(bgErrStd)))

		if math.Abs(mean) > params.BiasLim {
			for _, r := range v.Reports {
				r.SetFlag("SST", "drf_bias", uint8(report.Fail))
			}
		}
		if stdev > math.Sqrt(params.DrifIntra*params.DrifIntra+bgRms*bgRms) {
			for _, r := range v.Reports {
				r.SetFlag("SST", "drf_noise", uint8(report.Fail))
			}
		}
		return
	}

	if bgvarMasked {
		return
	}
	nBad := 0
	for i, a := range anom {
		limit := params.ErrStdN * math.Sqrt(bgErrStd[i]*bgErrStd[i]+params.DrifInter*params.DrifInter+params.DrifIntra*params.DrifIntra)
		if a > limit || a < -limit {
			nBad++
		}
	}
	if nBad >= params.NBad {
		for _, r := range v.Reports {
			r.SetFlag("SST", "drf_short", uint8(report.Fail))
		}
	}
}

func meanStd(vals []float64) (mean, stdev float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	for _, v := range vals {
		stdev += (v - mean) * (v - mean)
	}
	stdev = math.Sqrt(stdev / float64(len(vals)))
	return mean, stdev
}
