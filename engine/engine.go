// Package engine orchestrates the full QC pipeline of spec.md §5: for each
// Voyage, sort, derive kinematics, run single-report checks, track-level
// checks, and drifter checks (when applicable), then contribute to the
// shared buddy grid. Buddy flags are only assigned once every Voyage for
// the processing period has been fed in, via FinalizeBuddyChecks.
package engine

import (
	"github.com/metobs-qc/marineqc/drifter"
	"github.com/metobs-qc/marineqc/qcsingle"
	"github.com/metobs-qc/marineqc/report"
	"github.com/metobs-qc/marineqc/track"
)

// Engine owns the accumulated set of reports it has processed for one
// processing period. Per spec.md §5, the buddy-check super-observation
// grid belongs to exactly one Engine; a driver wanting month-level
// parallelism runs one Engine per partition (see the batch package). The
// grid itself is built once, from every accumulated report, inside
// FinalizeBuddyChecks — never incrementally per Voyage — so the "grid
// fully averaged before any buddy flag is assigned" ordering guarantee
// holds by construction rather than by caller discipline.
type Engine struct {
	cfg   Config
	reps  []*report.Report
	stats Stats
}

// New validates cfg and returns a ready Engine.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.DrifterPlatformType == 0 {
		cfg.DrifterPlatformType = 7
	}
	if cfg.RepeatedValueChecks == nil {
		cfg.RepeatedValueChecks = DefaultRepeatedValueChecks()
	}
	if cfg.RoundedValueCheck == (RoundedValueCheckConfig{}) {
		cfg.RoundedValueCheck = DefaultRoundedValueCheck()
	}
	return &Engine{cfg: cfg}, nil
}

// ProcessVoyage runs the full per-Voyage pipeline in the order spec.md §5
// mandates. It returns the sorted, checked Voyage. A corrupt Voyage (sort
// or kinematic derivation failure) is reported via ErrUnprocessableVoyage
// and every flag on its reports stays at the 9/unset default; the Voyage
// is still returned so the caller can inspect it.
func (e *Engine) ProcessVoyage(reports []*report.Report) (*track.Voyage, error) {
	e.stats.Read += len(reports)

	v := track.New(reports)
	v.Sort()
	v.DeriveKinematics()

	if v.Unprocessable {
		id := "?"
		if len(v.Reports) > 0 {
			id = v.Reports[0].PlatformID
		}
		e.stats.Excluded += len(v.Reports)
		return v, &ErrUnprocessableVoyage{ID: id, Reason: "sort or kinematic derivation failed"}
	}

	e.runSingleReportChecks(v)
	e.runTrackChecks(v)
	if len(v.Reports) > 0 && v.Reports[0].PlatformType == e.cfg.DrifterPlatformType {
		e.runDrifterChecks(v)
	}

	e.stats.Selected += len(v.Reports)
	e.reps = append(e.reps, v.Reports...)
	return v, nil
}

// runSingleReportChecks implements spec.md §4.6 over every report in the
// Voyage: position/date/time/day-or-night, blacklist, and the configured
// climatology checks against the bound Library.
func (e *Engine) runSingleReportChecks(v *track.Voyage) {
	for _, r := range v.Reports {
		r.SetFlag("POS", "pos", uint8(qcsingle.PositionCheck(r.Lat, r.Lon)))
		r.SetFlag("DATE", "date", uint8(qcsingle.DateCheck(r.Year, r.Month, r.Day)))
		r.SetFlag("TIME", "time", uint8(qcsingle.TimeCheck(r.Hour)))
		r.SetFlag("DAY", "day", uint8(qcsingle.DayCheck(r.Year, r.Month, r.Day, r.Hour, r.Lat, r.Lon, e.cfg.ElevOffsetHours, e.cfg.ElevLimDeg)))

		blacklisted := qcsingle.Blacklist(r.PlatformID, r.Deck, r.Year, r.Month, r.Lat, r.Lon, r.PlatformType)
		if blacklisted {
			r.SetFlag("POS", "black", uint8(report.Fail))
		} else {
			r.SetFlag("POS", "black", uint8(report.Pass))
		}

		bindBackground(r, e.cfg.Background)

		for _, cc := range e.cfg.ClimatologyChecks {
			e.runClimatologyCheck(r, cc)
		}
	}
}

func (e *Engine) runClimatologyCheck(r *report.Report, cc ClimatologyCheckConfig) {
	value := r.Get(cc.Var)
	if !value.Valid {
		r.SetFlag(cc.Category, cc.FlagName, uint8(report.Untestable))
		return
	}
	mean := e.cfg.Climatology.Mean(cc.Mean, r.Lat, r.Lon, r.Month, r.Day)
	if !mean.Valid {
		r.SetFlag(cc.Category, cc.FlagName, uint8(report.Untestable))
		return
	}
	var stdev report.Optional
	if cc.Stdev != "" {
		s := e.cfg.Climatology.Stdev(cc.Stdev, r.Lat, r.Lon, r.Month, r.Day)
		if s.Valid {
			stdev = report.Some(s.Value)
		}
	}
	flag := qcsingle.ClimatologyCheck(value.Value, mean.Value, cc.MaximumAnomaly, stdev, cc.StdevLower, cc.StdevUpper, cc.HaveStdevLimits, cc.Lowbar, cc.HaveLowbar)
	r.SetFlag(cc.Category, cc.FlagName, uint8(flag))
	r.Set(report.Var(string(cc.Var)+"_anom"), report.Some(value.Value-mean.Value))
}

// runTrackChecks implements spec.md §4.7 over the whole Voyage: the MDS
// track check, the IQUAM track check, the spike check, and the repeated/
// rounded/saturated-value checks.
func (e *Engine) runTrackChecks(v *track.Voyage) {
	n := len(v.Reports)
	reportedSpeed := make([]report.Optional, n)
	reportedCourse := make([]report.Optional, n)
	for i, r := range v.Reports {
		ds := r.Get(report.DS)
		vs := r.Get(report.VS)
		courseDeg, speedKmh, ok := track.DecodeSectorSpeed(ds, vs, r.Year)
		if ok {
			reportedCourse[i] = report.Some(courseDeg)
			reportedSpeed[i] = report.Some(speedKmh)
		}
	}

	track.TrackCheck(v, reportedSpeed, reportedCourse, e.cfg.TrackParams)
	track.IQUAMTrackCheck(v, e.cfg.IQUAMParams)
	track.SpikeCheck(v, "SST", e.cfg.SpikeParams)
	track.SaturatedRuns(v, 4, 48.0)
	for _, rc := range e.cfg.RepeatedValueChecks {
		track.RepeatedValues(v, rc.Var, rc.Category, rc.MinCount, rc.Threshold)
	}
	rvc := e.cfg.RoundedValueCheck
	track.RoundedValues(v, rvc.Var, rvc.Category, rvc.MinCount, rvc.Threshold)
}

// runDrifterChecks implements spec.md §4.8. Only reached for Voyages whose
// platform type matches Config.DrifterPlatformType.
func (e *Engine) runDrifterChecks(v *track.Voyage) {
	drifter.AgroundCheck(v, e.cfg.AgroundParams)
	drifter.SpeedCheck(v, e.cfg.SpeedParams)
	drifter.SSTTailCheck(v, e.cfg.TailParams)
	drifter.BiasNoiseCheck(v, e.cfg.BiasNoiseParams)
}
