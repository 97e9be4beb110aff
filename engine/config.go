package engine

import (
	"github.com/metobs-qc/marineqc/buddy"
	"github.com/metobs-qc/marineqc/clima"
	"github.com/metobs-qc/marineqc/drifter"
	"github.com/metobs-qc/marineqc/report"
	"github.com/metobs-qc/marineqc/track"
)

// ClimatologyCheckConfig binds one report.Var to a clima.Name pair and the
// qcsingle.ClimatologyCheck thresholds it is evaluated under.
type ClimatologyCheckConfig struct {
	Var             report.Var
	Mean            clima.Name
	Stdev           clima.Name // empty if the variable has no bound stdev field
	Category        string
	FlagName        string
	MaximumAnomaly  float64
	StdevLower      float64
	StdevUpper      float64
	HaveStdevLimits bool
	Lowbar          float64
	HaveLowbar      bool
}

// BuddyCheckConfig describes one buddy-check pass: which variable's
// anomaly contributes, the climatology field used as the pentad-wise
// reference stdev, and whether it runs the legacy MDS rule or the graded
// Bayesian rule.
type BuddyCheckConfig struct {
	Var         report.Var
	Category    string
	FlagName    string
	Bayesian    bool
	PentadStdev clima.Name            // MDS variant
	Stdev1      clima.Name            // Bayesian: grid-to-neighbourhood
	Stdev2      clima.Name            // Bayesian: point-to-grid
	Stdev3      clima.Name            // Bayesian: neighbour-average uncertainty
	Bayes       buddy.BayesianBuddyParams
}

// RepeatedValueCheckConfig binds one report.Var/flag-category pair to the
// min_count/threshold tunables of track.RepeatedValues.
type RepeatedValueCheckConfig struct {
	Var       report.Var
	Category  string
	MinCount  int
	Threshold float64
}

// RoundedValueCheckConfig binds one report.Var/flag-category pair to the
// min_count/threshold tunables of track.RoundedValues.
type RoundedValueCheckConfig struct {
	Var       report.Var
	Category  string
	MinCount  int
	Threshold float64
}

// DefaultRepeatedValueChecks mirrors marine_qc.py's main loop, which runs
// find_repeated_values over ["SST", "AT", "AT2", "DPT", "SLP"] with one
// shared min_count/threshold.
func DefaultRepeatedValueChecks() []RepeatedValueCheckConfig {
	vars := []struct {
		v   report.Var
		cat string
	}{
		{report.SST, "SST"},
		{report.AT, "AT"},
		{report.AT2, "AT2"},
		{report.DPT, "DPT"},
		{report.SLP, "SLP"},
	}
	checks := make([]RepeatedValueCheckConfig, len(vars))
	for i, vc := range vars {
		checks[i] = RepeatedValueCheckConfig{Var: vc.v, Category: vc.cat, MinCount: 5, Threshold: 0.7}
	}
	return checks
}

// DefaultRoundedValueCheck mirrors find_multiple_rounded_values's
// documented default target, DPT ("used in the humidity QC").
func DefaultRoundedValueCheck() RoundedValueCheckConfig {
	return RoundedValueCheckConfig{Var: report.DPT, Category: "DPT", MinCount: 20, Threshold: 0.5}
}

// Config bundles every tunable the engine's checks need. It is passed by
// value into New, mirroring the teacher's decode functions taking
// explicit parameters rather than reading package-level state.
type Config struct {
	Climatology *clima.Library
	Background  BackgroundField

	ElevOffsetHours float64
	ElevLimDeg      float64

	ClimatologyChecks []ClimatologyCheckConfig
	BuddyChecks       []BuddyCheckConfig

	TrackParams     track.TrackCheckParams
	IQUAMParams     track.IQUAMParams
	SpikeParams     track.SpikeParams
	AgroundParams   drifter.AgroundParams
	SpeedParams     drifter.SpeedParams
	TailParams      drifter.TailParams
	BiasNoiseParams drifter.BiasNoiseParams

	// RepeatedValueChecks/RoundedValueCheck default to
	// DefaultRepeatedValueChecks/DefaultRoundedValueCheck in New when left
	// at their zero value.
	RepeatedValueChecks []RepeatedValueCheckConfig
	RoundedValueCheck   RoundedValueCheckConfig

	// DrifterPlatformType is the platform_type value that routes a Voyage
	// through the drifter checks of spec.md §4.8, default 7.
	DrifterPlatformType int
}

// Validate reports the self-inconsistencies spec.md §7 requires the
// engine to reject at construction: a missing climatology library, a
// non-positive maximum anomaly, or inverted stdev limits triggers
// ErrInvalidConfig rather than letting every subsequent check silently
// return untestable. Lowbar values are not validated.
func (c Config) Validate() error {
	if c.Climatology == nil {
		return &ErrInvalidConfig{Reason: "climatology library is required"}
	}
	for _, cc := range c.ClimatologyChecks {
		if cc.MaximumAnomaly <= 0 {
			return &ErrInvalidConfig{Reason: "climatology check " + cc.FlagName + ": maximum_anomaly must be positive"}
		}
		if cc.HaveStdevLimits && cc.StdevUpper <= cc.StdevLower {
			return &ErrInvalidConfig{Reason: "climatology check " + cc.FlagName + ": stdev_upper must exceed stdev_lower"}
		}
	}
	return nil
}
