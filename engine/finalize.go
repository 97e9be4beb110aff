package engine

import (
	"github.com/metobs-qc/marineqc/buddy"
	"github.com/metobs-qc/marineqc/clima"
	"github.com/metobs-qc/marineqc/report"
)

// FinalizeBuddyChecks builds and averages the super-observation grid from
// every report this Engine has processed, then assigns each configured
// buddy-check flag. Per spec.md §5's ordering guarantee, this MUST run
// only after every contributing Voyage has been through ProcessVoyage.
func (e *Engine) FinalizeBuddyChecks() {
	for _, bc := range e.cfg.BuddyChecks {
		anomalyOf := func(r *report.Report) clima.Optional {
			a := r.Get(report.Var(string(bc.Var) + "_anom"))
			if !a.Valid {
				return clima.None
			}
			return clima.Some(a.Value)
		}

		if bc.Bayesian {
			stdev1, _ := e.cfg.Climatology.Field(bc.Stdev1)
			stdev2, _ := e.cfg.Climatology.Field(bc.Stdev2)
			stdev3, _ := e.cfg.Climatology.Field(bc.Stdev3)
			buddy.BayesianBuddyCheck(e.reps, anomalyOf, stdev1, stdev2, stdev3, bc.Category, bc.FlagName, bc.Bayes)
		} else {
			pentadStdev, _ := e.cfg.Climatology.Field(bc.PentadStdev)
			buddy.MDSBuddyCheck(e.reps, anomalyOf, pentadStdev, bc.Category, bc.FlagName)
		}
	}

	e.stats.Buddy = TallyChecks(e.reps, nil, 10)
}

// Output returns every report this Engine has processed, each carrying
// its full flag table, per spec.md §6.
func (e *Engine) Output() []*report.Report {
	return e.reps
}

// Stats returns the accumulated batch statistics document of spec.md §6.
func (e *Engine) Stats() Stats {
	return e.stats
}
