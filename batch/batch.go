// Package batch provides the one piece of driver-level concurrency
// spec.md §5 explicitly allows the core to describe: running many
// independent engine.Engine instances in parallel, one per disjoint month
// partition, each owning its own super-observation grid and Voyage
// collection. It mirrors the teacher's convert_gsf_list worker-pool
// pattern (cmd/main.go), swapping "one GSF file per worker" for "one
// month partition per worker".
package batch

import (
	"context"
	"log"
	"runtime"

	"github.com/alitto/pond"

	"github.com/metobs-qc/marineqc/engine"
	"github.com/metobs-qc/marineqc/report"
)

// MonthPartition is one independent unit of work: a month's worth of
// reports, already grouped into platform-id partitions by the caller (the
// core never does its own ingestion/partitioning, per spec.md §1).
type MonthPartition struct {
	Year    int
	Month   int
	Voyages [][]*report.Report
}

// MonthResult carries one partition's output: the engine's processed
// reports, its batch statistics, and any per-Voyage errors encountered
// along the way. A partition with errors still returns every report it
// could process; spec.md §7 makes partial success the norm.
type MonthResult struct {
	Year   int
	Month  int
	Output []*report.Report
	Stats  engine.Stats
	Errors []error
}

// Options bounds the worker pool. MaxWorkers <= 0 defaults to
// 2*runtime.NumCPU(), following the teacher's convert_gsf_list sizing.
type Options struct {
	MaxWorkers int
}

// NewConfig builds one engine.Config per partition; RunMonths calls it once
// per MonthPartition, letting the caller bind month-specific climatology
// (e.g. a different MDSField per month) while sharing read-only fields
// across instances, per spec.md §5 ("Climatology fields are read-only and
// may be shared across engine instances behind an immutable handle").
type NewConfig func(year, month int) engine.Config

// RunMonths runs one engine.Engine per MonthPartition concurrently, each in
// its own goroutine via a pond pool, and collects every MonthResult. It
// blocks until every partition has finished or ctx is cancelled. Per
// spec.md §5, each Engine instance owns its grid and Voyage collection
// exclusively: no state is shared between goroutines beyond the read-only
// climatology/background handles the caller's NewConfig binds.
func RunMonths(ctx context.Context, partitions []MonthPartition, newCfg NewConfig, opts Options) []MonthResult {
	n := opts.MaxWorkers
	if n <= 0 {
		n = runtime.NumCPU() * 2
	}

	pool := pond.New(n, 0, pond.MinWorkers(n), pond.Context(ctx))
	defer pool.StopAndWait()

	results := make([]MonthResult, len(partitions))
	for idx, part := range partitions {
		i, p := idx, part
		pool.Submit(func() {
			results[i] = runOnePartition(p, newCfg)
		})
	}

	return results
}

// runOnePartition drives a single engine.Engine over every Voyage in a
// partition, in the order spec.md §5 mandates: every Voyage is processed
// before the grid is finalized.
func runOnePartition(part MonthPartition, newCfg NewConfig) MonthResult {
	log.Printf("Processing month partition %04d-%02d: %d voyages", part.Year, part.Month, len(part.Voyages))

	cfg := newCfg(part.Year, part.Month)
	eng, err := engine.New(cfg)
	res := MonthResult{Year: part.Year, Month: part.Month}
	if err != nil {
		res.Errors = append(res.Errors, err)
		return res
	}

	for _, reps := range part.Voyages {
		if _, vErr := eng.ProcessVoyage(reps); vErr != nil {
			res.Errors = append(res.Errors, vErr)
		}
	}

	eng.FinalizeBuddyChecks()
	res.Output = eng.Output()
	res.Stats = eng.Stats()

	log.Printf("Finished month partition %04d-%02d: %d reports, %d errors", part.Year, part.Month, len(res.Output), len(res.Errors))
	return res
}

// MergeStats combines the per-check tallies of several MonthResults into
// one Stats document, following the original system's month-then-whole-run
// reporting rollup.
func MergeStats(results []MonthResult) engine.Stats {
	var merged engine.Stats
	checkTotals := map[report.FlagKey]int{}
	buddyTotals := map[report.FlagKey]int{}

	for _, r := range results {
		merged.Read += r.Stats.Read
		merged.Selected += r.Stats.Selected
		merged.Excluded += r.Stats.Excluded
		merged.Invalid += r.Stats.Invalid
		for _, c := range r.Stats.Checks {
			checkTotals[report.FlagKey{Category: c.Category, Name: c.Name}] += c.FailCount
		}
		for _, c := range r.Stats.Buddy {
			buddyTotals[report.FlagKey{Category: c.Category, Name: c.Name}] += c.FailCount
		}
	}

	merged.Checks = flattenTotals(checkTotals)
	merged.Buddy = flattenTotals(buddyTotals)
	return merged
}

func flattenTotals(totals map[report.FlagKey]int) []engine.CheckTally {
	out := make([]engine.CheckTally, 0, len(totals))
	for k, n := range totals {
		out = append(out, engine.CheckTally{Category: k.Category, Name: k.Name, FailCount: n})
	}
	return out
}
