package engine

import (
	"sort"

	"github.com/samber/lo"

	"github.com/metobs-qc/marineqc/report"
)

// CheckTally counts how many reports failed one named check and lists the
// most frequently recurring raw values among the failing reports (spec.md
// §6's "top distinct failing values per column"), most common first.
type CheckTally struct {
	Category  string
	Name      string
	FailCount int
	TopValues []float64
	TopValueN []int
}

// Stats is the batch statistics document of spec.md §6: read/selected/
// excluded/invalid counts plus a per-check fail tally.
type Stats struct {
	Read     int
	Selected int
	Excluded int
	Invalid  int
	Checks   []CheckTally
	Buddy    []CheckTally
}

// TallyChecks scans every report's flag table and builds a CheckTally per
// distinct (category, name) flag key, following the original system's
// find_repeated_values valcount idiom of counting value frequencies
// (ported here via lo.CountValues) rather than a bespoke counting loop.
func TallyChecks(reps []*report.Report, valueOf map[report.FlagKey]report.Var, topN int) []CheckTally {
	failing := map[report.FlagKey][]float64{}
	counts := map[report.FlagKey]int{}

	for _, r := range reps {
		for key, flag := range r.Flags() {
			if flag != uint8(report.Fail) {
				continue
			}
			counts[key]++
			if v, ok := valueOf[key]; ok {
				if val := r.Get(v); val.Valid {
					failing[key] = append(failing[key], val.Value)
				}
			}
		}
	}

	keys := make([]report.FlagKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Category != keys[j].Category {
			return keys[i].Category < keys[j].Category
		}
		return keys[i].Name < keys[j].Name
	})

	out := make([]CheckTally, 0, len(keys))
	for _, k := range keys {
		tally := CheckTally{Category: k.Category, Name: k.Name, FailCount: counts[k]}
		if vals := failing[k]; len(vals) > 0 {
			counted := lo.CountValues(vals)
			type pair struct {
				v float64
				n int
			}
			pairs := make([]pair, 0, len(counted))
			for v, n := range counted {
				pairs = append(pairs, pair{v, n})
			}
			sort.Slice(pairs, func(i, j int) bool {
				if pairs[i].n != pairs[j].n {
					return pairs[i].n > pairs[j].n
				}
				return pairs[i].v < pairs[j].v
			})
			if len(pairs) > topN {
				pairs = pairs[:topN]
			}
			for _, p := range pairs {
				tally.TopValues = append(tally.TopValues, p.v)
				tally.TopValueN = append(tally.TopValueN, p.n)
			}
		}
		out = append(out, tally)
	}
	return out
}
