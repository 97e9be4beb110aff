package buddy

import (
	"math"
	"testing"

	"github.com/metobs-qc/marineqc/clima"
	"github.com/metobs-qc/marineqc/report"
)

// constField is a trivial clima.Field returning the same value everywhere.
type constField struct{ v float64 }

func (c constField) Value(lat, lon float64, month, day int) clima.Optional { return clima.Some(c.v) }
func (c constField) Stdev(lat, lon float64, month, day int) clima.Optional { return clima.Some(c.v) }

func mkBuddyReport(id string, lat, lon float64, year, month, day int) *report.Report {
	return report.New(id, "U", year, month, day, 6, lat, lon, 700, 1, 0)
}

// Testable property 8: the grid's cell averages must not depend on the
// order reports are accumulated in.
func TestBuildGridOrderIndependence(t *testing.T) {
	reps1 := []*report.Report{
		mkBuddyReport("A", 10.0, 10.0, 2000, 6, 15),
		mkBuddyReport("B", 10.2, 10.2, 2000, 6, 15),
		mkBuddyReport("C", 9.8, 9.8, 2000, 6, 15),
	}
	reps2 := []*report.Report{reps1[2], reps1[0], reps1[1]}

	anomOf := func(r *report.Report) clima.Optional { return clima.Some(r.Lat) }

	g1 := BuildGrid(reps1, anomOf)
	g2 := BuildGrid(reps2, anomOf)

	lonBin, latBin, _ := CellIndex(10.0, 10.0)
	p := reps1[0].Pentad()
	if math.Abs(g1.Mean[lonBin][latBin][p-1]-g2.Mean[lonBin][latBin][p-1]) > 1e-9 {
		t.Fatal("grid accumulation must be order-independent")
	}
}

// S6: a report near the antimeridian must see neighbours on the other
// side of the longitude wrap.
func TestNeighbourAnomaliesWrapsLongitude(t *testing.T) {
	g := NewGrid()
	g.Add(0.0, 179.6, 30, 1.0)
	g.Add(0.0, -179.6, 30, 2.0)
	g.Average()

	lonBin, latBin, _ := CellIndex(0.0, 179.6)
	anoms, _ := g.NeighbourAnomalies(SearchBox{LonDeg: 1, LatDeg: 1, Pentads: 1}, lonBin, latBin, 30)
	if len(anoms) == 0 {
		t.Fatal("expected the neighbour across the antimeridian to be found")
	}
}

func TestMDSBuddyCheckFlagsOutlier(t *testing.T) {
	var reps []*report.Report
	// a cluster of near-identical anomalies...
	for i := 0; i < 20; i++ {
		lat := 10.0 + float64(i)*0.05
		reps = append(reps, mkBuddyReport("SHIP", lat, 10.0, 2000, 6, 15))
	}
	// ...and one wild outlier in the same neighbourhood.
	outlier := mkBuddyReport("SHIP", 10.5, 10.0, 2000, 6, 15)
	reps = append(reps, outlier)

	anomOf := func(r *report.Report) clima.Optional {
		if r == outlier {
			return clima.Some(20.0)
		}
		return clima.Some(0.1)
	}

	MDSBuddyCheck(reps, anomOf, constField{v: 1.0}, "SST", "bud")

	if outlier.GetFlag("SST", "bud") != uint8(report.Fail) {
		t.Fatal("expected the outlier to fail the MDS buddy check")
	}
	if reps[0].GetFlag("SST", "bud") != uint8(report.Pass) {
		t.Fatal("expected a typical report to pass the MDS buddy check")
	}
}

// S7: the Bayesian buddy flag is graded 0..9, proportional to the
// posterior probability of gross error.
func TestBayesianBuddyCheckGradedFlag(t *testing.T) {
	var reps []*report.Report
	for i := 0; i < 10; i++ {
		lat := 10.0 + float64(i)*0.05
		reps = append(reps, mkBuddyReport("SHIP", lat, 10.0, 2000, 6, 15))
	}
	outlier := mkBuddyReport("SHIP", 10.5, 10.0, 2000, 6, 15)
	reps = append(reps, outlier)

	anomOf := func(r *report.Report) clima.Optional {
		if r == outlier {
			return clima.Some(15.0)
		}
		return clima.Some(0.05)
	}

	params := DefaultBayesianBuddyParams(8.0)
	BayesianBuddyCheck(reps, anomOf, constField{v: 1.0}, constField{v: 1.0}, constField{v: 1.0}, "SST", "bbud", params)

	if outlier.GetFlag("SST", "bbud") == 0 {
		t.Fatal("expected the outlier to receive a nonzero gross-error flag")
	}
	if reps[0].GetFlag("SST", "bbud") > outlier.GetFlag("SST", "bbud") {
		t.Fatal("expected a typical report's gross-error flag not to exceed the outlier's")
	}
}

func TestPGrossZeroOutsideUniformInterval(t *testing.T) {
	p := PGross(0.05, 0.1, 8.0, -8.0, 20.0, 0.0, 1.0)
	if p != 0 {
		t.Fatalf("expected zero posterior outside the gross-error interval, got %v", p)
	}
}

func TestThresholdMultiplierPicksHighestMatch(t *testing.T) {
	got := thresholdMultiplier(30, []int{0, 5, 15, 100}, []float64{4.0, 3.5, 3.0, 2.5})
	if got != 3.0 {
		t.Fatalf("expected multiplier 3.0 for 30 obs, got %v", got)
	}
}
