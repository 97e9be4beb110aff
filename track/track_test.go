package track

import (
	"testing"

	"github.com/metobs-qc/marineqc/report"
	"github.com/metobs-qc/marineqc/units"
)

func mkReport(id string, year, month, day int, hour, lat, lon float64, deck, pt int) *report.Report {
	return report.New(id, id+"-u", year, month, day, hour, lat, lon, deck, 1, pt)
}

// S3 from spec.md §8: sector speeds {4,4,4,9,9,20} knots -> modal 8.5 knots.
func TestModalSpeed(t *testing.T) {
	knots := []float64{4, 4, 4, 9, 9, 20}
	kmh := make([]float64, len(knots))
	for i, k := range knots {
		kmh[i] = units.KnotsToKmPerH(k)
	}
	got := ModalSpeed(kmh)
	want := units.KnotsToKmPerH(8.5)
	if got != want {
		t.Fatalf("expected %.3f km/h, got %.3f", want, got)
	}
}

// Testable property 4: generic ids are never flagged POS.trk=1.
func TestTrackCheckSkipsGenericID(t *testing.T) {
	reps := []*report.Report{
		mkReport("0000000", 2000, 1, 1, 0, 0, 0, 700, 3),
		mkReport("0000000", 2000, 1, 1, 6, 5, 5, 700, 3),
		mkReport("0000000", 2000, 1, 1, 12, 50, 50, 700, 3), // huge implausible jump
	}
	v := New(reps)
	v.Sort()
	v.DeriveKinematics()
	speeds := make([]report.Optional, len(reps))
	courses := make([]report.Optional, len(reps))
	TrackCheck(v, speeds, courses, DefaultTrackCheckParams())

	for _, r := range reps {
		if r.GetFlag("POS", "trk") == uint8(report.Fail) {
			t.Fatal("generic id must never be flagged POS.trk=1")
		}
	}
}

// Testable property 6: Voyage length < 3, deck 720, year < 1891 -> few=0;
// otherwise few=1.
func TestTrackCheckFewFlag(t *testing.T) {
	old := []*report.Report{
		mkReport("SHIP1", 1885, 1, 1, 0, 0, 0, 720, 3),
		mkReport("SHIP1", 1885, 1, 2, 0, 1, 1, 720, 3),
	}
	v := New(old)
	v.Sort()
	speeds := make([]report.Optional, len(old))
	courses := make([]report.Optional, len(old))
	TrackCheck(v, speeds, courses, DefaultTrackCheckParams())
	for _, r := range old {
		if r.GetFlag("POS", "few") != 0 {
			t.Fatal("expected few=0 for deck 720 pre-1891 short voyage")
		}
	}

	recent := []*report.Report{
		mkReport("SHIP2", 2000, 1, 1, 0, 0, 0, 700, 3),
		mkReport("SHIP2", 2000, 1, 2, 0, 1, 1, 700, 3),
	}
	v2 := New(recent)
	v2.Sort()
	TrackCheck(v2, make([]report.Optional, len(recent)), make([]report.Optional, len(recent)), DefaultTrackCheckParams())
	for _, r := range recent {
		if r.GetFlag("POS", "few") != 1 {
			t.Fatal("expected few=1 for a short non-exempt voyage")
		}
	}
}

func TestDecodeSectorSpeedYearCutover(t *testing.T) {
	ds := report.Some(90)
	vs := report.Some(3)

	_, speedPre, ok := DecodeSectorSpeed(ds, vs, 1960)
	if !ok {
		t.Fatal("expected ok")
	}
	wantPre := units.KnotsToKmPerH(3*3.0 - 1.0)
	if speedPre != wantPre {
		t.Fatalf("expected pre-1968 conversion %.3f, got %.3f", wantPre, speedPre)
	}

	_, speedPost, _ := DecodeSectorSpeed(ds, vs, 1970)
	wantPost := units.KnotsToKmPerH(3*5.0 - 2.0)
	if speedPost != wantPost {
		t.Fatalf("expected post-1968 conversion %.3f, got %.3f", wantPost, speedPost)
	}
}

func TestSaturatedRuns(t *testing.T) {
	reps := make([]*report.Report, 6)
	for i := range reps {
		reps[i] = mkReport("SHIP", 2000, 1, 1+i, 0, 10, 10, 700, 3)
		reps[i].SetValue(report.DPT, 15.0)
		reps[i].SetValue(report.AT, 15.0)
	}
	v := New(reps)
	v.Sort()
	v.DeriveKinematics()
	SaturatedRuns(v, 3, 24)

	for _, r := range reps {
		if r.GetFlag("DPT", "repsat") != uint8(report.Fail) {
			t.Fatal("expected every report in the long saturated run to be flagged")
		}
	}
}

func TestRepeatedValues(t *testing.T) {
	reps := make([]*report.Report, 10)
	for i := range reps {
		reps[i] = mkReport("SHIP", 2000, 1, 1+i, 0, 10, 10, 700, 3)
		reps[i].SetValue(report.SST, 20.0)
	}
	reps[0].SetValue(report.SST, 19.0)
	v := New(reps)
	RepeatedValues(v, report.SST, "SST", 5, 0.5)

	for i, r := range reps {
		want := uint8(9) // unset: not the dominant value
		if i != 0 {
			want = uint8(report.Fail)
		}
		if r.GetFlag("SST", "rep") != want {
			t.Fatalf("report %d: expected flag %d, got %d", i, want, r.GetFlag("SST", "rep"))
		}
	}
}
