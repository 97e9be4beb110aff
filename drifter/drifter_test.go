package drifter

import (
	"testing"

	"github.com/metobs-qc/marineqc/report"
	"github.com/metobs-qc/marineqc/track"
)

func mkDrifterReport(year, month, day int, hour float64) *report.Report {
	return report.New("DRIFTER1", "U", year, month, day, hour, 10.0, 10.0, 700, 1, 7)
}

// Testable property 5: a stationary drifter (identical positions, windows
// >= min_win_period) must be flagged aground on every report.
func TestAgroundCheckStationaryDrifter(t *testing.T) {
	// 60 daily reports (Jan-Feb 2000): after the 41-point smoothing the
	// series still spans 19 days, more than the 8-10 day window.
	var reps []*report.Report
	for d := 0; d < 60; d++ {
		reps = append(reps, mkDrifterReport(2000, 1+d/31, 1+d%31, 0))
	}
	v := track.New(reps)
	v.Sort()
	v.DeriveKinematics()

	AgroundCheck(v, DefaultAgroundParams())

	for i, r := range reps {
		if r.GetFlag("POS", "drf_agr") != uint8(report.Fail) {
			t.Fatalf("report %d: expected a stationary drifter to be flagged aground", i)
		}
	}
}

func TestAgroundCheckMovingDrifter(t *testing.T) {
	var reps []*report.Report
	lat := 0.0
	for day := 1; day <= 45; day++ {
		reps = append(reps, report.New("DRIFTER2", "U", 2000, 1, day, 0, lat, 10.0, 700, 1, 7))
		lat += 1.0 // ~111 km/day, well above the jitter tolerance
	}
	v := track.New(reps)
	v.Sort()
	v.DeriveKinematics()

	AgroundCheck(v, DefaultAgroundParams())

	for i, r := range reps {
		if r.GetFlag("POS", "drf_agr") != 0 {
			t.Fatalf("report %d: expected a steadily moving drifter not to be flagged aground", i)
		}
	}
}

func TestSpeedCheckFlagsFastJump(t *testing.T) {
	reps := []*report.Report{
		report.New("DRIFTER3", "U", 2000, 1, 1, 0, 0, 0, 700, 1, 7),
		report.New("DRIFTER3", "U", 2000, 1, 1, 1, 10, 10, 700, 1, 7), // huge jump in 1 hour
	}
	v := track.New(reps)
	v.Sort()
	v.DeriveKinematics()

	SpeedCheck(v, SpeedParams{SpeedLimitMS: 2.5, MinWinPeriod: 0.01, MaxWinPeriod: 0.1})

	if reps[1].GetFlag("POS", "drf_spd") != uint8(report.Fail) {
		t.Fatal("expected the fast jump to be flagged")
	}
}
