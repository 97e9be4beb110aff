package qcsingle

import (
	"math"
	"testing"

	"github.com/metobs-qc/marineqc/report"
)

func TestPositionCheck(t *testing.T) {
	if PositionCheck(10, 20) != report.Pass {
		t.Fatal("expected pass")
	}
	if PositionCheck(91, 20) != report.Fail {
		t.Fatal("expected fail for out-of-range latitude")
	}
	if PositionCheck(math.NaN(), 20) != report.Untestable {
		t.Fatal("expected untestable for missing latitude")
	}
}

func TestDateCheck(t *testing.T) {
	if DateCheck(2000, 2, 29) != report.Pass {
		t.Fatal("expected leap day to pass")
	}
	if DateCheck(2001, 2, 29) != report.Fail {
		t.Fatal("expected non-leap Feb 29 to fail")
	}
	if DateCheck(1840, 1, 1) != report.Fail {
		t.Fatal("expected year before 1850 to fail")
	}
}

func TestTimeCheck(t *testing.T) {
	if TimeCheck(23.99) != report.Pass {
		t.Fatal("expected pass")
	}
	if TimeCheck(24.0) != report.Fail {
		t.Fatal("expected fail at upper bound")
	}
}

func TestBlacklistZeroZero(t *testing.T) {
	if !Blacklist("ANY", 1, 2000, 1, 0, 0, 3) {
		t.Fatal("expected 0,0 to be blacklisted")
	}
}

func TestBlacklistDeck732Region(t *testing.T) {
	// region 1 in 1958: lon -175..-170, lat 40..55
	if !Blacklist("SHIP", 732, 1958, 6, 45, -172, 3) {
		t.Fatal("expected deck 732 region 1 in 1958 to be blacklisted")
	}
	if Blacklist("SHIP", 732, 1975, 6, 45, -172, 3) {
		t.Fatal("expected deck 732 outside the year table to pass")
	}
}

func TestBlacklistDeck874(t *testing.T) {
	if !Blacklist("SHIP", 874, 2000, 1, 10, 10, 3) {
		t.Fatal("expected deck 874 blanket rejection")
	}
}

func TestBlacklistBuoy2005(t *testing.T) {
	if !Blacklist("53521", 700, 2005, 11, 10, 10, 7) {
		t.Fatal("expected buoy id to be blacklisted in Nov 2005")
	}
	if Blacklist("53521", 700, 2005, 10, 10, 10, 7) {
		t.Fatal("expected buoy id to pass outside the blacklisted window")
	}
}

func TestMatBlacklistBoxes(t *testing.T) {
	// North Atlantic box: lon -80..0, lat 40..55
	if !MatBlacklist(1, 193, 45, -40, 1885) {
		t.Fatal("expected North Atlantic box to be blacklisted")
	}
	if MatBlacklist(1, 193, 45, -40, 1900) {
		t.Fatal("expected year outside 1880-1892 to pass")
	}
}

func TestWindBlacklist(t *testing.T) {
	if !WindBlacklist(708) || !WindBlacklist(780) {
		t.Fatal("expected 708 and 780 to be blacklisted")
	}
	if WindBlacklist(700) {
		t.Fatal("expected other decks to pass")
	}
}

// S2 from spec.md §8.
func TestClimatologyCheckWithStdev(t *testing.T) {
	flag := ClimatologyCheck(20, 15, 3, report.Some(2), 0, 0, false, 0, false)
	if flag != report.Pass {
		t.Fatalf("expected pass, got %v", flag)
	}
}

func TestClimatologyCheckInvertedStdevLimits(t *testing.T) {
	flag := ClimatologyCheck(20, 15, 3, report.Some(2), 5, 1, true, 0, false)
	if flag != report.Untestable {
		t.Fatalf("expected untestable for inverted limits, got %v", flag)
	}
}

func TestClimatologyCheckLowbar(t *testing.T) {
	flag := ClimatologyCheck(15.5, 15, 1, report.Some(0.1), 0, 0, false, 1.0, true)
	if flag != report.Pass {
		t.Fatalf("expected pass via lowbar, got %v", flag)
	}
}

func TestHardLimitCheck(t *testing.T) {
	if HardLimitCheck(5, 0, 10) != report.Pass {
		t.Fatal("expected pass")
	}
	if HardLimitCheck(15, 0, 10) != report.Fail {
		t.Fatal("expected fail")
	}
	if HardLimitCheck(5, 10, 0) != report.Untestable {
		t.Fatal("expected untestable for inverted limits")
	}
}

// S1 from spec.md §8 (unambiguous half).
func TestSSTFreezeCheckFail(t *testing.T) {
	if SSTFreezeCheck(-2.5, 0.0, -1.8, 2.0) != report.Fail {
		t.Fatal("expected fail")
	}
}

func TestSSTFreezeCheckPass(t *testing.T) {
	if SSTFreezeCheck(-1.7, 0.0, -1.8, 2.0) != report.Pass {
		t.Fatal("expected pass")
	}
}

// S4 from spec.md §8.
func TestSupersaturationCheck(t *testing.T) {
	if SupersaturationCheck(15, 14.9) != report.Fail {
		t.Fatal("expected fail")
	}
	if SupersaturationCheck(14.9, 15.0) != report.Pass {
		t.Fatal("expected pass")
	}
}

// S5 from spec.md §8.
func TestWindConsistencyCheck(t *testing.T) {
	if WindConsistencyCheck(0, 90) != report.Fail {
		t.Fatal("expected fail: speed zero, direction non-zero")
	}
	if WindConsistencyCheck(5, 0) != report.Fail {
		t.Fatal("expected fail: speed non-zero, direction zero")
	}
	if WindConsistencyCheck(0, 0) != report.Pass {
		t.Fatal("expected pass: calm")
	}
}

func TestValueCheck(t *testing.T) {
	if ValueCheck(1.0) != report.Pass {
		t.Fatal("expected pass")
	}
	if ValueCheck(math.NaN()) != report.Fail {
		t.Fatal("expected fail for missing value")
	}
}
