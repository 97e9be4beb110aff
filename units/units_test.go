package units

import (
	"math"
	"testing"
)

func TestMonthLength(t *testing.T) {
	if MonthLength(2000, 2) != 29 {
		t.Fatalf("expected 29 days in Feb 2000, got %d", MonthLength(2000, 2))
	}
	if MonthLength(1900, 2) != 28 {
		t.Fatalf("expected 28 days in Feb 1900, got %d", MonthLength(1900, 2))
	}
	if MonthLength(2023, 4) != 30 {
		t.Fatalf("expected 30 days in Apr 2023, got %d", MonthLength(2023, 4))
	}
}

func TestDateValid(t *testing.T) {
	if !DateValid(2020, 2, 29) {
		t.Fatal("2020-02-29 should be valid")
	}
	if DateValid(2021, 2, 29) {
		t.Fatal("2021-02-29 should be invalid")
	}
	if DateValid(2021, 13, 1) {
		t.Fatal("month 13 should be invalid")
	}
}

func TestPentadFeb29(t *testing.T) {
	if Pentad(2020, 2, 29) != 12 {
		t.Fatalf("expected pentad 12 for Feb 29, got %d", Pentad(2020, 2, 29))
	}
}

func TestPentadRange(t *testing.T) {
	if p := Pentad(2021, 1, 1); p != 1 {
		t.Fatalf("expected pentad 1 for Jan 1, got %d", p)
	}
	if p := Pentad(2021, 12, 31); p != 73 {
		t.Fatalf("expected pentad 73 for Dec 31, got %d", p)
	}
}

func TestKnotsConversion(t *testing.T) {
	got := KnotsToKmPerH(10)
	want := 18.52
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("10 knots = %f km/h, want %f", got, want)
	}
	if math.Abs(KmPerHToKnots(want)-10) > 1e-9 {
		t.Fatalf("round trip conversion failed")
	}
}

func TestSunElevationNoonEquator(t *testing.T) {
	// Near the equinox, at local solar noon on the equator, the sun
	// should be close to straight overhead.
	elev := SunElevation(2021, 3, 20, 12.0, 0.0, 0.0)
	if elev < 80 {
		t.Fatalf("expected near-overhead sun at equinox noon equator, got %f", elev)
	}
}

func TestSunElevationMidnight(t *testing.T) {
	elev := SunElevation(2021, 6, 21, 0.0, 0.0, 0.0)
	if elev > 0 {
		t.Fatalf("expected sun below horizon at midnight, got %f", elev)
	}
}
