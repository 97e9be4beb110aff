package report

import "testing"

func TestSetGetRoundTrip(t *testing.T) {
	r := New("SHIP1", "U1", 2000, 6, 15, 12.0, 10, 20, 700, 1, 3)
	r.SetValue(SST, 18.5)
	v := r.Get(SST)
	if !v.Valid || v.Value != 18.5 {
		t.Fatalf("expected 18.5, got %+v", v)
	}

	if r.Get(AT).Valid {
		t.Fatal("expected AT to be missing")
	}
}

func TestLongitudeFold(t *testing.T) {
	r := New("A", "B", 2000, 1, 1, 0, 0, 270, 0, 0, 0)
	if r.Lon != -90 {
		t.Fatalf("expected 270 to fold to -90, got %f", r.Lon)
	}
}

func TestAnomalyAndStandardised(t *testing.T) {
	r := New("A", "B", 2000, 1, 1, 0, 0, 0, 0, 0, 0)
	r.SetValue(SST, 20)
	r.SetNorm(SST, Mean, Some(15))
	r.SetNorm(SST, Stdev, Some(2))

	anom := r.Anomaly(SST)
	if !anom.Valid || anom.Value != 5 {
		t.Fatalf("expected anomaly 5, got %+v", anom)
	}
	sAnom := r.StandardisedAnomaly(SST)
	if !sAnom.Valid || sAnom.Value != 2.5 {
		t.Fatalf("expected standardised anomaly 2.5, got %+v", sAnom)
	}
}

func TestAnomalyMissingMean(t *testing.T) {
	r := New("A", "B", 2000, 1, 1, 0, 0, 0, 0, 0, 0)
	r.SetValue(SST, 20)
	if r.Anomaly(SST).Valid {
		t.Fatal("expected missing anomaly when no mean attached")
	}
}

func TestFlagDefaultUnset(t *testing.T) {
	r := New("A", "B", 2000, 1, 1, 0, 0, 0, 0, 0, 0)
	if r.GetFlag("SST", "freez") != 9 {
		t.Fatal("expected default flag value 9")
	}
	r.SetFlag("SST", "freez", 1)
	if r.GetFlag("SST", "freez") != 1 {
		t.Fatal("expected flag to be recorded")
	}
}

func TestOrdering(t *testing.T) {
	a := New("AAA", "1", 2000, 1, 1, 0, 0, 0, 0, 0, 0)
	b := New("AAA", "2", 2000, 1, 2, 0, 0, 0, 0, 0, 0)
	c := New("BBB", "3", 1999, 1, 1, 0, 0, 0, 0, 0, 0)

	if !Less(a, b) {
		t.Fatal("expected a before b by timestamp")
	}
	if !Less(b, c) {
		t.Fatal("expected b before c by platform id")
	}
	if Equal(a, b) {
		t.Fatal("a and b should not be equal")
	}
}

func TestTimestampValidity(t *testing.T) {
	r := New("A", "B", 2021, 2, 29, 0, 0, 0, 0, 0, 0)
	if r.TimestampValid() {
		t.Fatal("2021-02-29 is not a real date")
	}
	r2 := New("A", "B", 2020, 2, 29, 12.5, 0, 0, 0, 0, 0)
	if !r2.TimestampValid() {
		t.Fatal("2020-02-29 should be valid")
	}
}
