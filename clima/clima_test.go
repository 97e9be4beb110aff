package clima

import "testing"

func TestMDSFieldRoundTrip(t *testing.T) {
	f := NewMDSField()
	f.Set(10.4, 20.6, 12, 15.5)

	v := f.Value(10.4, 20.6, 2, 29)
	if !v.Valid || v.Value != 15.5 {
		t.Fatalf("expected 15.5 at the set cell, got %+v", v)
	}
}

func TestMDSFieldMissing(t *testing.T) {
	f := NewMDSField()
	v := f.Value(0, 0, 1, 1)
	if v.Valid {
		t.Fatal("expected missing value on an unset field")
	}
}

func TestMDSFieldOutOfRange(t *testing.T) {
	f := NewMDSField()
	v := f.Value(100, 0, 1, 1)
	if v.Valid {
		t.Fatal("expected missing value for out-of-range latitude")
	}
}

func TestLibraryUnboundName(t *testing.T) {
	lib := NewLibrary()
	v := lib.Mean(AT, 0, 0, 1, 1)
	if v.Valid {
		t.Fatal("expected missing value for an unbound climatology name")
	}
}

func TestLibraryBindAndLookup(t *testing.T) {
	lib := NewLibrary()
	f := NewMDSField()
	f.Set(1, 1, 1, 12.3)
	lib.BindMean(SST, f)

	v := lib.Mean(SST, 1, 1, 1, 1)
	if !v.Valid || v.Value != float64(float32(12.3)) {
		t.Fatalf("expected bound lookup to succeed, got %+v", v)
	}
}
