package sphere

import (
	"math"
	"testing"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestDistanceSelfZero(t *testing.T) {
	d, err := Distance(10, 20, 10, 20)
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(d, 0, 1e-9) {
		t.Fatalf("distance to self should be 0, got %f", d)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	d1, err := Distance(10, 20, -5, 100)
	if err != nil {
		t.Fatal(err)
	}
	d2, err := Distance(-5, 100, 10, 20)
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(d1, d2, 1e-9) {
		t.Fatalf("distance should be symmetric: %f vs %f", d1, d2)
	}
}

func TestDistanceInvalidInput(t *testing.T) {
	if _, err := Distance(math.NaN(), 0, 0, 0); err == nil {
		t.Fatal("expected error for NaN latitude")
	}
}

func TestIntermediatePointEndpoints(t *testing.T) {
	lat, lon, err := IntermediatePoint(10, 20, 40, 60, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(lat, 10, 1e-6) || !approxEqual(lon, 20, 1e-6) {
		t.Fatalf("f=0 should return point a, got (%f, %f)", lat, lon)
	}

	lat, lon, err = IntermediatePoint(10, 20, 40, 60, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(lat, 40, 1e-6) || !approxEqual(lon, 60, 1e-6) {
		t.Fatalf("f=1 should return point b, got (%f, %f)", lat, lon)
	}
}

func TestCourseCoincidentPoints(t *testing.T) {
	c, err := Course(5, 5, 5, 5)
	if err != nil {
		t.Fatal(err)
	}
	if c != 0 {
		t.Fatalf("course between coincident points should be 0, got %f", c)
	}
}

func TestPositionFromCourseAndDistanceRoundTrip(t *testing.T) {
	lat, lon, err := PositionFromCourseAndDistance(0, 0, 90, 111.2)
	if err != nil {
		t.Fatal(err)
	}
	// heading due east along the equator for ~1 degree of arc
	if !approxEqual(lat, 0, 1e-3) {
		t.Fatalf("expected latitude unchanged heading east at equator, got %f", lat)
	}
	if lon <= 0 || lon > 2 {
		t.Fatalf("expected small eastward longitude shift, got %f", lon)
	}
}
