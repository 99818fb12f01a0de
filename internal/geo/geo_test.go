package geo

import (
	"math"
	"testing"
)

func TestHaversineKm_ZeroDistance(t *testing.T) {
	d := HaversineKm(48.8566, 2.3522, 48.8566, 2.3522)
	if d < 0 || d > 1e-9 {
		t.Fatalf("zero distance expected ~0, got %v", d)
	}
}

func TestHaversineKm_Symmetric(t *testing.T) {
	a := HaversineKm(48.8566, 2.3522, 45.7640, 4.8357)
	b := HaversineKm(45.7640, 4.8357, 48.8566, 2.3522)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("expected symmetric distance, got %v vs %v", a, b)
	}
}

func TestHaversineKm_KnownDistance(t *testing.T) {
	// Paris -> Lyon is roughly 392 km great-circle.
	d := HaversineKm(48.8566, 2.3522, 45.7640, 4.8357)
	if d < 380 || d > 405 {
		t.Fatalf("Paris-Lyon distance out of expected range: %v", d)
	}
}

func TestValidCoordinates(t *testing.T) {
	if !ValidCoordinates(0, 0) {
		t.Fatalf("origin should be valid")
	}
	if ValidCoordinates(91, 0) || ValidCoordinates(0, 181) || ValidCoordinates(-91, 0) {
		t.Fatalf("out-of-range coordinates accepted")
	}
}
