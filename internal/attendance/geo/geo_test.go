package geo

import (
	"math"
	"math/rand"
	"testing"
)

var samplePoints = []GeoPoint{
	{Lat: 10.0, Lon: 106.0},
	{Lat: 43.25, Lon: 76.9},
	{Lat: -33.8688, Lon: 151.2093},
	{Lat: 89.9999, Lon: 0},
	{Lat: -89.9999, Lon: 179.9999},
	{Lat: 0, Lon: -180},
	{Lat: 51.5074, Lon: -0.1278},
}

func TestDistanceSymmetryAndIdentity(t *testing.T) {
	for _, a := range samplePoints {
		if d := a.DistanceTo(a); d != 0 {
			t.Fatalf("expected zero distance for %+v, got %f", a, d)
		}
		for _, b := range samplePoints {
			ab := Distance(a.Lat, a.Lon, b.Lat, b.Lon)
			ba := Distance(b.Lat, b.Lon, a.Lat, a.Lon)
			if math.Abs(ab-ba) > 1e-6 {
				t.Fatalf("distance not symmetric for %+v/%+v: %f vs %f", a, b, ab, ba)
			}
			if math.IsNaN(ab) || ab < 0 {
				t.Fatalf("unexpected distance %f for %+v/%+v", ab, a, b)
			}
		}
	}
}

func randomPoint(rng *rand.Rand) GeoPoint {
	return GeoPoint{Lat: rng.Float64()*180 - 90, Lon: rng.Float64()*360 - 180}
}

func TestDistanceRandomPairs(t *testing.T) {
	rng := rand.New(rand.NewSource(20240115))
	half := math.Pi * earthRadiusMeters
	for i := 0; i < 10000; i++ {
		a, b := randomPoint(rng), randomPoint(rng)
		if !a.Valid() || !b.Valid() {
			t.Fatalf("generated invalid point %+v/%+v", a, b)
		}
		if d := a.DistanceTo(a); d != 0 {
			t.Fatalf("expected zero distance for %+v, got %f", a, d)
		}
		ab, ba := a.DistanceTo(b), b.DistanceTo(a)
		if math.IsNaN(ab) || ab < 0 || ab > half+1e-6 {
			t.Fatalf("distance out of range for %+v/%+v: %f", a, b, ab)
		}
		if math.Abs(ab-ba) > 1e-6 {
			t.Fatalf("distance not symmetric for %+v/%+v: %f vs %f", a, b, ab, ba)
		}
	}
}

func TestDistanceRandomMeridianAdditivity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		lon := rng.Float64()*360 - 180
		lats := []float64{rng.Float64()*180 - 90, rng.Float64()*180 - 90, rng.Float64()*180 - 90}
		// order so b lies between a and c on the meridian
		if lats[0] > lats[1] {
			lats[0], lats[1] = lats[1], lats[0]
		}
		if lats[1] > lats[2] {
			lats[1], lats[2] = lats[2], lats[1]
		}
		if lats[0] > lats[1] {
			lats[0], lats[1] = lats[1], lats[0]
		}
		a := GeoPoint{Lat: lats[0], Lon: lon}
		b := GeoPoint{Lat: lats[1], Lon: lon}
		c := GeoPoint{Lat: lats[2], Lon: lon}
		if d, s := a.DistanceTo(c), a.DistanceTo(b)+b.DistanceTo(c); math.Abs(d-s) > 0.01 {
			t.Fatalf("expected %f ~= %f for %+v %+v %+v", d, s, a, b, c)
		}
	}
}

func TestDistanceAlongMeridianIsAdditive(t *testing.T) {
	a := GeoPoint{Lat: 10.0, Lon: 106.0}
	b := GeoPoint{Lat: 10.3, Lon: 106.0}
	c := GeoPoint{Lat: 11.0, Lon: 106.0}

	ac := a.DistanceTo(c)
	sum := a.DistanceTo(b) + b.DistanceTo(c)
	if math.Abs(ac-sum) > 0.01 {
		t.Fatalf("expected %f ~= %f", ac, sum)
	}

	// equator is a great circle too
	e1 := GeoPoint{Lat: 0, Lon: 10}
	e2 := GeoPoint{Lat: 0, Lon: 10.5}
	e3 := GeoPoint{Lat: 0, Lon: 12}
	if d, s := e1.DistanceTo(e3), e1.DistanceTo(e2)+e2.DistanceTo(e3); math.Abs(d-s) > 0.01 {
		t.Fatalf("expected %f ~= %f", d, s)
	}
}

func TestDistanceAntipodalAndPoles(t *testing.T) {
	half := math.Pi * earthRadiusMeters
	d := Distance(0, 0, 0, 180)
	if math.IsNaN(d) || math.Abs(d-half) > 1 {
		t.Fatalf("expected antipodal distance %f, got %f", half, d)
	}
	d = Distance(90, 0, -90, 0)
	if math.IsNaN(d) || math.Abs(d-half) > 1 {
		t.Fatalf("expected pole-to-pole distance %f, got %f", half, d)
	}
	// every meridian meets at the pole
	if d := Distance(90, 0, 90, 120); d > 1e-6 {
		t.Fatalf("expected zero distance at the pole, got %f", d)
	}
}

func TestDistanceKnownOffsets(t *testing.T) {
	anchor := GeoPoint{Lat: 10.0, Lon: 106.0}

	near := anchor.DistanceTo(GeoPoint{Lat: 10.0005, Lon: 106.0})
	if math.Abs(near-55.6) > 0.5 {
		t.Fatalf("expected ~55.6m, got %f", near)
	}
	far := anchor.DistanceTo(GeoPoint{Lat: 10.01, Lon: 106.0})
	if math.Abs(far-1111.9) > 2 {
		t.Fatalf("expected ~1112m, got %f", far)
	}
}

func TestValidCoordinate(t *testing.T) {
	cases := []struct {
		lat, lon float64
		want     bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{90.0001, 0, false},
		{-90.0001, 0, false},
		{0, 180.0001, false},
		{0, -180.0001, false},
		{math.NaN(), 0, false},
		{0, math.Inf(1), false},
	}
	for _, tc := range cases {
		if got := ValidCoordinate(tc.lat, tc.lon); got != tc.want {
			t.Fatalf("ValidCoordinate(%v, %v) = %v, want %v", tc.lat, tc.lon, got, tc.want)
		}
	}
}

func TestValidRadius(t *testing.T) {
	if ValidRadius(49) {
		t.Fatal("49m radius must be rejected")
	}
	if !ValidRadius(50) {
		t.Fatal("50m radius must be accepted")
	}
	if !ValidRadius(1000) {
		t.Fatal("1000m radius must be accepted")
	}
	if ValidRadius(1001) {
		t.Fatal("1001m radius must be rejected")
	}
}
