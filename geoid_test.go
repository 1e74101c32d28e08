package acmi

import "testing"

func TestGeoidGridNilIsZero(t *testing.T) {
	var g *GeoidGrid
	if got := g.HeightAt(10, 10); got != 0 {
		t.Errorf("HeightAt on nil grid = %v, want 0", got)
	}
}

func TestGeoidGridExactGridPoint(t *testing.T) {
	g := &GeoidGrid{
		Rows: 2, Cols: 2,
		DLat: 1, DLon: 1,
		Lat0: 1, Lon0: 0,
		Heights: []int16{10, 20, 30, 40},
	}
	if got := g.HeightAt(1, 0); got != 10 {
		t.Errorf("HeightAt(1,0) = %v, want 10", got)
	}
	if got := g.HeightAt(0, 1); got != 40 {
		t.Errorf("HeightAt(0,1) = %v, want 40", got)
	}
}

func TestGeoidGridBilinearInterpolation(t *testing.T) {
	g := &GeoidGrid{
		Rows: 2, Cols: 2,
		DLat: 1, DLon: 1,
		Lat0: 1, Lon0: 0,
		Heights: []int16{0, 0, 10, 10},
	}
	// halfway between row 0 (lat 1) and row 1 (lat 0).
	if got := g.HeightAt(0.5, 0); got != 5 {
		t.Errorf("HeightAt(0.5,0) = %v, want 5", got)
	}
}

func TestGeoidGridLongitudeWraps(t *testing.T) {
	g := &GeoidGrid{
		Rows: 1, Cols: 2,
		DLat: 1, DLon: 180,
		Lat0: 0, Lon0: 0,
		Heights: []int16{100, 200},
	}
	if got := g.HeightAt(0, -1); got == 0 {
		t.Errorf("expected wraparound lookup to hit a non-default sample")
	}
}

func TestGeoidGridClampsLatitude(t *testing.T) {
	g := &GeoidGrid{
		Rows: 2, Cols: 1,
		DLat: 1, DLon: 1,
		Lat0: 1, Lon0: 0,
		Heights: []int16{5, 15},
	}
	if got := g.HeightAt(90, 0); got != 5 {
		t.Errorf("HeightAt(90,0) = %v, want clamp to 5", got)
	}
	if got := g.HeightAt(-90, 0); got != 15 {
		t.Errorf("HeightAt(-90,0) = %v, want clamp to 15", got)
	}
}
