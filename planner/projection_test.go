package planner

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

func TestProjection_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		origin := orb.Point{rng.Float64()*360 - 180, rng.Float64()*160 - 80}
		proj, err := NewProjection(origin)
		if err != nil {
			t.Fatalf("NewProjection(%v): %v", origin, err)
		}
		// A point within roughly 5 km of the origin.
		p := orb.Point{
			origin[0] + (rng.Float64()-0.5)*0.05,
			origin[1] + (rng.Float64()-0.5)*0.05,
		}
		if p[1] > maxLatitude || p[1] < -maxLatitude {
			continue
		}
		back := proj.ToGeographic(proj.ToPlanar(p))
		if d := geo.DistanceHaversine(p, back); d > 0.01 {
			t.Errorf("round trip of %v drifted %.4f m", p, d)
		}
	}
}

func TestProjection_OriginAndScale(t *testing.T) {
	origin := orb.Point{5.69, 50.85}
	proj, err := NewProjection(origin)
	if err != nil {
		t.Fatal(err)
	}
	if o := proj.ToPlanar(origin); !almostEqual(o[0], 0, 1e-6) || !almostEqual(o[1], 0, 1e-6) {
		t.Errorf("origin maps to %v, want (0,0)", o)
	}

	// Planar distances near the origin match geodesic ones to within 0.5%.
	other := orb.Point{origin[0] + 0.01, origin[1] + 0.005}
	planarDist := planar.Distance(proj.ToPlanar(origin), proj.ToPlanar(other))
	geoDist := geo.DistanceHaversine(origin, other)
	if math.Abs(planarDist-geoDist)/geoDist > 0.005 {
		t.Errorf("planar %.2f m vs geodesic %.2f m", planarDist, geoDist)
	}
}

func TestProjection_InvalidOrigin(t *testing.T) {
	cases := []orb.Point{
		{0, 89},
		{0, -86},
		{181, 0},
		{math.NaN(), 0},
		{0, math.Inf(1)},
	}
	for _, p := range cases {
		if _, err := NewProjection(p); !errors.Is(err, ErrInvalidPolygon) {
			t.Errorf("NewProjection(%v): expected ErrInvalidPolygon, got %v", p, err)
		}
	}
}

func TestProjectionFor(t *testing.T) {
	poly := orb.Polygon{{{4, 52}, {4.01, 52}, {4.01, 52.01}, {4, 52.01}, {4, 52}}}
	proj, err := ProjectionFor(poly)
	if err != nil {
		t.Fatal(err)
	}
	c := proj.ToPlanar(orb.Point{4.005, 52.005})
	if !almostEqual(c[0], 0, 1e-6) || !almostEqual(c[1], 0, 1e-6) {
		t.Errorf("bound centre maps to %v, want origin", c)
	}
	if _, err := ProjectionFor(orb.Polygon{}); !errors.Is(err, ErrInvalidPolygon) {
		t.Errorf("expected ErrInvalidPolygon for empty polygon, got %v", err)
	}
}
