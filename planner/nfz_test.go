package planner

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestFilterNoFlyZones(t *testing.T) {
	path := BuildPath(lawnmowerGrid(3, 10, 0, 10, 20, 30), PathOptions{ForwardSpacing: 10})
	zone := orb.Ring{{5, 5}, {25, 5}, {25, 15}, {5, 15}, {5, 5}}

	filtered := FilterNoFlyZones(path, []orb.Ring{zone})
	if len(filtered) != len(path)-2 {
		t.Fatalf("got %d points, want %d", len(filtered), len(path)-2)
	}
	for _, p := range filtered {
		if p.Point.Equal(orb.Point{10, 10}) || p.Point.Equal(orb.Point{20, 10}) {
			t.Errorf("point %v inside the zone survived", p.Point)
		}
	}

	// Order is preserved.
	j := 0
	for _, p := range path {
		if j < len(filtered) && p.Point.Equal(filtered[j].Point) {
			j++
		}
	}
	if j != len(filtered) {
		t.Error("filtered path is not a subsequence of the input")
	}
}

func TestFilterNoFlyZones_NoZones(t *testing.T) {
	path := BuildPath(lawnmowerGrid(2, 10, 0, 10), PathOptions{ForwardSpacing: 10})
	if got := FilterNoFlyZones(path, nil); len(got) != len(path) {
		t.Errorf("no zones should keep every point: %d vs %d", len(got), len(path))
	}
}

func TestFilterNoFlyZones_Idempotent(t *testing.T) {
	path := BuildPath(lawnmowerGrid(4, 10, 0, 10, 20, 30, 40), PathOptions{ForwardSpacing: 10})
	zones := []orb.Ring{
		{{-15, -5}, {5, -5}, {5, 5}, {-15, 5}, {-15, -5}},
		{{15, 15}, {45, 15}, {30, 35}, {15, 15}},
	}
	once := FilterNoFlyZones(path, zones)
	twice := FilterNoFlyZones(once, zones)
	if len(once) != len(twice) {
		t.Errorf("second filter removed %d more points", len(once)-len(twice))
	}
	if len(once) >= len(path) {
		t.Error("expected some points removed")
	}
}

func TestZoneIndex(t *testing.T) {
	idx := NewZoneIndex([]orb.Ring{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}},
		{{100, 100}, {120, 100}, {110, 120}, {100, 100}},
		{{0, 0}, {1, 1}}, // degenerate, skipped
	})
	if idx.Len() != 2 {
		t.Fatalf("Len = %d, want 2", idx.Len())
	}
	cases := []struct {
		p    orb.Point
		want bool
	}{
		{orb.Point{5, 5}, true},
		{orb.Point{110, 105}, true},
		{orb.Point{50, 50}, false},
		{orb.Point{101, 119}, false}, // inside the bbox, outside the triangle
	}
	for _, tc := range cases {
		if got := idx.Contains(tc.p); got != tc.want {
			t.Errorf("Contains(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestRemoveContainedZones(t *testing.T) {
	outer := orb.Ring{{0, 0}, {100, 0}, {100, 100}, {0, 100}, {0, 0}}
	inner := orb.Ring{{10, 10}, {20, 10}, {20, 20}, {10, 20}, {10, 10}}
	overlapping := orb.Ring{{90, 90}, {150, 90}, {150, 150}, {90, 150}, {90, 90}}
	// Vertices inside outer but an edge leaves it through the notch.
	notched := orb.Ring{{0, 0}, {100, 0}, {100, 100}, {60, 100}, {50, 40}, {40, 100}, {0, 100}, {0, 0}}
	bridge := orb.Ring{{30, 60}, {70, 60}, {70, 70}, {30, 70}, {30, 60}}

	got := removeContainedZones([]orb.Ring{inner, outer, overlapping})
	if len(got) != 2 {
		t.Fatalf("got %d zones, want 2", len(got))
	}
	for _, z := range got {
		if z.Equal(inner) {
			t.Error("contained zone kept")
		}
	}

	if got := removeContainedZones([]orb.Ring{notched, bridge}); len(got) != 2 {
		t.Errorf("crossing zone removed: got %d zones", len(got))
	}
}
