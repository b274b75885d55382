package planner

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

func square(size float64) orb.Ring {
	return orb.Ring{{0, 0}, {size, 0}, {size, size}, {0, size}, {0, 0}}
}

// rotatedRectangle returns a w x h rectangle centred on the origin, rotated by deg.
func rotatedRectangle(w, h, deg float64) orb.Ring {
	r := orb.Ring{{-w / 2, -h / 2}, {w / 2, -h / 2}, {w / 2, h / 2}, {-w / 2, h / 2}, {-w / 2, -h / 2}}
	return rotateRing(r, orb.Point{0, 0}, deg)
}

func TestGenerateGrid_Square(t *testing.T) {
	grid, err := GenerateGrid(square(200), GridOptions{ForwardSpacing: 20, SideSpacing: 20, SideOverlap: 50})
	if err != nil {
		t.Fatalf("GenerateGrid: %v", err)
	}
	if len(grid.Points) != 121 {
		t.Fatalf("got %d points, want 121", len(grid.Points))
	}

	perRow := map[int]int{}
	for _, gp := range grid.Points {
		perRow[gp.Row]++
		x, y := gp.Point[0], gp.Point[1]
		if x < -10-epsilon || x > 210+epsilon || y < -10-epsilon || y > 210+epsilon {
			t.Errorf("point %v outside the buffered square", gp.Point)
		}
		want := Outbound
		if gp.Row%2 == 1 {
			want = Return
		}
		if gp.Heading != want {
			t.Errorf("row %d heading = %v, want %v", gp.Row, gp.Heading, want)
		}
	}
	if len(perRow) != 11 {
		t.Errorf("got %d rows, want 11", len(perRow))
	}
	for row, n := range perRow {
		if n != 11 {
			t.Errorf("row %d has %d points, want 11", row, n)
		}
	}
}

func TestGenerateGrid_RowsSortedAndSpaced(t *testing.T) {
	grid, err := GenerateGrid(square(200), GridOptions{ForwardSpacing: 15, SideSpacing: 25, SideOverlap: 60})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(grid.Points); i++ {
		prev, cur := grid.Points[i-1], grid.Points[i]
		if cur.Row < prev.Row {
			t.Fatalf("rows out of order at %d", i)
		}
		if cur.Row == prev.Row {
			if cur.Point[0] <= prev.Point[0] {
				t.Errorf("row %d not sorted by x", cur.Row)
			}
			if d := cur.Point[0] - prev.Point[0]; !almostEqual(d, 15, 1e-6) && d > 15 {
				t.Errorf("gap %v larger than forward spacing in row %d", d, cur.Row)
			}
		}
	}
}

func TestGenerateGrid_Containment(t *testing.T) {
	ring := orb.Ring{{0, 0}, {300, 0}, {300, 100}, {150, 250}, {0, 100}, {0, 0}}
	opts := GridOptions{ForwardSpacing: 12, SideSpacing: 18, Rotation: 25, SideOverlap: 70}
	grid, err := GenerateGrid(ring, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(grid.Points) == 0 {
		t.Fatal("expected grid points")
	}
	for _, gp := range grid.Points {
		if !withinBuffer(gp.Point, ring, opts.SideSpacing/2+1e-6) {
			t.Errorf("point %v outside the buffered polygon", gp.Point)
		}
	}
}

func TestGenerateGrid_AutoRotateCoversCorners(t *testing.T) {
	ring := rotatedRectangle(400, 120, 30)
	opts := GridOptions{ForwardSpacing: 15, SideSpacing: 25, AutoRotate: true, SideOverlap: 60}
	grid, err := GenerateGrid(ring, opts)
	if err != nil {
		t.Fatal(err)
	}

	if d := math.Mod(math.Abs(grid.Rotation-30), 180); !almostEqual(d, 0, 1e-6) && !almostEqual(d, 180, 1e-6) {
		t.Errorf("rotation = %v, want 30 modulo 180", grid.Rotation)
	}

	tolerance := opts.SideSpacing * (1 - opts.SideOverlap/100)
	for _, corner := range ring[:4] {
		best := math.Inf(1)
		for _, gp := range grid.Points {
			best = math.Min(best, planar.Distance(corner, gp.Point))
		}
		if best > tolerance+1e-6 {
			t.Errorf("corner %v nearest point %.3f m away, want <= %.3f", corner, best, tolerance)
		}
	}
}

func TestGenerateGrid_ExplicitRotationCoversVertices(t *testing.T) {
	ring := rotatedRectangle(400, 120, 30)
	opts := GridOptions{ForwardSpacing: 15, SideSpacing: 25, Rotation: 60, SideOverlap: 60}
	grid, err := GenerateGrid(ring, opts)
	if err != nil {
		t.Fatal(err)
	}

	tolerance := opts.SideSpacing * (1 - opts.SideOverlap/100)
	for _, v := range ring[:4] {
		best := math.Inf(1)
		for _, gp := range grid.Points {
			best = math.Min(best, planar.Distance(v, gp.Point))
		}
		if best > tolerance+1e-6 {
			t.Errorf("vertex %v nearest point %.3f m away, want <= %.3f", v, best, tolerance)
		}
	}
}

func TestBackfillCorner_Dedup(t *testing.T) {
	ring := square(100)
	rows := []gridRow{{y: 0, xs: []float64{0}}}
	padded := orb.Bound{Min: orb.Point{-5, -5}, Max: orb.Point{105, 105}}
	corner := orb.Point{0, 8}
	const dedup = 10

	rows = backfillCorner(rows, corner, padded, 20, ring, 5, dedup)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for _, x := range rows[1].xs {
		if d := math.Hypot(x, corner[1]); d <= dedup {
			t.Errorf("backfilled x=%v lies %.2f m from an existing point", x, d)
		}
	}
}

func TestExtremeVertices(t *testing.T) {
	ring := orb.Ring{{0, 0}, {10, -3}, {12, 5}, {2, 9}, {0, 0}}
	got := extremeVertices(ring)
	want := []orb.Point{{0, 0}, {12, 5}, {10, -3}, {2, 9}}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("extreme %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGenerateGrid_CornerBackfill(t *testing.T) {
	// A triangle whose apex falls between rows once padded.
	ring := orb.Ring{{0, 0}, {100, 0}, {50, 37}, {0, 0}}
	opts := GridOptions{ForwardSpacing: 10, SideSpacing: 30, SideOverlap: 80}
	grid, err := GenerateGrid(ring, opts)
	if err != nil {
		t.Fatal(err)
	}

	bound := ring.Bound()
	tolerance := opts.SideSpacing * (1 - opts.SideOverlap/100)
	corners := []orb.Point{bound.Min, {bound.Max[0], bound.Min[1]}}
	for _, c := range corners {
		if !withinBuffer(c, ring, opts.SideSpacing/2) {
			continue
		}
		best := math.Inf(1)
		for _, gp := range grid.Points {
			best = math.Min(best, planar.Distance(c, gp.Point))
		}
		if best > tolerance+1e-6 {
			t.Errorf("corner %v not covered: nearest %.3f > %.3f", c, best, tolerance)
		}
	}

	// Backfilled points must not duplicate existing ones.
	for i := range grid.Points {
		for j := i + 1; j < len(grid.Points); j++ {
			if planar.Distance(grid.Points[i].Point, grid.Points[j].Point) < 1e-9 {
				t.Fatalf("duplicate point %v", grid.Points[i].Point)
			}
		}
	}
}

func TestGenerateGrid_Degenerate(t *testing.T) {
	cases := map[string]orb.Ring{
		"collinear":  {{0, 0}, {10, 0}, {20, 0}, {0, 0}},
		"two points": {{0, 0}, {10, 10}},
		"empty":      nil,
	}
	for name, ring := range cases {
		t.Run(name, func(t *testing.T) {
			grid, err := GenerateGrid(ring, GridOptions{ForwardSpacing: 5, SideSpacing: 5, SideOverlap: 50})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(grid.Points) != 0 {
				t.Errorf("expected empty grid, got %d points", len(grid.Points))
			}
		})
	}
}

func TestGenerateGrid_InvalidOptions(t *testing.T) {
	cases := []GridOptions{
		{ForwardSpacing: 0, SideSpacing: 10},
		{ForwardSpacing: 10, SideSpacing: -1},
		{ForwardSpacing: math.NaN(), SideSpacing: 10},
		{ForwardSpacing: 10, SideSpacing: 10, SideOverlap: 100},
	}
	for _, opts := range cases {
		if _, err := GenerateGrid(square(100), opts); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("%+v: expected ErrInvalidParameter, got %v", opts, err)
		}
	}
}

func TestGenerateGrid_TooLarge(t *testing.T) {
	_, err := GenerateGrid(square(10000), GridOptions{ForwardSpacing: 1, SideSpacing: 1, SideOverlap: 50, MaxPoints: 1000})
	if !errors.Is(err, ErrGridTooLarge) {
		t.Errorf("expected ErrGridTooLarge, got %v", err)
	}
}

func TestRowHeadingCompass(t *testing.T) {
	cases := []struct {
		h        RowHeading
		rotation float64
		want     float64
	}{
		{Outbound, 0, 90},
		{Return, 0, -90},
		{Outbound, 90, 0},
		{Return, 90, -180},
		{Outbound, -45, 135},
	}
	for _, tc := range cases {
		got := tc.h.CompassHeading(tc.rotation)
		if !almostEqual(got, tc.want, epsilon) {
			t.Errorf("%v.CompassHeading(%v) = %v, want %v", tc.h, tc.rotation, got, tc.want)
		}
	}
	if Outbound.Flip() != Return || Return.Flip() != Outbound {
		t.Error("Flip must swap headings")
	}
}

func TestMinimumRotatedRectangle(t *testing.T) {
	ring := rotatedRectangle(80, 20, 60)
	rect, ok := MinimumRotatedRectangle(ring)
	if !ok {
		t.Fatal("expected a rectangle")
	}
	if !almostEqual(rect.Area(), 1600, 1e-6) {
		t.Errorf("area = %v, want 1600", rect.Area())
	}
	if d := math.Mod(math.Abs(rect.LongestEdgeAngle()-60), 180); !almostEqual(d, 0, 1e-6) && !almostEqual(d, 180, 1e-6) {
		t.Errorf("longest edge angle = %v, want 60 modulo 180", rect.LongestEdgeAngle())
	}

	if _, ok := MinimumRotatedRectangle([]orb.Point{{0, 0}, {1, 1}}); ok {
		t.Error("two points cannot form a rectangle")
	}
}

func TestLongestEdgeAngle(t *testing.T) {
	if got := LongestEdgeAngle(square(50)); !almostEqual(got, 0, epsilon) && !almostEqual(math.Abs(got), 90, epsilon) && !almostEqual(math.Abs(got), 180, epsilon) {
		t.Errorf("square angle = %v, want axis aligned", got)
	}
	if got := LongestEdgeAngle(orb.Ring{{0, 0}, {5, 5}}); got != 0 {
		t.Errorf("degenerate ring angle = %v, want 0", got)
	}
	got := LongestEdgeAngle(rotatedRectangle(200, 50, -20))
	if got < -180 || got > 180 {
		t.Errorf("angle %v not normalised", got)
	}
}
