package planner

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// DefaultCornerDedupFactor scales the forward spacing into the distance under
// which a backfilled corner point is treated as a duplicate.
const DefaultCornerDedupFactor = 0.1

// RowHeading is the travel direction of a grid row relative to the grid axis.
type RowHeading int

const (
	Outbound RowHeading = iota // along +x of the rotated grid frame
	Return                     // along -x of the rotated grid frame
)

func (h RowHeading) String() string {
	if h == Return {
		return "return"
	}
	return "outbound"
}

// Flip returns the opposite heading.
func (h RowHeading) Flip() RowHeading {
	if h == Return {
		return Outbound
	}
	return Return
}

// CompassHeading maps the row heading to a compass heading in degrees for a
// grid rotated by rotation degrees (counter-clockwise from east).
func (h RowHeading) CompassHeading(rotation float64) float64 {
	base := 90.0
	if h == Return {
		base = -90
	}
	return normalizeAngle(base - rotation)
}

// GridPoint is a candidate photo position in the planar frame.
type GridPoint struct {
	Point   orb.Point
	Heading RowHeading
	Row     int
}

// GridOptions configures GenerateGrid.
type GridOptions struct {
	ForwardSpacing float64 // metres between points along a row
	SideSpacing    float64 // metres between rows
	Rotation       float64 // degrees, ignored when AutoRotate is set
	AutoRotate     bool
	SideOverlap    float64 // percent, sizes the corner coverage tolerance

	CornerDedupFactor float64 // 0 = DefaultCornerDedupFactor
	MaxPoints         int     // 0 = unlimited
}

// Grid is the output of GenerateGrid. Rotation is the angle actually used.
type Grid struct {
	Points   []GridPoint
	Rotation float64
}

type gridRow struct {
	y  float64
	xs []float64
}

// GenerateGrid lays a rotated lattice over a planar ring and keeps the points
// that fall inside the ring buffered by half the side spacing. Bounding-box
// corners left without side-overlap coverage get an extra row.
func GenerateGrid(ring orb.Ring, opts GridOptions) (Grid, error) {
	fs, ss := opts.ForwardSpacing, opts.SideSpacing
	if !isFinite(fs) || fs <= 0 || !isFinite(ss) || ss <= 0 {
		return Grid{}, fmt.Errorf("%w: grid spacing must be > 0, got forward=%g side=%g",
			ErrInvalidParameter, fs, ss)
	}
	if !isFinite(opts.SideOverlap) || opts.SideOverlap < 0 || opts.SideOverlap >= 100 {
		return Grid{}, fmt.Errorf("%w: side_overlap must be in [0, 100), got %g",
			ErrInvalidParameter, opts.SideOverlap)
	}
	dedupFactor := opts.CornerDedupFactor
	if dedupFactor <= 0 {
		dedupFactor = DefaultCornerDedupFactor
	}

	ring = closeRing(ring)
	if len(ring) < 4 || planar.Area(orb.Polygon{ring}) == 0 {
		return Grid{Rotation: opts.Rotation}, nil
	}

	rotation := opts.Rotation
	if opts.AutoRotate {
		rotation = LongestEdgeAngle(ring)
	}

	centroid, _ := planar.CentroidArea(orb.Polygon{ring})
	rotated := rotateRing(ring, centroid, -rotation)
	bound := rotated.Bound()
	padded := bound.Pad(math.Hypot(fs, ss) / 2)
	buffer := ss / 2

	cols := math.Floor((padded.Max[0]-padded.Min[0])/fs) + 1
	rows := math.Floor((padded.Max[1]-padded.Min[1])/ss) + 1
	if opts.MaxPoints > 0 && cols*rows > float64(opts.MaxPoints) {
		return Grid{}, fmt.Errorf("%w: %.0f lattice points exceed the limit of %d",
			ErrGridTooLarge, cols*rows, opts.MaxPoints)
	}

	var lattice []gridRow
	for j := 0; j < int(rows); j++ {
		y := padded.Min[1] + float64(j)*ss
		row := gridRow{y: y}
		for i := 0; i < int(cols); i++ {
			x := padded.Min[0] + float64(i)*fs
			if withinBuffer(orb.Point{x, y}, rotated, buffer) {
				row.xs = append(row.xs, x)
			}
		}
		if len(row.xs) > 0 {
			lattice = append(lattice, row)
		}
	}

	tolerance := ss * (1 - opts.SideOverlap/100)
	corners := [4]orb.Point{
		bound.Min,
		{bound.Max[0], bound.Min[1]},
		bound.Max,
		{bound.Min[0], bound.Max[1]},
	}
	// With an explicit rotation the bounding-box corners may lie off the
	// polygon, so its extreme vertices are checked too.
	for _, c := range append(corners[:], extremeVertices(rotated)...) {
		if nearestDistance(lattice, c) <= tolerance {
			continue
		}
		lattice = backfillCorner(lattice, c, padded, fs, rotated, buffer, dedupFactor*fs)
	}

	sort.SliceStable(lattice, func(i, j int) bool { return lattice[i].y < lattice[j].y })

	var points []GridPoint
	for r, row := range lattice {
		heading := Outbound
		if r%2 == 1 {
			heading = Return
		}
		for _, x := range row.xs {
			points = append(points, GridPoint{
				Point:   rotatePoint(orb.Point{x, row.y}, centroid, rotation),
				Heading: heading,
				Row:     r,
			})
		}
	}

	return Grid{Points: points, Rotation: rotation}, nil
}

// nearestDistance returns the distance from p to the closest lattice point.
func nearestDistance(rows []gridRow, p orb.Point) float64 {
	best := math.Inf(1)
	for _, row := range rows {
		dy := row.y - p[1]
		if math.Abs(dy) >= best {
			continue
		}
		for _, x := range row.xs {
			if d := math.Hypot(x-p[0], dy); d < best {
				best = d
			}
		}
	}
	return best
}

// backfillCorner adds a row through corner c. The corner and the lattice
// columns on that row are added when inside the buffer, unless an existing
// point lies within dedup.
func backfillCorner(rows []gridRow, c orb.Point, padded orb.Bound, fs float64,
	ring orb.Ring, buffer, dedup float64) []gridRow {

	idx := -1
	for i, row := range rows {
		if math.Abs(row.y-c[1]) < 1e-9 {
			idx = i
			break
		}
	}
	if idx == -1 {
		rows = append(rows, gridRow{y: c[1]})
		idx = len(rows) - 1
	}

	if withinBuffer(c, ring, buffer) && nearestDistance(rows, c) > dedup {
		rows[idx].xs = append(rows[idx].xs, c[0])
	}
	for i := 0; ; i++ {
		x := padded.Min[0] + float64(i)*fs
		if x > padded.Max[0] {
			break
		}
		p := orb.Point{x, c[1]}
		if !withinBuffer(p, ring, buffer) {
			continue
		}
		if nearestDistance(rows, p) <= dedup {
			continue
		}
		rows[idx].xs = append(rows[idx].xs, x)
	}

	if len(rows[idx].xs) == 0 {
		return append(rows[:idx], rows[idx+1:]...)
	}
	sort.Float64s(rows[idx].xs)
	return rows
}

// extremeVertices returns the vertices of r with the smallest and largest x
// and y.
func extremeVertices(r orb.Ring) []orb.Point {
	if len(r) == 0 {
		return nil
	}
	minX, maxX, minY, maxY := r[0], r[0], r[0], r[0]
	for _, p := range r[1:] {
		switch {
		case p[0] < minX[0]:
			minX = p
		case p[0] > maxX[0]:
			maxX = p
		}
		switch {
		case p[1] < minY[1]:
			minY = p
		case p[1] > maxY[1]:
			maxY = p
		}
	}
	return []orb.Point{minX, maxX, minY, maxY}
}
