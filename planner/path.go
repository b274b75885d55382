package planner

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// DefaultOutsideDropThreshold is the number of points outside the area an
// interior row may have before its first and last outside points are dropped.
const DefaultOutsideDropThreshold = 2

// Mode selects dense per-point photo triggers or sparse waylines.
type Mode int

const (
	ModeWaypoints Mode = iota
	ModeWaylines
)

func (m Mode) String() string {
	if m == ModeWaylines {
		return "waylines"
	}
	return "waypoints"
}

// ParseMode parses "waypoints" or "waylines". The empty string means waypoints.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "waypoints":
		return ModeWaypoints, nil
	case "waylines":
		return ModeWaylines, nil
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidParameter, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// GimbalAngle is the camera pitch in degrees, -90 pointing straight down.
type GimbalAngle float64

const (
	GimbalNadir    GimbalAngle = -90
	GimbalOffNadir GimbalAngle = -80
	GimbalOblique  GimbalAngle = -45
)

// PointKind tells why a path point exists.
type PointKind int

const (
	KindPhoto PointKind = iota
	KindLeadIn
	KindLeadOut
	KindTakeOff
)

func (k PointKind) String() string {
	switch k {
	case KindLeadIn:
		return "lead_in"
	case KindLeadOut:
		return "lead_out"
	case KindTakeOff:
		return "take_off"
	}
	return "photo"
}

// PathPoint is an ordered flight path position in the planar frame.
type PathPoint struct {
	Point       orb.Point
	Heading     RowHeading
	Kind        PointKind
	TakePhoto   bool
	GimbalAngle GimbalAngle
	Segment     int // row segment, -1 for the takeoff point
	Index       int
}

// PathOptions configures BuildPath.
type PathOptions struct {
	ForwardSpacing float64
	Rotation       float64  // the grid's resolved rotation in degrees
	Polygon        orb.Ring // un-buffered area; nil disables edge filtering
	TakeOffPoint   *orb.Point
	Mode           Mode
	GimbalAngle    GimbalAngle

	OutsideDropThreshold int // 0 = DefaultOutsideDropThreshold
}

// BuildPath orders grid points into a lawnmower path: rows become segments,
// return rows are reversed, each segment gets a lead-in and lead-out point.
func BuildPath(points []GridPoint, opts PathOptions) []PathPoint {
	segments := splitSegments(points)
	if len(segments) == 0 {
		return nil
	}

	threshold := opts.OutsideDropThreshold
	if threshold <= 0 {
		threshold = DefaultOutsideDropThreshold
	}
	var polygon orb.Ring
	if len(opts.Polygon) > 0 {
		polygon = closeRing(opts.Polygon)
	}

	outbound := rotatePoint(orb.Point{1, 0}, orb.Point{0, 0}, opts.Rotation)

	var path []PathPoint
	for s, seg := range segments {
		if seg[0].Heading == Return {
			seg = reversed(seg)
		}
		if polygon != nil && s > 0 && s < len(segments)-1 {
			seg = dropStrayPoints(seg, polygon, threshold)
		}

		dir := outbound
		if seg[0].Heading == Return {
			dir = orb.Point{-dir[0], -dir[1]}
		}
		heading := seg[0].Heading
		first, last := seg[0].Point, seg[len(seg)-1].Point

		path = append(path, PathPoint{
			Point:   orb.Point{first[0] - dir[0]*opts.ForwardSpacing, first[1] - dir[1]*opts.ForwardSpacing},
			Heading: heading,
			Kind:    KindLeadIn,
			Segment: s,
		})
		for _, gp := range seg {
			path = append(path, PathPoint{
				Point:     gp.Point,
				Heading:   heading,
				Kind:      KindPhoto,
				TakePhoto: true,
				Segment:   s,
			})
		}
		path = append(path, PathPoint{
			Point:   orb.Point{last[0] + dir[0]*opts.ForwardSpacing, last[1] + dir[1]*opts.ForwardSpacing},
			Heading: heading,
			Kind:    KindLeadOut,
			Segment: s,
		})
	}

	if opts.TakeOffPoint != nil {
		path = withTakeOff(path, *opts.TakeOffPoint)
	}
	if opts.Mode == ModeWaylines {
		path = RemoveMiddlePoints(path)
	}

	for i := range path {
		path[i].GimbalAngle = opts.GimbalAngle
		path[i].Index = i
	}
	return path
}

// RemoveMiddlePoints keeps the first and last point of every segment and
// clears all photo triggers, turning a waypoint mission into waylines.
func RemoveMiddlePoints(path []PathPoint) []PathPoint {
	out := make([]PathPoint, 0, len(path))
	for i := 0; i < len(path); {
		j := i
		for j+1 < len(path) && path[j+1].Segment == path[i].Segment {
			j++
		}
		out = append(out, path[i])
		if j > i {
			out = append(out, path[j])
		}
		i = j + 1
	}
	for i := range out {
		out[i].TakePhoto = false
	}
	return out
}

// splitSegments groups consecutive points sharing a heading.
func splitSegments(points []GridPoint) [][]GridPoint {
	var segments [][]GridPoint
	for i := 0; i < len(points); {
		j := i
		for j < len(points) && points[j].Heading == points[i].Heading {
			j++
		}
		segments = append(segments, points[i:j])
		i = j
	}
	return segments
}

func reversed(seg []GridPoint) []GridPoint {
	out := make([]GridPoint, len(seg))
	for i, p := range seg {
		out[len(seg)-1-i] = p
	}
	return out
}

// dropStrayPoints removes the first and last point outside polygon when a
// segment has more than threshold such points.
func dropStrayPoints(seg []GridPoint, polygon orb.Ring, threshold int) []GridPoint {
	var outside []int
	for i, gp := range seg {
		if !planar.RingContains(polygon, gp.Point) {
			outside = append(outside, i)
		}
	}
	if len(outside) <= threshold {
		return seg
	}

	drop := map[int]bool{outside[0]: true, outside[len(outside)-1]: true}
	out := make([]GridPoint, 0, len(seg)-2)
	for i, gp := range seg {
		if !drop[i] {
			out = append(out, gp)
		}
	}
	return out
}

// withTakeOff reverses the path when the takeoff point is nearer its end and
// prepends the takeoff point.
func withTakeOff(path []PathPoint, takeOff orb.Point) []PathPoint {
	if len(path) == 0 {
		return path
	}

	if planar.Distance(takeOff, path[len(path)-1].Point) < planar.Distance(takeOff, path[0].Point) {
		flipped := make([]PathPoint, len(path))
		for i, p := range path {
			p.Heading = p.Heading.Flip()
			switch p.Kind {
			case KindLeadIn:
				p.Kind = KindLeadOut
			case KindLeadOut:
				p.Kind = KindLeadIn
			}
			flipped[len(path)-1-i] = p
		}
		path = flipped
	}

	out := make([]PathPoint, 0, len(path)+1)
	out = append(out, PathPoint{
		Point:   takeOff,
		Heading: path[0].Heading,
		Kind:    KindTakeOff,
		Segment: -1,
	})
	return append(out, path...)
}
