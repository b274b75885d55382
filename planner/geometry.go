package planner

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// segmentsIntersect checks if segments p1-p2 and p3-p4 intersect.
// Segments sharing an endpoint are not considered intersecting.
func segmentsIntersect(p1, p2, p3, p4 orb.Point) bool {
	if p1 == p3 || p1 == p4 || p2 == p3 || p2 == p4 {
		return false
	}

	d1 := direction(p3, p4, p1)
	d2 := direction(p3, p4, p2)
	d3 := direction(p1, p2, p3)
	d4 := direction(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// Collinear cases
	if d1 == 0 && onSegment(p3, p4, p1) {
		return true
	}
	if d2 == 0 && onSegment(p3, p4, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, p3) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, p4) {
		return true
	}

	return false
}

// direction calculates the cross product to determine orientation
func direction(p1, p2, p3 orb.Point) float64 {
	return (p3[0]-p1[0])*(p2[1]-p1[1]) - (p2[0]-p1[0])*(p3[1]-p1[1])
}

// onSegment checks if point q lies within the bounding box of segment pr
func onSegment(p, r, q orb.Point) bool {
	return q[0] <= math.Max(p[0], r[0]) && q[0] >= math.Min(p[0], r[0]) &&
		q[1] <= math.Max(p[1], r[1]) && q[1] >= math.Min(p[1], r[1])
}

// closeRing returns a copy of r with consecutive duplicate vertices removed
// and the first vertex repeated at the end.
func closeRing(r orb.Ring) orb.Ring {
	out := make(orb.Ring, 0, len(r)+1)
	for _, p := range r {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	if len(out) > 0 {
		out = append(out, out[0])
	}
	return out
}

// validateRing checks a ring has at least 3 distinct vertices and does not
// intersect itself. It returns the ring closed and deduplicated.
func validateRing(r orb.Ring) (orb.Ring, error) {
	for _, p := range r {
		if !isFinite(p[0]) || !isFinite(p[1]) {
			return nil, fmt.Errorf("%w: non-finite coordinate", ErrInvalidPolygon)
		}
	}

	ring := closeRing(r)
	if len(ring) < 4 {
		return nil, fmt.Errorf("%w: ring needs at least 3 distinct vertices, got %d",
			ErrInvalidPolygon, max(len(ring)-1, 0))
	}

	n := len(ring) - 1 // edges
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // adjacent through the closing vertex
			}
			if segmentsIntersect(ring[i], ring[i+1], ring[j], ring[j+1]) {
				return nil, fmt.Errorf("%w: ring self-intersects between edges %d and %d",
					ErrInvalidPolygon, i, j)
			}
		}
	}
	return ring, nil
}

// distanceToRing returns the distance from p to the nearest edge of r.
func distanceToRing(p orb.Point, r orb.Ring) float64 {
	best := math.Inf(1)
	for i := 0; i < len(r)-1; i++ {
		if d := planar.DistanceFromSegment(r[i], r[i+1], p); d < best {
			best = d
		}
	}
	return best
}

// withinBuffer reports whether p lies in r grown outward by distance d.
func withinBuffer(p orb.Point, r orb.Ring, d float64) bool {
	if planar.RingContains(r, p) {
		return true
	}
	return distanceToRing(p, r) <= d
}

// rotatePoint rotates p counter-clockwise by deg degrees about center.
func rotatePoint(p, center orb.Point, deg float64) orb.Point {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	dx := p[0] - center[0]
	dy := p[1] - center[1]
	return orb.Point{
		center[0] + dx*cos - dy*sin,
		center[1] + dx*sin + dy*cos,
	}
}

func rotateRing(r orb.Ring, center orb.Point, deg float64) orb.Ring {
	out := make(orb.Ring, len(r))
	for i, p := range r {
		out[i] = rotatePoint(p, center, deg)
	}
	return out
}

// normalizeAngle maps an angle in degrees to [-180, 180].
func normalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a > 180 {
		a -= 360
	} else if a < -180 {
		a += 360
	}
	return a
}
