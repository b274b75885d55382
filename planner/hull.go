package planner

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// convexHull computes the convex hull of points with Andrew's monotone chain.
// The hull is returned counter-clockwise and open (first vertex not repeated).
func convexHull(points []orb.Point) []orb.Point {
	pts := make([]orb.Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})

	unique := pts[:0]
	for i, p := range pts {
		if i > 0 && p == pts[i-1] {
			continue
		}
		unique = append(unique, p)
	}
	pts = unique
	if len(pts) < 3 {
		return pts
	}

	hull := make([]orb.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && crossProduct(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && crossProduct(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// crossProduct calculates the cross product of vectors (b-a) and (c-a)
func crossProduct(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// RotatedRectangle is an oriented bounding rectangle.
type RotatedRectangle struct {
	Corners [4]orb.Point
	Angle   float64 // degrees of the first edge (Corners[0] -> Corners[1])
	Width   float64 // length along Angle
	Height  float64 // length perpendicular to Angle
}

// Area returns the rectangle's area.
func (r RotatedRectangle) Area() float64 {
	return r.Width * r.Height
}

// LongestEdgeAngle returns the direction of the rectangle's longest edge in
// degrees, normalised to [-180, 180].
func (r RotatedRectangle) LongestEdgeAngle() float64 {
	if r.Height > r.Width {
		return normalizeAngle(r.Angle + 90)
	}
	return normalizeAngle(r.Angle)
}

// MinimumRotatedRectangle finds the minimum-area rectangle enclosing the
// points. One side of the optimal rectangle is collinear with a hull edge,
// so only hull edge directions are tried.
func MinimumRotatedRectangle(points []orb.Point) (RotatedRectangle, bool) {
	hull := convexHull(points)
	if len(hull) < 3 {
		return RotatedRectangle{}, false
	}

	best := RotatedRectangle{}
	bestArea := math.Inf(1)
	for i := range hull {
		a, b := hull[i], hull[(i+1)%len(hull)]
		ex, ey := b[0]-a[0], b[1]-a[1]
		length := math.Hypot(ex, ey)
		if length == 0 {
			continue
		}
		ux, uy := ex/length, ey/length // along edge
		vx, vy := -uy, ux              // perpendicular

		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			u := p[0]*ux + p[1]*uy
			v := p[0]*vx + p[1]*vy
			minU, maxU = math.Min(minU, u), math.Max(maxU, u)
			minV, maxV = math.Min(minV, v), math.Max(maxV, v)
		}

		area := (maxU - minU) * (maxV - minV)
		if area < bestArea {
			bestArea = area
			corner := func(u, v float64) orb.Point {
				return orb.Point{u*ux + v*vx, u*uy + v*vy}
			}
			best = RotatedRectangle{
				Corners: [4]orb.Point{
					corner(minU, minV), corner(maxU, minV),
					corner(maxU, maxV), corner(minU, maxV),
				},
				Angle:  math.Atan2(uy, ux) * 180 / math.Pi,
				Width:  maxU - minU,
				Height: maxV - minV,
			}
		}
	}
	return best, !math.IsInf(bestArea, 1)
}

// LongestEdgeAngle returns the flight-line angle that aligns rows with the
// longest edge of the ring's minimum rotated rectangle. Degenerate rings yield 0.
func LongestEdgeAngle(r orb.Ring) float64 {
	rect, ok := MinimumRotatedRectangle(r)
	if !ok {
		return 0
	}
	return rect.LongestEdgeAngle()
}
