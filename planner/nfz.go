package planner

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// FilterNoFlyZones drops every path point that lies inside a zone. Order is
// preserved and no replacement points are synthesised.
func FilterNoFlyZones(path []PathPoint, zones []orb.Ring) []PathPoint {
	return filterWithIndex(path, NewZoneIndex(removeContainedZones(zones)))
}

func filterWithIndex(path []PathPoint, index *ZoneIndex) []PathPoint {
	if index.Len() == 0 {
		return path
	}
	out := make([]PathPoint, 0, len(path))
	for _, p := range path {
		if index.Contains(p.Point) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// removeContainedZones drops zones lying entirely inside another zone. They
// cannot change the filter result and only cost index lookups.
func removeContainedZones(zones []orb.Ring) []orb.Ring {
	if len(zones) <= 1 {
		return zones
	}

	contained := make([]bool, len(zones))
	for i := range zones {
		if contained[i] {
			continue
		}
		for j := range zones {
			if i == j || contained[j] {
				continue
			}
			if ringContainedIn(zones[i], zones[j]) {
				contained[i] = true
				break
			}
			if ringContainedIn(zones[j], zones[i]) {
				contained[j] = true
			}
		}
	}

	result := make([]orb.Ring, 0, len(zones))
	for i, z := range zones {
		if !contained[i] {
			result = append(result, z)
		}
	}
	return result
}

// ringContainedIn reports whether a lies inside b: every vertex of a is inside
// b and no edges cross.
func ringContainedIn(a, b orb.Ring) bool {
	if len(a) < 3 || len(b) < 3 {
		return false
	}
	ba, bb := a.Bound(), b.Bound()
	if !bb.Contains(ba.Min) || !bb.Contains(ba.Max) {
		return false
	}
	for _, v := range a {
		if !planar.RingContains(b, v) {
			return false
		}
	}
	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			if segmentsIntersect(a[i], a[i+1], b[j], b[j+1]) {
				return false
			}
		}
	}
	return true
}
