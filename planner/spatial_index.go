package planner

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// pointTolerance is the side length of the query box used for point lookups.
const pointTolerance = 1e-9

// zoneEntry wraps a ring for R-tree storage
type zoneEntry struct {
	ring orb.Ring
	bbox rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (z *zoneEntry) Bounds() rtreego.Rect {
	return z.bbox
}

// ZoneIndex answers point-in-zone queries against a set of planar rings.
type ZoneIndex struct {
	tree  *rtreego.Rtree
	count int
}

// NewZoneIndex builds an R-tree over the bounding boxes of the rings.
// Rings with fewer than 3 vertices or a degenerate bounding box are skipped.
func NewZoneIndex(rings []orb.Ring) *ZoneIndex {
	tree := rtreego.NewTree(2, 25, 50) // 2D, min 25, max 50 entries per node

	count := 0
	for _, r := range rings {
		ring := closeRing(r)
		if len(ring) < 4 {
			continue
		}
		bbox, err := ringRect(ring)
		if err != nil {
			continue
		}
		tree.Insert(&zoneEntry{ring: ring, bbox: bbox})
		count++
	}

	return &ZoneIndex{tree: tree, count: count}
}

// Len returns the number of indexed zones.
func (z *ZoneIndex) Len() int {
	return z.count
}

// Contains reports whether p falls inside any indexed zone.
func (z *ZoneIndex) Contains(p orb.Point) bool {
	if z.count == 0 {
		return false
	}
	query := rtreego.Point{p[0], p[1]}.ToRect(pointTolerance)
	for _, item := range z.tree.SearchIntersect(query) {
		if planar.RingContains(item.(*zoneEntry).ring, p) {
			return true
		}
	}
	return false
}

// ringRect computes the axis-aligned bounding box for a ring
func ringRect(r orb.Ring) (rtreego.Rect, error) {
	b := r.Bound()
	return rtreego.NewRect(
		rtreego.Point{b.Min[0], b.Min[1]},
		[]float64{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1]},
	)
}
