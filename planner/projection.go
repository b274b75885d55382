package planner

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// maxLatitude bounds the latitudes the Mercator-based projection accepts.
const maxLatitude = 85.0

// Projection maps lon/lat degrees to a local planar frame in metres and back.
// It is spherical Mercator scaled by cos(origin latitude) and shifted so the
// origin sits at (0, 0); distances are true metres near the origin.
type Projection struct {
	origin orb.Point // mercator coordinates of the origin
	scale  float64
}

// NewProjection returns a projection centred on the lon/lat origin.
func NewProjection(origin orb.Point) (Projection, error) {
	if err := checkLonLat(origin); err != nil {
		return Projection{}, err
	}
	return Projection{
		origin: project.WGS84.ToMercator(origin),
		scale:  math.Cos(origin[1] * math.Pi / 180),
	}, nil
}

// ProjectionFor returns a projection centred on the bounding box of the polygon.
func ProjectionFor(poly orb.Polygon) (Projection, error) {
	if len(poly) == 0 || len(poly[0]) == 0 {
		return Projection{}, fmt.Errorf("%w: empty polygon", ErrInvalidPolygon)
	}
	return NewProjection(poly[0].Bound().Center())
}

// ToPlanar projects a lon/lat point to planar metres.
func (p Projection) ToPlanar(pt orb.Point) orb.Point {
	m := project.WGS84.ToMercator(pt)
	return orb.Point{(m[0] - p.origin[0]) * p.scale, (m[1] - p.origin[1]) * p.scale}
}

// ToGeographic is the inverse of ToPlanar.
func (p Projection) ToGeographic(pt orb.Point) orb.Point {
	m := orb.Point{pt[0]/p.scale + p.origin[0], pt[1]/p.scale + p.origin[1]}
	return project.Mercator.ToWGS84(m)
}

// Ring projects every vertex of a lon/lat ring.
func (p Projection) Ring(r orb.Ring) orb.Ring {
	out := make(orb.Ring, len(r))
	for i, pt := range r {
		out[i] = p.ToPlanar(pt)
	}
	return out
}

func checkLonLat(pt orb.Point) error {
	lon, lat := pt.Lon(), pt.Lat()
	if !isFinite(lon) || !isFinite(lat) {
		return fmt.Errorf("%w: non-finite coordinate", ErrInvalidPolygon)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %g out of range", ErrInvalidPolygon, lon)
	}
	if lat < -maxLatitude || lat > maxLatitude {
		return fmt.Errorf("%w: latitude %g outside +/-%g", ErrInvalidPolygon, lat, maxLatitude)
	}
	return nil
}

func checkRingLonLat(r orb.Ring) error {
	for _, pt := range r {
		if err := checkLonLat(pt); err != nil {
			return err
		}
	}
	return nil
}
