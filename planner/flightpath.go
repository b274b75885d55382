package planner

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Waypoint is a geographic flight path position returned to callers.
type Waypoint struct {
	Coordinates orb.Point // lon/lat, WGS84
	Index       int
	Heading     float64 // compass degrees in [-180, 180]
	TakePhoto   bool
	GimbalAngle GimbalAngle
	Kind        PointKind

	// Set by later stages (Placemarks, terrain sampling, ApplyTerrainAltitude).
	Altitude  *float64
	Speed     *float64
	Elevation *float64
}

// Options tunes a Planner. Zero values select the defaults.
type Options struct {
	CornerDedupFactor    float64
	OutsideDropThreshold int
	MaxGridPoints        int
	Logger               *slog.Logger
}

// Planner turns areas of interest into waypoint sequences. It holds no
// per-request state and is safe for concurrent use.
type Planner struct {
	opts Options
	log  *slog.Logger
}

// New creates a planner.
func New(opts Options) *Planner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Planner{opts: opts, log: logger}
}

var defaultPlanner = New(Options{})

// GenerateFlightpath plans a flight over aoi with the default planner.
func GenerateFlightpath(aoi orb.Polygon, spacing DerivedSpacing, params FlightParameters, noFlyZones []orb.Polygon) ([]Waypoint, error) {
	return defaultPlanner.GenerateFlightpath(aoi, spacing, params, noFlyZones)
}

// GenerateFlightpath builds the coverage grid for the outer ring of aoi,
// orders it into a path, removes points inside no-fly zones and returns the
// result in lon/lat. An area too small for any grid point yields no waypoints.
func (p *Planner) GenerateFlightpath(aoi orb.Polygon, spacing DerivedSpacing, params FlightParameters, noFlyZones []orb.Polygon) ([]Waypoint, error) {
	if len(aoi) == 0 {
		return nil, fmt.Errorf("%w: area of interest has no rings", ErrInvalidPolygon)
	}
	if err := checkRingLonLat(aoi[0]); err != nil {
		return nil, fmt.Errorf("area of interest: %w", err)
	}
	geoRing, err := validateRing(aoi[0])
	if err != nil {
		return nil, fmt.Errorf("area of interest: %w", err)
	}
	if !isFinite(params.RotationAngle) {
		return nil, fmt.Errorf("%w: rotation_angle must be finite", ErrInvalidParameter)
	}

	proj, err := NewProjection(geoRing.Bound().Center())
	if err != nil {
		return nil, err
	}
	ring := proj.Ring(geoRing)

	for i, z := range noFlyZones {
		if len(z) == 0 {
			continue
		}
		if err := checkRingLonLat(z[0]); err != nil {
			return nil, fmt.Errorf("no-fly zone %d: %w", i, err)
		}
	}

	grid, err := GenerateGrid(ring, GridOptions{
		ForwardSpacing:    spacing.ForwardSpacing,
		SideSpacing:       spacing.SideSpacing,
		Rotation:          params.RotationAngle,
		AutoRotate:        params.RotationAngle == 0,
		SideOverlap:       params.SideOverlap,
		CornerDedupFactor: p.opts.CornerDedupFactor,
		MaxPoints:         p.opts.MaxGridPoints,
	})
	if err != nil {
		return nil, err
	}
	p.log.Debug("grid generated",
		slog.Int("points", len(grid.Points)),
		slog.Float64("rotation", grid.Rotation),
		slog.Float64("forward_spacing", spacing.ForwardSpacing),
		slog.Float64("side_spacing", spacing.SideSpacing))

	var takeOff *orb.Point
	if params.TakeOffPoint != nil {
		if err := checkLonLat(*params.TakeOffPoint); err != nil {
			return nil, fmt.Errorf("take-off point: %w", err)
		}
		t := proj.ToPlanar(*params.TakeOffPoint)
		takeOff = &t
	}

	gimbal := params.GimbalAngle
	if gimbal == 0 {
		gimbal = GimbalNadir
	}

	path := BuildPath(grid.Points, PathOptions{
		ForwardSpacing:       spacing.ForwardSpacing,
		Rotation:             grid.Rotation,
		Polygon:              ring,
		TakeOffPoint:         takeOff,
		Mode:                 params.Mode,
		GimbalAngle:          gimbal,
		OutsideDropThreshold: p.opts.OutsideDropThreshold,
	})
	zones, err := p.relevantZones(noFlyZones, path, proj)
	if err != nil {
		return nil, err
	}
	before := len(path)
	path = FilterNoFlyZones(path, zones)
	p.log.Debug("path built",
		slog.Int("points", len(path)),
		slog.Int("no_fly_removed", before-len(path)),
		slog.String("mode", params.Mode.String()))

	waypoints := make([]Waypoint, len(path))
	for i, pp := range path {
		waypoints[i] = Waypoint{
			Coordinates: proj.ToGeographic(pp.Point),
			Index:       i,
			Heading:     pp.Heading.CompassHeading(grid.Rotation),
			TakePhoto:   pp.TakePhoto,
			GimbalAngle: pp.GimbalAngle,
			Kind:        pp.Kind,
		}
	}
	if len(waypoints) > 1 && waypoints[0].Kind == KindTakeOff {
		waypoints[0].Heading = normalizeAngle(geo.Bearing(waypoints[0].Coordinates, waypoints[1].Coordinates))
	}
	return waypoints, nil
}

// relevantZones validates and projects the zones whose bounds overlap the
// path. Zones elsewhere cannot remove a point and are skipped unchecked.
func (p *Planner) relevantZones(noFlyZones []orb.Polygon, path []PathPoint, proj Projection) ([]orb.Ring, error) {
	if len(noFlyZones) == 0 || len(path) == 0 {
		return nil, nil
	}
	pathBound := orb.Bound{Min: proj.ToGeographic(path[0].Point), Max: proj.ToGeographic(path[0].Point)}
	for _, pp := range path[1:] {
		pathBound = pathBound.Extend(proj.ToGeographic(pp.Point))
	}

	zones := make([]orb.Ring, 0, len(noFlyZones))
	skipped := 0
	for i, z := range noFlyZones {
		if len(z) == 0 {
			continue
		}
		if !z[0].Bound().Intersects(pathBound) {
			skipped++
			continue
		}
		zr, err := validateRing(z[0])
		if err != nil {
			return nil, fmt.Errorf("no-fly zone %d: %w", i, err)
		}
		zones = append(zones, proj.Ring(zr))
	}
	if skipped > 0 {
		p.log.Debug("no-fly zones outside the path skipped", slog.Int("zones", skipped))
	}
	return zones, nil
}

// Placemarks returns a copy of waypoints with altitude set to the flight AGL
// and speed to the derived ground speed.
func Placemarks(waypoints []Waypoint, spacing DerivedSpacing) []Waypoint {
	out := make([]Waypoint, len(waypoints))
	for i, wp := range waypoints {
		alt, speed := spacing.AGL, spacing.GroundSpeed
		wp.Altitude = &alt
		wp.Speed = &speed
		out[i] = wp
	}
	return out
}

// SimplifyTerrainWaypoints simplifies a terrain-following waypoint sequence
// whose elevations have been sampled. The retained waypoints are reindexed.
func SimplifyTerrainWaypoints(waypoints []Waypoint, threshold float64) ([]Waypoint, error) {
	if len(waypoints) == 0 {
		return nil, nil
	}

	bound := orb.MultiPoint{}
	for i, wp := range waypoints {
		if wp.Elevation == nil {
			return nil, fmt.Errorf("%w: waypoint %d has no elevation", ErrInvalidParameter, i)
		}
		if err := checkLonLat(wp.Coordinates); err != nil {
			return nil, fmt.Errorf("waypoint %d: %w", i, err)
		}
		bound = append(bound, wp.Coordinates)
	}

	proj, err := NewProjection(bound.Bound().Center())
	if err != nil {
		return nil, err
	}
	dense := make([]TerrainPoint, len(waypoints))
	for i, wp := range waypoints {
		dense[i] = TerrainPoint{
			Point:     proj.ToPlanar(wp.Coordinates),
			Elevation: *wp.Elevation,
			Heading:   wp.Heading,
		}
	}

	kept, err := simplifyIndexes(dense, threshold)
	if err != nil {
		return nil, err
	}
	out := make([]Waypoint, len(kept))
	for i, idx := range kept {
		out[i] = waypoints[idx]
		out[i].Index = i
	}
	return out, nil
}

// ApplyTerrainAltitude sets each waypoint's altitude, relative to the takeoff
// ground, so the drone holds agl metres above the sampled terrain.
func ApplyTerrainAltitude(waypoints []Waypoint, agl, takeOffElevation float64) ([]Waypoint, error) {
	if !isFinite(agl) || agl <= 0 {
		return nil, fmt.Errorf("%w: agl must be > 0, got %g", ErrInvalidParameter, agl)
	}
	out := make([]Waypoint, len(waypoints))
	for i, wp := range waypoints {
		if wp.Elevation == nil {
			return nil, fmt.Errorf("%w: waypoint %d has no elevation", ErrInvalidParameter, i)
		}
		alt := *wp.Elevation + agl - takeOffElevation
		wp.Altitude = &alt
		out[i] = wp
	}
	return out, nil
}
