package planner

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DecodePolygons reads every Polygon and MultiPolygon from GeoJSON data. The
// data may be a FeatureCollection, a Feature or a bare geometry.
func DecodePolygons(data []byte) ([]orb.Polygon, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}

	var geometries []orb.Geometry
	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parse feature collection: %w", err)
		}
		for _, f := range fc.Features {
			geometries = append(geometries, f.Geometry)
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("parse feature: %w", err)
		}
		geometries = append(geometries, f.Geometry)
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("parse geometry: %w", err)
		}
		geometries = append(geometries, g.Geometry())
	}

	var polygons []orb.Polygon
	for _, g := range geometries {
		switch g := g.(type) {
		case orb.Polygon:
			if len(g) > 0 {
				polygons = append(polygons, g)
			}
		case orb.MultiPolygon:
			for _, p := range g {
				if len(p) > 0 {
					polygons = append(polygons, p)
				}
			}
		}
	}
	return polygons, nil
}

// DecodeAOI returns the first polygon of GeoJSON data.
func DecodeAOI(data []byte) (orb.Polygon, error) {
	polygons, err := DecodePolygons(data)
	if err != nil {
		return nil, err
	}
	if len(polygons) == 0 {
		return nil, fmt.Errorf("%w: no polygon in area of interest", ErrInvalidPolygon)
	}
	return polygons[0], nil
}

// LoadNoFlyZonesFromDir loads the polygons of every *.geojson file in dir.
// Files that cannot be read or parsed, and polygons whose outer ring is not a
// valid lon/lat ring, are skipped with a warning.
func LoadNoFlyZonesFromDir(dir string, logger *slog.Logger) ([]orb.Polygon, error) {
	if logger == nil {
		logger = slog.Default()
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.geojson"))
	if err != nil {
		return nil, err
	}

	var all []orb.Polygon
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			logger.Warn("failed to read no-fly zone file", slog.String("file", file), slog.Any("error", err))
			continue
		}
		polygons, err := DecodePolygons(data)
		if err != nil {
			logger.Warn("failed to parse no-fly zone file", slog.String("file", file), slog.Any("error", err))
			continue
		}
		loaded := 0
		for i, poly := range polygons {
			zone, err := validZone(poly)
			if err != nil {
				logger.Warn("skipping invalid no-fly zone",
					slog.String("file", file), slog.Int("polygon", i), slog.Any("error", err))
				continue
			}
			all = append(all, zone)
			loaded++
		}
		logger.Info("loaded no-fly zones", slog.String("file", filepath.Base(file)), slog.Int("polygons", loaded))
	}
	return all, nil
}

// validZone checks the outer ring of poly and returns the polygon with that
// ring closed.
func validZone(poly orb.Polygon) (orb.Polygon, error) {
	if len(poly) == 0 {
		return nil, fmt.Errorf("%w: polygon has no rings", ErrInvalidPolygon)
	}
	if err := checkRingLonLat(poly[0]); err != nil {
		return nil, err
	}
	ring, err := validateRing(poly[0])
	if err != nil {
		return nil, err
	}
	out := append(orb.Polygon{ring}, poly[1:]...)
	return out, nil
}

// EncodeGeoJSON writes waypoints as a FeatureCollection of Points.
func EncodeGeoJSON(waypoints []Waypoint) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, wp := range waypoints {
		f := geojson.NewFeature(wp.Coordinates)
		f.Properties["index"] = wp.Index
		f.Properties["heading"] = wp.Heading
		f.Properties["take_photo"] = wp.TakePhoto
		f.Properties["gimbal_angle"] = float64(wp.GimbalAngle)
		f.Properties["kind"] = wp.Kind.String()
		if wp.Altitude != nil {
			f.Properties["altitude"] = *wp.Altitude
		}
		if wp.Speed != nil {
			f.Properties["speed"] = *wp.Speed
		}
		if wp.Elevation != nil {
			f.Properties["elevation"] = *wp.Elevation
		}
		fc.Append(f)
	}
	return fc.MarshalJSON()
}

// DecodeWaypoints reads a FeatureCollection of Points written by EncodeGeoJSON,
// typically after an elevation property has been sampled for each point.
func DecodeWaypoints(data []byte) ([]Waypoint, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse feature collection: %w", err)
	}

	waypoints := make([]Waypoint, 0, len(fc.Features))
	for i, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			return nil, fmt.Errorf("%w: feature %d is not a Point", ErrInvalidParameter, i)
		}
		wp := Waypoint{
			Coordinates: pt,
			Index:       i,
			GimbalAngle: GimbalNadir,
		}
		if v, ok := numberProp(f.Properties, "index"); ok {
			wp.Index = int(v)
		}
		if v, ok := numberProp(f.Properties, "heading"); ok {
			wp.Heading = v
		}
		if v, ok := f.Properties["take_photo"].(bool); ok {
			wp.TakePhoto = v
		}
		if v, ok := numberProp(f.Properties, "gimbal_angle"); ok {
			wp.GimbalAngle = GimbalAngle(v)
		}
		if v, ok := f.Properties["kind"].(string); ok {
			wp.Kind = parseKind(v)
		}
		if v, ok := numberProp(f.Properties, "elevation"); ok {
			wp.Elevation = &v
		}
		if v, ok := numberProp(f.Properties, "altitude"); ok {
			wp.Altitude = &v
		}
		if v, ok := numberProp(f.Properties, "speed"); ok {
			wp.Speed = &v
		}
		waypoints = append(waypoints, wp)
	}
	return waypoints, nil
}

func numberProp(props geojson.Properties, key string) (float64, bool) {
	switch v := props[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func parseKind(s string) PointKind {
	for _, k := range []PointKind{KindLeadIn, KindLeadOut, KindTakeOff} {
		if k.String() == s {
			return k
		}
	}
	return KindPhoto
}
